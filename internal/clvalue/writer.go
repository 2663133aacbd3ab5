package clvalue

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Writer encodes primitives in the same layout Reader consumes.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Framed returns the buffer preceded by its 4-byte little-endian length.
func (w *Writer) Framed() []byte {
	out := make([]byte, 4, 4+len(w.buf))
	binary.LittleEndian.PutUint32(out, uint32(len(w.buf)))
	return append(out, w.buf...)
}

func (w *Writer) WriteU8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) WriteBool(v bool) *Writer {
	if v {
		return w.WriteU8(1)
	}
	return w.WriteU8(0)
}

func (w *Writer) WriteU32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) WriteU64(v uint64) *Writer {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

// WriteU256 writes v with the minimal number of little-endian bytes.
// Values that do not fit 256 bits are an error.
func (w *Writer) WriteU256(v *big.Int) error {
	if v == nil {
		w.buf = append(w.buf, 0)
		return nil
	}
	if v.Sign() < 0 {
		return fmt.Errorf("encode u256: negative value %s", v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return fmt.Errorf("encode u256: %w: %d bits", ErrUnsupportedLength, v.BitLen())
	}
	w.writeVarBytes(u.Bytes())
	return nil
}

// WriteU512 writes v with the minimal number of little-endian bytes.
func (w *Writer) WriteU512(v *big.Int) error {
	if v == nil {
		w.buf = append(w.buf, 0)
		return nil
	}
	if v.Sign() < 0 {
		return fmt.Errorf("encode u512: negative value %s", v)
	}
	if v.BitLen() > 512 {
		return fmt.Errorf("encode u512: %w: %d bits", ErrUnsupportedLength, v.BitLen())
	}
	w.writeVarBytes(v.Bytes())
	return nil
}

func (w *Writer) writeVarBytes(be []byte) {
	w.buf = append(w.buf, uint8(len(be)))
	w.buf = append(w.buf, reverse(be)...)
}

func (w *Writer) WriteString(s string) *Writer {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

// WriteAddress writes a prefixed account or contract hash string.
func (w *Writer) WriteAddress(addr string) error {
	var tag uint8
	var rest string
	switch {
	case strings.HasPrefix(addr, AccountHashPrefix):
		tag, rest = addressTagAccount, strings.TrimPrefix(addr, AccountHashPrefix)
	case strings.HasPrefix(addr, ContractHashPrefix):
		tag, rest = addressTagContract, strings.TrimPrefix(addr, ContractHashPrefix)
	default:
		return fmt.Errorf("encode address %q: %w", addr, ErrUnsupportedTag)
	}
	h, err := hex.DecodeString(rest)
	if err != nil || len(h) != hashLen {
		return fmt.Errorf("encode address %q: invalid hash", addr)
	}
	w.WriteU8(tag)
	w.buf = append(w.buf, h...)
	return nil
}

// WriteRaw appends b unchanged.
func (w *Writer) WriteRaw(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}
