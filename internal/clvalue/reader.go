package clvalue

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/holiman/uint256"
)

var (
	// ErrTruncatedInput is returned when a read would run past the buffer.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrUnsupportedLength is returned when a variable-length integer does
	// not fit the target width.
	ErrUnsupportedLength = errors.New("unsupported integer length")
	// ErrUnsupportedTag is returned for unknown address variants.
	ErrUnsupportedTag = errors.New("unsupported address tag")
)

const (
	AccountHashPrefix  = "account-hash-"
	ContractHashPrefix = "contract-hash-"

	addressTagAccount  = 0
	addressTagContract = 1
	hashLen            = 32
)

// Reader reads little-endian primitives from a byte slice. Every read is
// bounds-checked.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps b. The slice is not copied.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// SkipLengthPrefix consumes the 4-byte outer length prefix without
// checking it against the remaining buffer.
func (r *Reader) SkipLengthPrefix() error {
	_, err := r.take(4)
	return err
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBool reads one byte; any non-zero value is true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadU256 reads a length-prefixed little-endian integer of at most 32 bytes.
func (r *Reader) ReadU256() (*big.Int, error) {
	le, err := r.readVarBytes(32)
	if err != nil {
		return nil, err
	}
	var u uint256.Int
	u.SetBytes(reverse(le))
	return u.ToBig(), nil
}

// ReadU512 reads a length-prefixed little-endian integer of at most 64 bytes.
func (r *Reader) ReadU512() (*big.Int, error) {
	le, err := r.readVarBytes(64)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(reverse(le)), nil
}

func (r *Reader) readVarBytes(max int) ([]byte, error) {
	n, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	if int(n) > max {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrUnsupportedLength, n, max)
	}
	return r.take(int(n))
}

// ReadString reads a u32 length followed by UTF-8 bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(r.Remaining()) {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d", ErrTruncatedInput, n, r.off)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid utf-8 string at offset %d", r.off-int(n))
	}
	return string(b), nil
}

// ReadAddress reads a tagged account or contract hash and renders it with
// its formatted-string prefix.
func (r *Reader) ReadAddress() (string, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return "", err
	}
	var prefix string
	switch tag {
	case addressTagAccount:
		prefix = AccountHashPrefix
	case addressTagContract:
		prefix = ContractHashPrefix
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedTag, tag)
	}
	h, err := r.take(hashLen)
	if err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(h), nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
