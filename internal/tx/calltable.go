package tx

import "cusdScope/internal/clvalue"

// envelope builds the node's indexed field layout: a u32 field count, each
// field as (u16 index, u32 offset into the body), then the length-prefixed
// body holding the concatenated field bytes. Fields must be added in index
// order.
type envelope struct {
	indices []uint16
	offsets []uint32
	body    []byte
}

// variant starts an envelope for an enum variant; field 0 is its tag.
func variant(tag uint8) *envelope {
	return new(envelope).add(0, []byte{tag})
}

func (e *envelope) add(index uint16, value []byte) *envelope {
	e.indices = append(e.indices, index)
	e.offsets = append(e.offsets, uint32(len(e.body)))
	e.body = append(e.body, value...)
	return e
}

func (e *envelope) bytes() []byte {
	w := clvalue.NewWriter().WriteU32(uint32(len(e.indices)))
	for i, index := range e.indices {
		w.WriteRaw([]byte{byte(index), byte(index >> 8)}).WriteU32(e.offsets[i])
	}
	return w.WriteU32(uint32(len(e.body))).WriteRaw(e.body).Bytes()
}
