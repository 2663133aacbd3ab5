package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cusdScope/internal/clvalue"
)

// clType is a CLType with its binary tag encoding and JSON form.
type clType struct {
	bytes []byte
	json  json.RawMessage
}

var simpleTypes = map[string]byte{
	"Bool":   0,
	"U8":     3,
	"U32":    4,
	"U64":    5,
	"U256":   7,
	"U512":   8,
	"String": 10,
	"Key":    11,
}

func simpleType(name string) (clType, error) {
	tag, ok := simpleTypes[name]
	if !ok {
		return clType{}, fmt.Errorf("%w: unsupported cl type %q", ErrInvalidArgument, name)
	}
	raw, _ := json.Marshal(name)
	return clType{bytes: []byte{tag}, json: raw}, nil
}

func byteArrayType(size uint32) clType {
	raw, _ := json.Marshal(map[string]uint32{"ByteArray": size})
	return clType{bytes: clvalue.NewWriter().WriteU8(15).WriteU32(size).Bytes(), json: raw}
}

func listType(inner clType) clType {
	raw, _ := json.Marshal(map[string]json.RawMessage{"List": inner.json})
	return clType{bytes: append([]byte{14}, inner.bytes...), json: raw}
}

// namedValue is a runtime argument ready for encoding.
type namedValue struct {
	name   string
	typ    clType
	value  []byte
	parsed json.RawMessage
}

func (a Arg) namedValue() (namedValue, error) {
	typ, err := simpleType(a.CLType)
	if err != nil {
		return namedValue{}, fmt.Errorf("arg %s: %w", a.Name, err)
	}
	value, err := decodeHex(a.Bytes)
	if err != nil {
		return namedValue{}, fmt.Errorf("arg %s: %w", a.Name, err)
	}
	parsed, _ := json.Marshal(a.Parsed)
	return namedValue{name: a.Name, typ: typ, value: value, parsed: parsed}, nil
}

func (v namedValue) toJSON() NamedArg {
	return NamedArg{Name: v.name, Value: CLValue{
		CLType: v.typ.json,
		Bytes:  hex.EncodeToString(v.value),
		Parsed: v.parsed,
	}}
}

// runtimeArgs encodes args as RuntimeArgs: a u32 count followed by each
// name and CLValue (length-prefixed bytes, then type tag).
func runtimeArgs(args []namedValue) []byte {
	w := clvalue.NewWriter().WriteU32(uint32(len(args)))
	for _, a := range args {
		w.WriteString(a.name)
		w.WriteU32(uint32(len(a.value))).WriteRaw(a.value)
		w.WriteRaw(a.typ.bytes)
	}
	return w.Bytes()
}
