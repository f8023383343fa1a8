package codec

import (
	"bytes"

	"github.com/tinylib/msgp/msgp"
)

// Marshaler/Unmarshaler are implemented by msgp-generated types (msgp.Marshaler
// / msgp.Unmarshaler). MsgPack is a compact alternative to JSON for record
// types that already carry generated (de)serialization code.
type msgpRecord interface {
	msgp.Marshaler
	msgp.Unmarshaler
}

type MsgPack[T msgpRecord] struct {
	// New constructs a zero-value T; required because T is typically a
	// pointer type, and the zero value of a pointer is not usable.
	New func() T
}

func (c MsgPack[T]) Serialize(v T) []byte {
	b, err := v.MarshalMsg(nil)
	if err != nil {
		return nil
	}
	return b
}

func (c MsgPack[T]) Parse(raw []byte, out *T) bool {
	if *out == nil {
		if c.New == nil {
			return false
		}
		*out = c.New()
	}
	_, err := (*out).UnmarshalMsg(raw)
	return err == nil
}

func (MsgPack[T]) Name() string { return "msgpack" }

// EncodeMsg streams one msgp record through a msgp.Writer into a
// bytes.Buffer and returns the encoded bytes. No other package in this
// module calls it, and there is no decoding counterpart.
func EncodeMsg(v msgp.Marshaler) ([]byte, error) {
	var buf bytes.Buffer
	w := msgp.NewWriter(&buf)
	if err := v.EncodeMsg(w); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
