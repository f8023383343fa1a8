package codec

// ProtoMessage is satisfied by any generated protobuf message; mr3 treats
// the message schema as opaque (owned by the user program and the external
// protoc-generated package) and only needs these two methods.
type ProtoMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Proto adapts an opaque protobuf message type to Codec[T]. T is normally a
// pointer type implementing ProtoMessage; New must return a freshly
// allocated zero message for Parse to unmarshal into.
type Proto[T ProtoMessage] struct {
	New func() T
}

func (c Proto[T]) Serialize(v T) []byte {
	b, err := v.Marshal()
	if err != nil {
		return nil
	}
	return b
}

func (c Proto[T]) Parse(raw []byte, out *T) bool {
	var zero T
	if any(*out) == any(zero) {
		*out = c.New()
	}
	return (*out).Unmarshal(raw) == nil
}

func (Proto[T]) Name() string { return "protobuf" }
