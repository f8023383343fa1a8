package codec

// Identity is the codec for raw, untyped records: the wire format used by
// text inputs and by Read->Write pipelines with no transform in between.
type Identity struct{}

func (Identity) Serialize(v string) []byte { return []byte(v) }

func (Identity) Parse(raw []byte, out *string) bool {
	*out = string(raw)
	return true
}

func (Identity) Name() string { return "raw" }

// Bytes is the []byte-valued sibling of Identity, avoiding an extra copy
// through string for handlers that want to work on raw buffers directly.
type Bytes struct{}

func (Bytes) Serialize(v []byte) []byte { return v }

func (Bytes) Parse(raw []byte, out *[]byte) bool {
	*out = append((*out)[:0], raw...)
	return true
}

func (Bytes) Name() string { return "bytes" }
