package codec

import (
	jsoniter "github.com/json-iterator/go"
)

var js = jsoniter.ConfigFastest

// JSON adapts json-iterator to the Codec[T] interface for any struct or
// map record type. Parse failures (malformed documents) return false rather
// than the underlying error, per the ParseError contract.
type JSON[T any] struct{}

func (JSON[T]) Serialize(v T) []byte {
	b, err := js.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func (JSON[T]) Parse(raw []byte, out *T) bool {
	return js.Unmarshal(raw, out) == nil
}

func (JSON[T]) Name() string { return "json" }

// Doc is the dynamic-schema counterpart of JSON[T], used when the shard
// function needs to branch on arbitrary/optional fields (e.g. "has key
// foo?") rather than a fixed struct shape.
type Doc = map[string]any

type JSONDoc struct{}

func (JSONDoc) Serialize(v Doc) []byte {
	b, _ := js.Marshal(v)
	return b
}

func (JSONDoc) Parse(raw []byte, out *Doc) bool {
	return js.Unmarshal(raw, out) == nil
}

func (JSONDoc) Name() string { return "json.doc" }
