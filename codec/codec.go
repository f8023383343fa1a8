// Package codec implements the per-record-type serialize/parse pair used at
// every handler boundary. Transport between operators is always raw bytes;
// typing is reapplied by a Codec at the point a handler needs it.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package codec

// Codec serializes a value of type T to bytes and parses bytes back into T.
// Parse reports failure as a bool rather than an error: callers increment
// the raw context's parse-error counter and drop the record on false,
// they never propagate a parse failure as a hard error.
type Codec[T any] interface {
	Serialize(v T) []byte
	Parse(raw []byte, out *T) bool
}

// Name identifies a codec for diagnostics (parse-error counters are keyed by
// record type name, not by a generic "parse error" bucket).
type Named interface {
	Name() string
}
