// Package cos provides low-level types shared by every mr3 package: the
// shard identifier, the error taxonomy, and small ID-generation helpers.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"fmt"
	"strconv"

	"github.com/OneOfOne/xxhash"
)

// ShardId is a tagged value: either a modulo-N integer shard or a
// user-supplied string shard. The zero value is the integer shard 0.
type ShardId struct {
	s      string
	n      uint32
	isStr  bool
}

func IntShard(n uint32) ShardId  { return ShardId{n: n} }
func StrShard(s string) ShardId  { return ShardId{s: s, isStr: true} }

func (sid ShardId) IsString() bool { return sid.isStr }
func (sid ShardId) Int() uint32    { return sid.n }
func (sid ShardId) Str() string    { return sid.s }

// Equal reports whether two shard ids name the same partition.
func (sid ShardId) Equal(o ShardId) bool {
	if sid.isStr != o.isStr {
		return false
	}
	if sid.isStr {
		return sid.s == o.s
	}
	return sid.n == o.n
}

// Hash combines the tag and payload so integer shard 3 and string shard "3"
// never collide.
func (sid ShardId) Hash() uint64 {
	if sid.isStr {
		return xxhash.Checksum64S([]byte(sid.s), 1)
	}
	return xxhash.Checksum64S([]byte(strconv.FormatUint(uint64(sid.n), 10)), 2)
}

// String is the canonical stringification used to derive output file names:
// integers render as a 4-digit zero-padded suffix, strings render verbatim.
func (sid ShardId) String() string {
	if sid.isStr {
		return sid.s
	}
	return fmt.Sprintf("%04d", sid.n)
}

// FileBase appends the canonical shard suffix to the operator's output-name
// prefix: "<prefix>-shard-<sid>".
func (sid ShardId) FileBase(prefix string) string {
	return prefix + "-shard-" + sid.String()
}
