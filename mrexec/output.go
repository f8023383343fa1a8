package mrexec

import (
	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/codec"
	"github.com/romange/mr3/schema"
)

type shardKind int

const (
	shardConstant shardKind = iota
	shardModN
	shardCustom
)

// Output is the typed, user-facing half of an operator's destination: it
// knows how to turn a T into bytes and which shard a given T belongs to.
// The untyped half (schema.OutputSpec) is what the planner and destfile
// package actually act on.
type Output[T any] struct {
	Spec  schema.OutputSpec
	Codec codec.Codec[T]

	kind       shardKind
	constant   cos.ShardId
	modN       uint32
	modFunc    func(T) uint32
	customFunc func(T) cos.ShardId
}

func NewOutput[T any](name string, c codec.Codec[T]) *Output[T] {
	return &Output[T]{
		Spec: schema.OutputSpec{Name: name, Format: schema.TEXT},
		Codec: c,
	}
}

// WithModNSharding routes t to shard f(t) % modn.
func (o *Output[T]) WithModNSharding(modn uint32, f func(T) uint32) *Output[T] {
	o.kind = shardModN
	o.modN = modn
	o.modFunc = f
	o.Spec.ShardSpec = schema.ModN
	o.Spec.ModN = modn
	return o
}

// WithCustomSharding routes t to whatever shard f(t) names, bypassing ModN
// entirely - the user-defined-shard-id case.
func (o *Output[T]) WithCustomSharding(f func(T) cos.ShardId) *Output[T] {
	o.kind = shardCustom
	o.customFunc = f
	o.Spec.ShardSpec = schema.UserDefined
	return o
}

// SetConstantShard pins every record from this output to a single shard;
// the default for operators that don't explicitly shard their output.
func (o *Output[T]) SetConstantShard(sid cos.ShardId) *Output[T] {
	o.kind = shardConstant
	o.constant = sid
	o.Spec.ShardSpec = schema.Constant
	return o
}

func (o *Output[T]) AndCompress(ct schema.CompressType, level int) *Output[T] {
	o.Spec.Compress = ct
	o.Spec.CompressLevel = level
	return o
}

func (o *Output[T]) AsListFile() *Output[T] {
	o.Spec.Format = schema.LIST
	return o
}

func (o *Output[T]) WithMaxRawSize(bytes int64) *Output[T] {
	o.Spec.MaxRawSizeBytes = bytes
	return o
}

// PerShardCopy returns a new Output sharing this one's spec and codec but
// pinned to a constant shard. Joiner workers call this once per shard
// rather than mutating the operator's shared Output, since shards run
// concurrently on different goroutines.
func (o *Output[T]) PerShardCopy(sid cos.ShardId) *Output[T] {
	cp := *o
	cp.kind = shardConstant
	cp.constant = sid
	return &cp
}

// Shard resolves the destination shard for one record.
func (o *Output[T]) Shard(t T) cos.ShardId {
	switch o.kind {
	case shardModN:
		return cos.IntShard(o.modFunc(t) % o.modN)
	case shardCustom:
		return o.customFunc(t)
	default:
		return o.constant
	}
}
