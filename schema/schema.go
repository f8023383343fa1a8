// Package schema holds the plain-data description of a pipeline: operators,
// inputs and output specs. It is deliberately behavior-free so that both the
// planning layer (package plan) and the execution layer (package destfile,
// mrexec) can depend on it without creating an import cycle between them.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package schema

import "github.com/romange/mr3/cmn/cos"

type WireFormat int

const (
	TEXT WireFormat = iota
	LIST
)

func (f WireFormat) String() string {
	if f == LIST {
		return "LIST"
	}
	return "TEXT"
}

type CompressType int

const (
	NoCompress CompressType = iota
	GZIP
)

type ShardSpecType int

const (
	Constant ShardSpecType = iota
	ModN
	UserDefined
)

// OutputSpec is immutable once the owning operator is frozen into the
// pipeline; it fully determines a destination handle's on-disk layout.
type OutputSpec struct {
	Name          string
	Format        WireFormat
	Compress      CompressType
	CompressLevel int
	ShardSpec     ShardSpecType
	ModN          uint32
	// MaxRawSizeBytes, when non-zero, triggers sub-shard rollover once a
	// shard's accumulated uncompressed size reaches it.
	MaxRawSizeBytes int64
}

func (o OutputSpec) Ext() string {
	if o.Format == LIST {
		return ".lst"
	}
	if o.Compress == GZIP {
		return ".txt.gz"
	}
	return ".txt"
}

type OperatorType int

const (
	Read OperatorType = iota
	Map
	Group
)

func (t OperatorType) String() string {
	switch t {
	case Read:
		return "READ"
	case Map:
		return "MAP"
	case Group:
		return "GROUP"
	default:
		return "UNKNOWN"
	}
}

// FileSpec names one input file: either an unresolved glob (root inputs) or
// a resolved path carrying the shard identity it was produced under
// (outputs of an upstream operator, fed forward by the pipeline driver).
type FileSpec struct {
	Glob     string
	Path     string
	ShardId  cos.ShardId
	HasShard bool
}

type Input struct {
	Name   string
	Format WireFormat
	Files  []FileSpec
}

// Operator is the plan-time record of one pipeline node: its name, type,
// ordered input names, and output spec. Non-READ operators must have at
// least one input; every operator's output name becomes a new Input name.
type Operator struct {
	Name   string
	Type   OperatorType
	Inputs []string
	Output OutputSpec
}
