// Package mrexec implements the per-operator execution machinery: the raw
// write path shared by every handler, the typed DoContext user code sees,
// and the Mapper/Joiner state machines that drive I/O workers over an
// operator's input.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package mrexec

import (
	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/destfile"
)

// RawContext is created once per I/O worker goroutine - not per record, not
// per fiber - and is never touched by more than one goroutine at a time. It
// owns that worker's share of the output handle set and counts the parse
// failures its handlers observe.
type RawContext struct {
	set         *destfile.Set
	onFatal     func(error)
	ParseErrors int
}

func NewRawContext(set *destfile.Set, onFatal func(error)) *RawContext {
	return &RawContext{set: set, onFatal: onFatal}
}

// WriteInternal appends the already-serialized record to the handle for
// sid, opening it on first use. This is the one path every DoContext[T]
// funnels through, regardless of T.
func (rc *RawContext) WriteInternal(sid cos.ShardId, record []byte) {
	h := rc.set.GetOrCreate(sid)
	h.Write(record, rc.onFatal)
}

// Flush is a no-op placeholder for handlers that buffer beyond what the
// destination handle itself buffers; none currently do, but Mapper and
// Joiner call it once at the end of each worker's or shard's run.
func (rc *RawContext) Flush() {}
