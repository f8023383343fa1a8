// Package destfile implements the destination-file manager: one open writer
// per (operator, shard, sub-shard), created lazily, appended to through the
// disk pool, and closed (with optional rollover) as shards fill up.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package destfile

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/cmn/nlog"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/fs"
	"github.com/romange/mr3/listfile"
	"github.com/romange/mr3/schema"
)

// lowSpaceBytes is the free-space threshold below which Open logs a
// warning before creating a new destination file; it does not abort the
// open, since the actual write that hits ENOSPC will surface as a fatal
// OutputWriteError regardless.
const lowSpaceBytes = 64 << 20

// gzip handles flush at gzipFlushTarget plus a per-handle random jitter, so
// many shards writing at similar rates don't all flush in lockstep.
const gzipFlushTarget = 1 << 16

// Handle is one open output writer. Write is non-blocking (it only submits a
// task to the disk pool); Open and Close block the calling goroutine until
// the disk pool has actually performed the syscall.
type Handle struct {
	pool      *diskpool.Pool
	root      string
	out       schema.OutputSpec
	sid       cos.ShardId
	poolIndex int

	totalRecords atomic.Int64 // lifetime counters, never reset by rollover; feed stats.Registry
	totalBytes   atomic.Int64

	mu          sync.Mutex // guards everything below; write path only needs it for gzip staging
	subShard    int
	rawBytes    int64
	f           *os.File
	bw          *bufio.Writer
	gz          *gzip.Writer
	gzUnflushed int
	gzFlushAt   int
	lw          *listfile.Writer
}

func newHandle(pool *diskpool.Pool, root string, out schema.OutputSpec, sid cos.ShardId) *Handle {
	h := &Handle{pool: pool, root: root, out: out, sid: sid}
	h.poolIndex = pool.Index(h.basePath())
	h.gzFlushAt = gzipFlushTarget + rand.Intn(gzipFlushTarget)
	return h
}

func (h *Handle) basePath() string {
	return filepath.Join(h.root, h.sid.FileBase(h.out.Name))
}

// Totals reports the lifetime record/byte counts accepted by this handle,
// unaffected by rollover - the numbers stats.Registry wants at operator end.
func (h *Handle) Totals() (records, bytes int64) {
	return h.totalRecords.Load(), h.totalBytes.Load()
}

// Path returns the path of the sub-shard currently being written.
func (h *Handle) Path() string {
	if h.out.MaxRawSizeBytes > 0 {
		return fmt.Sprintf("%s-%03d%s", h.basePath(), h.subShard, h.out.Ext())
	}
	return h.basePath() + h.out.Ext()
}

// Open creates the underlying file on a disk-pool worker. A failure here is
// unrecoverable (disk full, permission error on a freshly created directory)
// and is reported via onFatal rather than returned, matching the engine's
// fire-and-forget write contract.
func (h *Handle) Open(onFatal func(error)) {
	if avail, err := fs.AvailableBytes(h.root); err == nil && avail < lowSpaceBytes {
		nlog.Warningf("low disk space on %s: %d bytes available", h.root, avail)
	}
	err := diskpool.AwaitErr(h.pool, h.poolIndex, func() error {
		if err := os.MkdirAll(h.root, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(h.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		h.f = f
		switch {
		case h.out.Format == schema.LIST:
			h.lw = listfile.NewWriter(f, map[string]string{"output": h.out.Name})
			h.lw.Compress = true
		case h.out.Compress == schema.GZIP:
			h.bw = bufio.NewWriter(f)
			gz, err := gzip.NewWriterLevel(h.bw, gzLevel(h.out.CompressLevel))
			if err != nil {
				return err
			}
			h.gz = gz
		default:
			h.bw = bufio.NewWriter(f)
		}
		return nil
	})
	if err != nil {
		onFatal(&cos.OutputWriteError{Path: h.Path(), Err: err})
	}
}

func gzLevel(l int) int {
	if l <= 0 {
		return gzip.DefaultCompression
	}
	return l
}

// Write submits rec for append on the handle's disk-pool worker and returns
// without waiting for the append. Failures are reported via onFatal: an
// append failure from inside the submitted task, and a failure to reopen the
// next sub-shard when the write triggered a rollover (the one case in which
// Write blocks, until the roll has run).
func (h *Handle) Write(rec []byte, onFatal func(error)) {
	h.totalRecords.Add(1)
	h.totalBytes.Add(int64(len(rec)))

	h.mu.Lock()
	h.rawBytes += int64(len(rec))
	needRoll := h.out.MaxRawSizeBytes > 0 && h.rawBytes >= h.out.MaxRawSizeBytes
	h.mu.Unlock()

	h.pool.Add(h.poolIndex, func() {
		if err := h.appendLocked(rec); err != nil {
			onFatal(&cos.OutputWriteError{Path: h.Path(), Err: err})
		}
	})

	if needRoll {
		h.roll(onFatal)
	}
}

// appendLocked runs on the disk-pool worker owning this handle's bucket;
// Open, roll and Close run on that same worker, so the file/writer fields
// need no additional synchronization. The gzip branch still holds h.mu
// while it updates its staging-buffer bookkeeping.
func (h *Handle) appendLocked(rec []byte) error {
	switch {
	case h.lw != nil:
		return h.lw.WriteRecord(rec)
	case h.gz != nil:
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, err := h.gz.Write(rec); err != nil {
			return err
		}
		if _, err := h.gz.Write([]byte("\n")); err != nil {
			return err
		}
		h.gzUnflushed += len(rec) + 1
		if h.gzUnflushed >= h.gzFlushAt {
			if err := h.gz.Flush(); err != nil {
				return err
			}
			h.gzUnflushed = 0
			h.gzFlushAt = gzipFlushTarget + rand.Intn(gzipFlushTarget)
		}
		return nil
	default:
		if _, err := h.bw.Write(rec); err != nil {
			return err
		}
		_, err := h.bw.Write([]byte("\n"))
		return err
	}
}

// roll closes the current sub-shard and opens the next one. Only valid when
// MaxRawSizeBytes is set; called on the writer's own goroutine via Write,
// not from the disk pool, so it submits its own blocking Await calls.
func (h *Handle) roll(onFatal func(error)) {
	err := diskpool.AwaitErr(h.pool, h.poolIndex, func() error {
		if err := h.closeCurrent(); err != nil {
			return err
		}
		h.mu.Lock()
		h.subShard++
		h.rawBytes = 0
		h.mu.Unlock()
		f, err := os.OpenFile(h.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		h.f = f
		switch {
		case h.out.Format == schema.LIST:
			h.lw = listfile.NewWriter(f, map[string]string{"output": h.out.Name})
			h.lw.Compress = true
		case h.out.Compress == schema.GZIP:
			h.bw = bufio.NewWriter(f)
			h.gz, _ = gzip.NewWriterLevel(h.bw, gzLevel(h.out.CompressLevel))
		default:
			h.bw = bufio.NewWriter(f)
		}
		return nil
	})
	if err != nil {
		onFatal(&cos.OutputWriteError{Path: h.Path(), Err: err})
	}
}

// Close flushes and closes the underlying file. It is idempotent: calling it
// twice has no additional side effects. bestEffort, set during cancellation,
// tolerates a flush/close failure (logging it) instead of returning it, so a
// single broken shard doesn't stop the rest of CloseAll from running.
func (h *Handle) Close(bestEffort bool) error {
	return diskpool.AwaitErr(h.pool, h.poolIndex, func() error {
		err := h.closeCurrent()
		if err != nil && bestEffort {
			nlog.Warningf("best-effort close of %s: %v", h.Path(), err)
			return nil
		}
		return err
	})
}

func (h *Handle) closeCurrent() error {
	if h.f == nil {
		return nil // already closed
	}
	var firstErr error
	if h.lw != nil {
		if err := h.lw.Close(); err != nil {
			firstErr = err
		}
	}
	if h.gz != nil {
		if err := h.gz.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if h.bw != nil {
		if err := h.bw.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := h.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	h.f = nil
	h.bw, h.gz, h.lw = nil, nil, nil
	return firstErr
}
