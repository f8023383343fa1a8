package mrexec

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/cmn/nlog"
	"github.com/romange/mr3/destfile"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/ioin"
	"github.com/romange/mr3/schema"
)

// Joiner runs a Group/Join operator: inputs already sharded upstream are
// regrouped by shard id, and for each shard a fresh handler instance (the
// "grouper") sees every input's records for that shard, in input order,
// before OnShardFinish fires. Shards are independent, so NumWorkers of them
// run concurrently; within one shard, work is effectively single-threaded,
// matching the underlying engine's one-grouper-per-shard contract.
type Joiner struct {
	Registry   *ioin.Registry
	NumWorkers int
	Format     schema.WireFormat
	// NewWrapper builds a fresh handler wrapper for one shard; the returned
	// wrapper's DoContext must write through an Output pinned to sid, e.g.
	// one obtained from Output.PerShardCopy(sid).
	NewWrapper func(raw *RawContext, sid cos.ShardId) *Wrapper
	OnFatal    func(error)

	cancelled      atomic.Bool
	errs           cos.Errs
	ParseErrors    atomic.Int64
	RecordsWritten int64
	BytesWritten   int64
}

func NewJoiner(reg *ioin.Registry, numWorkers int, format schema.WireFormat,
	newWrapper func(*RawContext, cos.ShardId) *Wrapper) *Joiner {
	j := &Joiner{Registry: reg, NumWorkers: numWorkers, Format: format, NewWrapper: newWrapper}
	if j.NumWorkers <= 0 {
		j.NumWorkers = 1
	}
	return j
}

func (j *Joiner) Stop() { j.cancelled.Store(true) }

func (j *Joiner) onFatal(err error) {
	if j.OnFatal != nil {
		j.OnFatal(err)
		return
	}
	cos.ExitLogf(nlog.Errorf, "%v", err)
}

// Run groups inputs (one schema.Input per join operand, each file tagged
// with the shard it was produced under) by shard id and processes each
// shard's group independently.
func (j *Joiner) Run(ctx context.Context, root string, out schema.OutputSpec, pool *diskpool.Pool, inputs []schema.Input) (map[cos.ShardId]string, error) {
	set := destfile.NewSet(pool, root, out, j.onFatal)

	shards, byShard := groupByShard(inputs)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(j.NumWorkers)
	for _, sid := range shards {
		sid := sid
		group.Go(func() error {
			if j.cancelled.Load() {
				return nil
			}
			j.runShard(gctx, set, sid, byShard[sid])
			return nil
		})
	}
	_ = group.Wait() // runShard never returns an error; only used here for the bounded fan-out

	j.RecordsWritten, j.BytesWritten = set.Totals()
	err := set.CloseAll(j.cancelled.Load())
	if err != nil {
		j.errs.Add(err)
	}
	return set.GatherAll(), j.errs.Err()
}

// groupByShard returns every distinct shard id named by any input, in the
// order first seen, and for each shard the per-input list of files
// belonging to it (same indexing as inputs).
func groupByShard(inputs []schema.Input) ([]cos.ShardId, map[cos.ShardId][][]schema.FileSpec) {
	order := make([]cos.ShardId, 0, 16)
	seen := make(map[cos.ShardId]bool)
	byShard := make(map[cos.ShardId][][]schema.FileSpec)

	for i, in := range inputs {
		for _, fs := range in.Files {
			if !fs.HasShard {
				continue
			}
			if !seen[fs.ShardId] {
				seen[fs.ShardId] = true
				order = append(order, fs.ShardId)
				byShard[fs.ShardId] = make([][]schema.FileSpec, len(inputs))
			}
			byShard[fs.ShardId][i] = append(byShard[fs.ShardId][i], fs)
		}
	}
	return order, byShard
}

func (j *Joiner) runShard(ctx context.Context, set *destfile.Set, sid cos.ShardId, perInput [][]schema.FileSpec) {
	raw := NewRawContext(set, j.onFatal)
	wrapper := j.NewWrapper(raw, sid)

	for i, files := range perInput {
		for _, fs := range files {
			if j.cancelled.Load() {
				break
			}
			j.scanOne(ctx, i, fs, wrapper)
		}
	}
	wrapper.OnShardFinish()
	raw.Flush()
	j.ParseErrors.Add(int64(raw.ParseErrors))
}

func (j *Joiner) scanOne(ctx context.Context, inputIndex int, fs schema.FileSpec, wrapper *Wrapper) {
	backend, native := j.Registry.Resolve(fs.Path)
	err := ioin.ScanFile(ctx, backend, native, j.Format, j.cancelled.Load, j.reportCorrupt,
		func(rec []byte) bool {
			wrapper.Dispatch(inputIndex, rec)
			return !j.cancelled.Load()
		})
	if err != nil {
		nlog.Errorf("open %s: %v", fs.Path, &cos.InputOpenError{Path: fs.Path, Err: err})
	}
}

func (j *Joiner) reportCorrupt(path string, blockBytes int, err error) {
	nlog.Errorf("%v", &cos.InputCorruption{Path: path, BlockBytes: blockBytes, Err: err})
}
