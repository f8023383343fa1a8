package mrexec

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/cmn/nlog"
	"github.com/romange/mr3/destfile"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/ioin"
	"github.com/romange/mr3/schema"
)

const (
	fileQueueDepth   = 16
	recordQueueDepth = 32
)

// mapperState names the C11 lifecycle. Run records each transition in
// Mapper.state; nothing reads it back, and stateInit is never stored.
type mapperState int32

const (
	stateInit mapperState = iota
	stateExpanding
	stateRunning
	stateDraining
	stateClosed
)

// Mapper runs a one-input (READ or MAP) operator: a bounded file-name queue
// feeds numWorkers reader/mapper goroutine pairs, each with its own
// RawContext and Wrapper instance, all sharing one destfile.Set keyed by
// output shard.
type Mapper struct {
	Registry   *ioin.Registry
	NumWorkers int
	Format     schema.WireFormat
	NewWrapper func(*RawContext) *Wrapper
	OnFatal    func(error)

	state          atomic.Int32
	cancelled      atomic.Bool
	errs           cos.Errs
	ParseErrors    atomic.Int64
	RecordsWritten int64
	BytesWritten   int64
}

func NewMapper(reg *ioin.Registry, numWorkers int, format schema.WireFormat, newWrapper func(*RawContext) *Wrapper) *Mapper {
	m := &Mapper{Registry: reg, NumWorkers: numWorkers, Format: format, NewWrapper: newWrapper}
	if m.NumWorkers <= 0 {
		m.NumWorkers = 1
	}
	return m
}

// Stop requests cooperative cancellation; Run returns, with whatever output
// was produced so far, once every worker observes it.
func (m *Mapper) Stop() { m.cancelled.Store(true) }

func (m *Mapper) onFatal(err error) {
	if m.OnFatal != nil {
		m.OnFatal(err)
		return
	}
	cos.ExitLogf(nlog.Errorf, "%v", err)
}

// Run drives one operator to completion: expand every input file-spec,
// stream its records through the bound handler, and return the set of
// shard paths the operator produced.
func (m *Mapper) Run(ctx context.Context, root string, out schema.OutputSpec, pool *diskpool.Pool, inputs []schema.FileSpec) (map[cos.ShardId]string, error) {
	m.state.Store(int32(stateExpanding))
	set := destfile.NewSet(pool, root, out, m.onFatal)

	fileQueue := make(chan schema.FileSpec, fileQueueDepth)
	var workers sync.WaitGroup
	m.state.Store(int32(stateRunning))
	for i := 0; i < m.NumWorkers; i++ {
		workers.Add(1)
		go m.runWorker(ctx, set, fileQueue, &workers)
	}

	for _, fs := range inputs {
		if m.cancelled.Load() {
			break
		}
		fileQueue <- fs
	}
	close(fileQueue)

	workers.Wait()
	m.state.Store(int32(stateDraining))
	m.RecordsWritten, m.BytesWritten = set.Totals()
	err := set.CloseAll(m.cancelled.Load())
	m.state.Store(int32(stateClosed))
	if err != nil {
		m.errs.Add(err)
	}
	return set.GatherAll(), m.errs.Err()
}

func (m *Mapper) runWorker(ctx context.Context, set *destfile.Set, fileQueue <-chan schema.FileSpec, workers *sync.WaitGroup) {
	defer workers.Done()

	raw := NewRawContext(set, m.onFatal)
	wrapper := m.NewWrapper(raw)
	recQueue := make(chan []byte, recordQueueDepth)

	var reader sync.WaitGroup
	reader.Add(1)
	go func() {
		defer reader.Done()
		defer close(recQueue)
		for fs := range fileQueue {
			if m.cancelled.Load() {
				return
			}
			m.scanOne(ctx, fs, recQueue)
		}
	}()

	for rec := range recQueue {
		wrapper.Dispatch(0, rec)
	}
	reader.Wait()
	raw.Flush()
	m.ParseErrors.Add(int64(raw.ParseErrors))
}

// scanOne feeds every record of fs to recQueue. A root input (fs.Path
// unset) names a glob that must first be expanded against its backend;
// an upstream operator's output (fs.Path set) already names one concrete
// file and is opened directly.
func (m *Mapper) scanOne(ctx context.Context, fs schema.FileSpec, recQueue chan<- []byte) {
	if fs.Path != "" {
		m.scanPath(ctx, fs.Path, recQueue)
		return
	}
	backend, native := m.Registry.Resolve(fs.Glob)
	matches, err := backend.List(ctx, native)
	if err != nil {
		nlog.Errorf("list %s: %v", fs.Glob, &cos.InputOpenError{Path: fs.Glob, Err: err})
		return
	}
	for _, path := range matches {
		if m.cancelled.Load() {
			return
		}
		m.scanPathVia(ctx, backend, path, recQueue)
	}
}

func (m *Mapper) scanPath(ctx context.Context, path string, recQueue chan<- []byte) {
	backend, native := m.Registry.Resolve(path)
	m.scanPathVia(ctx, backend, native, recQueue)
}

func (m *Mapper) scanPathVia(ctx context.Context, backend ioin.Backend, path string, recQueue chan<- []byte) {
	err := ioin.ScanFile(ctx, backend, path, m.Format, m.cancelled.Load, m.reportCorrupt,
		func(rec []byte) bool {
			recQueue <- rec
			return !m.cancelled.Load()
		})
	if err != nil {
		// Input-open errors are fatal to this file only; log and move on.
		nlog.Errorf("open %s: %v", path, &cos.InputOpenError{Path: path, Err: err})
	}
}

func (m *Mapper) reportCorrupt(path string, blockBytes int, err error) {
	nlog.Errorf("%v", &cos.InputCorruption{Path: path, BlockBytes: blockBytes, Err: err})
}
