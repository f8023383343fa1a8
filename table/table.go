// Package table is the typed, user-facing planning surface: ReadText/Map/
// Join build a plan.Plan and bind a plan.Runner closure per operator that
// captures the operator's static types, collapsing to the untyped executors
// in package mrexec only once Pipeline.Run actually walks the graph.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package table

import (
	"context"
	"path/filepath"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/codec"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/ioin"
	"github.com/romange/mr3/mrexec"
	"github.com/romange/mr3/plan"
	"github.com/romange/mr3/schema"
)

// Pipeline owns the growing plan and the driver that will eventually
// execute it; NumWorkers and DataDir are fixed for the pipeline's lifetime.
type Pipeline struct {
	Plan    *plan.Plan
	Driver  *plan.Driver
	DataDir string
}

func NewPipeline(dataDir string, pool *diskpool.Pool, reg *ioin.Registry, numWorkers int) *Pipeline {
	p := plan.NewPlan()
	return &Pipeline{
		Plan:    p,
		Driver:  plan.NewDriver(p, dataDir, pool, reg, numWorkers),
		DataDir: dataDir,
	}
}

func (p *Pipeline) Run(ctx context.Context) error { return p.Driver.Run(ctx) }
func (p *Pipeline) Stop()                         { p.Driver.Stop() }

// Table is a typed handle on one pipeline stage: its operator name (or
// input name, for a root) and the codec used to parse/serialize its
// records. Out is nil for root (READ) tables, which have no output spec of
// their own.
type Table[T any] struct {
	name     string
	pipeline *Pipeline
	format   schema.WireFormat
	Codec    codec.Codec[T]
	Out      *mrexec.Output[T]
}

func (t *Table[T]) WithModNSharding(n uint32, f func(T) uint32) *Table[T] {
	t.Out.WithModNSharding(n, f)
	return t
}

func (t *Table[T]) WithCustomSharding(f func(T) cos.ShardId) *Table[T] {
	t.Out.WithCustomSharding(f)
	return t
}

func (t *Table[T]) AndCompress(ct schema.CompressType, level int) *Table[T] {
	t.Out.AndCompress(ct, level)
	return t
}

func (t *Table[T]) AsListFile() *Table[T] {
	t.Out.AsListFile()
	return t
}

func (t *Table[T]) WithMaxRawSize(bytes int64) *Table[T] {
	t.Out.WithMaxRawSize(bytes)
	return t
}

// ReadText registers a root input read from one or more globs and returns
// the table of records it yields, parsed on demand by c at each downstream
// handler boundary.
func ReadText[T any](p *Pipeline, name string, globs []string, c codec.Codec[T]) *Table[T] {
	files := make([]schema.FileSpec, len(globs))
	for i, g := range globs {
		files[i] = schema.FileSpec{Glob: g}
	}
	p.Plan.AddRoot(schema.Input{Name: name, Format: schema.TEXT, Files: files})
	return &Table[T]{name: name, pipeline: p, format: schema.TEXT, Codec: c}
}

// Map binds a one-input, one-method operator: every record in a parses via
// a's codec, passes through fn, and whatever fn writes is serialized and
// sharded via the returned table's Output (constant shard 0 until a
// sharding method is called).
func Map[From, To any](a *Table[From], opName string, c codec.Codec[To], fn func(From, *mrexec.DoContext[To])) *Table[To] {
	out := mrexec.NewOutput(opName, c)
	out.SetConstantShard(cos.IntShard(0))

	op := schema.Operator{Name: opName, Type: schema.Map, Inputs: []string{a.name}, Output: out.Spec}
	a.pipeline.Plan.AddOperator(op)

	a.pipeline.Driver.Bind(opName, func(ctx context.Context, d *plan.Driver, op schema.Operator, inputs []schema.Input) (map[cos.ShardId]string, error) {
		m := mrexec.NewMapper(d.Registry, d.NumWorkers, a.format, func(raw *mrexec.RawContext) *mrexec.Wrapper {
			return mrexec.BindMap(raw, a.Codec, out, fn)
		})
		root := filepath.Join(d.DataDir, out.Spec.Name)
		paths, err := m.Run(ctx, root, out.Spec, d.Pool, inputs[0].Files)
		if d.Stats != nil {
			d.Stats.AddOperatorTotals(opName, m.RecordsWritten, m.BytesWritten, m.ParseErrors.Load())
		}
		return paths, err
	})

	return &Table[To]{name: opName, pipeline: a.pipeline, format: out.Spec.Format, Codec: c, Out: out}
}
