package table

import (
	"context"
	"path/filepath"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/codec"
	"github.com/romange/mr3/mrexec"
	"github.com/romange/mr3/plan"
	"github.com/romange/mr3/schema"
)

// Join2 binds a two-input Group operator: for each shard present in either
// a or b, a fresh grouper sees every record of a for that shard (via onA),
// then every record of b (via onB) - or interleaved, which this package
// treats as unspecified the same way the underlying engine does - then
// onShardFinish runs once before the grouper is retired. Every write from
// either handler lands in that shard's output, never a different one.
func Join2[A, B, To any](a *Table[A], b *Table[B], opName string, c codec.Codec[To],
	onA func(A, *mrexec.DoContext[To]), onB func(B, *mrexec.DoContext[To]),
	onShardFinish func(*mrexec.DoContext[To])) *Table[To] {

	out := mrexec.NewOutput(opName, c)

	op := schema.Operator{Name: opName, Type: schema.Group, Inputs: []string{a.name, b.name}, Output: out.Spec}
	a.pipeline.Plan.AddOperator(op)

	a.pipeline.Driver.Bind(opName, func(ctx context.Context, d *plan.Driver, op schema.Operator, inputs []schema.Input) (map[cos.ShardId]string, error) {
		j := mrexec.NewJoiner(d.Registry, d.NumWorkers, a.format, func(raw *mrexec.RawContext, sid cos.ShardId) *mrexec.Wrapper {
			shardOut := out.PerShardCopy(sid)
			b1 := mrexec.BindJoin[To](raw, shardOut, onShardFinish)
			mrexec.AddInput[A, To](b1, a.Codec, onA)
			mrexec.AddInput[B, To](b1, b.Codec, onB)
			return b1.Build()
		})
		root := filepath.Join(d.DataDir, out.Spec.Name)
		paths, err := j.Run(ctx, root, out.Spec, d.Pool, inputs)
		if d.Stats != nil {
			d.Stats.AddOperatorTotals(opName, j.RecordsWritten, j.BytesWritten, j.ParseErrors.Load())
		}
		return paths, err
	})

	return &Table[To]{name: opName, pipeline: a.pipeline, format: out.Spec.Format, Codec: c, Out: out}
}
