package plan

import (
	"context"
	"sync/atomic"

	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/diskpool"
	"github.com/romange/mr3/ioin"
	"github.com/romange/mr3/schema"
	"github.com/romange/mr3/stats"
)

// Runner executes one operator: given its already-resolved inputs, it
// returns the path of every shard it produced. The typed planning layer
// (package table) supplies one Runner per operator, closing over whatever
// handler and codecs that operator's static types require; the driver
// itself never sees a type parameter.
type Runner func(ctx context.Context, d *Driver, op schema.Operator, inputs []schema.Input) (map[cos.ShardId]string, error)

// Driver iterates a Plan's operators in declaration order, resolving each
// one's named inputs against the growing input registry (roots plus every
// earlier operator's output) and wiring its result forward.
type Driver struct {
	Plan       *Plan
	DataDir    string
	Pool       *diskpool.Pool
	Registry   *ioin.Registry
	NumWorkers int
	// Stats is optional; when set, every operator's record/byte/parse-error
	// totals are reported to it once the operator's Runner returns.
	Stats *stats.Registry

	runners map[string]Runner
	inputs  map[string]schema.Input

	cancelled atomic.Bool
}

func NewDriver(p *Plan, dataDir string, pool *diskpool.Pool, reg *ioin.Registry, numWorkers int) *Driver {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Driver{
		Plan:       p,
		DataDir:    dataDir,
		Pool:       pool,
		Registry:   reg,
		NumWorkers: numWorkers,
		runners:    make(map[string]Runner),
	}
}

// Bind associates a Runner with the named operator; every operator in the
// plan must be bound before Run is called.
func (d *Driver) Bind(opName string, r Runner) {
	d.runners[opName] = r
}

// Stop sets the driver's cancellation flag. Run checks it before starting
// each operator and returns nil once it is set; the operator already
// running is not interrupted, since the flag is not passed on to its
// executor.
func (d *Driver) Stop() { d.cancelled.Store(true) }

func (d *Driver) Cancelled() bool { return d.cancelled.Load() }

// Run validates the plan, then executes every operator in order, feeding
// each one's output forward as the next operator's input.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Plan.Validate(); err != nil {
		return err
	}

	d.inputs = make(map[string]schema.Input, len(d.Plan.Roots)+len(d.Plan.Operators))
	for name, in := range d.Plan.Roots {
		d.inputs[name] = in
	}

	for _, op := range d.Plan.Operators {
		if d.cancelled.Load() {
			return nil
		}
		runner, ok := d.runners[op.Name]
		if !ok {
			return cos.NewPlanError("no runner bound for operator %q", op.Name)
		}

		ins := make([]schema.Input, len(op.Inputs))
		for i, name := range op.Inputs {
			ins[i] = d.inputs[name]
		}

		produced, err := runner(ctx, d, op, ins)
		if err != nil {
			return err
		}
		d.inputs[op.Output.Name] = schema.Input{
			Name:   op.Output.Name,
			Format: op.Output.Format,
			Files:  filesFromShardMap(produced),
		}
	}
	return nil
}

func filesFromShardMap(produced map[cos.ShardId]string) []schema.FileSpec {
	files := make([]schema.FileSpec, 0, len(produced))
	for sid, path := range produced {
		files = append(files, schema.FileSpec{Path: path, ShardId: sid, HasShard: true})
	}
	return files
}
