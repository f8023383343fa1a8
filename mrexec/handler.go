package mrexec

import "github.com/romange/mr3/codec"

// Wrapper presents one uniform interface to the executors regardless of how
// many static types the user's handler actually has: parsing and the typed
// do-context are collapsed into a per-input closure captured when the
// operator was bound, mirroring how the underlying engine erases template
// polymorphism at dispatch time.
type Wrapper struct {
	dispatch      []func(raw []byte)
	onShardFinish func()
	raw           *RawContext
}

// Dispatch parses and processes one raw record read from input inputIndex.
func (w *Wrapper) Dispatch(inputIndex int, raw []byte) {
	w.dispatch[inputIndex](raw)
}

// OnShardFinish runs the joiner-only end-of-shard hook, if one was bound.
func (w *Wrapper) OnShardFinish() {
	if w.onShardFinish != nil {
		w.onShardFinish()
	}
}

func (w *Wrapper) Raw() *RawContext { return w.raw }

// BindMap constructs the handler wrapper for a one-input Map operator: parse
// via c, invoke fn, write through a DoContext bound to out. A parse failure
// increments raw.ParseErrors and fn is not called.
func BindMap[From, To any](raw *RawContext, c codec.Codec[From], out *Output[To], fn func(From, *DoContext[To])) *Wrapper {
	dc := NewDoContext(out, raw)
	return &Wrapper{
		raw: raw,
		dispatch: []func(raw []byte){
			func(rec []byte) {
				var v From
				if !c.Parse(rec, &v) {
					raw.ParseErrors++
					return
				}
				fn(v, dc)
			},
		},
	}
}

// JoinInput describes one input stream's codec and per-record handler
// method for a Group/Join operator.
type JoinInput[From, To any] struct {
	Codec codec.Codec[From]
	On    func(From, *DoContext[To])
}

// BindJoin constructs the handler wrapper for a Group/Join operator with a
// fixed number of inputs, all emitting To records through one shared
// DoContext pinned to a constant output shard (the grouper contract: every
// emission for a shard, regardless of input, lands in that shard's output).
// onShardFinish is invoked once after every input for the shard has drained.
func BindJoin[To any](raw *RawContext, out *Output[To], onShardFinish func(*DoContext[To])) *joinBuilder[To] {
	dc := NewDoContext(out, raw)
	return &joinBuilder[To]{raw: raw, dc: dc, onShardFinish: onShardFinish}
}

type joinBuilder[To any] struct {
	raw           *RawContext
	dc            *DoContext[To]
	onShardFinish func(*DoContext[To])
	dispatch      []func(raw []byte)
}

// AddInput registers the handler method for the next input stream, in
// declaration order; inputs must be added in the same order the operator's
// Inputs list names them.
func AddInput[From, To any](b *joinBuilder[To], c codec.Codec[From], fn func(From, *DoContext[To])) *joinBuilder[To] {
	b.dispatch = append(b.dispatch, func(rec []byte) {
		var v From
		if !c.Parse(rec, &v) {
			b.raw.ParseErrors++
			return
		}
		fn(v, b.dc)
	})
	return b
}

func (b *joinBuilder[To]) Build() *Wrapper {
	w := &Wrapper{raw: b.raw, dispatch: b.dispatch}
	if b.onShardFinish != nil {
		w.onShardFinish = func() { b.onShardFinish(b.dc) }
	}
	return w
}
