// Package plan implements the operator graph (C9) and the driver that runs
// it to completion (C13). The graph itself is plain data - schema.Operator
// values linked only by input name - exactly so the plan can be validated
// and iterated without ever touching a typed handler.
/*
 * Copyright (c) 2019, Beeri 15. All rights reserved.
 * Author: Roman Gershman (romange@gmail.com)
 */
package plan

import (
	"github.com/romange/mr3/cmn/cos"
	"github.com/romange/mr3/schema"
)

// Plan is the frozen, validated description of a pipeline: its root inputs
// (user-provided globs) and its operators in declaration order.
type Plan struct {
	Roots     map[string]schema.Input
	Operators []schema.Operator
}

func NewPlan() *Plan {
	return &Plan{Roots: make(map[string]schema.Input)}
}

// AddRoot registers a glob-backed input that isn't the output of any
// operator in this pipeline.
func (p *Plan) AddRoot(in schema.Input) {
	p.Roots[in.Name] = in
}

func (p *Plan) AddOperator(op schema.Operator) {
	p.Operators = append(p.Operators, op)
}

// Validate checks the invariants from C9: every operator name is unique,
// every input name an operator references resolves to either a root input
// or an earlier operator's output, and every non-READ operator names at
// least one input.
func (p *Plan) Validate() error {
	var errs cos.Errs

	seenOps := make(map[string]bool, len(p.Operators))
	known := make(map[string]bool, len(p.Roots)+len(p.Operators))
	for name := range p.Roots {
		known[name] = true
	}

	for _, op := range p.Operators {
		if seenOps[op.Name] {
			errs.Add(cos.NewPlanError("duplicate operator name %q", op.Name))
			continue
		}
		seenOps[op.Name] = true

		if op.Type != schema.Read && len(op.Inputs) == 0 {
			errs.Add(cos.NewPlanError("operator %q of type %s requires at least one input", op.Name, op.Type))
		}
		for _, in := range op.Inputs {
			if !known[in] {
				errs.Add(cos.NewPlanError("operator %q references unknown input %q", op.Name, in))
			}
		}
		if op.Output.Name == "" {
			errs.Add(cos.NewPlanError("operator %q has no output name", op.Name))
		}
		known[op.Output.Name] = true
	}
	return errs.Err()
}
