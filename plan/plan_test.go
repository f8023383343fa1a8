package plan

import (
	"strings"
	"testing"

	"github.com/romange/mr3/schema"
)

func TestValidateAcceptsWellFormedPlan(t *testing.T) {
	p := NewPlan()
	p.AddRoot(schema.Input{Name: "raw"})
	p.AddOperator(schema.Operator{
		Name: "upper", Type: schema.Map, Inputs: []string{"raw"},
		Output: schema.OutputSpec{Name: "upper"},
	})
	p.AddOperator(schema.Operator{
		Name: "group", Type: schema.Group, Inputs: []string{"upper"},
		Output: schema.OutputSpec{Name: "grouped"},
	})
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil for a well-formed plan", err)
	}
}

func TestValidateCatchesDuplicateOperatorName(t *testing.T) {
	p := NewPlan()
	p.AddRoot(schema.Input{Name: "raw"})
	op := schema.Operator{Name: "x", Type: schema.Map, Inputs: []string{"raw"}, Output: schema.OutputSpec{Name: "o1"}}
	p.AddOperator(op)
	op2 := op
	op2.Output.Name = "o2"
	p.AddOperator(op2)

	err := p.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate operator name") {
		t.Fatalf("Validate() = %v, want a duplicate-operator-name error", err)
	}
}

func TestValidateCatchesUnknownInput(t *testing.T) {
	p := NewPlan()
	p.AddOperator(schema.Operator{
		Name: "x", Type: schema.Map, Inputs: []string{"nonexistent"},
		Output: schema.OutputSpec{Name: "o1"},
	})
	err := p.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown input") {
		t.Fatalf("Validate() = %v, want an unknown-input error", err)
	}
}

func TestValidateCatchesReadWithNoInputsIsFine(t *testing.T) {
	p := NewPlan()
	p.AddOperator(schema.Operator{Name: "r", Type: schema.Read, Output: schema.OutputSpec{Name: "o1"}})
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil: a READ operator needs no declared input", err)
	}
}

func TestValidateCatchesNonReadWithNoInputs(t *testing.T) {
	p := NewPlan()
	p.AddOperator(schema.Operator{Name: "m", Type: schema.Map, Output: schema.OutputSpec{Name: "o1"}})
	err := p.Validate()
	if err == nil || !strings.Contains(err.Error(), "requires at least one input") {
		t.Fatalf("Validate() = %v, want a missing-input error for a non-READ operator", err)
	}
}

func TestValidateCatchesMissingOutputName(t *testing.T) {
	p := NewPlan()
	p.AddRoot(schema.Input{Name: "raw"})
	p.AddOperator(schema.Operator{Name: "m", Type: schema.Map, Inputs: []string{"raw"}})
	err := p.Validate()
	if err == nil || !strings.Contains(err.Error(), "no output name") {
		t.Fatalf("Validate() = %v, want a missing-output-name error", err)
	}
}

func TestValidateReportsMultipleProblemsAtOnce(t *testing.T) {
	p := NewPlan()
	p.AddOperator(schema.Operator{Name: "m", Type: schema.Map, Inputs: []string{"missing"}})
	err := p.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want multiple accumulated errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "unknown input") || !strings.Contains(msg, "no output name") {
		t.Fatalf("Validate() = %q, want it to report both problems at once", msg)
	}
}
