package cos

import (
	"errors"
	"testing"
)

func TestErrsDedup(t *testing.T) {
	var errs Errs
	errs.Add(errors.New("boom"))
	errs.Add(errors.New("boom"))
	errs.Add(errors.New("other"))
	if got := errs.Cnt(); got != 2 {
		t.Fatalf("Cnt() = %d, want 2 after adding one duplicate", got)
	}
}

func TestErrsBounded(t *testing.T) {
	var errs Errs
	for i := 0; i < maxErrs+5; i++ {
		errs.Add(&PlanError{Msg: string(rune('a' + i))})
	}
	if got := errs.Cnt(); got != maxErrs {
		t.Fatalf("Cnt() = %d, want bound of %d", got, maxErrs)
	}
}

func TestErrsNilWhenEmpty(t *testing.T) {
	var errs Errs
	if err := errs.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil for an empty accumulator", err)
	}
}

func TestInputOpenErrorUnwraps(t *testing.T) {
	inner := errors.New("permission denied")
	err := &InputOpenError{Path: "/x/y", Err: inner}
	if !errors.Is(err, inner) {
		t.Fatalf("errors.Is(InputOpenError, inner) = false, want true")
	}
}
