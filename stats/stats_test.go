package stats

import "testing"

func counterValue(t *testing.T, r *Registry, metric, label string) float64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != metric {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "operator" && lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestAddOperatorTotalsUpdatesCounters(t *testing.T) {
	r := NewRegistry()
	r.AddOperatorTotals("map1", 10, 1024, 2)

	if got := counterValue(t, r, "mr3_records_written_total", "map1"); got != 10 {
		t.Errorf("records_written_total{map1} = %v, want 10", got)
	}
	if got := counterValue(t, r, "mr3_bytes_written_total", "map1"); got != 1024 {
		t.Errorf("bytes_written_total{map1} = %v, want 1024", got)
	}
	if got := counterValue(t, r, "mr3_parse_errors_total", "map1"); got != 2 {
		t.Errorf("parse_errors_total{map1} = %v, want 2", got)
	}
}

func TestAddOperatorTotalsZeroIsNoop(t *testing.T) {
	r := NewRegistry()
	r.AddOperatorTotals("map1", 0, 0, 0)
	if got := counterValue(t, r, "mr3_records_written_total", "map1"); got != 0 {
		t.Errorf("records_written_total{map1} = %v, want 0 (no metric series created)", got)
	}
}

func TestAddInputErrorAndRecordRead(t *testing.T) {
	r := NewRegistry()
	r.AddInputError("read1")
	r.AddInputError("read1")
	r.AddRecordRead("read1")

	if got := counterValue(t, r, "mr3_input_errors_total", "read1"); got != 2 {
		t.Errorf("input_errors_total{read1} = %v, want 2", got)
	}
	if got := counterValue(t, r, "mr3_records_read_total", "read1"); got != 1 {
		t.Errorf("records_read_total{read1} = %v, want 1", got)
	}
}
