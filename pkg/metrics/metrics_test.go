package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func counterValue(t *testing.T, m *Manager, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestManagerCounts(t *testing.T) {
	m, err := New()
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.ArrowRecorded("X")
	m.ArrowRecorded("X")
	m.ArrowRecorded("9")
	m.EndCompleted()
	m.StorageFailed("save")

	if got := counterValue(t, m, "scorecard_arrows_recorded_total", map[string]string{"score": "X"}); got != 2 {
		t.Fatalf("expected 2 X arrows, got %v", got)
	}
	if got := counterValue(t, m, "scorecard_ends_completed_total", nil); got != 1 {
		t.Fatalf("expected 1 end, got %v", got)
	}
	if got := counterValue(t, m, "scorecard_storage_errors_total", map[string]string{"op": "save"}); got != 1 {
		t.Fatalf("expected 1 storage error, got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m, err := New(WithNamespace("archery"))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	m.SessionCompleted()
	path := filepath.Join(t.TempDir(), "scorecard.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "archery_sessions_completed_total 1") {
		t.Fatalf("expected session counter in textfile: %s", data)
	}
}

func TestNopRecorder(t *testing.T) {
	r := Nop()
	r.ArrowRecorded("10")
	r.ValidationFailed("end_full")
}
