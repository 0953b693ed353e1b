package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStepAndTrial(t *testing.T) {
	m := New()
	m.ObserveStep(100, 1.05, 0.9)
	m.ObserveStep(100, 1.10, 1.8)
	m.ObserveTrial(OutcomeCompleted)
	m.ObserveTrial(OutcomeStopped)
	m.ObserveTrial(OutcomeCompleted)

	if got := testutil.ToFloat64(m.cycles); got != 200 {
		t.Fatalf("cycles = %v", got)
	}
	if got := testutil.ToFloat64(m.steps); got != 2 {
		t.Fatalf("steps = %v", got)
	}
	if got := testutil.ToFloat64(m.meanFitness); got != 1.10 {
		t.Fatalf("mean fitness = %v", got)
	}
	if got := testutil.ToFloat64(m.trials.WithLabelValues(OutcomeCompleted)); got != 2 {
		t.Fatalf("completed trials = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveStep(1, 1, 1)
	m.ObserveTrial(OutcomeFailed)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveStep(10, 1, 0.5)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "moransim_cycles_total 10") {
		t.Fatalf("missing cycles counter in exposition:\n%s", body)
	}
}
