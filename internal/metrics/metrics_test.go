package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordCapture("render")
	m.RecordCapture("render")
	m.RecordCapture("script")
	m.RecordUnhandled("rejection")
	m.RecordReport("limited")

	if got := testutil.ToFloat64(m.captures.WithLabelValues("render")); got != 2 {
		t.Errorf("render captures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.captures.WithLabelValues("script")); got != 1 {
		t.Errorf("script captures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.unhandled.WithLabelValues("rejection")); got != 1 {
		t.Errorf("unhandled rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Reports("limited")); got != 1 {
		t.Errorf("limited reports = %v, want 1", got)
	}
}

func TestMetrics_Transition(t *testing.T) {
	m := New()

	m.RecordTransition("expanded", 2)
	if got := testutil.ToFloat64(m.phase); got != 2 {
		t.Errorf("phase gauge = %v, want 2", got)
	}

	m.SetPhase(0)
	if got := testutil.ToFloat64(m.phase); got != 0 {
		t.Errorf("phase gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("expanded")); got != 1 {
		t.Errorf("expanded transitions = %v, want 1", got)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// two instances in one process must not collide
	a, b := New(), New()
	a.RecordCapture("render")

	if got := testutil.ToFloat64(b.captures.WithLabelValues("render")); got != 0 {
		t.Errorf("second registry saw %v captures, want 0", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordCapture("script")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `faultboard_captures_total{channel="script"} 1`) {
		t.Errorf("metrics output missing capture counter:\n%s", body)
	}
}
