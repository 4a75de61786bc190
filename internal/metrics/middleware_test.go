package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInstrument(t *testing.T) {
	reg := NewRegistry()
	handler := reg.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest("POST", "/api/v1/backtest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	found := false
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_total" {
			for _, m := range mf.GetMetric() {
				if m.GetCounter().GetValue() > 0 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("instrumented handler should record the request")
	}
}

func TestInstrumentCollapsesJobPaths(t *testing.T) {
	reg := NewRegistry()
	handler := reg.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, id := range []string{"abc", "def"} {
		req := httptest.NewRequest("GET", "/api/v1/backtest/"+id, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		if len(mf.GetMetric()) != 1 {
			t.Fatalf("expected one collapsed series, got %d", len(mf.GetMetric()))
		}
		m := mf.GetMetric()[0]
		if m.GetCounter().GetValue() != 2 {
			t.Errorf("collapsed counter = %f, want 2", m.GetCounter().GetValue())
		}
		for _, l := range m.GetLabel() {
			if l.GetName() == "path" && l.GetValue() != "/api/v1/backtest/:id" {
				t.Errorf("path label = %s, want /api/v1/backtest/:id", l.GetValue())
			}
		}
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/backtest", "/api/v1/backtest"},
		{"/api/v1/backtest/", "/api/v1/backtest/"},
		{"/api/v1/backtest/0c7e3c1a", "/api/v1/backtest/:id"},
		{"/api/health", "/api/health"},
	}
	for _, tt := range tests {
		if got := routeLabel(tt.path); got != tt.want {
			t.Errorf("routeLabel(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
