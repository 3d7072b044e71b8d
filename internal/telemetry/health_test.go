package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/visiona/dqueue/internal/core"
)

type fakeSource struct {
	stats core.Stats
}

func (f fakeSource) Stats() core.Stats { return f.stats }

func TestLivenessHandlerReportsAlive(t *testing.T) {
	h := NewHealthServer(nil, fakeSource{}, ":0")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.livenessHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "alive" {
		t.Fatalf("status field = %v, want alive", body["status"])
	}
}

func TestReadinessHandlerDegradedWhenConsumerBlocked(t *testing.T) {
	h := NewHealthServer(nil, fakeSource{stats: core.Stats{ConsumerBlocked: true}}, ":0")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readiness", nil)
	h.readinessHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (degraded is still ready)", rr.Code)
	}

	var status HealthStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", status.Status)
	}
}

func TestReadinessHandlerHealthyByDefault(t *testing.T) {
	h := NewHealthServer(nil, fakeSource{stats: core.Stats{Name: "primary"}}, ":0")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readiness", nil)
	h.readinessHandler(rr, req)

	var status HealthStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "healthy" || status.Name != "primary" {
		t.Fatalf("status = %+v, want healthy/primary", status)
	}
}
