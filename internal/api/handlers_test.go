// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
)

type stubEvaluator struct {
	summary *engine.RunSummary
	err     error
}

func (s *stubEvaluator) Run(_ context.Context) (*engine.RunSummary, error) {
	return s.summary, s.err
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error {
	return s.err
}

func newTestRouter(eval Evaluator, ping Pinger) http.Handler {
	return NewRouter(eval, ping, 5*time.Second)
}

func TestHealthOK(t *testing.T) {
	r := newTestRouter(&stubEvaluator{}, &stubPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Store != "ok" {
		t.Errorf("resp = %+v, want ok/ok", resp)
	}
}

func TestHealthStoreDown(t *testing.T) {
	r := newTestRouter(&stubEvaluator{}, &stubPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestEvaluateReturnsSummary(t *testing.T) {
	summary := &engine.RunSummary{
		RunID:           "run-1",
		AnimalsChecked:  3,
		AlertsGenerated: 1,
		AlertsSent:      2,
	}
	r := newTestRouter(&stubEvaluator{summary: summary}, &stubPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got engine.RunSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "run-1" || got.AnimalsChecked != 3 {
		t.Errorf("summary = %+v", got)
	}
}

func TestEvaluateInfrastructureFailure(t *testing.T) {
	eval := &stubEvaluator{err: engine.ErrInfrastructure}
	r := newTestRouter(eval, &stubPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestEvaluateOtherFailure(t *testing.T) {
	eval := &stubEvaluator{err: errors.New("boom")}
	r := newTestRouter(eval, &stubPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestZoneTestInside(t *testing.T) {
	r := newTestRouter(&stubEvaluator{}, &stubPinger{})

	body := `{"lat":6.2614,"lon":81.5167,"zone":{"kind":"restricted","lat":6.2614,"lon":81.5167,"radius_m":500}}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/zones/test", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result engine.ContainmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != engine.StatusInside {
		t.Errorf("status = %q, want inside", result.Status)
	}
	if result.Severity != engine.SeverityCritical {
		t.Errorf("severity = %q, want critical", result.Severity)
	}
}

func TestZoneTestOutsideSafeZone(t *testing.T) {
	r := newTestRouter(&stubEvaluator{}, &stubPinger{})

	body := `{"lat":7.0,"lon":81.5,"zone":{"kind":"safe","lat":6.2614,"lon":81.5167,"radius_m":500}}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/zones/test", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result engine.ContainmentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != engine.StatusOutside {
		t.Errorf("status = %q, want outside", result.Status)
	}
	if result.Severity != engine.SeverityHigh {
		t.Errorf("severity = %q, want high", result.Severity)
	}
}

func TestZoneTestValidation(t *testing.T) {
	r := newTestRouter(&stubEvaluator{}, &stubPinger{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"lat":`},
		{"latitude out of range", `{"lat":95,"lon":0,"zone":{"kind":"safe","lat":0,"lon":0,"radius_m":100}}`},
		{"longitude out of range", `{"lat":0,"lon":200,"zone":{"kind":"safe","lat":0,"lon":0,"radius_m":100}}`},
		{"zero radius", `{"lat":0,"lon":0,"zone":{"kind":"safe","lat":0,"lon":0,"radius_m":0}}`},
		{"unknown zone kind", `{"lat":0,"lon":0,"zone":{"kind":"forbidden","lat":0,"lon":0,"radius_m":100}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/zones/test", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(&stubEvaluator{}, &stubPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing runtime collectors")
	}
}
