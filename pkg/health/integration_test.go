package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/go-stellar/pkg/store"
)

// TestHealthCheckIntegration exercises the health checks against a real
// store and a scheduler-running flag, the way cmd/server wires them.
func TestHealthCheckIntegration(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "stellar.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}

	var schedulerRunning atomic.Bool

	healthChecker := NewHealthChecker()
	healthChecker.AddCheck(NewStoreHealthCheck(st.Ping))
	healthChecker.AddCheck(NewSchedulerHealthCheck(schedulerRunning.Load))

	t.Run("readiness before scheduler start", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		health := healthChecker.CheckHealth(ctx)
		if health.Checks["store"].Status != "healthy" {
			t.Error("store should be healthy once opened")
		}
		if health.Checks["scheduler"].Status != "unhealthy" {
			t.Error("scheduler should be unhealthy before start")
		}
		if health.Status != "unhealthy" {
			t.Error("overall status should be unhealthy before scheduler start")
		}
	})

	schedulerRunning.Store(true)

	t.Run("readiness when running", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		healthChecker.ReadinessHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("readiness status = %d, want 200", rec.Code)
		}
		var health HealthStatus
		if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
			t.Fatalf("decode readiness body: %v", err)
		}
		if health.Status != "healthy" {
			t.Errorf("overall status = %s, want healthy", health.Status)
		}
	})

	t.Run("readiness after store close", func(t *testing.T) {
		st.Close()

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rec := httptest.NewRecorder()
		healthChecker.ReadinessHandler(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("readiness status = %d, want 503 with closed store", rec.Code)
		}
	})

	t.Run("liveness is unconditional", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		healthChecker.LivenessHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("liveness status = %d, want 200", rec.Code)
		}
	})
}
