package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func callHealth(t *testing.T, check Check) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)

	if err := HealthHandler(check)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	code, body := callHealth(t, Check{
		Backend: "redis",
		Ping:    func(context.Context) error { return nil },
	})

	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" || body["backend"] != "redis" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["pool"]; ok {
		t.Error("expected no pool stats without a Stats func")
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	code, body := callHealth(t, Check{
		Backend: "postgres",
		Ping:    func(context.Context) error { return errors.New("connection refused") },
		Stats:   func() any { return &PoolStats{MaxConns: 20} },
	})

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body["status"] != "unhealthy" || body["error"] != "connection refused" {
		t.Errorf("unexpected body %v", body)
	}
	pool, ok := body["pool"].(map[string]any)
	if !ok || pool["max_conns"] != float64(20) {
		t.Errorf("expected pool stats, got %v", body["pool"])
	}
}

func TestHealthHandler_NilPing(t *testing.T) {
	code, body := callHealth(t, Check{Backend: "memory"})
	if code != http.StatusOK || body["backend"] != "memory" {
		t.Errorf("expected healthy memory backend, got %d %v", code, body)
	}
}

func TestHealthHandler_PingHasDeadline(t *testing.T) {
	callHealth(t, Check{
		Backend: "sqlite",
		Ping: func(ctx context.Context) error {
			dl, ok := ctx.Deadline()
			if !ok || time.Until(dl) > 5*time.Second {
				t.Errorf("expected a deadline of at most 5s")
			}
			return nil
		},
	})
}
