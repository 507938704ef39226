package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// PingFunc checks a storage backend.
type PingFunc func(ctx context.Context) error

// Check describes one backend for HealthHandler. Stats is optional.
type Check struct {
	Backend string
	Ping    PingFunc
	Stats   func() any
}

// PostgresCheck reports pool health and statistics.
func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{
		Backend: "postgres",
		Ping:    pool.Ping,
		Stats:   func() any { return GetPoolStats(pool) },
	}
}

// HealthHandler pings the user-state backend with a 5 second limit and
// answers 200 or 503. A nil Ping is always healthy.
func HealthHandler(check Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := map[string]any{
			"status":  "healthy",
			"backend": check.Backend,
		}

		status := http.StatusOK
		if check.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			if err := check.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["error"] = err.Error()
			}
		}
		if check.Stats != nil {
			body["pool"] = check.Stats()
		}

		return c.JSON(status, body)
	}
}
