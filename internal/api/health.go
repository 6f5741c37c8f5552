package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baygut/faq-chat-bot/internal/log"
)

// health is a simple health check endpoint for Docker/Kubernetes probes.
// Returns 200 OK with {"status":"ok"}.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

// readiness reports whether the service can reach its database.
// Pool stats are included when a pool is configured; a nil pool means the
// service runs without persistence checks and is always ready.
func readiness(pool *pgxpool.Pool, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"}, logger)
			return
		}

		if err := pool.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", "error", err)
			WriteError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", logger)
			return
		}

		stats := pool.Stat()
		WriteJSON(w, http.StatusOK, map[string]any{
			"status": "ready",
			"pool": map[string]int64{
				"total":    int64(stats.TotalConns()),
				"idle":     int64(stats.IdleConns()),
				"acquired": int64(stats.AcquiredConns()),
			},
		}, logger)
	}
}
