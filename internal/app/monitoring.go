package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deusflow/cryptonews/internal/metrics"
	"github.com/deusflow/cryptonews/internal/ratelimit"
)

func newMonitoringMux(limiter *ratelimit.AIRateLimiter) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		stats := metrics.Global.GetStats()
		if limiter != nil {
			for k, v := range limiter.GetStats() {
				stats[k] = v
			}
		}
		writeJSON(w, http.StatusOK, stats)
	})
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status, code := "ok", http.StatusOK
	if healthy, _ := stats["is_healthy"].(bool); !healthy {
		status, code = "error", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"started_at": stats["started_at"],
		"last_error": stats["last_error"],
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func startMonitoringServer(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("Starting monitoring server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("Monitoring server error")
	}
}
