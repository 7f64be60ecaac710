package handlers

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// Health reports liveness, and readiness when a Ready probe is configured.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	if a.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := a.Ready(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("readiness probe failed")
			a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
