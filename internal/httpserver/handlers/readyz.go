package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/cobus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cobus/internal/logger"
)

const defaultProbeTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Remote string `json:"remote"`
	Error  string `json:"error,omitempty"`
}

// Readyz reads the current state from the remote store; 503 when it cannot.
func Readyz(d deps.Deps) http.HandlerFunc {
	timeout := d.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Store == nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Remote: "unconfigured"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		res, err := d.Store.ReadCurrentState(ctx)
		if err != nil {
			d.Logger.Warn("readiness probe failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Remote: "unavailable",
				Error:  err.Error(),
			})
			return
		}

		remote := "present"
		if !res.Present {
			remote = "missing"
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Remote: remote})
	}
}
