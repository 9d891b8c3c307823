package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cobus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cobus/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/cobus/internal/httpserver/mw"
)

func init() { Register(registerReadyz) }

// Every /readyz hit costs a remote read, so probes are throttled per client.
func registerReadyz(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.Throttle(mw.ThrottleConfig{Burst: d.ProbeBurst, RefillPerMin: d.ProbePerMin, TrustProxy: d.TrustProxy, Now: d.TimeNow}),
	).Get("/readyz", handlers.Readyz(d))
}
