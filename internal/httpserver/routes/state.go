package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cobus/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cobus/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/cobus/internal/httpserver/mw"
)

func init() {
	Register(registerHealthz)
	Register(registerState)
	Register(registerMetrics)
}

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}

func registerState(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Get("/state", handlers.State(d))
}

func registerMetrics(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)).Handle("/metrics", handlers.Metrics(d))
}
