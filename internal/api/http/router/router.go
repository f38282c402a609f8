// Package router assembles the public HTTP surface of the gateway.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/eventhub-server/internal/api/http/handler"
	"github.com/dtroode/eventhub-server/internal/api/http/middleware"
	"github.com/dtroode/eventhub-server/internal/logger"
	"github.com/dtroode/eventhub-server/internal/model"
)

// Handlers groups the endpoint handlers mounted by the router.
type Handlers struct {
	Auth       *handler.Auth
	Redirects  *handler.Redirects
	Wizard     *handler.Wizard
	Onboarding *handler.Onboarding
	Health     *handler.Health
}

// Router builds the gateway's HTTP handler.
type Router struct {
	handlers      Handlers
	gate          *middleware.Gate
	sessions      middleware.SessionReader
	ctxMgr        model.ContextManager
	frontend      http.Handler
	registry      *prometheus.Registry
	secureCookies bool
	logger        *logger.Logger
}

// New creates a Router. Page requests that reach no API route are
// admitted by gate and handed to frontend.
func New(
	handlers Handlers,
	gate *middleware.Gate,
	sessions middleware.SessionReader,
	ctxMgr model.ContextManager,
	frontend http.Handler,
	registry *prometheus.Registry,
	secureCookies bool,
	logger *logger.Logger,
) *Router {
	return &Router{
		handlers:      handlers,
		gate:          gate,
		sessions:      sessions,
		ctxMgr:        ctxMgr,
		frontend:      frontend,
		registry:      registry,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Register returns the routed handler with the middleware stack installed.
func (rt *Router) Register() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Metrics(rt.registry))

	h := rt.handlers

	r.Get("/healthz", h.Health.Live)
	r.Get("/readyz", h.Health.Ready)
	r.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{Registry: rt.registry}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientID(rt.ctxMgr, rt.secureCookies))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/authorize", h.Auth.Authorize)
			r.Get("/callback", h.Auth.Callback)
			r.Post("/signout", h.Auth.SignOut)
		})

		r.Route("/api", func(r chi.Router) {
			r.Route("/redirect", func(r chi.Router) {
				r.Get("/", h.Redirects.Get)
				r.Post("/", h.Redirects.Save)
				r.Delete("/", h.Redirects.Clear)
				r.Get("/login-url", h.Redirects.LoginURL)
				r.Get("/signup-url", h.Redirects.SignupURL)
			})

			r.Route("/wizard", func(r chi.Router) {
				r.Get("/", h.Wizard.Get)
				r.Delete("/", h.Wizard.Clear)
				r.Put("/occasion", h.Wizard.SetOccasion)
				r.Put("/date", h.Wizard.SetDate)
				r.Put("/guests", h.Wizard.SetGuestCount)
				r.Put("/budget", h.Wizard.SetBudget)
				r.Put("/step", h.Wizard.SetStep)
				r.Post("/items", h.Wizard.AddItem)
				r.Delete("/items/{vendorID}", h.Wizard.RemoveItem)
				r.Get("/return", h.Wizard.GetReturn)
				r.Put("/return", h.Wizard.SaveReturn)
				r.Delete("/return", h.Wizard.ClearReturn)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser(rt.sessions, rt.ctxMgr, rt.logger))
				r.Get("/profile", h.Onboarding.Profile)
				r.Put("/onboarding/name", h.Onboarding.SetName)
				r.Put("/onboarding/location", h.Onboarding.SetLocation)
				r.Put("/onboarding/photo", h.Onboarding.SetPhoto)
			})
		})

		r.With(rt.gate.Middleware).Handle("/*", rt.frontend)
	})

	return r
}
