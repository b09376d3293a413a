package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobaboard/bobaserver/internal/middleware/metrics"
	"github.com/bobaboard/bobaserver/internal/setup"
)

// New wires all routes. Feed and thread reads take an optional viewer
// (anonymous requests get zeroed new-state); everything touching per-user
// state requires one.
func New(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/boards/{board}", func(r chi.Router) {
		r.Use(authMw.OptionalViewer())
		r.Get("/activity/latest", h.GetBoardActivity)
	})

	r.Route("/threads/{thread}", func(r chi.Router) {
		r.With(authMw.OptionalViewer()).Get("/", h.GetThread)
		r.With(authMw.RequireViewer()).Post("/visits", h.VisitThread)
	})

	r.Route("/users/@me", func(r chi.Router) {
		r.Use(authMw.RequireViewer())
		r.Get("/", h.GetMe)
		r.Patch("/", h.UpdateMe)
		r.Get("/feed", h.GetUserFeed)
		r.Get("/bobadex", h.GetBobadex)
		r.Post("/notifications/dismiss", h.DismissNotifications)
	})

	r.Route("/invites/{nonce}", func(r chi.Router) {
		r.Get("/", h.GetInviteDetails)
		r.With(authMw.RequireViewer()).Post("/", h.AcceptInvite)
	})

	return r
}
