package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kbstack/ragkb/internal/api/handlers"
	"github.com/kbstack/ragkb/internal/api/middleware"
	"github.com/kbstack/ragkb/internal/auth"
	"github.com/kbstack/ragkb/internal/config"
	"github.com/kbstack/ragkb/internal/document"
	"github.com/kbstack/ragkb/internal/provider"
	"github.com/kbstack/ragkb/internal/reconcile"
	"github.com/kbstack/ragkb/internal/retrieval"
	"github.com/kbstack/ragkb/internal/tenant"
)

// Router wires the HTTP surface over the document lifecycle (C6), retrieval
// (C7) and reconciliation (C8) services, per spec.md §6's collaborator
// contract: every handler reads (tenant_id, role) off request context and
// never parses tokens itself.
type Router struct {
	mux       *chi.Mux
	db        *pgxpool.Pool
	redis     *redis.Client
	cfg       *config.Config
	jwt       *auth.JWTMiddleware
	settings  *tenant.SettingsStore
	docs      *document.Service
	retrieval *retrieval.Service
	reconcile *reconcile.Service
	providers *provider.Registry
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, providers *provider.Registry,
	docs *document.Service, retr *retrieval.Service, recon *reconcile.Service, settings *tenant.SettingsStore) *Router {
	return &Router{
		mux:       chi.NewRouter(),
		db:        db,
		redis:     rdb,
		cfg:       cfg,
		jwt:       auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		settings:  settings,
		docs:      docs,
		retrieval: retr,
		reconcile: recon,
		providers: providers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.AllowedOrigins))
	r.Use(middleware.Deadline(rt.cfg.Server.RequestDeadline))

	rl := middleware.NewRateLimiter(float64(rt.cfg.Server.HTTPRateLimitRPS), rt.cfg.Server.HTTPRateBurst)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	docH := handlers.NewDocumentHandler(rt.docs)
	chunkH := handlers.NewChunkHandler(rt.docs)
	reviewH := handlers.NewReviewHandler(rt.docs)
	queryH := handlers.NewQueryHandler(rt.retrieval)
	adminH := handlers.NewAdminHandler(rt.reconcile, rt.providers)
	settingsH := handlers.NewSettingsHandler(rt.settings)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", docH.Upload)
			r.Get("/", docH.List)
			r.Get("/{id}", docH.Status)
			r.Delete("/{id}", docH.Delete)
			r.Get("/{id}/status", docH.Status)
			r.Get("/{id}/markdown", docH.DownloadMarkdown)
			r.Put("/{id}/markdown", docH.UploadMarkdown)
			r.Post("/{id}/retry", docH.RetryConversion)
			r.Post("/{id}/confirm", docH.Confirm)
			r.Post("/{id}/resubmit", docH.Resubmit)

			r.Get("/{id}/chunks", chunkH.List)
			r.Post("/{id}/chunks", chunkH.Create)
			r.Put("/{id}/chunks/{idx}", chunkH.Update)
			r.Delete("/{id}/chunks/{idx}", chunkH.Delete)

			r.With(auth.RequireAdmin).Post("/{id}/approve", reviewH.Approve)
			r.With(auth.RequireAdmin).Post("/{id}/reject", reviewH.Reject)
		})

		r.Post("/query", queryH.Query)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsH.Get)
			r.Put("/", settingsH.Save)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/documents/{id}/rebuild-vectors", adminH.RebuildVectors)
			r.Post("/reindex", adminH.Reindex)
			r.Get("/probe", adminH.Probe)
		})
	})

	return r
}
