package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-qti/internal/auth"
	authmw "github.com/mind-engage/mindengage-qti/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qti/internal/config"
	"github.com/mind-engage/mindengage-qti/internal/delivery"
	"github.com/mind-engage/mindengage-qti/internal/logging"
	"github.com/mind-engage/mindengage-qti/internal/rbac"
	syncx "github.com/mind-engage/mindengage-qti/internal/sync"
)

type Deps struct {
	Config  config.Config
	Service *delivery.Service
	Auth    *authmw.AuthService
	Events  *syncx.EventRepo
	Logger  *zap.Logger
}

// NewRouter mounts every route of the API.
func NewRouter(d Deps) http.Handler {
	cfg, log := d.Config, d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxItem := cfg.MaxItemBytes
	if maxItem <= 0 {
		maxItem = 4 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(log.Named("http")), middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Local login (enabled in offline mode by default; can be enabled online via env)
	if cfg.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, cfg))
	}
	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, cfg))
	}

	r.Get("/tools/decompose", DecomposeHandler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		// Authors: upload and inspect items
		pr.With(rbac.Require(rbac.PermItemUpload)).
			Post("/items", UploadItemHandler(d.Service, maxItem, log))
		pr.With(rbac.Require(rbac.PermItemUpload)).
			Post("/items/package", ImportPackageHandler(d.Service, 8*maxItem, log))
		pr.With(rbac.Require(rbac.PermItemView)).
			Get("/items", ListItemsHandler(d.Service, log))
		pr.With(rbac.Require(rbac.PermItemView)).
			Get("/items/{itemID}", GetItemHandler(d.Service, log))
		pr.With(rbac.Require(rbac.PermItemView)).
			Get("/items/{itemID}/diagnostics", ItemDiagnosticsHandler(d.Service, log))
		pr.With(rbac.Require(rbac.PermItemSource)).
			Get("/items/{itemID}/source", ItemSourceHandler(d.Service, log))

		// Candidate flow
		pr.With(rbac.Require(rbac.PermSessionStart)).
			Post("/items/{itemID}/sessions", StartSessionHandler(d.Service, log))
		pr.With(rbac.Require(rbac.PermSessionRespond)).
			Post("/sessions/{sessionID}/responses", SubmitResponsesHandler(d.Service, log))
		pr.With(rbac.Require(rbac.PermSessionRespond)).
			Post("/sessions/{sessionID}/close", CloseSessionHandler(d.Service, log))
		pr.With(rbac.RequireAny(rbac.PermSessionView, rbac.PermSessionViewAll)).
			Get("/sessions", ListSessionsHandler(d.Service, log))
		pr.With(rbac.RequireAny(rbac.PermSessionView, rbac.PermSessionViewAll)).
			Get("/sessions/{sessionID}", GetSessionHandler(d.Service, log))

		if d.Events != nil {
			pr.With(rbac.Require(rbac.PermEventsView)).
				Get("/events", ListEventsHandler(d.Events, log))
		}
	})
	return r
}
