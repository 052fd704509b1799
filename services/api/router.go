package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"voxhire/pkg/bus"
	gos3 "voxhire/pkg/s3"
	"voxhire/services/interview"
)

// API is the hiring platform's HTTP surface: a staff side for templates and
// invites, and a token-addressed candidate side for running interviews.
type API struct {
	cfg      Config
	log      zerolog.Logger
	store    *Store
	sessions *sessionStore
	engine   *interview.Engine
	bus      *bus.Bus
	archive  *gos3.Client
}

// New wires the API. bus and archive are optional; nil disables lifecycle
// events and transcript archiving respectively.
func New(cfg Config, log zerolog.Logger, store *Store, b *bus.Bus, archive *gos3.Client) (*API, error) {
	sessions := newSessionStore(store.DB)
	engine, err := interview.NewEngine(sessions, nil)
	if err != nil {
		return nil, err
	}

	return &API{
		cfg:      cfg,
		log:      log,
		store:    store,
		sessions: sessions,
		engine:   engine,
		bus:      b,
		archive:  archive,
	}, nil
}

// Routes builds the router. extra middleware (telemetry) wraps every route.
func (a *API) Routes(extra ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	for _, mw := range extra {
		r.Use(mw)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID", "X-Org-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", a.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Candidate surface. Token-addressed, no staff identity; rate limited
		// per client IP since the token is a bearer secret.
		r.Route("/interviews", func(r chi.Router) {
			r.Use(httprate.LimitByIP(120, time.Minute))
			r.Get("/{token}", a.handleInterviewRead)
			r.Post("/{token}/actions", a.handleInterviewAction)
		})

		// Staff surface.
		r.Group(func(r chi.Router) {
			r.Use(a.requireStaff)
			r.Post("/templates", a.handleCreateTemplate)
			r.Get("/templates", a.handleListTemplates)
			r.Get("/templates/{id}", a.handleGetTemplate)
			r.Post("/templates/{id}/invites", a.handleCreateInvite)
			r.Get("/sessions/{id}", a.handleGetSession)
		})
	})

	return r
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
