// Package handlers contains the HTTP surface of the asset tracker: one
// plain handler per operation, each explicitly composing the access
// policy, the query filter, and the store.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"assetd/internal/events"
	"assetd/internal/store"
	"assetd/internal/version"
)

// Options controls runtime behaviour of the HTTP layer.
type Options struct {
	AllowedOrigins []string
	SessionTTL     time.Duration
	CookieSecure   bool
	RateLimit      int
}

// Handler wires the store, the event publisher, and the template engine
// into HTTP handlers.
type Handler struct {
	store    *store.Store
	events   *events.Publisher
	renderer *Engine
	opts     Options
}

// New initialises the HTTP layer. The events publisher may be nil.
func New(st *store.Store, bus *events.Publisher, opts Options) (*Handler, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 14 * 24 * time.Hour
	}

	engine, err := newEngine()
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:    st,
		events:   bus,
		renderer: engine,
		opts:     opts,
	}, nil
}

// Routes constructs the router containing all endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(h.requestLogger)

	if len(h.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           int((10 * time.Minute).Seconds()),
		}))
	}
	if h.opts.RateLimit > 0 {
		r.Use(httprate.Limit(h.opts.RateLimit, time.Minute))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Get("/login", h.loginForm)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Get("/", h.listAssets)
		r.Route("/asset", func(r chi.Router) {
			r.Get("/create", h.createAssetForm)
			r.Post("/create", h.createAsset)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.assetDetail)
				r.Get("/edit", h.editAssetForm)
				r.Post("/edit", h.editAsset)
				r.Get("/delete", h.deleteAssetForm)
				r.Post("/delete", h.deleteAsset)
				r.Get("/duplicate", h.duplicateAssetForm)
				r.Post("/duplicate", h.duplicateAsset)
				r.Get("/assign", h.assignAssetForm)
				r.Post("/assign", h.assignAsset)
			})
		})
	})

	return otelhttp.NewHandler(r, version.Name)
}
