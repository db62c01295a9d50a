package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/d2chub/internal/metrics"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// AuthEnabled enforces Bearer token auth with Token.
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Metrics, if non-nil, records per-route request counts and latency.
	Metrics *metrics.Metrics
	// Search, if non-nil, serves GET /search from the SQLite snapshot.
	Search Searcher
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cat Catalog, opts RouterOptions) chi.Router {
	h := NewHandler(cat)

	r := chi.NewRouter()
	if opts.Metrics != nil {
		r.Use(MetricsMiddleware(opts.Metrics))
	}
	r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))

	r.Get("/index", h.GetIndex)
	r.Get("/items", h.ListItems)
	r.Get("/items/*", h.GetItem)
	r.Get("/documents/*", h.GetDocument)
	r.Get("/related/*", h.Related)
	r.Get("/facets", h.Facets)
	r.Get("/status", h.Status)

	if opts.Search != nil {
		r.Get("/search", searchHandler(opts.Search))
	}
	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}

	return r
}
