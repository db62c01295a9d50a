package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/d2chub/internal/apperr"
	"github.com/starford/d2chub/internal/artifact"
	"github.com/starford/d2chub/internal/catalog"
	"github.com/starford/d2chub/internal/checksum"
	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/models"
)

// Catalog is the query surface the handlers need. *catalog.Catalog satisfies it.
type Catalog interface {
	Snapshot() (*catalog.Snapshot, error)
	Item(route string) (models.ContentItem, error)
	Filter(c content.Criteria) ([]models.ContentItem, error)
	Related(route string, limit int) ([]models.ContentItem, error)
	Facets() (content.Facets, error)
	Document(route string) (*content.Document, error)
}

// Handler holds API route handlers.
type Handler struct {
	cat Catalog
}

// NewHandler creates a new Handler.
func NewHandler(cat Catalog) *Handler {
	return &Handler{cat: cat}
}

// itemRoute extracts the site route from the URL wildcard.
// Supports encoded slashes (e.g. frontend%2Fcards).
func itemRoute(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "/" + raw
	}
	return "/" + decoded
}

// queryList collects a repeatable, comma-separated query parameter.
func queryList(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("index not built yet"))
	case errors.Is(err, apperr.ErrInvalidContent):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetIndex handles GET /api/index.
//
//	@Summary		Get the full search index
//	@Tags			index
//	@Produce		json
//	@Param			If-None-Match	header		string	false	"ETag of a cached copy"
//	@Success		200				{object}	models.SearchIndex
//	@Success		304				"Not modified"
//	@Failure		503				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index [get]
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cat.Snapshot()
	if err != nil {
		writeError(w, err, "api: get index failed")
		return
	}
	etag := checksum.ETag(snap.Checksum)
	w.Header().Set("ETag", etag)
	if checksum.MatchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := artifact.Encode(snap.Index)
	if err != nil {
		writeError(w, err, "api: encode index failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListItems handles GET /api/items.
//
//	@Summary		List items matching facet filters
//	@Tags			items
//	@Produce		json
//	@Param			domain		query		string	false	"Domain"	Enums(frontend, notes)
//	@Param			category	query		string	false	"Category"
//	@Param			tag			query		string	false	"Tag (repeatable, comma-separated; any matches)"
//	@Param			tech		query		string	false	"Tech (repeatable, comma-separated; any matches)"
//	@Param			intent		query		string	false	"Intent (repeatable, comma-separated; any matches)"
//	@Param			q			query		string	false	"Free-text terms; all must occur"
//	@Success		200			{object}	ItemListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := models.Domain(q.Get("domain"))
	if err := validation.Validate(string(domain), validation.In(domainValues()...)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("domain: "+err.Error()))
		return
	}

	crit := content.Criteria{
		Domain:   domain,
		Category: q.Get("category"),
		Tags:     queryList(q, "tag"),
		Tech:     queryList(q, "tech"),
		Intent:   queryList(q, "intent"),
		Query:    q.Get("q"),
	}
	items, err := h.cat.Filter(crit)
	if err != nil {
		writeError(w, err, "api: list items failed")
		return
	}
	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

func domainValues() []any {
	out := make([]any, len(models.Domains))
	for i, d := range models.Domains {
		out[i] = string(d)
	}
	return out
}

// GetItem handles GET /api/items/*.
//
//	@Summary		Get a single item by site path
//	@Tags			items
//	@Produce		json
//	@Param			path	path		string	true	"Site path, e.g. frontend/cards"
//	@Success		200		{object}	models.ContentItem
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{path} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	route := itemRoute(r)
	if route == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	item, err := h.cat.Item(route)
	if err != nil {
		writeError(w, err, "api: get item failed", slog.String("path", route))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get an item's validated frontmatter and raw MDX body
//	@Tags			items
//	@Produce		json
//	@Param			path	path		string	true	"Site path, e.g. frontend/cards"
//	@Success		200		{object}	DocumentResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	route := itemRoute(r)
	if route == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.cat.Document(route)
	if err != nil {
		writeError(w, err, "api: get document failed", slog.String("path", route))
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{Path: route, Frontmatter: doc.Frontmatter, Body: doc.Body})
}

// Related handles GET /api/related/*.
//
//	@Summary		List items related to one item
//	@Tags			items
//	@Produce		json
//	@Param			path	path		string	true	"Site path, e.g. frontend/cards"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	RelatedResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/related/{path} [get]
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	route := itemRoute(r)
	if route == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := h.cat.Related(route, limit)
	if err != nil {
		writeError(w, err, "api: related failed", slog.String("path", route))
		return
	}
	writeJSON(w, http.StatusOK, RelatedResponse{Path: route, Items: items})
}

// Facets handles GET /api/facets.
//
//	@Summary		List facet values of the current index
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	FacetsResponse
//	@Security		BearerAuth
//	@Router			/facets [get]
func (h *Handler) Facets(w http.ResponseWriter, _ *http.Request) {
	f, err := h.cat.Facets()
	if err != nil {
		writeError(w, err, "api: facets failed")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Status handles GET /api/status.
//
//	@Summary		Describe the snapshot being served
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.cat.Snapshot()
	if err != nil {
		writeError(w, err, "api: status failed")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Items:    len(snap.Index.Items),
		Checksum: snap.Checksum,
		Stats:    snap.Stats,
		BuiltAt:  snap.BuiltAt,
	})
}
