package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/starford/d2chub/internal/store"
)

// Searcher runs full-text queries against the SQLite snapshot. *store.DB satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error)
}

// SearchResponse lists full-text hits in rank order.
type SearchResponse struct {
	Query   string               `json:"query" example:"card grid" validate:"required"`
	Results []store.SearchResult `json:"results" validate:"required"`
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over the SQLite snapshot
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search terms"
//	@Param			limit	query		int		false	"Max results (default 20)"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func searchHandler(s Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
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
		results, err := s.Search(r.Context(), q, limit)
		if err != nil {
			writeError(w, err, "api: search failed", slog.String("query", q))
			return
		}
		writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
	}
}
