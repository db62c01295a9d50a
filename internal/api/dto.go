package api

import (
	"time"

	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/models"
)

// ItemListResponse wraps a filtered item listing.
type ItemListResponse struct {
	Items []models.ContentItem `json:"items" validate:"required"`
	Total int                  `json:"total" example:"12" validate:"required"`
}

// RelatedResponse lists items related to Path, best match first.
type RelatedResponse struct {
	Path  string               `json:"path" example:"/frontend/cards" validate:"required"`
	Items []models.ContentItem `json:"items" validate:"required"`
}

// DocumentResponse is a content file's validated frontmatter and raw body.
type DocumentResponse struct {
	Path        string                    `json:"path" example:"/frontend/cards" validate:"required"`
	Frontmatter models.ContentFrontmatter `json:"frontmatter" validate:"required"`
	Body        string                    `json:"body" validate:"required"`
}

// FacetsResponse lists the facet values of the current index.
type FacetsResponse = content.Facets

// StatusResponse describes the snapshot being served.
type StatusResponse struct {
	Items    int           `json:"items" example:"12" validate:"required"`
	Checksum string        `json:"checksum" example:"9f86d08..." validate:"required"`
	Stats    content.Stats `json:"stats" validate:"required"`
	BuiltAt  time.Time     `json:"builtAt" validate:"required"`
}
