// Package handler exposes taxonomy lookups over HTTP.
package handler

import (
	"itad_portal_backend/internal/taxonomy/repository"
	"itad_portal_backend/internal/taxonomy/service"
	"itad_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// DefaultsResponse lists the configured defaults.
type DefaultsResponse struct {
	CollectionType string `json:"collectionType"`
	DataStatus     string `json:"dataStatus,omitempty"`
}

// TaxonomyResponse is the full taxonomy with its defaults.
type TaxonomyResponse struct {
	*repository.Snapshot
	Defaults DefaultsResponse `json:"defaults"`
}

// Handler handles HTTP requests for taxonomy lookups.
type Handler struct {
	svc *service.Service
}

// New creates a new taxonomy handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Get returns the current taxonomy.
func (h *Handler) Get(c *gin.Context) {
	snapshot, err := h.svc.Snapshot(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	d := h.svc.Defaults()
	httpkit.OK(c, TaxonomyResponse{
		Snapshot: snapshot,
		Defaults: DefaultsResponse{CollectionType: d.CollectionType, DataStatus: d.DataStatus},
	})
}

// Refresh drops cached copies after the reference tables were edited.
func (h *Handler) Refresh(c *gin.Context) {
	if httpkit.HandleError(c, h.svc.Invalidate(c.Request.Context())) {
		return
	}
	httpkit.NoContent(c)
}
