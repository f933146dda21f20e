package handler

import (
	"strings"

	"itad_portal_backend/internal/jobs/transport"
	"itad_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// ListItems returns the active items and historical numbers of a job.
// GET /api/v1/jobs/:id/items
func (h *Handler) ListItems(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	listing, err := h.inventory.ListFor(c.Request.Context(), actor, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ItemListResponse{
		Items:             transport.NewItemResponses(listing.Items),
		HistoricalNumbers: listing.HistoricalNumbers,
		ItemsVersion:      listing.ItemsVersion,
	})
}

// SaveItems reconciles the submitted item set.
// PUT /api/v1/jobs/:id/items
func (h *Handler) SaveItems(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.BulkSaveItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.inventory.BulkSave(c.Request.Context(), actor, jobID, req.ToDomain())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BulkSaveItemsResponse{
		Items:        transport.NewItemResponses(result.Items),
		ItemsVersion: result.ItemsVersion,
		Inserted:     result.Inserted,
		Updated:      result.Updated,
		Deleted:      result.Deleted,
	})
}

// NextItemNumber suggests the next free item number. Numbers the caller
// already holds unsaved are passed as ?reserved=J1001-03,J1001-04.
// GET /api/v1/jobs/:id/items/next-number
func (h *Handler) NextItemNumber(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	if _, err := h.inventory.ListFor(c.Request.Context(), actor, jobID); httpkit.HandleError(c, err) {
		return
	}

	var reserved []string
	if raw := c.Query("reserved"); raw != "" {
		for _, n := range strings.Split(raw, ",") {
			if n = strings.TrimSpace(n); n != "" {
				reserved = append(reserved, n)
			}
		}
	}

	number, err := h.inventory.GenerateItemNumber(c.Request.Context(), jobID, reserved)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NextItemNumberResponse{ItemNumber: number})
}

// ExpandItem splits a multi-quantity item into unsaved single items.
// POST /api/v1/jobs/:id/items/expand
func (h *Handler) ExpandItem(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.ExpandItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	items, err := h.inventory.Expand(c.Request.Context(), actor, jobID, req.ItemNumber, req.Reserved)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": transport.NewItemResponses(items)})
}

// DeleteItem soft-deletes one item.
// DELETE /api/v1/jobs/:id/items/:itemId
func (h *Handler) DeleteItem(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.inventory.SoftDelete(c.Request.Context(), jobID, itemID, actor)) {
		return
	}
	httpkit.NoContent(c)
}
