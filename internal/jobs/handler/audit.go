package handler

import (
	"itad_portal_backend/internal/jobs/transport"
	"itad_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// ListAudit returns a job's audit trail, newest first.
// GET /api/v1/jobs/:id/audit
func (h *Handler) ListAudit(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	entries, err := h.audit.ListFor(c.Request.Context(), actor, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": transport.NewAuditResponses(entries)})
}

// AddNote appends a staff note.
// POST /api/v1/jobs/:id/audit
func (h *Handler) AddNote(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.NoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	entry, err := h.audit.AddNote(c.Request.Context(), actor, jobID, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewAuditResponse(*entry))
}

// UpdateNote edits a note written by the caller.
// PUT /api/v1/audit/:entryId
func (h *Handler) UpdateNote(c *gin.Context) {
	entryID, ok := parseID(c, "entryId")
	if !ok {
		return
	}
	var req transport.NoteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	entry, err := h.audit.Update(c.Request.Context(), entryID, actor.ID, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewAuditResponse(*entry))
}

// DeleteNote removes a note written by the caller.
// DELETE /api/v1/audit/:entryId
func (h *Handler) DeleteNote(c *gin.Context) {
	entryID, ok := parseID(c, "entryId")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.audit.Delete(c.Request.Context(), entryID, actor.ID)) {
		return
	}
	httpkit.NoContent(c)
}
