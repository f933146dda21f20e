package handler

import (
	"net/http"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/internal/jobs/service"
	"itad_portal_backend/internal/jobs/transport"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"
	"itad_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for jobs, items and audit notes.
type Handler struct {
	lifecycle *service.Lifecycle
	inventory *service.Inventory
	audit     *service.AuditLog
	val       *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
	msgUnknownRole      = "unknown role"
)

// New creates a new jobs handler.
func New(lifecycle *service.Lifecycle, inventory *service.Inventory, audit *service.AuditLog, val *validator.Validator) *Handler {
	return &Handler{lifecycle: lifecycle, inventory: inventory, audit: audit, val: val}
}

// ListJobs lists jobs visible to the caller.
// GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	var req transport.ListJobsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	params := repository.ListParams{Search: req.Search, Page: req.Page, PageSize: req.PageSize}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if httpkit.HandleError(c, err) {
			return
		}
		params.Status = &status
	}

	result, err := h.lifecycle.List(c.Request.Context(), actor, params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewJobListResponse(result))
}

// GetJob retrieves one job.
// GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	h.withJob(c, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.Get(c.Request.Context(), actor, jobID)
	})
}

// CreateJob opens a job on behalf of a client.
// POST /api/v1/jobs
func (h *Handler) CreateJob(c *gin.Context) {
	var req transport.CreateJobRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	job, err := h.lifecycle.CreateJob(c.Request.Context(), actor, req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewJobResponse(job))
}

// UpdateJob edits job fields while the status allows it.
// PATCH /api/v1/jobs/:id
func (h *Handler) UpdateJob(c *gin.Context) {
	var req transport.UpdateJobRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.Update(c.Request.Context(), actor, jobID, req.ToPatch())
	})
}

// RequestQuote creates a quote draft for the calling client.
// POST /api/v1/quotes
func (h *Handler) RequestQuote(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	job, err := h.lifecycle.RequestQuote(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewJobResponse(job))
}

// SubmitQuoteRequest sends a draft to staff.
// POST /api/v1/jobs/:id/submit
func (h *Handler) SubmitQuoteRequest(c *gin.Context) {
	h.withJob(c, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.SubmitQuoteRequest(c.Request.Context(), actor, jobID)
	})
}

// ProvideQuote prices a requested quote.
// POST /api/v1/jobs/:id/quote
func (h *Handler) ProvideQuote(c *gin.Context) {
	var req transport.ProvideQuoteRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.ProvideQuote(c.Request.Context(), actor, jobID, req.Amount, req.Information)
	})
}

// AcceptQuote accepts a provided quote.
// POST /api/v1/jobs/:id/accept
func (h *Handler) AcceptQuote(c *gin.Context) {
	h.withJob(c, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.AcceptQuote(c.Request.Context(), actor, jobID)
	})
}

// RejectQuote rejects a provided quote.
// POST /api/v1/jobs/:id/reject
func (h *Handler) RejectQuote(c *gin.Context) {
	h.withJob(c, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.RejectQuote(c.Request.Context(), actor, jobID)
	})
}

// DeleteDraft removes a quote draft.
// DELETE /api/v1/jobs/:id
func (h *Handler) DeleteDraft(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.lifecycle.DeleteDraft(c.Request.Context(), actor, jobID)) {
		return
	}
	httpkit.NoContent(c)
}

// Schedule books the collection.
// POST /api/v1/jobs/:id/schedule
func (h *Handler) Schedule(c *gin.Context) {
	var req transport.ScheduleRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.Schedule(c.Request.Context(), actor, jobID, req.CollectionDate)
	})
}

// MarkRequestPending flags a collection date as requested.
// POST /api/v1/jobs/:id/request-pending
func (h *Handler) MarkRequestPending(c *gin.Context) {
	h.withJob(c, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.MarkRequestPending(c.Request.Context(), actor, jobID)
	})
}

// Postpone moves a scheduled job to Postponed.
// POST /api/v1/jobs/:id/postpone
func (h *Handler) Postpone(c *gin.Context) {
	var req transport.ReasonRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.Postpone(c.Request.Context(), actor, jobID, req.Reason)
	})
}

// Cancel abandons a job before collection.
// POST /api/v1/jobs/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	var req transport.ReasonRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.Cancel(c.Request.Context(), actor, jobID, req.Reason)
	})
}

// MarkCollected records collection signatures.
// POST /api/v1/jobs/:id/collected
func (h *Handler) MarkCollected(c *gin.Context) {
	var req transport.MarkCollectedRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.MarkCollected(c.Request.Context(), actor, jobID, service.CollectionSignOff{
			CustomerSignature: req.CustomerSignature,
			CustomerName:      req.CustomerName,
			DriverSignature:   req.DriverSignature,
			DriverName:        req.DriverName,
		})
	})
}

// MarkReceived records receipt at the facility.
// POST /api/v1/jobs/:id/received
func (h *Handler) MarkReceived(c *gin.Context) {
	var req transport.MarkReceivedRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.MarkReceived(c.Request.Context(), actor, jobID, service.ReceiptSignOff{
			StaffSignature: req.StaffSignature,
			StaffName:      req.StaffName,
			ReceivedDate:   req.ReceivedDate,
		})
	})
}

// MarkProcessing starts processing.
// POST /api/v1/jobs/:id/processing
func (h *Handler) MarkProcessing(c *gin.Context) {
	var req transport.ItemsVersionRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.MarkProcessing(c.Request.Context(), actor, jobID, req.ItemsVersion)
	})
}

// MarkCompleted finishes a job.
// POST /api/v1/jobs/:id/complete
func (h *Handler) MarkCompleted(c *gin.Context) {
	var req transport.ItemsVersionRequest
	h.withJobBody(c, &req, func(actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
		return h.lifecycle.MarkCompleted(c.Request.Context(), actor, jobID, req.ItemsVersion)
	})
}

// withJob runs op for the :id job and renders the resulting job.
func (h *Handler) withJob(c *gin.Context, op func(domain.Actor, uuid.UUID) (*domain.Job, error)) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	job, err := op(actor, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewJobResponse(job))
}

// withJobBody is withJob with a validated JSON body. An empty body is
// accepted for requests whose fields are all optional.
func (h *Handler) withJobBody(c *gin.Context, req interface{}, op func(domain.Actor, uuid.UUID) (*domain.Job, error)) {
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, req) {
			return
		}
	} else if err := h.val.Struct(req); err != nil {
		abortValidation(c, err)
		return
	}
	h.withJob(c, op)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		abortValidation(c, err)
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		abortValidation(c, err)
		return false
	}
	return true
}

func abortValidation(c *gin.Context, err error) {
	httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgValidationFailed, validator.Details(err))
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

// mustGetActor turns the authenticated identity into a domain actor.
func mustGetActor(c *gin.Context) (domain.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return domain.Actor{}, false
	}
	role, ok := domain.ParseRole(identity.Role())
	if !ok {
		httpkit.Error(c, http.StatusForbidden, apperr.KindForbidden.Code(), msgUnknownRole, nil)
		return domain.Actor{}, false
	}
	return domain.Actor{ID: identity.UserID(), Role: role, ClientID: identity.ClientID()}, true
}
