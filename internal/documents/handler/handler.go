// Package handler exposes job documents over HTTP.
package handler

import (
	"fmt"
	"net/http"

	"itad_portal_backend/internal/documents/service"
	"itad_portal_backend/internal/documents/transport"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"
	"itad_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidID        = "invalid id"
	msgValidationFailed = "validation failed"
	msgFileRequired     = "file is required"
)

// Handler handles HTTP requests for job documents.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new documents handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Upload stores a multipart file against a job.
func (h *Handler) Upload(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var form transport.UploadForm
	if err := c.ShouldBind(&form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgValidationFailed, err.Error())
		return
	}
	if err := h.val.Struct(form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgValidationFailed, validator.Details(err))
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgFileRequired, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	body, err := file.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgFileRequired, nil)
		return
	}
	defer body.Close()

	doc, err := h.svc.Upload(c.Request.Context(), identity, jobID, service.UploadInput{
		Type:        form.Type,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        body,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewDocumentResponse(*doc))
}

// List returns a job's documents.
func (h *Handler) List(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var query transport.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgValidationFailed, err.Error())
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgValidationFailed, validator.Details(err))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	docs, err := h.svc.List(c.Request.Context(), identity, jobID, query.Type)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewDocumentListResponse(docs))
}

// Download returns a presigned link to a document.
func (h *Handler) Download(c *gin.Context) {
	docID, ok := parseID(c, "docId")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	dl, err := h.svc.Download(c.Request.Context(), identity, docID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DownloadResponse{
		Document:  transport.NewDocumentResponse(dl.Document),
		URL:       dl.URL,
		ExpiresAt: dl.ExpiresAt,
	})
}

// Content streams a document body through the API.
func (h *Handler) Content(c *gin.Context) {
	docID, ok := parseID(c, "docId")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	doc, body, err := h.svc.Open(c.Request.Context(), identity, docID)
	if httpkit.HandleError(c, err) {
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", doc.FileName),
	})
}

// Delete removes a manually uploaded document.
func (h *Handler) Delete(c *gin.Context) {
	docID, ok := parseID(c, "docId")
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), identity, docID)) {
		return
	}
	httpkit.NoContent(c)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, apperr.KindValidation.Code(), msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}
