// Package transport defines the documents API payloads.
package transport

import (
	"time"

	"itad_portal_backend/internal/documents/repository"

	"github.com/google/uuid"
)

// UploadForm carries the non-file fields of a multipart upload.
type UploadForm struct {
	Type string `form:"type" validate:"required,oneof=manifest image certificate"`
}

// ListQuery filters a document listing.
type ListQuery struct {
	Type string `form:"type" validate:"omitempty,oneof=signature_customer signature_driver signature_staff manifest image certificate"`
}

// DocumentResponse describes one stored document.
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	JobID       uuid.UUID  `json:"jobId"`
	Type        string     `json:"type"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DocumentListResponse wraps a job's documents.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// DownloadResponse is a presigned link to a document.
type DownloadResponse struct {
	Document  DocumentResponse `json:"document"`
	URL       string           `json:"url"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// NewDocumentResponse maps a stored document.
func NewDocumentResponse(d repository.Document) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		JobID:       d.JobID,
		Type:        d.Type,
		FileName:    d.FileName,
		ContentType: d.ContentType,
		SizeBytes:   d.SizeBytes,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
	}
}

// NewDocumentListResponse maps a listing.
func NewDocumentListResponse(docs []repository.Document) DocumentListResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, NewDocumentResponse(d))
	}
	return DocumentListResponse{Documents: out}
}
