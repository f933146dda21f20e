// Package service stores, lists and serves job documents. Access to a job's
// documents is decided by a JobGuard supplied by the jobs module.
package service

import (
	"bytes"
	"context"
	"io"
	"path"
	"time"

	"itad_portal_backend/internal/adapters/storage"
	"itad_portal_backend/internal/documents/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"
	"itad_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Document types accepted by job_documents.
const (
	TypeSignatureCustomer = "signature_customer"
	TypeSignatureDriver   = "signature_driver"
	TypeSignatureStaff    = "signature_staff"
	TypeManifest          = "manifest"
	TypeImage             = "image"
	TypeCertificate       = "certificate"
)

var knownTypes = map[string]bool{
	TypeSignatureCustomer: true,
	TypeSignatureDriver:   true,
	TypeSignatureStaff:    true,
	TypeManifest:          true,
	TypeImage:             true,
	TypeCertificate:       true,
}

// IsSignature reports whether docType holds hand-over evidence. Signatures
// are written by the lifecycle only and cannot be uploaded or removed by hand.
func IsSignature(docType string) bool {
	switch docType {
	case TypeSignatureCustomer, TypeSignatureDriver, TypeSignatureStaff:
		return true
	}
	return false
}

// JobGuard decides whether a caller may read or change a job's documents.
type JobGuard interface {
	CanView(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID) error
	CanManage(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID) error
}

// UploadInput is one file received from a client.
type UploadInput struct {
	Type        string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Download is a presigned link for one document.
type Download struct {
	Document  repository.Document
	URL       string
	ExpiresAt time.Time
}

// Service handles business logic for job documents.
type Service struct {
	store   repository.Store
	storage storage.StorageService
	bucket  string
	guard   JobGuard
	log     *logger.Logger
	now     func() time.Time
}

// New creates a new documents service.
func New(store repository.Store, storageSvc storage.StorageService, bucket string, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		storage: storageSvc,
		bucket:  bucket,
		log:     log,
		now:     time.Now,
	}
}

// SetJobGuard injects the access check. It is set after the jobs module is
// built because the jobs module itself depends on this service.
func (s *Service) SetJobGuard(guard JobGuard) {
	s.guard = guard
}

func (s *Service) canView(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID) error {
	if s.guard == nil {
		return apperr.Internal("document access guard is not configured")
	}
	return s.guard.CanView(ctx, caller, jobID)
}

func (s *Service) canManage(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID) error {
	if s.guard == nil {
		return apperr.Internal("document access guard is not configured")
	}
	return s.guard.CanManage(ctx, caller, jobID)
}

// Upload validates and stores a manually uploaded file.
func (s *Service) Upload(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID, in UploadInput) (*repository.Document, error) {
	if !knownTypes[in.Type] {
		return nil, apperr.Validation("unknown document type").WithDetails(map[string]string{"field": "type"})
	}
	if IsSignature(in.Type) {
		return nil, apperr.Validation("signatures are captured when the job is signed off")
	}
	if err := storage.ValidateContentType(in.ContentType); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(in.Size); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.canManage(ctx, caller, jobID); err != nil {
		return nil, err
	}

	uploadedBy := caller.UserID()
	return s.put(ctx, jobID, in.Type, in.FileName, storage.NormalizeContentType(in.ContentType), in.Body, in.Size, &uploadedBy)
}

// StoreBytes stores a file produced by the server, such as a signature image.
// The caller has already authorized the write. It returns the object key.
func (s *Service) StoreBytes(ctx context.Context, jobID uuid.UUID, docType, fileName, contentType string, data []byte, uploadedBy uuid.UUID) (string, error) {
	if !knownTypes[docType] {
		return "", apperr.Validation("unknown document type")
	}
	doc, err := s.put(ctx, jobID, docType, fileName, contentType, bytes.NewReader(data), int64(len(data)), &uploadedBy)
	if err != nil {
		return "", err
	}
	return doc.ObjectKey, nil
}

func (s *Service) put(ctx context.Context, jobID uuid.UUID, docType, fileName, contentType string, body io.Reader, size int64, uploadedBy *uuid.UUID) (*repository.Document, error) {
	folder := path.Join("jobs", jobID.String(), docType)
	key, err := s.storage.UploadFile(ctx, s.bucket, folder, fileName, contentType, body, size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to store document", err)
	}

	doc := &repository.Document{
		ID:          uuid.New(),
		JobID:       jobID,
		Type:        docType,
		ObjectKey:   key,
		FileName:    path.Base(fileName),
		ContentType: contentType,
		SizeBytes:   size,
		UploadedBy:  uploadedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Insert(ctx, doc); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	s.log.WithContext(ctx).Info("document stored", "job_id", jobID, "type", docType, "key", key)
	return doc, nil
}

// List returns a job's documents, optionally restricted to one type.
func (s *Service) List(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID, docType string) ([]repository.Document, error) {
	if docType != "" && !knownTypes[docType] {
		return nil, apperr.Validation("unknown document type")
	}
	if err := s.canView(ctx, caller, jobID); err != nil {
		return nil, err
	}
	return s.store.ListForJob(ctx, jobID, docType)
}

// Download returns a short-lived link to a document.
func (s *Service) Download(ctx context.Context, caller httpkit.Identity, docID uuid.UUID) (*Download, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, caller, doc.JobID); err != nil {
		return nil, err
	}

	presigned, err := s.storage.GenerateDownloadURL(ctx, s.bucket, doc.ObjectKey)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create download link", err)
	}
	return &Download{Document: *doc, URL: presigned.URL, ExpiresAt: presigned.ExpiresAt}, nil
}

// Open streams a document's body. The caller closes the reader.
func (s *Service) Open(ctx context.Context, caller httpkit.Identity, docID uuid.UUID) (*repository.Document, io.ReadCloser, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.canView(ctx, caller, doc.JobID); err != nil {
		return nil, nil, err
	}

	body, err := s.storage.DownloadFile(ctx, s.bucket, doc.ObjectKey)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.KindInternal, "failed to read document", err)
	}
	return doc, body, nil
}

// Delete removes a manually uploaded document.
func (s *Service) Delete(ctx context.Context, caller httpkit.Identity, docID uuid.UUID) error {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return err
	}
	if err := s.canManage(ctx, caller, doc.JobID); err != nil {
		return err
	}
	if IsSignature(doc.Type) {
		return apperr.Forbidden("signatures cannot be removed")
	}

	if err := s.store.Delete(ctx, doc.ID); err != nil {
		return err
	}
	s.removeObject(ctx, doc.ObjectKey)
	return nil
}

// DeleteByKey removes a document stored by StoreBytes. Used to discard
// signatures when the transition that needed them fails.
func (s *Service) DeleteByKey(ctx context.Context, key string) error {
	if _, err := s.store.DeleteByKey(ctx, key); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	return s.storage.DeleteObject(ctx, s.bucket, key)
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if err := s.storage.DeleteObject(context.WithoutCancel(ctx), s.bucket, key); err != nil {
		s.log.WithContext(ctx).Warn("failed to remove stored object", "key", key, "error", err)
	}
}
