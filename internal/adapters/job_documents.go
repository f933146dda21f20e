package adapters

import (
	"context"

	docsvc "itad_portal_backend/internal/documents/service"
	"itad_portal_backend/internal/jobs/domain"
	jobsvc "itad_portal_backend/internal/jobs/service"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"

	"github.com/google/uuid"
)

// DocumentBytesStore is the part of the documents service used for signatures.
type DocumentBytesStore interface {
	StoreBytes(ctx context.Context, jobID uuid.UUID, docType, fileName, contentType string, data []byte, uploadedBy uuid.UUID) (string, error)
	DeleteByKey(ctx context.Context, key string) error
}

// SignatureStore adapts the documents service to the lifecycle's DocumentStore.
type SignatureStore struct {
	docs DocumentBytesStore
}

// NewSignatureStore creates a new signature store adapter.
func NewSignatureStore(docs DocumentBytesStore) *SignatureStore {
	return &SignatureStore{docs: docs}
}

// StoreSignature saves a signature image as a job document and returns its key.
func (s *SignatureStore) StoreSignature(ctx context.Context, jobID uuid.UUID, kind jobsvc.SignatureKind, img jobsvc.SignatureImage, uploadedBy uuid.UUID) (string, error) {
	fileName := string(kind) + signatureExtension(img.ContentType)
	return s.docs.StoreBytes(ctx, jobID, string(kind), fileName, img.ContentType, img.Data, uploadedBy)
}

// DeleteDocument removes a previously stored signature.
func (s *SignatureStore) DeleteDocument(ctx context.Context, key string) error {
	return s.docs.DeleteByKey(ctx, key)
}

func signatureExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// JobReader loads a job after checking the actor may see it.
type JobReader interface {
	Get(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error)
}

// JobDocumentGuard answers document access questions from the job's
// ownership and the caller's capabilities.
type JobDocumentGuard struct {
	jobs JobReader
}

// NewJobDocumentGuard creates a new guard adapter.
func NewJobDocumentGuard(jobs JobReader) *JobDocumentGuard {
	return &JobDocumentGuard{jobs: jobs}
}

// CanView admits the owning client and any role that can view all jobs.
func (g *JobDocumentGuard) CanView(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID) error {
	actor, err := actorFromIdentity(caller)
	if err != nil {
		return err
	}
	_, err = g.jobs.Get(ctx, actor, jobID)
	return err
}

// CanManage admits roles granted document management on a visible job.
func (g *JobDocumentGuard) CanManage(ctx context.Context, caller httpkit.Identity, jobID uuid.UUID) error {
	actor, err := actorFromIdentity(caller)
	if err != nil {
		return err
	}
	if err := actor.Require(domain.CanManageDocument); err != nil {
		return err
	}
	_, err = g.jobs.Get(ctx, actor, jobID)
	return err
}

func actorFromIdentity(caller httpkit.Identity) (domain.Actor, error) {
	if caller == nil || !caller.IsAuthenticated() {
		return domain.Actor{}, apperr.Unauthorized("unauthorized")
	}
	role, ok := domain.ParseRole(caller.Role())
	if !ok {
		return domain.Actor{}, apperr.Forbidden("unknown role")
	}
	return domain.Actor{ID: caller.UserID(), Role: role, ClientID: caller.ClientID()}, nil
}

// Compile-time checks.
var (
	_ jobsvc.DocumentStore = (*SignatureStore)(nil)
	_ docsvc.JobGuard      = (*JobDocumentGuard)(nil)
	_ DocumentBytesStore   = (*docsvc.Service)(nil)
	_ JobReader            = (*jobsvc.Lifecycle)(nil)
)
