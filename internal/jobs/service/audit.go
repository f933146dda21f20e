package service

import (
	"context"
	"strings"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// AuditLog is the append-only ledger of job events and staff notes.
type AuditLog struct {
	store repository.TxStore
	now   func() time.Time
}

// NewAuditLog creates the audit service.
func NewAuditLog(store repository.TxStore) *AuditLog {
	return &AuditLog{store: store, now: time.Now}
}

// Record appends an entry to an existing job.
func (a *AuditLog) Record(ctx context.Context, jobID uuid.UUID, actorID *uuid.UUID, content string, isSystem bool) (*domain.AuditEntry, error) {
	var entry *domain.AuditEntry
	err := a.store.InTx(ctx, func(st repository.Store) error {
		if _, err := st.GetJob(ctx, jobID); err != nil {
			return err
		}
		e, err := appendAudit(ctx, st, a.now(), jobID, actorID, content, isSystem)
		entry = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddNote records a human note authored by actor.
func (a *AuditLog) AddNote(ctx context.Context, actor domain.Actor, jobID uuid.UUID, content string) (*domain.AuditEntry, error) {
	if err := actor.Require(domain.CanWriteNotes); err != nil {
		return nil, err
	}
	content = sanitize.Text(content)
	if content == "" {
		return nil, apperr.Validation("note content is required")
	}
	return a.Record(ctx, jobID, &actor.ID, content, false)
}

// List returns a job's entries, newest first.
func (a *AuditLog) List(ctx context.Context, jobID uuid.UUID) ([]domain.AuditEntry, error) {
	if _, err := a.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return a.store.ListAudits(ctx, jobID)
}

// ListFor returns a job's entries when actor may view the job.
func (a *AuditLog) ListFor(ctx context.Context, actor domain.Actor, jobID uuid.UUID) ([]domain.AuditEntry, error) {
	job, err := a.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireOwnerOr(job, domain.CanViewAllJobs); err != nil {
		return nil, err
	}
	return a.store.ListAudits(ctx, jobID)
}

// Update changes a note's content. Only the author may edit, and system
// entries never change.
func (a *AuditLog) Update(ctx context.Context, entryID, actorID uuid.UUID, content string) (*domain.AuditEntry, error) {
	content = sanitize.Text(content)
	if content == "" {
		return nil, apperr.Validation("note content is required")
	}

	var updated *domain.AuditEntry
	err := a.store.InTx(ctx, func(st repository.Store) error {
		entry, err := st.GetAudit(ctx, entryID)
		if err != nil {
			return err
		}
		if err := entry.CanModify(actorID); err != nil {
			return err
		}
		entry.Content = content
		entry.UpdatedAt = a.now()
		if err := st.UpdateAudit(ctx, entry); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a note under the same rule as Update.
func (a *AuditLog) Delete(ctx context.Context, entryID, actorID uuid.UUID) error {
	return a.store.InTx(ctx, func(st repository.Store) error {
		entry, err := st.GetAudit(ctx, entryID)
		if err != nil {
			return err
		}
		if err := entry.CanModify(actorID); err != nil {
			return err
		}
		return st.DeleteAudit(ctx, entryID)
	})
}

func appendAudit(ctx context.Context, st repository.Store, now time.Time, jobID uuid.UUID, actorID *uuid.UUID, content string, isSystem bool) (*domain.AuditEntry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("audit content is required")
	}
	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		JobID:     jobID,
		StaffID:   actorID,
		Content:   content,
		IsSystem:  isSystem,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.InsertAudit(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
