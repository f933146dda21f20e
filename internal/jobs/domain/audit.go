package domain

import (
	"time"

	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// AuditEntry is one line of a job's audit trail.
type AuditEntry struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	StaffID   *uuid.UUID
	Content   string
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanModify returns Forbidden for system entries and for anyone but the author.
func (e AuditEntry) CanModify(actorID uuid.UUID) error {
	if e.IsSystem {
		return apperr.Forbidden("system audit entries cannot be changed")
	}
	if e.StaffID == nil || *e.StaffID != actorID {
		return apperr.Forbidden("only the author may change this note")
	}
	return nil
}

// Transition audit messages.
const (
	AuditQuoteDraftCreated = "Quote draft created"
	AuditQuoteRequested    = "Quote requested"
	AuditJobCreated        = "Job created"
	AuditJobUpdated        = "Job details updated"
	AuditItemsSaved        = "Items saved"
	AuditItemRemoved       = "Item removed"
)
