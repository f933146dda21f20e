package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"itad_portal_backend/internal/events"
	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/sanitize"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewJobInput is what staff supply when creating a job directly.
type NewJobInput struct {
	ClientID       uuid.UUID
	CollectionDate *time.Time
	CollectionType string
	Address        *domain.Address
	OnsiteContact  *domain.Contact
	Notes          string
}

// CollectionSignOff carries the two signatures captured at collection.
type CollectionSignOff struct {
	CustomerSignature string
	CustomerName      string
	DriverSignature   string
	DriverName        string
}

// ReceiptSignOff carries the staff signature captured at the facility.
type ReceiptSignOff struct {
	StaffSignature string
	StaffName      string
	ReceivedDate   time.Time
}

// ---- Quote funnel ----

// RequestQuote creates a Quote Draft for the calling client, seeded from the
// client's stored address and contact.
func (s *Lifecycle) RequestQuote(ctx context.Context, actor domain.Actor) (*domain.Job, error) {
	if err := actor.Require(domain.CanRequestQuote); err != nil {
		return nil, err
	}
	if actor.ClientID == nil {
		return nil, apperr.Forbidden("client account missing")
	}

	job := &domain.Job{ClientID: *actor.ClientID, Status: domain.StatusQuoteDraft, CreatedBy: &actor.ID}
	if s.clients != nil {
		defaults, err := s.clients.Defaults(ctx, *actor.ClientID)
		if err != nil {
			return nil, err
		}
		job.Address = sanitizeAddress(defaults.Address)
		job.OnsiteContact = s.normalizeContact(defaults.Contact)
	}
	return s.createJob(ctx, job, domain.AuditQuoteDraftCreated)
}

// SubmitQuoteRequest sends the client's draft to staff for pricing.
func (s *Lifecycle) SubmitQuoteRequest(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
	return s.run(ctx, actor, jobID, transition{
		op:        "submit_quote_request",
		from:      []domain.Status{domain.StatusQuoteDraft},
		to:        domain.StatusQuoteRequested,
		authorize: requireOwner,
		audit:     staticAudit(domain.AuditQuoteRequested),
	})
}

// ProvideQuote attaches staff pricing to a requested quote.
func (s *Lifecycle) ProvideQuote(ctx context.Context, actor domain.Actor, jobID uuid.UUID, amount decimal.Decimal, info string) (*domain.Job, error) {
	if amount.IsNegative() {
		return nil, apperr.Validation("quote amount must not be negative")
	}
	amount = amount.Round(2)
	info = sanitize.Text(info)

	return s.run(ctx, actor, jobID, transition{
		op:        "provide_quote",
		from:      []domain.Status{domain.StatusQuoteRequested},
		to:        domain.StatusQuoteProvided,
		authorize: requireCapability(domain.CanProvideQuote),
		apply: func(_ context.Context, _ repository.Store, job *domain.Job) error {
			job.JobQuote = &amount
			job.QuoteInformation = info
			return nil
		},
		audit: func(*domain.Job) string {
			return fmt.Sprintf("Quote provided: %s", amount.StringFixed(2))
		},
		events: func(job *domain.Job) []events.Event {
			return []events.Event{events.JobQuoteProvided{
				BaseEvent:   events.NewBaseEvent(),
				Job:         jobRef(job),
				Amount:      amount,
				Information: info,
			}}
		},
	})
}

// AcceptQuote schedules a quoted job on behalf of its owner.
func (s *Lifecycle) AcceptQuote(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
	return s.run(ctx, actor, jobID, transition{
		op:        "accept_quote",
		from:      []domain.Status{domain.StatusQuoteProvided},
		to:        domain.StatusScheduled,
		authorize: requireOwner,
		audit:     staticAudit("Quote accepted"),
	})
}

// RejectQuote closes a quoted job on behalf of its owner.
func (s *Lifecycle) RejectQuote(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
	return s.run(ctx, actor, jobID, transition{
		op:        "reject_quote",
		from:      []domain.Status{domain.StatusQuoteProvided},
		to:        domain.StatusQuoteRejected,
		authorize: requireOwner,
		audit:     staticAudit("Quote rejected"),
	})
}

// DeleteDraft hard-deletes a Quote Draft owned by the caller.
func (s *Lifecycle) DeleteDraft(ctx context.Context, actor domain.Actor, jobID uuid.UUID) error {
	var code string
	err := s.store.InTx(ctx, func(st repository.Store) error {
		job, err := st.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := actor.RequireOwner(job); err != nil {
			return err
		}
		if err := job.EnsureDeletable(); err != nil {
			return err
		}
		code = job.JobID
		return st.DeleteJob(ctx, jobID)
	})
	if err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("quote draft deleted", "job_id", code, "actor_id", actor.ID)
	return nil
}

// ---- Operational funnel ----

// CreateJob opens a staff-created job in Needs Scheduling. A missing
// collection type falls back to the configured default.
func (s *Lifecycle) CreateJob(ctx context.Context, actor domain.Actor, in NewJobInput) (*domain.Job, error) {
	if err := actor.Require(domain.CanCreateJob); err != nil {
		return nil, err
	}
	if in.ClientID == uuid.Nil {
		return nil, apperr.Validation("clientId is required")
	}

	job := &domain.Job{
		ClientID:       in.ClientID,
		Status:         domain.StatusNeedsScheduling,
		CollectionDate: in.CollectionDate,
		CollectionType: strings.TrimSpace(in.CollectionType),
		Notes:          sanitize.Text(in.Notes),
		CreatedBy:      &actor.ID,
	}
	if job.CollectionType == "" && s.taxonomy != nil {
		job.CollectionType = s.taxonomy.DefaultCollectionType()
	}

	if in.Address == nil || in.OnsiteContact == nil {
		if s.clients != nil {
			defaults, err := s.clients.Defaults(ctx, in.ClientID)
			if err != nil {
				return nil, err
			}
			job.Address, job.OnsiteContact = defaults.Address, defaults.Contact
		}
	}
	if in.Address != nil {
		job.Address = *in.Address
	}
	if in.OnsiteContact != nil {
		job.OnsiteContact = *in.OnsiteContact
	}
	job.Address = sanitizeAddress(job.Address)
	job.OnsiteContact = s.normalizeContact(job.OnsiteContact)

	return s.createJob(ctx, job, domain.AuditJobCreated)
}

// Update edits job fields while the status permits it. The owning client
// and office staff may edit.
func (s *Lifecycle) Update(ctx context.Context, actor domain.Actor, jobID uuid.UUID, patch domain.JobPatch) (*domain.Job, error) {
	if patch.IsEmpty() {
		return nil, apperr.Validation("no fields to update")
	}
	if patch.Address != nil {
		a := sanitizeAddress(*patch.Address)
		patch.Address = &a
	}
	if patch.OnsiteContact != nil {
		c := s.normalizeContact(*patch.OnsiteContact)
		patch.OnsiteContact = &c
	}
	if patch.Notes != nil {
		n := sanitize.Text(*patch.Notes)
		patch.Notes = &n
	}
	if patch.CollectionType != nil {
		ct := strings.TrimSpace(*patch.CollectionType)
		patch.CollectionType = &ct
	}

	var updated *domain.Job
	err := s.store.InTx(ctx, func(st repository.Store) error {
		job, err := st.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := actor.RequireOwnerOr(job, domain.CanEditJob); err != nil {
			return err
		}
		if err := job.Apply(patch); err != nil {
			return err
		}
		job.UpdatedAt = s.now()
		if err := st.UpdateJob(ctx, job); err != nil {
			return err
		}
		if _, err := appendAudit(ctx, st, s.now(), job.ID, nil, domain.AuditJobUpdated, true); err != nil {
			return err
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Schedule books (or rebooks) a collection. Quoted jobs are scheduled only
// through AcceptQuote.
func (s *Lifecycle) Schedule(ctx context.Context, actor domain.Actor, jobID uuid.UUID, date *time.Time) (*domain.Job, error) {
	return s.run(ctx, actor, jobID, transition{
		op:        "schedule",
		from:      []domain.Status{domain.StatusNeedsScheduling, domain.StatusRequestPending, domain.StatusPostponed},
		to:        domain.StatusScheduled,
		authorize: requireCapability(domain.CanSchedule),
		apply: func(_ context.Context, _ repository.Store, job *domain.Job) error {
			if date != nil {
				d := *date
				job.CollectionDate = &d
			}
			return nil
		},
		audit: func(job *domain.Job) string {
			if job.CollectionDate != nil {
				return "Collection scheduled for " + job.CollectionDate.Format("2006-01-02")
			}
			return "Collection scheduled"
		},
	})
}

// MarkRequestPending records that a collection date has been requested but
// not confirmed.
func (s *Lifecycle) MarkRequestPending(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
	return s.run(ctx, actor, jobID, transition{
		op:        "mark_request_pending",
		from:      []domain.Status{domain.StatusNeedsScheduling},
		to:        domain.StatusRequestPending,
		authorize: requireCapability(domain.CanSchedule),
		audit:     staticAudit("Collection request pending"),
	})
}

// Postpone moves a scheduled collection back out of the diary.
func (s *Lifecycle) Postpone(ctx context.Context, actor domain.Actor, jobID uuid.UUID, reason string) (*domain.Job, error) {
	reason = sanitize.Text(reason)
	return s.run(ctx, actor, jobID, transition{
		op:        "postpone",
		from:      []domain.Status{domain.StatusScheduled},
		to:        domain.StatusPostponed,
		authorize: requireCapability(domain.CanSchedule),
		audit:     staticAudit(withReason("Collection postponed", reason)),
	})
}

// Cancel abandons a job before collection.
func (s *Lifecycle) Cancel(ctx context.Context, actor domain.Actor, jobID uuid.UUID, reason string) (*domain.Job, error) {
	reason = sanitize.Text(reason)
	return s.run(ctx, actor, jobID, transition{
		op:        "cancel",
		to:        domain.StatusCanceled,
		authorize: requireCapability(domain.CanCancel),
		audit:     staticAudit(withReason("Job canceled", reason)),
	})
}

// MarkCollected stores the customer and driver signatures and moves the job
// to Collected. Both signatures are required.
func (s *Lifecycle) MarkCollected(ctx context.Context, actor domain.Actor, jobID uuid.UUID, in CollectionSignOff) (*domain.Job, error) {
	customerName, driverName := sanitize.Line(in.CustomerName), sanitize.Line(in.DriverName)
	if customerName == "" || driverName == "" {
		return nil, apperr.Validation("customer and driver names are required")
	}
	customerImg, err := DecodeSignature("customerSignature", in.CustomerSignature)
	if err != nil {
		return nil, err
	}
	driverImg, err := DecodeSignature("driverSignature", in.DriverSignature)
	if err != nil {
		return nil, err
	}

	t := transition{
		op: "mark_collected",
		from: []domain.Status{
			domain.StatusNeedsScheduling, domain.StatusRequestPending,
			domain.StatusScheduled, domain.StatusPostponed,
		},
		to:        domain.StatusCollected,
		authorize: requireCapability(domain.CanMarkCollected),
		audit: func(*domain.Job) string {
			return fmt.Sprintf("Collected (customer: %s, driver: %s)", customerName, driverName)
		},
		events: func(job *domain.Job) []events.Event {
			return []events.Event{events.JobCollected{
				BaseEvent:    events.NewBaseEvent(),
				Job:          jobRef(job),
				CustomerName: customerName,
				DriverName:   driverName,
			}}
		},
	}
	if err := s.precheck(ctx, actor, jobID, t); err != nil {
		return nil, err
	}

	keys, err := s.storeSignatures(ctx, actor, jobID,
		signatureUpload{SignatureCustomer, customerImg},
		signatureUpload{SignatureDriver, driverImg},
	)
	if err != nil {
		return nil, err
	}

	t.apply = func(_ context.Context, _ repository.Store, job *domain.Job) error {
		at := s.now()
		job.CustomerSignature = &domain.Signature{Name: customerName, DocumentKey: keys[0], SignedAt: at}
		job.DriverSignature = &domain.Signature{Name: driverName, DocumentKey: keys[1], SignedAt: at}
		return nil
	}
	job, err := s.run(ctx, actor, jobID, t)
	if err != nil {
		s.discardSignatures(ctx, keys)
		return nil, err
	}
	return job, nil
}

// MarkReceived stores the staff signature and received date and moves the
// job to Received at Facility.
func (s *Lifecycle) MarkReceived(ctx context.Context, actor domain.Actor, jobID uuid.UUID, in ReceiptSignOff) (*domain.Job, error) {
	staffName := sanitize.Line(in.StaffName)
	if staffName == "" {
		return nil, apperr.Validation("staff name is required")
	}
	if in.ReceivedDate.IsZero() {
		return nil, apperr.Validation("receivedDate is required")
	}
	staffImg, err := DecodeSignature("staffSignature", in.StaffSignature)
	if err != nil {
		return nil, err
	}
	received := in.ReceivedDate

	t := transition{
		op:        "mark_received",
		from:      []domain.Status{domain.StatusCollected},
		to:        domain.StatusReceivedAtFacility,
		authorize: requireCapability(domain.CanMarkReceived),
		audit: func(*domain.Job) string {
			return fmt.Sprintf("Received at facility on %s (staff: %s)", received.Format("2006-01-02"), staffName)
		},
	}
	if err := s.precheck(ctx, actor, jobID, t); err != nil {
		return nil, err
	}

	keys, err := s.storeSignatures(ctx, actor, jobID, signatureUpload{SignatureStaff, staffImg})
	if err != nil {
		return nil, err
	}

	t.apply = func(_ context.Context, _ repository.Store, job *domain.Job) error {
		job.StaffSignature = &domain.Signature{Name: staffName, DocumentKey: keys[0], SignedAt: s.now()}
		job.ReceivedDate = &received
		return nil
	}
	job, err := s.run(ctx, actor, jobID, t)
	if err != nil {
		s.discardSignatures(ctx, keys)
		return nil, err
	}
	return job, nil
}

// MarkProcessing starts processing. When itemsVersion is given it must match
// the job's current inventory version.
func (s *Lifecycle) MarkProcessing(ctx context.Context, actor domain.Actor, jobID uuid.UUID, itemsVersion *int64) (*domain.Job, error) {
	return s.run(ctx, actor, jobID, transition{
		op:        "mark_processing",
		from:      []domain.Status{domain.StatusReceivedAtFacility},
		to:        domain.StatusProcessing,
		authorize: requireCapability(domain.CanProcess),
		apply:     checkItemsVersion(itemsVersion),
		audit:     staticAudit("Processing started"),
	})
}

// MarkCompleted finishes processing, under the same itemsVersion rule as
// MarkProcessing.
func (s *Lifecycle) MarkCompleted(ctx context.Context, actor domain.Actor, jobID uuid.UUID, itemsVersion *int64) (*domain.Job, error) {
	var itemCount int
	versionCheck := checkItemsVersion(itemsVersion)
	return s.run(ctx, actor, jobID, transition{
		op:        "mark_completed",
		from:      []domain.Status{domain.StatusProcessing},
		to:        domain.StatusComplete,
		authorize: requireCapability(domain.CanComplete),
		apply: func(ctx context.Context, st repository.Store, job *domain.Job) error {
			if err := versionCheck(ctx, st, job); err != nil {
				return err
			}
			items, err := st.ListItems(ctx, job.ID, false)
			if err != nil {
				return err
			}
			for _, it := range items {
				itemCount += it.Quantity
			}
			return nil
		},
		audit: func(*domain.Job) string {
			return fmt.Sprintf("Job completed (%d items)", itemCount)
		},
		events: func(job *domain.Job) []events.Event {
			return []events.Event{events.JobCompleted{
				BaseEvent: events.NewBaseEvent(),
				Job:       jobRef(job),
				ItemCount: itemCount,
			}}
		},
	})
}

func checkItemsVersion(expected *int64) func(context.Context, repository.Store, *domain.Job) error {
	return func(_ context.Context, _ repository.Store, job *domain.Job) error {
		if expected != nil && *expected != job.ItemsVersion {
			return staleItemsError(job.ItemsVersion)
		}
		return nil
	}
}

func withReason(base, reason string) string {
	if reason == "" {
		return base
	}
	return base + ": " + reason
}

type signatureUpload struct {
	kind SignatureKind
	img  SignatureImage
}

func (s *Lifecycle) storeSignatures(ctx context.Context, actor domain.Actor, jobID uuid.UUID, uploads ...signatureUpload) ([]string, error) {
	if s.docs == nil {
		return nil, apperr.Internal("document storage is not configured")
	}
	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		key, err := s.docs.StoreSignature(ctx, jobID, u.kind, u.img, actor.ID)
		if err != nil {
			s.discardSignatures(ctx, keys)
			return nil, apperr.Wrap(apperr.KindInternal, "failed to store signature", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Lifecycle) discardSignatures(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.docs.DeleteDocument(context.WithoutCancel(ctx), key); err != nil {
			s.log.WithContext(ctx).Warn("failed to remove orphaned signature", "key", key, "error", err)
		}
	}
}
