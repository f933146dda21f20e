package service

import (
	"context"
	"testing"
	"time"

	"itad_portal_backend/internal/events"
	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestQuoteFunnelHappyPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	job, err := f.lifecycle.RequestQuote(ctx, f.client)
	if err != nil {
		t.Fatalf("request quote: %v", err)
	}
	if job.Status != domain.StatusQuoteDraft {
		t.Fatalf("expected Quote Draft, got %s", job.Status)
	}
	if job.JobID != "J1001" {
		t.Fatalf("expected J1001, got %s", job.JobID)
	}
	if job.Address.Postcode != "LS1 1AA" || job.OnsiteContact.Phone != "+441134960000" {
		t.Fatalf("profile defaults not applied: %+v %+v", job.Address, job.OnsiteContact)
	}

	if job, err = f.lifecycle.SubmitQuoteRequest(ctx, f.client, job.ID); err != nil || job.Status != domain.StatusQuoteRequested {
		t.Fatalf("submit: %v %v", job, err)
	}

	amount := decimal.RequireFromString("150.00")
	job, err = f.lifecycle.ProvideQuote(ctx, f.staff, job.ID, amount, "Includes 2 pallets")
	if err != nil {
		t.Fatalf("provide quote: %v", err)
	}
	if job.Status != domain.StatusQuoteProvided || job.JobQuote == nil || !job.JobQuote.Equal(amount) {
		t.Fatalf("quote not recorded: %+v", job)
	}
	if job.QuoteInformation != "Includes 2 pallets" {
		t.Fatalf("unexpected quote information %q", job.QuoteInformation)
	}

	if job, err = f.lifecycle.AcceptQuote(ctx, f.client, job.ID); err != nil || job.Status != domain.StatusScheduled {
		t.Fatalf("accept: %v %v", job, err)
	}

	audits := f.store.AuditsFor(job.ID)
	want := []string{"Quote accepted", "Quote provided: 150.00", domain.AuditQuoteRequested, domain.AuditQuoteDraftCreated}
	if len(audits) != len(want) {
		t.Fatalf("expected %d audit entries, got %d", len(want), len(audits))
	}
	for i, e := range audits {
		if e.Content != want[i] || !e.IsSystem {
			t.Errorf("audit %d: %q system=%v, want %q", i, e.Content, e.IsSystem, want[i])
		}
	}

	names := f.bus.names()
	if !contains(names, events.JobQuoteProvidedName) || !contains(names, events.JobStatusChangedName) {
		t.Fatalf("expected quote provided and status events, got %v", names)
	}
}

func TestMarkProcessingFromScheduledIsRejected(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusScheduled)

	_, err := f.lifecycle.MarkProcessing(context.Background(), f.staff, job.ID, nil)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if f.status(job.ID) != domain.StatusScheduled {
		t.Fatalf("status changed to %s", f.status(job.ID))
	}
	if len(f.store.AuditsFor(job.ID)) != 0 {
		t.Fatalf("rejected transition wrote an audit entry")
	}
}

func TestDeleteDraftByOtherClientIsForbidden(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusQuoteDraft)
	other := uuid.New()
	intruder := domain.Actor{ID: uuid.New(), Role: domain.RoleClient, ClientID: &other}

	err := f.lifecycle.DeleteDraft(context.Background(), intruder, job.ID)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, ok := f.store.Jobs[job.ID]; !ok {
		t.Fatalf("job was deleted")
	}

	if err := f.lifecycle.DeleteDraft(context.Background(), f.client, job.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, ok := f.store.Jobs[job.ID]; ok {
		t.Fatalf("job still exists after owner delete")
	}
}

func TestDeleteDraftRequiresDraftStatus(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusQuoteRequested)

	err := f.lifecycle.DeleteDraft(context.Background(), f.client, job.ID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestCancelQuoteDraft(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusQuoteDraft)

	got, err := f.lifecycle.Cancel(context.Background(), f.manager, job.ID, "duplicate request")
	if err != nil {
		t.Fatalf("cancel draft: %v", err)
	}
	if got.Status != domain.StatusCanceled {
		t.Fatalf("status %s, want %s", got.Status, domain.StatusCanceled)
	}
	if len(f.store.AuditsFor(job.ID)) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(f.store.AuditsFor(job.ID)))
	}
}

func TestClientOperationsRequireOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	other := uuid.New()
	intruder := domain.Actor{ID: uuid.New(), Role: domain.RoleClient, ClientID: &other}

	tests := []struct {
		name   string
		status domain.Status
		call   func(domain.Actor, uuid.UUID) error
	}{
		{"submit", domain.StatusQuoteDraft, func(a domain.Actor, id uuid.UUID) error {
			_, err := f.lifecycle.SubmitQuoteRequest(ctx, a, id)
			return err
		}},
		{"accept", domain.StatusQuoteProvided, func(a domain.Actor, id uuid.UUID) error {
			_, err := f.lifecycle.AcceptQuote(ctx, a, id)
			return err
		}},
		{"reject", domain.StatusQuoteProvided, func(a domain.Actor, id uuid.UUID) error {
			_, err := f.lifecycle.RejectQuote(ctx, a, id)
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job := f.seedJob(tc.status)
			for _, actor := range []domain.Actor{intruder, f.staff, f.manager} {
				if err := tc.call(actor, job.ID); !apperr.Is(err, apperr.KindForbidden) {
					t.Fatalf("%s: expected forbidden, got %v", actor.Role, err)
				}
			}
			if f.status(job.ID) != tc.status {
				t.Fatalf("status changed after forbidden call")
			}
			if err := tc.call(f.client, job.ID); err != nil {
				t.Fatalf("owner call failed: %v", err)
			}
		})
	}
}

func TestStaffOperationsRejectClients(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusQuoteRequested)

	_, err := f.lifecycle.ProvideQuote(context.Background(), f.client, job.ID, decimal.NewFromInt(10), "")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = f.lifecycle.ProvideQuote(context.Background(), f.driver, job.ID, decimal.NewFromInt(10), "")
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("driver should not quote, got %v", err)
	}
}

func TestAcceptQuoteOnlyFromQuoteProvided(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusPostponed)

	_, err := f.lifecycle.AcceptQuote(context.Background(), f.client, job.ID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestOperationalFunnel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	job, err := f.lifecycle.CreateJob(ctx, f.staff, NewJobInput{ClientID: f.clientID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != domain.StatusNeedsScheduling || job.CollectionType != "Standard" {
		t.Fatalf("unexpected new job %+v", job)
	}

	date := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	if job, err = f.lifecycle.Schedule(ctx, f.staff, job.ID, &date); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if job, err = f.lifecycle.Postpone(ctx, f.staff, job.ID, "site closed"); err != nil || job.Status != domain.StatusPostponed {
		t.Fatalf("postpone: %v", err)
	}
	if job, err = f.lifecycle.Schedule(ctx, f.staff, job.ID, nil); err != nil || !job.CollectionDate.Equal(date) {
		t.Fatalf("reschedule: %v", err)
	}

	job, err = f.lifecycle.MarkCollected(ctx, f.driver, job.ID, CollectionSignOff{
		CustomerSignature: pngSignature, CustomerName: "Pat",
		DriverSignature: pngSignature, DriverName: "Sam",
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if job.CustomerSignature == nil || job.DriverSignature == nil || len(f.docs.stored) != 2 {
		t.Fatalf("signatures not stored: %+v", job)
	}

	received := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	job, err = f.lifecycle.MarkReceived(ctx, f.staff, job.ID, ReceiptSignOff{
		StaffSignature: pngSignature, StaffName: "Alex", ReceivedDate: received,
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if job.ReceivedDate == nil || !job.ReceivedDate.Equal(received) || job.StaffSignature == nil {
		t.Fatalf("receipt not recorded: %+v", job)
	}

	if job, err = f.lifecycle.MarkProcessing(ctx, f.staff, job.ID, nil); err != nil {
		t.Fatalf("processing: %v", err)
	}
	if job, err = f.lifecycle.MarkCompleted(ctx, f.staff, job.ID, nil); err != nil || job.Status != domain.StatusComplete {
		t.Fatalf("complete: %v", err)
	}
	if !contains(f.bus.names(), events.JobCompletedName) || !contains(f.bus.names(), events.JobCollectedName) {
		t.Fatalf("missing lifecycle events: %v", f.bus.names())
	}
}

func TestMarkCollectedRequiresBothSignatures(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusScheduled)

	_, err := f.lifecycle.MarkCollected(context.Background(), f.driver, job.ID, CollectionSignOff{
		CustomerSignature: pngSignature, CustomerName: "Pat", DriverName: "Sam",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.status(job.ID) != domain.StatusScheduled || len(f.docs.stored) != 0 {
		t.Fatalf("state changed on rejected collection")
	}
}

func TestMarkCollectedRejectedBeforeUpload(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusComplete)

	_, err := f.lifecycle.MarkCollected(context.Background(), f.driver, job.ID, CollectionSignOff{
		CustomerSignature: pngSignature, CustomerName: "Pat",
		DriverSignature: pngSignature, DriverName: "Sam",
	})
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(f.docs.stored) != 0 {
		t.Fatalf("signatures uploaded for an illegal transition")
	}
}

func TestMarkCollectedRollsBackOnStorageFailure(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusScheduled)
	f.store.FailOn = "InsertAudit"

	_, err := f.lifecycle.MarkCollected(context.Background(), f.driver, job.ID, CollectionSignOff{
		CustomerSignature: pngSignature, CustomerName: "Pat",
		DriverSignature: pngSignature, DriverName: "Sam",
	})
	if err == nil {
		t.Fatalf("expected failure")
	}
	stored := f.store.Jobs[job.ID]
	if stored.Status != domain.StatusScheduled || stored.CustomerSignature != nil {
		t.Fatalf("job changed despite failed transaction: %+v", stored)
	}
	if len(f.docs.stored) != 0 || len(f.docs.deleted) != 2 {
		t.Fatalf("uploaded signatures not compensated: stored=%d deleted=%d", len(f.docs.stored), len(f.docs.deleted))
	}
	if len(f.bus.names()) != 0 {
		t.Fatalf("events published for a failed transition")
	}
}

func TestMarkCompletedChecksItemsVersion(t *testing.T) {
	f := newFixture()
	job := f.seedJob(domain.StatusProcessing)
	stale := int64(3)

	_, err := f.lifecycle.MarkCompleted(context.Background(), f.staff, job.ID, &stale)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.status(job.ID) != domain.StatusProcessing {
		t.Fatalf("status changed on stale version")
	}

	current := int64(0)
	if _, err := f.lifecycle.MarkCompleted(context.Background(), f.staff, job.ID, &current); err != nil {
		t.Fatalf("complete with current version: %v", err)
	}
}

func TestUpdateRespectsEditableSet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	notes := "gate code 1234"

	editable := f.seedJob(domain.StatusScheduled)
	job, err := f.lifecycle.Update(ctx, f.staff, editable.ID, domain.JobPatch{
		Notes:         &notes,
		OnsiteContact: &domain.Contact{Name: "<b>Jo</b>", Phone: "020 7946 0958"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if job.Notes != notes || job.OnsiteContact.Name != "Jo" || job.OnsiteContact.Phone != "+442079460958" {
		t.Fatalf("patch not applied: %+v", job)
	}

	locked := f.seedJob(domain.StatusCollected)
	_, err = f.lifecycle.Update(ctx, f.staff, locked.ID, domain.JobPatch{Notes: &notes})
	if !apperr.Is(err, apperr.KindNotEditable) {
		t.Fatalf("expected not editable, got %v", err)
	}
	if len(f.store.AuditsFor(locked.ID)) != 0 {
		t.Fatalf("rejected edit wrote an audit entry")
	}
}

func TestCancelOnlyBeforeCollection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	open := f.seedJob(domain.StatusRequestPending)
	if _, err := f.lifecycle.Cancel(ctx, f.manager, open.ID, "duplicate"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	collected := f.seedJob(domain.StatusCollected)
	if _, err := f.lifecycle.Cancel(ctx, f.manager, collected.ID, ""); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestListScopesClientsToOwnJobs(t *testing.T) {
	f := newFixture()
	f.seedJob(domain.StatusScheduled)
	foreign := f.seedJob(domain.StatusScheduled)
	job := f.store.Jobs[foreign.ID]
	job.ClientID = uuid.New()
	f.store.Jobs[foreign.ID] = job

	res, err := f.lifecycle.List(context.Background(), f.client, repository.ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 1 || res.Items[0].ClientID != f.clientID {
		t.Fatalf("client saw foreign jobs: %+v", res.Items)
	}

	res, err = f.lifecycle.List(context.Background(), f.staff, repository.ListParams{})
	if err != nil || res.Total != 2 {
		t.Fatalf("staff list: %v %v", res, err)
	}
}

func TestJobIDsAreSequential(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		job, err := f.lifecycle.CreateJob(ctx, f.staff, NewJobInput{ClientID: f.clientID, CollectionType: "Van"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[job.JobID] {
			t.Fatalf("duplicate job id %s", job.JobID)
		}
		seen[job.JobID] = true
	}
	if !seen["J1001"] || !seen["J1005"] {
		t.Fatalf("unexpected ids %v", seen)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
