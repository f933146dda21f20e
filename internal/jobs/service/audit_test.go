package service

import (
	"context"
	"testing"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestSystemEntriesAreImmutable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.seedJob(domain.StatusScheduled)

	entry, err := f.audit.Record(ctx, job.ID, nil, "Collection scheduled", true)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if _, err := f.audit.Update(ctx, entry.ID, f.staff.ID, "edited"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if err := f.audit.Delete(ctx, entry.ID, f.staff.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}

	entries, err := f.audit.List(ctx, job.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "Collection scheduled" {
		t.Fatalf("system entry changed: %+v", entries)
	}
}

func TestNotesAreEditableOnlyByAuthor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.seedJob(domain.StatusScheduled)

	note, err := f.audit.AddNote(ctx, f.staff, job.ID, "  <i>Loading bay at rear</i> ")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if note.IsSystem || note.StaffID == nil || *note.StaffID != f.staff.ID || note.Content != "Loading bay at rear" {
		t.Fatalf("unexpected note %+v", note)
	}

	if _, err := f.audit.Update(ctx, note.ID, f.manager.ID, "hijack"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-author, got %v", err)
	}
	updated, err := f.audit.Update(ctx, note.ID, f.staff.ID, "Loading bay at side")
	if err != nil {
		t.Fatalf("author update: %v", err)
	}
	if updated.Content != "Loading bay at side" {
		t.Fatalf("content not updated: %q", updated.Content)
	}

	if err := f.audit.Delete(ctx, note.ID, f.manager.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden delete for non-author, got %v", err)
	}
	if err := f.audit.Delete(ctx, note.ID, f.staff.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if len(f.store.AuditsFor(job.ID)) != 0 {
		t.Fatalf("note still present")
	}
}

func TestAddNoteValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.seedJob(domain.StatusScheduled)

	if _, err := f.audit.AddNote(ctx, f.client, job.ID, "hello"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for client, got %v", err)
	}
	if _, err := f.audit.AddNote(ctx, f.staff, job.ID, "<b></b>"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.audit.AddNote(ctx, f.driver, uuid.New(), "note"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAuditListIsNewestFirstAndScoped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	job := f.seedJob(domain.StatusScheduled)

	for _, content := range []string{"first", "second", "third"} {
		if _, err := f.audit.AddNote(ctx, f.staff, job.ID, content); err != nil {
			t.Fatalf("add note: %v", err)
		}
	}

	entries, err := f.audit.ListFor(ctx, f.client, job.ID)
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(entries) != 3 || entries[0].Content != "third" || entries[2].Content != "first" {
		t.Fatalf("unexpected order %+v", entries)
	}

	other := uuid.New()
	stranger := domain.Actor{ID: uuid.New(), Role: domain.RoleClient, ClientID: &other}
	if _, err := f.audit.ListFor(ctx, stranger, job.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
