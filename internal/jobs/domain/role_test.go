package domain

import (
	"testing"

	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleStaff, CanProvideQuote, true},
		{RoleDriver, CanProvideQuote, false},
		{RoleClient, CanProvideQuote, false},
		{RoleDriver, CanMarkCollected, true},
		{RoleDriver, CanMarkReceived, false},
		{RoleClient, CanViewAllJobs, false},
		{RoleClient, CanRequestQuote, true},
		{RoleStaff, CanRequestQuote, false},
		{RoleStaff, CanCancel, false},
		{RoleManager, CanCancel, true},
		{RoleDeveloper, CanComplete, true},
	}
	for _, tc := range tests {
		if got := (Actor{Role: tc.role}).Can(tc.cap); got != tc.want {
			t.Errorf("%s can %s = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestIsOwner(t *testing.T) {
	clientID := uuid.New()
	job := &Job{ClientID: clientID}
	other := uuid.New()

	if !(Actor{Role: RoleClient, ClientID: &clientID}).IsOwner(job) {
		t.Fatalf("owning client not recognised")
	}
	if (Actor{Role: RoleClient, ClientID: &other}).IsOwner(job) {
		t.Fatalf("foreign client treated as owner")
	}
	if (Actor{Role: RoleStaff, ClientID: &clientID}).IsOwner(job) {
		t.Fatalf("staff must never be owner")
	}
	if err := (Actor{Role: RoleClient, ClientID: &other}).RequireOwner(job); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := (Actor{Role: RoleStaff}).RequireOwnerOr(job, CanViewAllJobs); err != nil {
		t.Fatalf("staff should view: %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("Administrator"); !ok || !r.IsStaff() {
		t.Fatalf("administrator should parse as staff")
	}
	if r, ok := ParseRole("Client"); !ok || r.IsStaff() {
		t.Fatalf("client should parse as non-staff")
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatalf("unknown role accepted")
	}
}

func TestAuditEntryCanModify(t *testing.T) {
	author := uuid.New()
	other := uuid.New()

	system := AuditEntry{IsSystem: true, StaffID: &author}
	for _, actor := range []uuid.UUID{author, other, uuid.Nil} {
		if err := system.CanModify(actor); !apperr.Is(err, apperr.KindForbidden) {
			t.Fatalf("system entry modifiable by %s: %v", actor, err)
		}
	}

	note := AuditEntry{StaffID: &author}
	if err := note.CanModify(author); err != nil {
		t.Fatalf("author should modify own note: %v", err)
	}
	if err := note.CanModify(other); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for other actor, got %v", err)
	}
}
