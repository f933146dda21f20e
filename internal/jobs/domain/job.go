package domain

import (
	"fmt"
	"time"

	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is the collection address of a job.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
	Country  string `json:"country,omitempty"`
}

// Contact is the person on site during collection.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Signature records who signed at a hand-over point and where the image is stored.
type Signature struct {
	Name        string    `json:"name"`
	DocumentKey string    `json:"documentKey"`
	SignedAt    time.Time `json:"signedAt"`
}

// Job is one collection engagement for a client.
type Job struct {
	ID                uuid.UUID
	JobID             string
	ClientID          uuid.UUID
	Status            Status
	CollectionDate    *time.Time
	CollectionType    string
	Address           Address
	OnsiteContact     Contact
	JobQuote          *decimal.Decimal
	QuoteInformation  string
	CustomerSignature *Signature
	DriverSignature   *Signature
	StaffSignature    *Signature
	ReceivedDate      *time.Time
	Notes             string
	ItemsVersion      int64
	CreatedBy         *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// JobPatch carries optional field edits. Nil fields are left unchanged.
type JobPatch struct {
	CollectionDate *time.Time
	CollectionType *string
	Address        *Address
	OnsiteContact  *Contact
	Notes          *string
}

// IsEmpty reports whether the patch changes nothing.
func (p JobPatch) IsEmpty() bool {
	return p.CollectionDate == nil && p.CollectionType == nil && p.Address == nil &&
		p.OnsiteContact == nil && p.Notes == nil
}

// TransitionTo moves the job to next or returns InvalidTransition, leaving
// the job untouched.
func (j *Job) TransitionTo(next Status) error {
	if !j.Status.CanTransitionTo(next) {
		return apperr.InvalidTransition(fmt.Sprintf("cannot move job from %q to %q", j.Status, next)).
			WithDetails(map[string]any{"from": j.Status, "to": next, "allowed": j.Status.Next()})
	}
	j.Status = next
	return nil
}

// EnsureEditable returns NotEditable when field edits are locked.
func (j *Job) EnsureEditable() error {
	if !j.Status.IsEditable() {
		return apperr.NotEditable(fmt.Sprintf("job fields cannot be changed while status is %q", j.Status))
	}
	return nil
}

// EnsureDeletable returns InvalidTransition unless the job is still a draft.
func (j *Job) EnsureDeletable() error {
	if j.Status != StatusQuoteDraft {
		return apperr.InvalidTransition(fmt.Sprintf("only %q jobs can be deleted", StatusQuoteDraft))
	}
	return nil
}

// Apply writes the patch onto the job after checking editability.
func (j *Job) Apply(p JobPatch) error {
	if err := j.EnsureEditable(); err != nil {
		return err
	}
	if p.CollectionDate != nil {
		d := *p.CollectionDate
		j.CollectionDate = &d
	}
	if p.CollectionType != nil {
		j.CollectionType = *p.CollectionType
	}
	if p.Address != nil {
		j.Address = *p.Address
	}
	if p.OnsiteContact != nil {
		j.OnsiteContact = *p.OnsiteContact
	}
	if p.Notes != nil {
		j.Notes = *p.Notes
	}
	return nil
}

// FormatJobID renders the human-readable job code for sequence value n.
func FormatJobID(prefix string, n int64) string {
	return fmt.Sprintf("%s%d", prefix, n)
}
