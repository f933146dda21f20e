// Package domain provides core business rules for the jobs bounded context:
// the status machine, item numbering and quantity expansion, roles and the
// audit entry model. Nothing in this package touches storage.
package domain

import "itad_portal_backend/platform/apperr"

// Status is the job_status of a Job. Only the constants below are valid.
type Status string

const (
	StatusQuoteDraft         Status = "Quote Draft"
	StatusQuoteRequested     Status = "Quote Requested"
	StatusQuoteProvided      Status = "Quote Provided"
	StatusQuoteRejected      Status = "Quote Rejected"
	StatusNeedsScheduling    Status = "Needs Scheduling"
	StatusRequestPending     Status = "Request Pending"
	StatusScheduled          Status = "Scheduled"
	StatusPostponed          Status = "Postponed"
	StatusCollected          Status = "Collected"
	StatusReceivedAtFacility Status = "Received at Facility"
	StatusProcessing         Status = "Processing"
	StatusComplete           Status = "Complete"
	StatusCanceled           Status = "Canceled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusQuoteDraft,
	StatusQuoteRequested,
	StatusQuoteProvided,
	StatusQuoteRejected,
	StatusNeedsScheduling,
	StatusRequestPending,
	StatusScheduled,
	StatusPostponed,
	StatusCollected,
	StatusReceivedAtFacility,
	StatusProcessing,
	StatusComplete,
	StatusCanceled,
}

// transitions is the adjacency map of the job state machine. A status absent
// from the map is terminal.
var transitions = map[Status][]Status{
	StatusQuoteDraft:         {StatusQuoteRequested, StatusCanceled},
	StatusQuoteRequested:     {StatusQuoteProvided, StatusCanceled},
	StatusQuoteProvided:      {StatusScheduled, StatusQuoteRejected, StatusCanceled},
	StatusNeedsScheduling:    {StatusRequestPending, StatusScheduled, StatusCollected, StatusCanceled},
	StatusRequestPending:     {StatusScheduled, StatusCollected, StatusCanceled},
	StatusScheduled:          {StatusPostponed, StatusCollected, StatusCanceled},
	StatusPostponed:          {StatusScheduled, StatusCollected, StatusCanceled},
	StatusCollected:          {StatusReceivedAtFacility},
	StatusReceivedAtFacility: {StatusProcessing},
	StatusProcessing:         {StatusComplete},
}

var editableStatuses = map[Status]bool{
	StatusNeedsScheduling: true,
	StatusRequestPending:  true,
	StatusScheduled:       true,
	StatusPostponed:       true,
	StatusQuoteDraft:      true,
}

// ParseStatus converts a stored or submitted string into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.Valid() {
		return "", apperr.Validation("unknown job status").WithDetails(map[string]string{"status": value})
	}
	return s, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether next is a legal edge from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func (s Status) Next() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsEditable reports whether non-status job fields may change in s.
func (s Status) IsEditable() bool {
	return editableStatuses[s]
}

// IsPreCollection reports whether s is in the operational funnel before
// collection has happened.
func (s Status) IsPreCollection() bool {
	switch s {
	case StatusNeedsScheduling, StatusRequestPending, StatusScheduled, StatusPostponed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// AllowsItemChanges reports whether items may be added, changed or removed
// from the given phase while the job is in s.
func (s Status) AllowsItemChanges(p Phase) bool {
	switch p {
	case PhaseCollection:
		return s.IsEditable() || s == StatusQuoteRequested || s == StatusQuoteProvided || s == StatusCollected
	case PhaseProcessing:
		return s == StatusReceivedAtFacility || s == StatusProcessing
	}
	return false
}
