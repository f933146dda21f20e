package domain

import (
	"testing"

	"itad_portal_backend/platform/apperr"
)

func TestTransitionLegalityAllPairs(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusQuoteDraft:         {StatusQuoteRequested: true, StatusCanceled: true},
		StatusQuoteRequested:     {StatusQuoteProvided: true, StatusCanceled: true},
		StatusQuoteProvided:      {StatusScheduled: true, StatusQuoteRejected: true, StatusCanceled: true},
		StatusNeedsScheduling:    {StatusRequestPending: true, StatusScheduled: true, StatusCollected: true, StatusCanceled: true},
		StatusRequestPending:     {StatusScheduled: true, StatusCollected: true, StatusCanceled: true},
		StatusScheduled:          {StatusPostponed: true, StatusCollected: true, StatusCanceled: true},
		StatusPostponed:          {StatusScheduled: true, StatusCollected: true, StatusCanceled: true},
		StatusCollected:          {StatusReceivedAtFacility: true},
		StatusReceivedAtFacility: {StatusProcessing: true},
		StatusProcessing:         {StatusComplete: true},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			job := &Job{Status: from}
			err := job.TransitionTo(to)
			if allowed[from][to] {
				if err != nil {
					t.Errorf("%s -> %s: unexpected error %v", from, to, err)
				}
				if job.Status != to {
					t.Errorf("%s -> %s: status is %s", from, to, job.Status)
				}
				continue
			}
			if !apperr.Is(err, apperr.KindInvalidTransition) {
				t.Errorf("%s -> %s: expected invalid transition, got %v", from, to, err)
			}
			if job.Status != from {
				t.Errorf("%s -> %s: status changed to %s after rejection", from, to, job.Status)
			}
		}
	}
}

func TestCanceledReachableOnlyBeforeCollection(t *testing.T) {
	for _, s := range AllStatuses {
		reachable := s.CanTransitionTo(StatusCanceled)
		switch s {
		case StatusCollected, StatusReceivedAtFacility, StatusProcessing, StatusComplete:
			if reachable {
				t.Errorf("%s must not reach Canceled", s)
			}
		}
	}
	for _, s := range []Status{StatusQuoteDraft, StatusQuoteRequested, StatusQuoteProvided, StatusNeedsScheduling, StatusRequestPending, StatusScheduled, StatusPostponed} {
		if !s.CanTransitionTo(StatusCanceled) {
			t.Errorf("%s should reach Canceled", s)
		}
	}
}

func TestEditableSet(t *testing.T) {
	editable := map[Status]bool{
		StatusNeedsScheduling: true,
		StatusRequestPending:  true,
		StatusScheduled:       true,
		StatusPostponed:       true,
		StatusQuoteDraft:      true,
	}
	for _, s := range AllStatuses {
		job := &Job{Status: s, Notes: "before"}
		notes := "after"
		err := job.Apply(JobPatch{Notes: &notes})
		if editable[s] {
			if err != nil || job.Notes != "after" {
				t.Errorf("%s: expected edit to apply, err=%v notes=%q", s, err, job.Notes)
			}
			continue
		}
		if !apperr.Is(err, apperr.KindNotEditable) {
			t.Errorf("%s: expected not editable, got %v", s, err)
		}
		if job.Notes != "before" {
			t.Errorf("%s: rejected edit still changed notes", s)
		}
	}
}

func TestEnsureDeletable(t *testing.T) {
	for _, s := range AllStatuses {
		err := (&Job{Status: s}).EnsureDeletable()
		if s == StatusQuoteDraft && err != nil {
			t.Fatalf("draft should be deletable: %v", err)
		}
		if s != StatusQuoteDraft && err == nil {
			t.Fatalf("%s should not be deletable", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("Received at Facility"); err != nil || s != StatusReceivedAtFacility {
		t.Fatalf("unexpected parse result %q %v", s, err)
	}
	if _, err := ParseStatus("Lost"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
