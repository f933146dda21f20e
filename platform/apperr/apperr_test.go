package apperr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
		code string
	}{
		{NotFound("job not found"), http.StatusNotFound, "not_found"},
		{Validation("bad"), http.StatusBadRequest, "validation_error"},
		{Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{InvalidTransition("no edge"), http.StatusConflict, "invalid_transition"},
		{NotEditable("locked"), http.StatusConflict, "not_editable"},
		{DuplicateItemNumber("dup"), http.StatusConflict, "duplicate_item_number"},
		{Internal("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tests {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.err.Message, tc.want, got)
		}
		if got := tc.err.Code(); got != tc.code {
			t.Errorf("%s: expected code %q, got %q", tc.err.Message, tc.code, got)
		}
	}
}

func TestIsFollowsWrappedErrors(t *testing.T) {
	base := Forbidden("not the owner")
	wrapped := fmt.Errorf("delete draft: %w", base)

	if !Is(wrapped, KindForbidden) {
		t.Fatal("expected wrapped error to keep its kind")
	}
	if Is(wrapped, KindNotFound) {
		t.Fatal("expected kind mismatch to be reported")
	}
	if GetKind(fmt.Errorf("plain")) != KindUnknown {
		t.Fatal("expected plain errors to be KindUnknown")
	}
}

func TestErrorIncludesOp(t *testing.T) {
	err := NotEditable("job is locked").WithOp("jobs.Update")
	if err.Error() != "jobs.Update: job is locked" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
