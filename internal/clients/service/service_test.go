package service

import (
	"context"
	"testing"

	"itad_portal_backend/internal/clients/repository"
	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type reader map[uuid.UUID]*repository.Client

func (r reader) GetClient(_ context.Context, id uuid.UUID) (*repository.Client, error) {
	if c, ok := r[id]; ok {
		return c, nil
	}
	return nil, apperr.NotFound("client not found")
}

type caller struct {
	role     string
	clientID *uuid.UUID
}

func (c caller) UserID() uuid.UUID     { return uuid.New() }
func (c caller) Role() string          { return c.role }
func (c caller) ClientID() *uuid.UUID  { return c.clientID }
func (c caller) IsAuthenticated() bool { return true }

func TestGetScopesClients(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	svc := New(reader{
		own:   {ID: own, Name: "Acme"},
		other: {ID: other, Name: "Globex"},
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		caller caller
		id     uuid.UUID
		kind   apperr.Kind
	}{
		{"own account", caller{role: "Client", clientID: &own}, own, apperr.KindUnknown},
		{"other account", caller{role: "Client", clientID: &own}, other, apperr.KindForbidden},
		{"client without account", caller{role: "Client"}, own, apperr.KindForbidden},
		{"staff", caller{role: "Staff"}, other, apperr.KindUnknown},
		{"missing", caller{role: "Manager"}, uuid.New(), apperr.KindNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Get(ctx, tc.caller, tc.id)
			if got := apperr.GetKind(err); got != tc.kind {
				t.Fatalf("kind = %v, want %v (%v)", got, tc.kind, err)
			}
		})
	}
}

func TestMine(t *testing.T) {
	own := uuid.New()
	svc := New(reader{own: {ID: own, Name: "Acme"}})

	c, err := svc.Mine(context.Background(), caller{role: "Client", clientID: &own})
	if err != nil || c.Name != "Acme" {
		t.Fatalf("mine: %v %+v", err, c)
	}
	if _, err := svc.Mine(context.Background(), caller{role: "Staff"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
