package adapters

import (
	"context"
	"testing"

	clientsrepo "itad_portal_backend/internal/clients/repository"

	"github.com/google/uuid"
)

type clientLookup map[uuid.UUID]*clientsrepo.Client

func (l clientLookup) Lookup(_ context.Context, id uuid.UUID) (*clientsrepo.Client, error) {
	return l[id], nil
}

func TestClientDefaultsFallBackToAccountDetails(t *testing.T) {
	id := uuid.New()
	phone := "+441134960000"
	adapter := NewClientDefaults(clientLookup{id: {
		ID:      id,
		Name:    "Acme Ltd",
		Email:   "it@acme.test",
		Phone:   &phone,
		Address: clientsrepo.Address{Line1: "1 Dock Road", City: "Hull", Postcode: "HU1 1AA"},
	}})

	got, err := adapter.Defaults(context.Background(), id)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if got.Address.Postcode != "HU1 1AA" || got.Address.Line1 != "1 Dock Road" {
		t.Fatalf("unexpected address %+v", got.Address)
	}
	if got.Contact.Name != "Acme Ltd" || got.Contact.Email != "it@acme.test" || got.Contact.Phone != phone {
		t.Fatalf("unexpected contact %+v", got.Contact)
	}
}
