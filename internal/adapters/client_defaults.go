package adapters

import (
	"context"

	clientsrepo "itad_portal_backend/internal/clients/repository"
	"itad_portal_backend/internal/jobs/domain"
	jobsvc "itad_portal_backend/internal/jobs/service"

	"github.com/google/uuid"
)

// ClientLookup loads a client account without an access check.
type ClientLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*clientsrepo.Client, error)
}

// ClientDefaults adapts client profiles to the lifecycle's ClientDirectory.
type ClientDefaults struct {
	clients ClientLookup
}

// NewClientDefaults creates a new client defaults adapter.
func NewClientDefaults(clients ClientLookup) *ClientDefaults {
	return &ClientDefaults{clients: clients}
}

// Defaults returns the stored address and contact of a client. When the
// profile has no contact name the account name is used.
func (a *ClientDefaults) Defaults(ctx context.Context, clientID uuid.UUID) (*jobsvc.ClientDefaults, error) {
	c, err := a.clients.Lookup(ctx, clientID)
	if err != nil {
		return nil, err
	}

	contact := domain.Contact{Name: c.Contact.Name, Phone: c.Contact.Phone, Email: c.Contact.Email}
	if contact.Name == "" {
		contact.Name = c.Name
	}
	if contact.Email == "" {
		contact.Email = c.Email
	}
	if contact.Phone == "" && c.Phone != nil {
		contact.Phone = *c.Phone
	}

	return &jobsvc.ClientDefaults{
		Address: domain.Address(c.Address),
		Contact: contact,
	}, nil
}

// Compile-time check.
var _ jobsvc.ClientDirectory = (*ClientDefaults)(nil)
