// Package repository reads client accounts from Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clientNotFoundMsg = "client not found"

// Address is a client's stored postal address.
type Address struct {
	Line1    string
	Line2    string
	City     string
	County   string
	Postcode string
	Country  string
}

// Contact is a client's default site contact.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Client is one client account.
type Client struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	Address   Address
	Contact   Contact
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reader is the read contract of the clients service.
type Reader interface {
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
}

// Repository provides database operations for clients.
type Repository struct {
	db db.DBTX
}

// New creates a new clients repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// GetClient loads one client account.
func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `
		SELECT id, name, email, phone,
			address_line1, address_line2, address_city, address_county, address_postcode, address_country,
			contact_name, contact_phone, contact_email, created_at, updated_at
		FROM clients WHERE id = $1`, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone,
		&c.Address.Line1, &c.Address.Line2, &c.Address.City, &c.Address.County, &c.Address.Postcode, &c.Address.Country,
		&c.Contact.Name, &c.Contact.Phone, &c.Contact.Email, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(clientNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}
