// Package service exposes client profiles to their owners and to staff.
package service

import (
	"context"

	"itad_portal_backend/internal/clients/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"

	"github.com/google/uuid"
)

const roleClient = "Client"

// Service handles business logic for client profiles.
type Service struct {
	repo repository.Reader
}

// New creates a new clients service.
func New(repo repository.Reader) *Service {
	return &Service{repo: repo}
}

// Get loads a client profile. Client users may only load their own account.
func (s *Service) Get(ctx context.Context, caller httpkit.Identity, id uuid.UUID) (*repository.Client, error) {
	if caller.Role() == roleClient {
		if cid := caller.ClientID(); cid == nil || *cid != id {
			return nil, apperr.Forbidden("clients may only view their own profile")
		}
	}
	return s.repo.GetClient(ctx, id)
}

// Mine loads the profile of the caller's own client account.
func (s *Service) Mine(ctx context.Context, caller httpkit.Identity) (*repository.Client, error) {
	cid := caller.ClientID()
	if cid == nil {
		return nil, apperr.NotFound("no client account is linked to this user")
	}
	return s.repo.GetClient(ctx, *cid)
}

// Lookup loads a client without an access check. Used by other modules
// that have already authorized the caller.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (*repository.Client, error) {
	return s.repo.GetClient(ctx, id)
}
