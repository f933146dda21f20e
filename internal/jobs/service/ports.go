// Package service implements the job lifecycle, the item inventory and the
// audit log on top of the jobs repository.
package service

import (
	"context"

	"itad_portal_backend/internal/jobs/domain"

	"github.com/google/uuid"
)

// SignatureKind names which hand-over signature an image belongs to.
type SignatureKind string

const (
	SignatureCustomer SignatureKind = "signature_customer"
	SignatureDriver   SignatureKind = "signature_driver"
	SignatureStaff    SignatureKind = "signature_staff"
)

// SignatureImage is a decoded signature ready for storage.
type SignatureImage struct {
	ContentType string
	Data        []byte
}

// DocumentStore persists signature images. Implemented by an adapter over
// the documents module.
type DocumentStore interface {
	StoreSignature(ctx context.Context, jobID uuid.UUID, kind SignatureKind, img SignatureImage, uploadedBy uuid.UUID) (string, error)
	DeleteDocument(ctx context.Context, key string) error
}

// ClientDefaults are the stored address and contact of a client account.
type ClientDefaults struct {
	Address domain.Address
	Contact domain.Contact
}

// ClientDirectory supplies client profile defaults for new quote drafts.
type ClientDirectory interface {
	Defaults(ctx context.Context, clientID uuid.UUID) (*ClientDefaults, error)
}

// TaxonomyLookup answers read-only taxonomy questions. Unknown ids are
// reported as false, never as errors.
type TaxonomyLookup interface {
	CategoryExists(ctx context.Context, id int64) (bool, error)
	SubCategoryExists(ctx context.Context, id int64) (bool, error)
	DefaultCollectionType() string
}

// Config is the configuration the lifecycle service reads.
type Config interface {
	GetJobIDPrefix() string
	GetJobIDStart() int64
	GetDefaultPhoneRegion() string
}
