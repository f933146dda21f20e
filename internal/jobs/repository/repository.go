// Package repository persists jobs, items and audit entries in Postgres.
package repository

import (
	"context"
	"fmt"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	jobNotFoundMsg   = "job not found"
	itemNotFoundMsg  = "item not found"
	auditNotFoundMsg = "audit entry not found"

	jobIDConstraint      = "jobs_job_id_key"
	itemNumberConstraint = "job_items_job_item_number_key"
)

// ListParams filters a job listing.
type ListParams struct {
	ClientID *uuid.UUID
	Status   *domain.Status
	Search   string
	Page     int
	PageSize int
}

// ListResult is one page of jobs.
type ListResult struct {
	Items      []domain.Job
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Store is every query the jobs services need. Implementations returned to
// an InTx callback run inside that transaction.
type Store interface {
	NextJobNumber(ctx context.Context, prefix string, start int64) (int64, error)
	InsertJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	GetJobForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) error
	ListJobs(ctx context.Context, params ListParams) (*ListResult, error)

	ListItems(ctx context.Context, jobID uuid.UUID, includeDeleted bool) ([]domain.Item, error)
	InsertItem(ctx context.Context, item *domain.Item) error
	UpdateItem(ctx context.Context, item *domain.Item) error
	SoftDeleteItem(ctx context.Context, jobID, itemID uuid.UUID, at time.Time) error

	InsertAudit(ctx context.Context, entry *domain.AuditEntry) error
	GetAudit(ctx context.Context, id uuid.UUID) (*domain.AuditEntry, error)
	ListAudits(ctx context.Context, jobID uuid.UUID) ([]domain.AuditEntry, error)
	UpdateAudit(ctx context.Context, entry *domain.AuditEntry) error
	DeleteAudit(ctx context.Context, id uuid.UUID) error
}

// TxStore is a Store that can open a transaction.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(Store) error) error
}

// Repository provides database operations for jobs
type Repository struct {
	pool *pgxpool.Pool
	db   db.DBTX
}

// New creates a new jobs repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// InTx runs fn with a Store bound to a single transaction. Nested calls
// reuse the outer transaction.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx})
	})
}

// NextJobNumber atomically advances the job counter for prefix. The first
// value handed out is start+1.
func (r *Repository) NextJobNumber(ctx context.Context, prefix string, start int64) (int64, error) {
	var next int64
	query := `
		INSERT INTO job_counters (prefix, last_value)
		VALUES ($1, $2 + 1)
		ON CONFLICT (prefix) DO UPDATE SET last_value = job_counters.last_value + 1
		RETURNING last_value`

	if err := r.db.QueryRow(ctx, query, prefix, start).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to generate job number: %w", err)
	}
	return next, nil
}
