package repository

import (
	"context"
	"errors"
	"fmt"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const auditColumns = `id, job_id, staff_id, content, is_system, created_at, updated_at`

func scanAudit(row pgx.Row) (domain.AuditEntry, error) {
	var e domain.AuditEntry
	err := row.Scan(&e.ID, &e.JobID, &e.StaffID, &e.Content, &e.IsSystem, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// InsertAudit appends an audit entry.
func (r *Repository) InsertAudit(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_audits (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.JobID, entry.StaffID, entry.Content, entry.IsSystem, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// GetAudit loads one audit entry.
func (r *Repository) GetAudit(ctx context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	e, err := scanAudit(r.db.QueryRow(ctx, `SELECT `+auditColumns+` FROM job_audits WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(auditNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}
	return &e, nil
}

// ListAudits returns a job's audit trail, newest first.
func (r *Repository) ListAudits(ctx context.Context, jobID uuid.UUID) ([]domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+auditColumns+` FROM job_audits WHERE job_id = $1 ORDER BY created_at DESC, id DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// UpdateAudit changes the content of a human note. System entries are never matched.
func (r *Repository) UpdateAudit(ctx context.Context, entry *domain.AuditEntry) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE job_audits SET content = $2, updated_at = $3 WHERE id = $1 AND is_system = false`,
		entry.ID, entry.Content, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update audit entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(auditNotFoundMsg)
	}
	return nil
}

// DeleteAudit removes a human note. System entries are never matched.
func (r *Repository) DeleteAudit(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM job_audits WHERE id = $1 AND is_system = false`, id)
	if err != nil {
		return fmt.Errorf("failed to delete audit entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(auditNotFoundMsg)
	}
	return nil
}
