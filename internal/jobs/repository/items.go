package repository

import (
	"context"
	"fmt"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const itemColumns = `
	id, job_id, item_number, original_item_number, quantity, category_id, sub_category_id,
	make, model, specification, erasure_required,
	processing_make, processing_model, processing_specification, processing_erasure_required,
	processing_data_status, serial_number, asset_tag, added, deleted_at, created_at, updated_at`

func scanItem(row pgx.Row) (domain.Item, error) {
	var (
		it        domain.Item
		added     string
		deletedAt *time.Time
	)
	err := row.Scan(
		&it.ID, &it.JobID, &it.ItemNumber, &it.OriginalItemNumber, &it.Quantity, &it.CategoryID, &it.SubCategoryID,
		&it.Make, &it.Model, &it.Specification, &it.ErasureRequired,
		&it.ProcessingMake, &it.ProcessingModel, &it.ProcessingSpecification, &it.ProcessingErasureRequired,
		&it.ProcessingDataStatus, &it.SerialNumber, &it.AssetTag, &added, &deletedAt, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return domain.Item{}, err
	}
	it.Added = domain.Phase(added)
	if deletedAt != nil {
		it.State = domain.Deleted{At: *deletedAt}
	} else {
		it.State = domain.Active{}
	}
	return it, nil
}

// ListItems returns a job's items ordered by number. Soft-deleted rows are
// included only when includeDeleted is set.
func (r *Repository) ListItems(ctx context.Context, jobID uuid.UUID, includeDeleted bool) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM job_items WHERE job_id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY length(item_number), item_number`

	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

// InsertItem creates an item row. A number already used on the job, even by
// a deleted item, yields DuplicateItemNumber.
func (r *Repository) InsertItem(ctx context.Context, item *domain.Item) error {
	query := `INSERT INTO job_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	_, err := r.db.Exec(ctx, query,
		item.ID, item.JobID, item.ItemNumber, item.OriginalItemNumber, item.Quantity, item.CategoryID, item.SubCategoryID,
		item.Make, item.Model, item.Specification, item.ErasureRequired,
		item.ProcessingMake, item.ProcessingModel, item.ProcessingSpecification, item.ProcessingErasureRequired,
		item.ProcessingDataStatus, item.SerialNumber, item.AssetTag, string(item.Added), item.DeletedAt(),
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err, itemNumberConstraint) {
			return apperr.DuplicateItemNumber("item number already used on this job").
				WithDetails(map[string]string{"itemNumber": item.ItemNumber})
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// UpdateItem rewrites an active item's attributes. Number, phase and state
// are left alone.
func (r *Repository) UpdateItem(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE job_items SET
			original_item_number = $3, quantity = $4, category_id = $5, sub_category_id = $6,
			make = $7, model = $8, specification = $9, erasure_required = $10,
			processing_make = $11, processing_model = $12, processing_specification = $13,
			processing_erasure_required = $14, processing_data_status = $15,
			serial_number = $16, asset_tag = $17, updated_at = $18
		WHERE id = $1 AND job_id = $2 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		item.ID, item.JobID, item.OriginalItemNumber, item.Quantity, item.CategoryID, item.SubCategoryID,
		item.Make, item.Model, item.Specification, item.ErasureRequired,
		item.ProcessingMake, item.ProcessingModel, item.ProcessingSpecification,
		item.ProcessingErasureRequired, item.ProcessingDataStatus,
		item.SerialNumber, item.AssetTag, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(itemNotFoundMsg)
	}
	return nil
}

// SoftDeleteItem marks an active item of jobID as deleted.
func (r *Repository) SoftDeleteItem(ctx context.Context, jobID, itemID uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE job_items SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND job_id = $2 AND deleted_at IS NULL`,
		itemID, jobID, at)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(itemNotFoundMsg)
	}
	return nil
}
