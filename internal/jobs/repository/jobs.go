package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const jobColumns = `
	id, job_id, client_id, job_status, collection_date, collection_type,
	address_line1, address_line2, address_city, address_county, address_postcode, address_country,
	onsite_contact_name, onsite_contact_phone, onsite_contact_email,
	job_quote, quote_information,
	customer_signature_name, customer_signature_key, customer_signed_at,
	driver_signature_name, driver_signature_key, driver_signed_at,
	staff_signature_name, staff_signature_key, staff_signed_at,
	received_date, notes, items_version, created_by, created_at, updated_at`

// signatureColumns holds the nullable trio backing one domain.Signature.
type signatureColumns struct {
	Name     *string
	Key      *string
	SignedAt *time.Time
}

func (s signatureColumns) toDomain() *domain.Signature {
	if s.Name == nil || s.Key == nil || s.SignedAt == nil {
		return nil
	}
	return &domain.Signature{Name: *s.Name, DocumentKey: *s.Key, SignedAt: *s.SignedAt}
}

func fromSignature(sig *domain.Signature) signatureColumns {
	if sig == nil {
		return signatureColumns{}
	}
	return signatureColumns{Name: &sig.Name, Key: &sig.DocumentKey, SignedAt: &sig.SignedAt}
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j                       domain.Job
		status                  string
		quote                   decimal.NullDecimal
		customer, driver, staff signatureColumns
	)
	err := row.Scan(
		&j.ID, &j.JobID, &j.ClientID, &status, &j.CollectionDate, &j.CollectionType,
		&j.Address.Line1, &j.Address.Line2, &j.Address.City, &j.Address.County, &j.Address.Postcode, &j.Address.Country,
		&j.OnsiteContact.Name, &j.OnsiteContact.Phone, &j.OnsiteContact.Email,
		&quote, &j.QuoteInformation,
		&customer.Name, &customer.Key, &customer.SignedAt,
		&driver.Name, &driver.Key, &driver.SignedAt,
		&staff.Name, &staff.Key, &staff.SignedAt,
		&j.ReceivedDate, &j.Notes, &j.ItemsVersion, &j.CreatedBy, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Status = domain.Status(status)
	if quote.Valid {
		amount := quote.Decimal
		j.JobQuote = &amount
	}
	j.CustomerSignature = customer.toDomain()
	j.DriverSignature = driver.toDomain()
	j.StaffSignature = staff.toDomain()
	return &j, nil
}

func nullQuote(q *decimal.Decimal) decimal.NullDecimal {
	if q == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *q, Valid: true}
}

// InsertJob creates a job row.
func (r *Repository) InsertJob(ctx context.Context, job *domain.Job) error {
	customer, driver, staff := fromSignature(job.CustomerSignature), fromSignature(job.DriverSignature), fromSignature(job.StaffSignature)
	query := `INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`

	_, err := r.db.Exec(ctx, query,
		job.ID, job.JobID, job.ClientID, string(job.Status), job.CollectionDate, job.CollectionType,
		job.Address.Line1, job.Address.Line2, job.Address.City, job.Address.County, job.Address.Postcode, job.Address.Country,
		job.OnsiteContact.Name, job.OnsiteContact.Phone, job.OnsiteContact.Email,
		nullQuote(job.JobQuote), job.QuoteInformation,
		customer.Name, customer.Key, customer.SignedAt,
		driver.Name, driver.Key, driver.SignedAt,
		staff.Name, staff.Key, staff.SignedAt,
		job.ReceivedDate, job.Notes, job.ItemsVersion, job.CreatedBy, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err, jobIDConstraint) {
			return apperr.Conflict("job id already exists").WithDetails(map[string]string{"jobId": job.JobID})
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetJob loads a job by surrogate id.
func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return r.getJob(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
}

// GetJobForUpdate loads a job and locks its row until the transaction ends.
func (r *Repository) GetJobForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return r.getJob(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) getJob(ctx context.Context, query string, id uuid.UUID) (*domain.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(jobNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// UpdateJob writes every mutable column. job_id and client_id never change.
func (r *Repository) UpdateJob(ctx context.Context, job *domain.Job) error {
	customer, driver, staff := fromSignature(job.CustomerSignature), fromSignature(job.DriverSignature), fromSignature(job.StaffSignature)
	query := `
		UPDATE jobs SET
			job_status = $2, collection_date = $3, collection_type = $4,
			address_line1 = $5, address_line2 = $6, address_city = $7,
			address_county = $8, address_postcode = $9, address_country = $10,
			onsite_contact_name = $11, onsite_contact_phone = $12, onsite_contact_email = $13,
			job_quote = $14, quote_information = $15,
			customer_signature_name = $16, customer_signature_key = $17, customer_signed_at = $18,
			driver_signature_name = $19, driver_signature_key = $20, driver_signed_at = $21,
			staff_signature_name = $22, staff_signature_key = $23, staff_signed_at = $24,
			received_date = $25, notes = $26, items_version = $27, updated_at = $28
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		job.ID, string(job.Status), job.CollectionDate, job.CollectionType,
		job.Address.Line1, job.Address.Line2, job.Address.City,
		job.Address.County, job.Address.Postcode, job.Address.Country,
		job.OnsiteContact.Name, job.OnsiteContact.Phone, job.OnsiteContact.Email,
		nullQuote(job.JobQuote), job.QuoteInformation,
		customer.Name, customer.Key, customer.SignedAt,
		driver.Name, driver.Key, driver.SignedAt,
		staff.Name, staff.Key, staff.SignedAt,
		job.ReceivedDate, job.Notes, job.ItemsVersion, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMsg)
	}
	return nil
}

// DeleteJob hard-deletes a job. Items, audits and documents cascade.
func (r *Repository) DeleteJob(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMsg)
	}
	return nil
}

// ListJobs returns one page of jobs, newest first.
func (r *Repository) ListJobs(ctx context.Context, params ListParams) (*ListResult, error) {
	page, pageSize := normalizePage(params.Page, params.PageSize)

	var (
		where []string
		args  []any
	)
	if params.ClientID != nil {
		args = append(args, *params.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("job_status = $%d", len(args)))
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(job_id ILIKE $%d OR address_postcode ILIKE $%d OR onsite_contact_name ILIKE $%d)", len(args), len(args), len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, clause, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Job, 0, pageSize)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		items = append(items, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
