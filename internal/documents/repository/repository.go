// Package repository persists job document metadata in Postgres. The file
// bodies live in object storage under ObjectKey.
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

const (
	documentNotFoundMsg = "document not found"
	objectKeyConstraint = "job_documents_object_key_key"
)

// Document is one stored file attached to a job.
type Document struct {
	ID          uuid.UUID
	JobID       uuid.UUID
	Type        string
	ObjectKey   string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  *uuid.UUID
	CreatedAt   time.Time
}

// Store is the persistence contract of the documents service.
type Store interface {
	Insert(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id uuid.UUID) (*Document, error)
	ListForJob(ctx context.Context, jobID uuid.UUID, docType string) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByKey(ctx context.Context, key string) (*Document, error)
}

// Repository provides database operations for job documents.
type Repository struct {
	db db.DBTX
}

// New creates a new documents repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const documentColumns = `id, job_id, document_type, object_key, file_name, content_type, size_bytes, uploaded_by, created_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.JobID, &d.Type, &d.ObjectKey, &d.FileName, &d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt)
	return d, err
}

// Insert stores document metadata.
func (r *Repository) Insert(ctx context.Context, doc *Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_documents (`+documentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.JobID, doc.Type, doc.ObjectKey, doc.FileName, doc.ContentType, doc.SizeBytes, doc.UploadedBy, doc.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, objectKeyConstraint) {
			return apperr.Conflict("document key already exists")
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Get loads one document.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := scanDocument(r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM job_documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(documentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &d, nil
}

// ListForJob returns a job's documents, oldest first. An empty docType
// lists every type.
func (r *Repository) ListForJob(ctx context.Context, jobID uuid.UUID, docType string) ([]Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+` FROM job_documents
		WHERE job_id = $1 AND ($2 = '' OR document_type = $2)
		ORDER BY created_at, id`, jobID, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM job_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(documentNotFoundMsg)
	}
	return nil
}

// DeleteByKey removes the row stored under an object key and returns it.
func (r *Repository) DeleteByKey(ctx context.Context, key string) (*Document, error) {
	d, err := scanDocument(r.db.QueryRow(ctx,
		`DELETE FROM job_documents WHERE object_key = $1 RETURNING `+documentColumns, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(documentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	return &d, nil
}
