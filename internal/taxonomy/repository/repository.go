// Package repository reads the reference taxonomy tables from Postgres.
package repository

import (
	"context"
	"fmt"

	"itad_portal_backend/platform/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Category is a top-level asset category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SubCategory belongs to one category.
type SubCategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
}

// SpecField names one processing specification key. A nil SubCategoryID
// applies to every sub-category.
type SpecField struct {
	ID            int64  `json:"id"`
	SubCategoryID *int64 `json:"subCategoryId,omitempty"`
	Name          string `json:"name"`
}

// CollectionType is one collection service offered to clients.
type CollectionType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the whole taxonomy at one point in time.
type Snapshot struct {
	Categories      []Category       `json:"categories"`
	SubCategories   []SubCategory    `json:"subCategories"`
	SpecFields      []SpecField      `json:"specFields"`
	CollectionTypes []CollectionType `json:"collectionTypes"`
}

// Loader reads a full taxonomy snapshot.
type Loader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Repository provides database operations for the taxonomy tables.
type Repository struct {
	db db.DBTX
}

// New creates a new taxonomy repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// LoadSnapshot reads every taxonomy table.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		s   Snapshot
		err error
	)

	s.Categories, err = queryAll(ctx, r.db, `SELECT id, name FROM categories ORDER BY name`,
		func(row pgx.Rows) (Category, error) {
			var c Category
			err := row.Scan(&c.ID, &c.Name)
			return c, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	s.SubCategories, err = queryAll(ctx, r.db, `SELECT id, category_id, name FROM sub_categories ORDER BY category_id, name`,
		func(row pgx.Rows) (SubCategory, error) {
			var c SubCategory
			err := row.Scan(&c.ID, &c.CategoryID, &c.Name)
			return c, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load sub-categories: %w", err)
	}

	s.SpecFields, err = queryAll(ctx, r.db, `SELECT id, sub_category_id, name FROM spec_fields ORDER BY id`,
		func(row pgx.Rows) (SpecField, error) {
			var f SpecField
			err := row.Scan(&f.ID, &f.SubCategoryID, &f.Name)
			return f, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load spec fields: %w", err)
	}

	s.CollectionTypes, err = queryAll(ctx, r.db, `SELECT id, name FROM collection_types ORDER BY name`,
		func(row pgx.Rows) (CollectionType, error) {
			var c CollectionType
			err := row.Scan(&c.ID, &c.Name)
			return c, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to load collection types: %w", err)
	}

	return &s, nil
}

func queryAll[T any](ctx context.Context, q db.DBTX, sql string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
