// Package service answers read-only taxonomy lookups. Snapshots are cached
// in process and, when configured, in Redis. Concurrent cache misses share
// one database load.
package service

import (
	"context"
	"sync"
	"time"

	"itad_portal_backend/internal/taxonomy/repository"
	"itad_portal_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

// SnapshotCache is a shared snapshot store such as RedisCache.
type SnapshotCache interface {
	Get(ctx context.Context) (*repository.Snapshot, error)
	Set(ctx context.Context, s *repository.Snapshot) error
	Invalidate(ctx context.Context) error
}

// Service handles taxonomy lookups.
type Service struct {
	loader   repository.Loader
	cache    SnapshotCache
	defaults Defaults
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	local     *index
	expiresAt time.Time
}

// New creates a new taxonomy service. cache may be nil.
func New(loader repository.Loader, cache SnapshotCache, defaults Defaults, ttl time.Duration, log *logger.Logger) *Service {
	if defaults.CollectionType == "" {
		defaults.CollectionType = DefaultCollectionType
	}
	return &Service{
		loader:   loader,
		cache:    cache,
		defaults: defaults,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// index is a snapshot with id lookups.
type index struct {
	snapshot      *repository.Snapshot
	categories    map[int64]repository.Category
	subCategories map[int64]repository.SubCategory
	specFields    map[int64]repository.SpecField
}

func newIndex(s *repository.Snapshot) *index {
	idx := &index{
		snapshot:      s,
		categories:    make(map[int64]repository.Category, len(s.Categories)),
		subCategories: make(map[int64]repository.SubCategory, len(s.SubCategories)),
		specFields:    make(map[int64]repository.SpecField, len(s.SpecFields)),
	}
	for _, c := range s.Categories {
		idx.categories[c.ID] = c
	}
	for _, c := range s.SubCategories {
		idx.subCategories[c.ID] = c
	}
	for _, f := range s.SpecFields {
		idx.specFields[f.ID] = f
	}
	return idx
}

// Snapshot returns the current taxonomy.
func (s *Service) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	idx, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return idx.snapshot, nil
}

func (s *Service) current(ctx context.Context) (*index, error) {
	s.mu.RLock()
	idx, expiresAt := s.local, s.expiresAt
	s.mu.RUnlock()
	if idx != nil && (s.ttl <= 0 || s.now().Before(expiresAt)) {
		return idx, nil
	}

	v, err, _ := s.group.Do(snapshotKey, func() (interface{}, error) {
		return s.fill(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*index), nil
}

func (s *Service) fill(ctx context.Context) (*index, error) {
	var snapshot *repository.Snapshot
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.WithContext(ctx).Warn("taxonomy cache unavailable", "error", err)
		}
		snapshot = cached
	}

	if snapshot == nil {
		loaded, err := s.loader.LoadSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		snapshot = loaded
		if s.cache != nil {
			if err := s.cache.Set(ctx, snapshot); err != nil {
				s.log.WithContext(ctx).Warn("failed to populate taxonomy cache", "error", err)
			}
		}
	}

	idx := newIndex(snapshot)
	s.mu.Lock()
	s.local = idx
	s.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()
	return idx, nil
}

// Invalidate drops every cached copy so the next lookup reloads.
func (s *Service) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.local = nil
	s.mu.Unlock()
	if s.cache != nil {
		return s.cache.Invalidate(ctx)
	}
	return nil
}

// Category returns a category by id.
func (s *Service) Category(ctx context.Context, id int64) (*repository.Category, bool, error) {
	idx, err := s.current(ctx)
	if err != nil {
		return nil, false, err
	}
	c, ok := idx.categories[id]
	return &c, ok, nil
}

// SubCategory returns a sub-category by id.
func (s *Service) SubCategory(ctx context.Context, id int64) (*repository.SubCategory, bool, error) {
	idx, err := s.current(ctx)
	if err != nil {
		return nil, false, err
	}
	c, ok := idx.subCategories[id]
	return &c, ok, nil
}

// SpecField returns a spec field by id.
func (s *Service) SpecField(ctx context.Context, id int64) (*repository.SpecField, bool, error) {
	idx, err := s.current(ctx)
	if err != nil {
		return nil, false, err
	}
	f, ok := idx.specFields[id]
	return &f, ok, nil
}

// SpecFieldsFor returns the spec fields that apply to a sub-category,
// including the ones shared by every sub-category.
func (s *Service) SpecFieldsFor(ctx context.Context, subCategoryID int64) ([]repository.SpecField, error) {
	idx, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]repository.SpecField, 0)
	for _, f := range idx.snapshot.SpecFields {
		if f.SubCategoryID == nil || *f.SubCategoryID == subCategoryID {
			out = append(out, f)
		}
	}
	return out, nil
}

// CategoryExists reports whether a category id is known.
func (s *Service) CategoryExists(ctx context.Context, id int64) (bool, error) {
	_, ok, err := s.Category(ctx, id)
	return ok, err
}

// SubCategoryExists reports whether a sub-category id is known.
func (s *Service) SubCategoryExists(ctx context.Context, id int64) (bool, error) {
	_, ok, err := s.SubCategory(ctx, id)
	return ok, err
}

// DefaultCollectionType returns the configured default collection type.
func (s *Service) DefaultCollectionType() string {
	return s.defaults.CollectionType
}

// Defaults returns every configured default.
func (s *Service) Defaults() Defaults {
	return s.defaults
}
