package service

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"itad_portal_backend/internal/taxonomy/repository"
	"itad_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingLoader struct {
	calls atomic.Int32
}

func (l *countingLoader) LoadSnapshot(context.Context) (*repository.Snapshot, error) {
	l.calls.Add(1)
	laptops := int64(10)
	return &repository.Snapshot{
		Categories:      []repository.Category{{ID: 1, Name: "Computing"}},
		SubCategories:   []repository.SubCategory{{ID: 10, CategoryID: 1, Name: "Laptop"}, {ID: 11, CategoryID: 1, Name: "Desktop"}},
		SpecFields:      []repository.SpecField{{ID: 100, Name: "CPU"}, {ID: 101, SubCategoryID: &laptops, Name: "Battery health"}},
		CollectionTypes: []repository.CollectionType{{ID: 1, Name: "Standard"}, {ID: 2, Name: "Secure"}},
	}, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLookupsUseSnapshot(t *testing.T) {
	loader := &countingLoader{}
	svc := New(loader, nil, Defaults{}, time.Minute, logger.Discard())
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() (bool, error)
		want bool
	}{
		{"known category", func() (bool, error) { return svc.CategoryExists(ctx, 1) }, true},
		{"unknown category", func() (bool, error) { return svc.CategoryExists(ctx, 2) }, false},
		{"known sub-category", func() (bool, error) { return svc.SubCategoryExists(ctx, 11) }, true},
		{"unknown sub-category", func() (bool, error) { return svc.SubCategoryExists(ctx, 99) }, false},
	}
	for _, tc := range tests {
		got, err := tc.fn()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected one load, got %d", loader.calls.Load())
	}

	fields, err := svc.SpecFieldsFor(ctx, 10)
	if err != nil || len(fields) != 2 {
		t.Fatalf("laptop fields: %v %+v", err, fields)
	}
	fields, _ = svc.SpecFieldsFor(ctx, 11)
	if len(fields) != 1 || fields[0].Name != "CPU" {
		t.Fatalf("desktop fields: %+v", fields)
	}
	if f, ok, _ := svc.SpecField(ctx, 101); !ok || f.Name != "Battery health" {
		t.Fatalf("spec field lookup: %+v %v", f, ok)
	}
}

func TestRedisCacheSharesSnapshotAcrossInstances(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	first := &countingLoader{}
	a := New(first, NewRedisCache(client, time.Minute), Defaults{}, time.Minute, logger.Discard())
	if _, err := a.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	second := &countingLoader{}
	b := New(second, NewRedisCache(client, time.Minute), Defaults{}, time.Minute, logger.Discard())
	ok, err := b.SubCategoryExists(ctx, 10)
	if err != nil || !ok {
		t.Fatalf("cached lookup: %v %v", ok, err)
	}
	if first.calls.Load() != 1 || second.calls.Load() != 0 {
		t.Fatalf("loads = %d/%d, want 1/0", first.calls.Load(), second.calls.Load())
	}
}

func TestRedisCacheExpiresAndInvalidates(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	cache := NewRedisCache(client, time.Minute)

	loader := &countingLoader{}
	if err := cache.Set(ctx, &repository.Snapshot{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL(snapshotKey); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if got, err := cache.Get(ctx); err != nil || got != nil {
		t.Fatalf("expected miss after expiry, got %+v %v", got, err)
	}

	svc := New(loader, cache, Defaults{}, 0, logger.Discard())
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !mr.Exists(snapshotKey) {
		t.Fatalf("snapshot not written to redis")
	}
	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(snapshotKey) {
		t.Fatalf("snapshot still cached")
	}
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after invalidate, got %d loads", loader.calls.Load())
	}
}

func TestUnavailableRedisFallsBackToDatabase(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	loader := &countingLoader{}
	svc := New(loader, NewRedisCache(client, time.Minute), Defaults{}, time.Minute, logger.Discard())
	ok, err := svc.CategoryExists(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("expected database fallback, got %v %v", ok, err)
	}
}

func TestLocalSnapshotExpires(t *testing.T) {
	loader := &countingLoader{}
	svc := New(loader, nil, Defaults{}, time.Minute, logger.Discard())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = svc.Snapshot(ctx)
	now = now.Add(30 * time.Second)
	_, _ = svc.Snapshot(ctx)
	now = now.Add(time.Minute)
	_, _ = svc.Snapshot(ctx)

	if loader.calls.Load() != 2 {
		t.Fatalf("expected 2 loads, got %d", loader.calls.Load())
	}
}

func TestDefaults(t *testing.T) {
	svc := New(&countingLoader{}, nil, Defaults{}, 0, logger.Discard())
	if svc.DefaultCollectionType() != DefaultCollectionType {
		t.Fatalf("unexpected built-in default %q", svc.DefaultCollectionType())
	}

	d, err := ParseDefaults([]byte("collection_type: Secure\ndata_status: Wiped\n"))
	if err != nil || d.CollectionType != "Secure" || d.DataStatus != "Wiped" {
		t.Fatalf("parse: %+v %v", d, err)
	}
	if _, err := ParseDefaults([]byte("collection_type: Secure\nfirst_option: true\n")); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
	if _, err := ParseDefaults([]byte("data_status: Wiped\n")); err == nil {
		t.Fatalf("expected missing collection_type to be rejected")
	}

	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte("collection_type: On-site shredding\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err = LoadDefaults(path)
	if err != nil || d.CollectionType != "On-site shredding" {
		t.Fatalf("load: %+v %v", d, err)
	}
	if d, err := LoadDefaults(""); err != nil || d.CollectionType != DefaultCollectionType {
		t.Fatalf("empty path: %+v %v", d, err)
	}
	if _, err := LoadDefaults(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
