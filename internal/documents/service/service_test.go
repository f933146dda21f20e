package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"itad_portal_backend/internal/adapters/storage"
	"itad_portal_backend/internal/documents/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/httpkit"
	"itad_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type memStore struct {
	mu   sync.Mutex
	docs []repository.Document
	fail bool
}

func (m *memStore) Insert(_ context.Context, doc *repository.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("insert failed")
	}
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, apperr.NotFound("document not found")
}

func (m *memStore) ListForJob(_ context.Context, jobID uuid.UUID, docType string) ([]repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.Document, 0)
	for _, d := range m.docs {
		if d.JobID == jobID && (docType == "" || d.Type == docType) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("document not found")
}

func (m *memStore) DeleteByKey(_ context.Context, key string) (*repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ObjectKey == key {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return &d, nil
		}
	}
	return nil, apperr.NotFound("document not found")
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (o *memObjects) UploadFile(_ context.Context, bucket, folder, fileName, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	key := fmt.Sprintf("%s/%s/%d-%s", bucket, folder, len(o.objects), fileName)
	o.objects[key] = data
	return key, nil
}

func (o *memObjects) DownloadFile(_ context.Context, _, key string) (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (o *memObjects) GenerateDownloadURL(_ context.Context, _, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.test/" + key, FileKey: key, ExpiresAt: time.Now().Add(storage.PresignedURLTTL)}, nil
}

func (o *memObjects) DeleteObject(_ context.Context, _, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *memObjects) EnsureBucketExists(context.Context, string) error { return nil }

func (o *memObjects) ValidateContentType(contentType string) error {
	return storage.ValidateContentType(contentType)
}

func (o *memObjects) ValidateFileSize(size int64) error {
	return storage.ValidateFileSize(size, 1024)
}

func (o *memObjects) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// guard admits viewers and managers by user id.
type guard struct {
	viewers  map[uuid.UUID]bool
	managers map[uuid.UUID]bool
}

func (g guard) CanView(_ context.Context, caller httpkit.Identity, _ uuid.UUID) error {
	if g.viewers[caller.UserID()] || g.managers[caller.UserID()] {
		return nil
	}
	return apperr.Forbidden("no access")
}

func (g guard) CanManage(_ context.Context, caller httpkit.Identity, _ uuid.UUID) error {
	if g.managers[caller.UserID()] {
		return nil
	}
	return apperr.Forbidden("no access")
}

type caller struct{ id uuid.UUID }

func (c caller) UserID() uuid.UUID     { return c.id }
func (c caller) Role() string          { return "" }
func (c caller) ClientID() *uuid.UUID  { return nil }
func (c caller) IsAuthenticated() bool { return true }

type fixture struct {
	svc     *Service
	store   *memStore
	objects *memObjects
	staff   caller
	owner   caller
	other   caller
	jobID   uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		store:   &memStore{},
		objects: newMemObjects(),
		staff:   caller{id: uuid.New()},
		owner:   caller{id: uuid.New()},
		other:   caller{id: uuid.New()},
		jobID:   uuid.New(),
	}
	f.svc = New(f.store, f.objects, "job-documents", logger.Discard())
	f.svc.SetJobGuard(guard{
		viewers:  map[uuid.UUID]bool{f.owner.id: true},
		managers: map[uuid.UUID]bool{f.staff.id: true},
	})
	return f
}

func (f *fixture) upload(t *testing.T, docType string) *repository.Document {
	t.Helper()
	doc, err := f.svc.Upload(context.Background(), f.staff, f.jobID, UploadInput{
		Type:        docType,
		FileName:    "manifest.pdf",
		ContentType: "application/pdf",
		Size:        4,
		Body:        strings.NewReader("%PDF"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return doc
}

func TestUploadStoresObjectAndRow(t *testing.T) {
	f := newFixture()
	doc := f.upload(t, TypeManifest)

	if doc.JobID != f.jobID || doc.Type != TypeManifest || doc.UploadedBy == nil || *doc.UploadedBy != f.staff.id {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !strings.Contains(doc.ObjectKey, "jobs/"+f.jobID.String()+"/manifest") {
		t.Fatalf("unexpected key %q", doc.ObjectKey)
	}
	if f.objects.count() != 1 {
		t.Fatalf("expected one stored object, got %d", f.objects.count())
	}
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name string
		in   UploadInput
		kind apperr.Kind
	}{
		{"unknown type", UploadInput{Type: "invoice", ContentType: "application/pdf", Size: 4}, apperr.KindValidation},
		{"signature by hand", UploadInput{Type: TypeSignatureCustomer, ContentType: "image/png", Size: 4}, apperr.KindValidation},
		{"bad content type", UploadInput{Type: TypeImage, ContentType: "application/zip", Size: 4}, apperr.KindValidation},
		{"too large", UploadInput{Type: TypeImage, ContentType: "image/png", Size: 4096}, apperr.KindValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			tc.in.Body = strings.NewReader("data")
			if _, err := f.svc.Upload(context.Background(), f.staff, f.jobID, tc.in); !apperr.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if f.objects.count() != 0 {
				t.Fatalf("object stored despite validation failure")
			}
		})
	}
}

func TestUploadRequiresManageAccess(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(context.Background(), f.owner, f.jobID, UploadInput{
		Type: TypeImage, FileName: "a.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("data"),
	})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUploadRemovesObjectWhenRowFails(t *testing.T) {
	f := newFixture()
	f.store.fail = true

	_, err := f.svc.Upload(context.Background(), f.staff, f.jobID, UploadInput{
		Type: TypeImage, FileName: "a.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("data"),
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if f.objects.count() != 0 {
		t.Fatalf("orphaned object left behind")
	}
}

func TestListAndDownloadRespectGuard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.upload(t, TypeCertificate)
	if _, err := f.svc.StoreBytes(ctx, f.jobID, TypeSignatureDriver, "signature_driver.png", "image/png", []byte("png"), f.staff.id); err != nil {
		t.Fatalf("store bytes: %v", err)
	}

	docs, err := f.svc.List(ctx, f.owner, f.jobID, "")
	if err != nil || len(docs) != 2 {
		t.Fatalf("owner list: %v %d", err, len(docs))
	}
	docs, err = f.svc.List(ctx, f.owner, f.jobID, TypeCertificate)
	if err != nil || len(docs) != 1 {
		t.Fatalf("filtered list: %v %d", err, len(docs))
	}
	if _, err := f.svc.List(ctx, f.other, f.jobID, ""); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden list, got %v", err)
	}

	dl, err := f.svc.Download(ctx, f.owner, doc.ID)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if !strings.HasSuffix(dl.URL, doc.ObjectKey) {
		t.Fatalf("unexpected url %q", dl.URL)
	}
	if _, err := f.svc.Download(ctx, f.other, doc.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden download, got %v", err)
	}

	_, body, err := f.svc.Open(ctx, f.owner, doc.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "%PDF" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestDeleteKeepsSignatures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	key, err := f.svc.StoreBytes(ctx, f.jobID, TypeSignatureCustomer, "signature_customer.png", "image/png", []byte("png"), f.staff.id)
	if err != nil {
		t.Fatalf("store bytes: %v", err)
	}
	docs, _ := f.svc.List(ctx, f.staff, f.jobID, TypeSignatureCustomer)
	if len(docs) != 1 || docs[0].ObjectKey != key {
		t.Fatalf("signature not listed: %+v", docs)
	}

	if err := f.svc.Delete(ctx, f.staff, docs[0].ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	manifest := f.upload(t, TypeManifest)
	if err := f.svc.Delete(ctx, f.owner, manifest.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for viewer, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.staff, manifest.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.objects.count() != 1 {
		t.Fatalf("expected only the signature object to remain, got %d", f.objects.count())
	}
}

func TestDeleteByKeyDiscardsSignature(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	key, err := f.svc.StoreBytes(ctx, f.jobID, TypeSignatureStaff, "signature_staff.png", "image/png", []byte("png"), f.staff.id)
	if err != nil {
		t.Fatalf("store bytes: %v", err)
	}
	if err := f.svc.DeleteByKey(ctx, key); err != nil {
		t.Fatalf("delete by key: %v", err)
	}
	if f.objects.count() != 0 || len(f.store.docs) != 0 {
		t.Fatalf("signature not discarded")
	}
	if err := f.svc.DeleteByKey(ctx, key); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestMissingGuardIsInternal(t *testing.T) {
	svc := New(&memStore{}, newMemObjects(), "b", logger.Discard())
	if _, err := svc.List(context.Background(), caller{id: uuid.New()}, uuid.New(), ""); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal, got %v", err)
	}
}
