package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"itad_portal_backend/internal/events"
	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/jobstest"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// ---- collaborators ----

type fakeDocs struct {
	stored  map[string]SignatureKind
	deleted []string
	fail    bool
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{stored: map[string]SignatureKind{}}
}

func (d *fakeDocs) StoreSignature(_ context.Context, jobID uuid.UUID, kind SignatureKind, img SignatureImage, _ uuid.UUID) (string, error) {
	if d.fail {
		return "", fmt.Errorf("storage down")
	}
	key := fmt.Sprintf("%s/%s/%s", jobID, kind, uuid.NewString())
	d.stored[key] = kind
	return key, nil
}

func (d *fakeDocs) DeleteDocument(_ context.Context, key string) error {
	d.deleted = append(d.deleted, key)
	delete(d.stored, key)
	return nil
}

type fakeClients struct {
	defaults map[uuid.UUID]ClientDefaults
}

func (c fakeClients) Defaults(_ context.Context, clientID uuid.UUID) (*ClientDefaults, error) {
	d, ok := c.defaults[clientID]
	if !ok {
		return nil, apperr.NotFound("client not found")
	}
	return &d, nil
}

type fakeTaxonomy struct {
	categories    map[int64]bool
	subCategories map[int64]bool
	fallback      string
}

func (t fakeTaxonomy) CategoryExists(_ context.Context, id int64) (bool, error) {
	return t.categories[id], nil
}

func (t fakeTaxonomy) SubCategoryExists(_ context.Context, id int64) (bool, error) {
	return t.subCategories[id], nil
}

func (t fakeTaxonomy) DefaultCollectionType() string { return t.fallback }

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type staticConfig struct{}

func (staticConfig) GetJobIDPrefix() string        { return "J" }
func (staticConfig) GetJobIDStart() int64          { return 1000 }
func (staticConfig) GetDefaultPhoneRegion() string { return "GB" }

// ---- fixture ----

type fixture struct {
	store     *jobstest.Store
	docs      *fakeDocs
	bus       *recordingBus
	lifecycle *Lifecycle
	inventory *Inventory
	audit     *AuditLog

	clientID uuid.UUID
	client   domain.Actor
	staff    domain.Actor
	driver   domain.Actor
	manager  domain.Actor
}

func newFixture() *fixture {
	store := jobstest.NewStore()
	docs := newFakeDocs()
	bus := &recordingBus{}
	clientID := uuid.New()
	clients := fakeClients{defaults: map[uuid.UUID]ClientDefaults{
		clientID: {
			Address: domain.Address{Line1: "1 High Street", City: "Leeds", Postcode: "ls1 1aa"},
			Contact: domain.Contact{Name: "Pat", Phone: "0113 496 0000", Email: "Pat@Example.com"},
		},
	}}
	taxonomy := fakeTaxonomy{
		categories:    map[int64]bool{1: true},
		subCategories: map[int64]bool{10: true},
		fallback:      "Standard",
	}
	log := logger.Discard()

	return &fixture{
		store: store,
		docs:  docs,
		bus:   bus,
		lifecycle: NewLifecycle(Deps{
			Store:    store,
			Docs:     docs,
			Clients:  clients,
			Taxonomy: taxonomy,
			Bus:      bus,
			Config:   staticConfig{},
			Log:      log,
		}),
		inventory: NewInventory(store, taxonomy, log),
		audit:     NewAuditLog(store),
		clientID:  clientID,
		client:    domain.Actor{ID: uuid.New(), Role: domain.RoleClient, ClientID: &clientID},
		staff:     domain.Actor{ID: uuid.New(), Role: domain.RoleStaff},
		driver:    domain.Actor{ID: uuid.New(), Role: domain.RoleDriver},
		manager:   domain.Actor{ID: uuid.New(), Role: domain.RoleManager},
	}
}

func (f *fixture) seedJob(status domain.Status) domain.Job {
	return f.store.SeedJob(f.clientID, status)
}

func (f *fixture) seedItem(job domain.Job, number string, qty int, added domain.Phase) domain.Item {
	return f.store.SeedItem(job, number, qty, added)
}

func (f *fixture) status(jobID uuid.UUID) domain.Status {
	return f.store.Jobs[jobID].Status
}

var pngSignature = "data:image/png;base64," + base64.StdEncoding.EncodeToString(
	append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...),
)
