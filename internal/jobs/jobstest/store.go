// Package jobstest provides an in-memory jobs store for tests.
package jobstest

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store is an in-memory repository.TxStore. Transactions snapshot the whole
// state and restore it when the callback fails. Items sort by number, which
// matches the Postgres ordering for numbers below 100.
type Store struct {
	txMu     sync.Mutex
	Jobs     map[uuid.UUID]domain.Job
	Items    []domain.Item
	Audits   []domain.AuditEntry
	counters map[string]int64

	// Writes counts successful mutating calls.
	Writes int
	// FailOn names a mutating method that returns an error instead of writing.
	FailOn string
}

var _ repository.TxStore = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Jobs:     map[uuid.UUID]domain.Job{},
		counters: map[string]int64{},
	}
}

type snapshot struct {
	jobs     map[uuid.UUID]domain.Job
	items    []domain.Item
	audits   []domain.AuditEntry
	counters map[string]int64
}

func (m *Store) snapshot() snapshot {
	return snapshot{
		jobs:     maps.Clone(m.Jobs),
		items:    append([]domain.Item(nil), m.Items...),
		audits:   append([]domain.AuditEntry(nil), m.Audits...),
		counters: maps.Clone(m.counters),
	}
}

func (m *Store) restore(s snapshot) {
	m.Jobs, m.Items, m.Audits, m.counters = s.jobs, s.items, s.audits, s.counters
}

func (m *Store) InTx(_ context.Context, fn func(repository.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *Store) write(op string) error {
	if m.FailOn == op {
		return fmt.Errorf("injected failure in %s", op)
	}
	m.Writes++
	return nil
}

// SeedJob stores a job directly in the given status with the next job id.
func (m *Store) SeedJob(clientID uuid.UUID, status domain.Status) domain.Job {
	n, _ := m.NextJobNumber(context.Background(), "J", 1000)
	job := domain.Job{
		ID:       uuid.New(),
		JobID:    domain.FormatJobID("J", n),
		ClientID: clientID,
		Status:   status,
	}
	m.Jobs[job.ID] = job
	return job
}

// SeedItem stores an active item directly.
func (m *Store) SeedItem(job domain.Job, number string, qty int, added domain.Phase) domain.Item {
	it := domain.Item{
		ID:         uuid.New(),
		JobID:      job.ID,
		ItemNumber: number,
		Quantity:   qty,
		Added:      added,
		State:      domain.Active{},
	}
	m.Items = append(m.Items, it)
	return it
}

// AuditsFor returns a job's entries, newest first.
func (m *Store) AuditsFor(jobID uuid.UUID) []domain.AuditEntry {
	out, _ := m.ListAudits(context.Background(), jobID)
	return out
}

func (m *Store) NextJobNumber(_ context.Context, prefix string, start int64) (int64, error) {
	if _, ok := m.counters[prefix]; !ok {
		m.counters[prefix] = start
	}
	m.counters[prefix]++
	return m.counters[prefix], nil
}

func (m *Store) InsertJob(_ context.Context, job *domain.Job) error {
	if err := m.write("InsertJob"); err != nil {
		return err
	}
	for _, j := range m.Jobs {
		if j.JobID == job.JobID {
			return apperr.Conflict("job id already exists")
		}
	}
	m.Jobs[job.ID] = *job
	return nil
}

func (m *Store) GetJob(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	j, ok := m.Jobs[id]
	if !ok {
		return nil, apperr.NotFound("job not found")
	}
	return &j, nil
}

func (m *Store) GetJobForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return m.GetJob(ctx, id)
}

func (m *Store) UpdateJob(_ context.Context, job *domain.Job) error {
	if err := m.write("UpdateJob"); err != nil {
		return err
	}
	if _, ok := m.Jobs[job.ID]; !ok {
		return apperr.NotFound("job not found")
	}
	m.Jobs[job.ID] = *job
	return nil
}

func (m *Store) DeleteJob(_ context.Context, id uuid.UUID) error {
	if err := m.write("DeleteJob"); err != nil {
		return err
	}
	if _, ok := m.Jobs[id]; !ok {
		return apperr.NotFound("job not found")
	}
	delete(m.Jobs, id)
	return nil
}

func (m *Store) ListJobs(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	out := make([]domain.Job, 0)
	for _, j := range m.Jobs {
		if params.ClientID != nil && j.ClientID != *params.ClientID {
			continue
		}
		if params.Status != nil && j.Status != *params.Status {
			continue
		}
		if params.Search != "" && !strings.Contains(j.JobID, params.Search) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].JobID < out[b].JobID })
	return &repository.ListResult{Items: out, Total: len(out), Page: 1, PageSize: len(out), TotalPages: 1}, nil
}

func (m *Store) ListItems(_ context.Context, jobID uuid.UUID, includeDeleted bool) ([]domain.Item, error) {
	out := make([]domain.Item, 0)
	for _, it := range m.Items {
		if it.JobID != jobID || (!includeDeleted && !it.IsActive()) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ItemNumber < out[b].ItemNumber })
	return out, nil
}

func (m *Store) InsertItem(_ context.Context, item *domain.Item) error {
	if err := m.write("InsertItem"); err != nil {
		return err
	}
	for _, it := range m.Items {
		if it.JobID == item.JobID && it.ItemNumber == item.ItemNumber {
			return apperr.DuplicateItemNumber("item number already used on this job")
		}
	}
	m.Items = append(m.Items, *item)
	return nil
}

func (m *Store) UpdateItem(_ context.Context, item *domain.Item) error {
	if err := m.write("UpdateItem"); err != nil {
		return err
	}
	for i, it := range m.Items {
		if it.ID == item.ID && it.JobID == item.JobID && it.IsActive() {
			m.Items[i] = *item
			return nil
		}
	}
	return apperr.NotFound("item not found")
}

func (m *Store) SoftDeleteItem(_ context.Context, jobID, itemID uuid.UUID, at time.Time) error {
	if err := m.write("SoftDeleteItem"); err != nil {
		return err
	}
	for i, it := range m.Items {
		if it.ID == itemID && it.JobID == jobID && it.IsActive() {
			m.Items[i].State = domain.Deleted{At: at}
			return nil
		}
	}
	return apperr.NotFound("item not found")
}

func (m *Store) InsertAudit(_ context.Context, entry *domain.AuditEntry) error {
	if err := m.write("InsertAudit"); err != nil {
		return err
	}
	m.Audits = append(m.Audits, *entry)
	return nil
}

func (m *Store) GetAudit(_ context.Context, id uuid.UUID) (*domain.AuditEntry, error) {
	for _, e := range m.Audits {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, apperr.NotFound("audit entry not found")
}

func (m *Store) ListAudits(_ context.Context, jobID uuid.UUID) ([]domain.AuditEntry, error) {
	out := make([]domain.AuditEntry, 0)
	for i := len(m.Audits) - 1; i >= 0; i-- {
		if m.Audits[i].JobID == jobID {
			out = append(out, m.Audits[i])
		}
	}
	return out, nil
}

func (m *Store) UpdateAudit(_ context.Context, entry *domain.AuditEntry) error {
	if err := m.write("UpdateAudit"); err != nil {
		return err
	}
	for i, e := range m.Audits {
		if e.ID == entry.ID && !e.IsSystem {
			m.Audits[i] = *entry
			return nil
		}
	}
	return apperr.NotFound("audit entry not found")
}

func (m *Store) DeleteAudit(_ context.Context, id uuid.UUID) error {
	if err := m.write("DeleteAudit"); err != nil {
		return err
	}
	for i, e := range m.Audits {
		if e.ID == id && !e.IsSystem {
			m.Audits = append(m.Audits[:i], m.Audits[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("audit entry not found")
}
