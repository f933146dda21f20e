package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"itad_portal_backend/internal/events"
	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/logger"
	"itad_portal_backend/platform/phone"
	"itad_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Lifecycle moves jobs through the status machine. Every transition locks
// the job row, authorizes the actor, validates the edge, applies the
// operation's side effects, persists the job and appends one system audit
// entry in a single transaction. Events are published after commit.
type Lifecycle struct {
	store    repository.TxStore
	docs     DocumentStore
	clients  ClientDirectory
	taxonomy TaxonomyLookup
	bus      events.Bus
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// Deps bundles the collaborators of the lifecycle service.
type Deps struct {
	Store    repository.TxStore
	Docs     DocumentStore
	Clients  ClientDirectory
	Taxonomy TaxonomyLookup
	Bus      events.Bus
	Config   Config
	Log      *logger.Logger
}

// NewLifecycle creates the lifecycle service.
func NewLifecycle(d Deps) *Lifecycle {
	return &Lifecycle{
		store:    d.Store,
		docs:     d.Docs,
		clients:  d.Clients,
		taxonomy: d.Taxonomy,
		bus:      d.Bus,
		cfg:      d.Config,
		log:      d.Log,
		now:      time.Now,
	}
}

// transition describes one status-changing operation.
type transition struct {
	op        string
	from      []domain.Status
	to        domain.Status
	authorize func(domain.Actor, *domain.Job) error
	apply     func(context.Context, repository.Store, *domain.Job) error
	audit     func(*domain.Job) string
	events    func(*domain.Job) []events.Event
}

func (s *Lifecycle) run(ctx context.Context, actor domain.Actor, jobID uuid.UUID, t transition) (*domain.Job, error) {
	var (
		from    domain.Status
		updated *domain.Job
		extra   []events.Event
	)
	err := s.store.InTx(ctx, func(st repository.Store) error {
		job, err := st.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if err := t.check(actor, job); err != nil {
			return err
		}

		from = job.Status
		if err := job.TransitionTo(t.to); err != nil {
			return err
		}
		if t.apply != nil {
			if err := t.apply(ctx, st, job); err != nil {
				return err
			}
		}

		job.UpdatedAt = s.now()
		if err := st.UpdateJob(ctx, job); err != nil {
			return err
		}
		if _, err := appendAudit(ctx, st, s.now(), job.ID, nil, t.audit(job), true); err != nil {
			return err
		}
		if t.events != nil {
			extra = t.events(job)
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).JobTransition(updated.JobID, string(from), string(updated.Status), actor.ID.String())
	s.publish(ctx, actor, from, updated, extra)
	return updated, nil
}

// check authorizes the actor, then confirms the job is in a source status
// the operation accepts.
func (t transition) check(actor domain.Actor, job *domain.Job) error {
	if err := t.authorize(actor, job); err != nil {
		return err
	}
	if len(t.from) > 0 && !slices.Contains(t.from, job.Status) {
		return apperr.InvalidTransition(fmt.Sprintf("cannot %s a job in %q", strings.ReplaceAll(t.op, "_", " "), job.Status)).
			WithDetails(map[string]any{"from": job.Status, "to": t.to})
	}
	return nil
}

// precheck runs the authorization and edge checks without a lock, so
// operations that upload files first can fail before doing any I/O.
func (s *Lifecycle) precheck(ctx context.Context, actor domain.Actor, jobID uuid.UUID, t transition) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if err := t.check(actor, job); err != nil {
		return err
	}
	if !job.Status.CanTransitionTo(t.to) {
		probe := *job
		return probe.TransitionTo(t.to)
	}
	return nil
}

func (s *Lifecycle) publish(ctx context.Context, actor domain.Actor, from domain.Status, job *domain.Job, extra []events.Event) {
	if s.bus == nil {
		return
	}
	actorID := actor.ID
	s.bus.Publish(ctx, events.JobStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		Job:       jobRef(job),
		From:      string(from),
		To:        string(job.Status),
		ActorID:   &actorID,
	})
	for _, e := range extra {
		s.bus.Publish(ctx, e)
	}
}

func jobRef(job *domain.Job) events.JobRef {
	return events.JobRef{ID: job.ID, JobID: job.JobID, ClientID: job.ClientID}
}

func staticAudit(content string) func(*domain.Job) string {
	return func(*domain.Job) string { return content }
}

func requireCapability(c domain.Capability) func(domain.Actor, *domain.Job) error {
	return func(a domain.Actor, _ *domain.Job) error { return a.Require(c) }
}

func requireOwner(a domain.Actor, job *domain.Job) error {
	return a.RequireOwner(job)
}

// Get returns a job the actor may view.
func (s *Lifecycle) Get(ctx context.Context, actor domain.Actor, jobID uuid.UUID) (*domain.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireOwnerOr(job, domain.CanViewAllJobs); err != nil {
		return nil, err
	}
	return job, nil
}

// List returns jobs visible to actor. Clients only ever see their own.
func (s *Lifecycle) List(ctx context.Context, actor domain.Actor, params repository.ListParams) (*repository.ListResult, error) {
	switch {
	case actor.Role == domain.RoleClient:
		if actor.ClientID == nil {
			return nil, apperr.Forbidden("client account missing")
		}
		clientID := *actor.ClientID
		params.ClientID = &clientID
	case !actor.Can(domain.CanViewAllJobs):
		return nil, apperr.Forbidden("actor is not permitted to list jobs")
	}
	return s.store.ListJobs(ctx, params)
}

func (s *Lifecycle) normalizeContact(c domain.Contact) domain.Contact {
	region := phone.DefaultRegion
	if s.cfg != nil && s.cfg.GetDefaultPhoneRegion() != "" {
		region = s.cfg.GetDefaultPhoneRegion()
	}
	return domain.Contact{
		Name:  sanitize.Line(c.Name),
		Phone: phone.NormalizeE164(c.Phone, region),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
	}
}

func sanitizeAddress(a domain.Address) domain.Address {
	return domain.Address{
		Line1:    sanitize.Line(a.Line1),
		Line2:    sanitize.Line(a.Line2),
		City:     sanitize.Line(a.City),
		County:   sanitize.Line(a.County),
		Postcode: strings.ToUpper(sanitize.Line(a.Postcode)),
		Country:  sanitize.Line(a.Country),
	}
}

func (s *Lifecycle) nextJobID(ctx context.Context, st repository.Store) (string, error) {
	prefix, start := "J", int64(1000)
	if s.cfg != nil {
		prefix, start = s.cfg.GetJobIDPrefix(), s.cfg.GetJobIDStart()
	}
	n, err := st.NextJobNumber(ctx, prefix, start)
	if err != nil {
		return "", err
	}
	return domain.FormatJobID(prefix, n), nil
}

// createJob inserts a new job with its first audit entry.
func (s *Lifecycle) createJob(ctx context.Context, job *domain.Job, auditContent string) (*domain.Job, error) {
	err := s.store.InTx(ctx, func(st repository.Store) error {
		code, err := s.nextJobID(ctx, st)
		if err != nil {
			return err
		}
		now := s.now()
		job.ID = uuid.New()
		job.JobID = code
		job.CreatedAt = now
		job.UpdatedAt = now
		if err := st.InsertJob(ctx, job); err != nil {
			return err
		}
		_, err = appendAudit(ctx, st, now, job.ID, nil, auditContent, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("job created", "job_id", job.JobID, "status", job.Status, "client_id", job.ClientID)
	return job, nil
}
