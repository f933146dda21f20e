// Package notification turns job lifecycle events into client emails. Events
// are queued on asynq when Redis is configured and delivered inline otherwise.
package notification

import (
	"context"
	"fmt"

	clientrepo "itad_portal_backend/internal/clients/repository"
	"itad_portal_backend/internal/email"
	"itad_portal_backend/internal/events"
	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/scheduler"
	"itad_portal_backend/platform/apperr"
	"itad_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JobReader loads the job an event refers to.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)
}

// ClientLookup resolves the client account that owns a job.
type ClientLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*clientrepo.Client, error)
}

// TaskQueue defers delivery to the background worker.
type TaskQueue interface {
	EnqueueJobNotification(ctx context.Context, payload scheduler.JobNotificationPayload) error
}

// Module subscribes to job events and emails the owning client.
type Module struct {
	jobs    JobReader
	clients ClientLookup
	sender  email.Sender
	queue   TaskQueue
	log     *logger.Logger
}

// New creates the notification module.
func New(jobs JobReader, clients ClientLookup, sender email.Sender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{jobs: jobs, clients: clients, sender: sender, log: log}
}

// SetTaskQueue routes deliveries through the background worker.
func (m *Module) SetTaskQueue(queue TaskQueue) {
	m.queue = queue
}

// RegisterHandlers subscribes the module to job events on bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.JobQuoteProvidedName, events.HandlerFunc(m.handleQuoteProvided))
	bus.Subscribe(events.JobCollectedName, events.HandlerFunc(m.handleJobCollected))
	bus.Subscribe(events.JobCompletedName, events.HandlerFunc(m.handleJobCompleted))
	m.log.Info("notification module subscribed to job events")
}

func (m *Module) handleQuoteProvided(ctx context.Context, event events.Event) error {
	e, ok := event.(events.JobQuoteProvided)
	if !ok {
		return nil
	}
	return m.dispatch(ctx, scheduler.JobNotificationPayload{
		EventID:     e.EventID().String(),
		Event:       e.EventName(),
		JobID:       e.Job.ID.String(),
		ClientID:    e.Job.ClientID.String(),
		Amount:      e.Amount.String(),
		Information: e.Information,
	})
}

func (m *Module) handleJobCollected(ctx context.Context, event events.Event) error {
	e, ok := event.(events.JobCollected)
	if !ok {
		return nil
	}
	return m.dispatch(ctx, scheduler.JobNotificationPayload{
		EventID:      e.EventID().String(),
		Event:        e.EventName(),
		JobID:        e.Job.ID.String(),
		ClientID:     e.Job.ClientID.String(),
		CustomerName: e.CustomerName,
		DriverName:   e.DriverName,
	})
}

func (m *Module) handleJobCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.JobCompleted)
	if !ok {
		return nil
	}
	return m.dispatch(ctx, scheduler.JobNotificationPayload{
		EventID:   e.EventID().String(),
		Event:     e.EventName(),
		JobID:     e.Job.ID.String(),
		ClientID:  e.Job.ClientID.String(),
		ItemCount: e.ItemCount,
	})
}

func (m *Module) dispatch(ctx context.Context, payload scheduler.JobNotificationPayload) error {
	log := m.log.WithContext(ctx)
	if m.queue != nil {
		err := m.queue.EnqueueJobNotification(ctx, payload)
		if err == nil {
			log.Debug("job notification queued", "event", payload.Event, "job_id", payload.JobID)
			return nil
		}
		log.Warn("job notification enqueue failed, sending inline", "event", payload.Event, "job_id", payload.JobID, "error", err)
	}
	return m.DeliverJobNotification(ctx, payload)
}

// DeliverJobNotification renders and sends the email for one job event. A job
// that no longer exists or has no reachable recipient is skipped.
func (m *Module) DeliverJobNotification(ctx context.Context, payload scheduler.JobNotificationPayload) error {
	log := m.log.WithContext(ctx)

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return fmt.Errorf("job notification: invalid job id %q: %w", payload.JobID, err)
	}

	job, err := m.jobs.GetJob(ctx, jobID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			log.Info("job notification skipped, job gone", "event", payload.Event, "job_id", payload.JobID)
			return nil
		}
		return err
	}

	toEmail, name, err := m.recipient(ctx, job)
	if err != nil {
		return err
	}
	if toEmail == "" {
		log.Info("job notification skipped, no recipient", "event", payload.Event, "job_id", job.JobID)
		return nil
	}

	switch payload.Event {
	case events.JobQuoteProvidedName:
		amount, err := decimal.NewFromString(payload.Amount)
		if err != nil {
			return fmt.Errorf("job notification: invalid amount %q: %w", payload.Amount, err)
		}
		err = m.sender.SendQuoteProvided(ctx, toEmail, email.QuoteProvided{
			JobID:       job.JobID,
			ClientName:  name,
			Amount:      amount,
			Information: payload.Information,
		})
		if err != nil {
			return err
		}
	case events.JobCollectedName:
		err := m.sender.SendJobCollected(ctx, toEmail, email.JobCollected{
			JobID:          job.JobID,
			ClientName:     name,
			CollectionDate: job.CollectionDate,
			CustomerName:   payload.CustomerName,
			DriverName:     payload.DriverName,
		})
		if err != nil {
			return err
		}
	case events.JobCompletedName:
		err := m.sender.SendJobCompleted(ctx, toEmail, email.JobCompleted{
			JobID:      job.JobID,
			ClientName: name,
			ItemCount:  payload.ItemCount,
		})
		if err != nil {
			return err
		}
	default:
		log.Warn("job notification skipped, unknown event", "event", payload.Event)
		return nil
	}

	log.Info("job notification sent", "event", payload.Event, "job_id", job.JobID)
	return nil
}

// recipient prefers the client account email and falls back to the onsite
// contact on the job.
func (m *Module) recipient(ctx context.Context, job *domain.Job) (string, string, error) {
	if m.clients != nil {
		client, err := m.clients.Lookup(ctx, job.ClientID)
		switch {
		case err == nil && client.Email != "":
			return client.Email, client.Name, nil
		case err != nil && !apperr.Is(err, apperr.KindNotFound):
			return "", "", err
		}
	}
	return job.OnsiteContact.Email, job.OnsiteContact.Name, nil
}

var _ scheduler.JobNotifier = (*Module)(nil)
