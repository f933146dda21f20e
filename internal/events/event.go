// Package events defines the job events other modules subscribe to. The
// bus itself lives in platform/events.
package events

import (
	"itad_portal_backend/platform/events"
	"itad_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Event names published by the jobs module.
const (
	JobStatusChangedName = "job.status_changed"
	JobQuoteProvidedName = "job.quote_provided"
	JobCollectedName     = "job.collected"
	JobCompletedName     = "job.completed"
)

// JobRef identifies the job an event is about.
type JobRef struct {
	ID       uuid.UUID `json:"id"`
	JobID    string    `json:"jobId"`
	ClientID uuid.UUID `json:"clientId"`
}

// JobStatusChanged is published after every committed status transition.
type JobStatusChanged struct {
	BaseEvent
	Job     JobRef     `json:"job"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	ActorID *uuid.UUID `json:"actorId,omitempty"`
}

func (e JobStatusChanged) EventName() string { return JobStatusChangedName }

// JobQuoteProvided is published when staff attach a quote to a job.
type JobQuoteProvided struct {
	BaseEvent
	Job         JobRef          `json:"job"`
	Amount      decimal.Decimal `json:"amount"`
	Information string          `json:"information"`
}

func (e JobQuoteProvided) EventName() string { return JobQuoteProvidedName }

// JobCollected is published once both collection signatures are captured.
type JobCollected struct {
	BaseEvent
	Job          JobRef `json:"job"`
	CustomerName string `json:"customerName"`
	DriverName   string `json:"driverName"`
}

func (e JobCollected) EventName() string { return JobCollectedName }

// JobCompleted is published when processing of a job finishes.
type JobCompleted struct {
	BaseEvent
	Job       JobRef `json:"job"`
	ItemCount int    `json:"itemCount"`
}

func (e JobCompleted) EventName() string { return JobCompletedName }
