// Package email renders and delivers client-facing job notifications.
package email

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteProvided tells a client their quote is ready.
type QuoteProvided struct {
	JobID       string
	ClientName  string
	Amount      decimal.Decimal
	Information string
}

// JobCollected confirms equipment has left the client's site.
type JobCollected struct {
	JobID          string
	ClientName     string
	CollectionDate *time.Time
	CustomerName   string
	DriverName     string
}

// JobCompleted tells a client processing has finished.
type JobCompleted struct {
	JobID      string
	ClientName string
	ItemCount  int
}

type Sender interface {
	SendQuoteProvided(ctx context.Context, toEmail string, msg QuoteProvided) error
	SendJobCollected(ctx context.Context, toEmail string, msg JobCollected) error
	SendJobCompleted(ctx context.Context, toEmail string, msg JobCompleted) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendQuoteProvided(context.Context, string, QuoteProvided) error { return nil }

func (NoopSender) SendJobCollected(context.Context, string, JobCollected) error { return nil }

func (NoopSender) SendJobCompleted(context.Context, string, JobCompleted) error { return nil }

var _ Sender = NoopSender{}
var _ Sender = (*SMTPSender)(nil)
