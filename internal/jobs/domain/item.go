package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"itad_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Phase records which lifecycle phase introduced an item.
type Phase string

const (
	PhaseCollection Phase = "Collection"
	PhaseProcessing Phase = "Processing"
)

// ParsePhase converts a submitted phase name. Matching ignores case.
func ParsePhase(value string) (Phase, error) {
	for _, p := range []Phase{PhaseCollection, PhaseProcessing} {
		if strings.EqualFold(value, string(p)) {
			return p, nil
		}
	}
	return "", apperr.Validation("unknown item phase").WithDetails(map[string]string{"phase": value})
}

// ItemState is either Active or Deleted.
type ItemState interface {
	isItemState()
}

// Active marks a live item.
type Active struct{}

// Deleted marks a soft-deleted item. Its number stays reserved.
type Deleted struct {
	At time.Time
}

func (Active) isItemState()  {}
func (Deleted) isItemState() {}

// Item is one tracked asset, or a batch of identical assets, on a job.
type Item struct {
	ID                        uuid.UUID
	JobID                     uuid.UUID
	ItemNumber                string
	OriginalItemNumber        *string
	Quantity                  int
	CategoryID                *int64
	SubCategoryID             *int64
	Make                      string
	Model                     string
	Specification             string
	ErasureRequired           bool
	ProcessingMake            string
	ProcessingModel           string
	ProcessingSpecification   map[string]string
	ProcessingErasureRequired bool
	ProcessingDataStatus      string
	SerialNumber              string
	AssetTag                  string
	Added                     Phase
	State                     ItemState
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// IsNew reports whether the item has not been persisted yet.
func (i Item) IsNew() bool {
	return i.ID == uuid.Nil
}

// IsActive reports whether the item is live.
func (i Item) IsActive() bool {
	switch i.State.(type) {
	case Deleted:
		return false
	default:
		return true
	}
}

// DeletedAt returns the soft-delete time, or nil for active items.
func (i Item) DeletedAt() *time.Time {
	if d, ok := i.State.(Deleted); ok {
		at := d.At
		return &at
	}
	return nil
}

// NormalizeQuantity coerces non-positive quantities to 1.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// FormatItemNumber renders the nth item number of a job, e.g. J1001-03.
func FormatItemNumber(jobID string, n int) string {
	return fmt.Sprintf("%s-%02d", jobID, n)
}

// ParseItemNumber extracts the sequence part of number when it belongs to
// jobID and is in canonical form.
func ParseItemNumber(jobID, number string) (int, bool) {
	rest, ok := strings.CutPrefix(number, jobID+"-")
	if !ok || rest == "" || strings.TrimLeft(rest, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || FormatItemNumber(jobID, n) != number {
		return 0, false
	}
	return n, true
}

// HistoricalNumbers returns the item number of every item regardless of state.
func HistoricalNumbers(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ItemNumber)
	}
	return out
}

// NumberPool hands out the lowest unused item numbers for one job.
type NumberPool struct {
	jobID string
	used  map[string]struct{}
}

// NewNumberPool seeds a pool with numbers already taken, active or deleted.
func NewNumberPool(jobID string, used []string) *NumberPool {
	p := &NumberPool{jobID: jobID, used: make(map[string]struct{}, len(used))}
	for _, n := range used {
		p.Reserve(n)
	}
	return p
}

// Reserve marks number as taken.
func (p *NumberPool) Reserve(number string) {
	if number != "" {
		p.used[number] = struct{}{}
	}
}

// Contains reports whether number is taken.
func (p *NumberPool) Contains(number string) bool {
	_, ok := p.used[number]
	return ok
}

// Next returns and reserves the lowest unused number.
func (p *NumberPool) Next() string {
	for n := 1; ; n++ {
		candidate := FormatItemNumber(p.jobID, n)
		if !p.Contains(candidate) {
			p.Reserve(candidate)
			return candidate
		}
	}
}

// Expand splits an item of quantity N into N single-quantity items. The
// first keeps the original number; the rest draw fresh numbers from pool,
// point back at the original and are unsaved.
func Expand(item Item, pool *NumberPool) ([]Item, error) {
	if !item.IsActive() {
		return nil, apperr.Validation("deleted items cannot be expanded")
	}
	qty := NormalizeQuantity(item.Quantity)
	pool.Reserve(item.ItemNumber)

	original := item
	original.Quantity = 1
	original.OriginalItemNumber = nil

	out := make([]Item, 0, qty)
	out = append(out, original)
	for i := 1; i < qty; i++ {
		sibling := item
		sibling.ID = uuid.Nil
		sibling.ItemNumber = pool.Next()
		sibling.Quantity = 1
		origNumber := item.ItemNumber
		sibling.OriginalItemNumber = &origNumber
		sibling.State = Active{}
		sibling.SerialNumber = ""
		sibling.AssetTag = ""
		sibling.ProcessingSpecification = cloneSpec(item.ProcessingSpecification)
		sibling.CreatedAt = time.Time{}
		sibling.UpdatedAt = time.Time{}
		out = append(out, sibling)
	}
	return out, nil
}

func cloneSpec(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
