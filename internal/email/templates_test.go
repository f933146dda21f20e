package email

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRenderQuoteProvided(t *testing.T) {
	subject, body, err := renderQuoteProvided(QuoteProvided{
		JobID:       "J1001",
		ClientName:  "Acme Ltd",
		Amount:      decimal.RequireFromString("150"),
		Information: "Includes 2 pallets & <b>tape</b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if subject != "Your quote for job J1001 is ready" {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"Hello Acme Ltd", "£150.00", "J1001", "&lt;b&gt;tape&lt;/b&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderJobCollected(t *testing.T) {
	date := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	_, body, err := renderJobCollected(JobCollected{
		JobID:          "J1002",
		CollectionDate: &date,
		CustomerName:   "Pat",
		DriverName:     "Sam",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Hello there", "4 March 2026", "Pat", "Sam"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRenderJobCompletedPluralisesItems(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{count: 1, want: "1 item was processed"},
		{count: 12, want: "12 items were processed"},
	}
	for _, tt := range tests {
		_, body, err := renderJobCompleted(JobCompleted{JobID: "J1003", ItemCount: tt.count})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if !strings.Contains(body, tt.want) {
			t.Errorf("count %d: body missing %q", tt.count, tt.want)
		}
	}
}
