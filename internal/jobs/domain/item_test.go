package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNumberPoolLowestUnused(t *testing.T) {
	pool := NewNumberPool("J1001", []string{"J1001-01", "J1001-03"})
	if got := pool.Next(); got != "J1001-02" {
		t.Fatalf("expected J1001-02, got %s", got)
	}
	if got := pool.Next(); got != "J1001-04" {
		t.Fatalf("expected J1001-04, got %s", got)
	}
}

func TestNumberPoolPastNinetyNine(t *testing.T) {
	used := make([]string, 0, 99)
	for i := 1; i <= 99; i++ {
		used = append(used, FormatItemNumber("J7", i))
	}
	if got := NewNumberPool("J7", used).Next(); got != "J7-100" {
		t.Fatalf("expected J7-100, got %s", got)
	}
}

func TestParseItemNumber(t *testing.T) {
	tests := []struct {
		number string
		want   int
		ok     bool
	}{
		{"J1001-07", 7, true},
		{"J1001-100", 100, true},
		{"J1002-01", 0, false},
		{"J1001-", 0, false},
		{"J1001-ab", 0, false},
		{"J1001-1", 0, false},
		{"J1001-+1", 0, false},
		{"J1001--1", 0, false},
		{"J1001-007", 0, false},
		{"J1001-00", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseItemNumber("J1001", tc.number)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseItemNumber(%q) = %d,%v want %d,%v", tc.number, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExpandSkipsUsedNumbers(t *testing.T) {
	items := []Item{
		{ID: uuid.New(), ItemNumber: "J1001-01", Quantity: 3, Make: "Dell", State: Active{}},
		{ID: uuid.New(), ItemNumber: "J1001-02", Quantity: 1, State: Active{}},
	}
	pool := NewNumberPool("J1001", HistoricalNumbers(items))

	out, err := Expand(items[0], pool)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}

	want := []string{"J1001-01", "J1001-03", "J1001-04"}
	if len(out) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(out))
	}
	for i, it := range out {
		if it.ItemNumber != want[i] {
			t.Errorf("item %d: number %s, want %s", i, it.ItemNumber, want[i])
		}
		if it.Quantity != 1 {
			t.Errorf("item %d: quantity %d", i, it.Quantity)
		}
		if it.Make != "Dell" {
			t.Errorf("item %d: attributes not copied", i)
		}
	}
	if out[0].ID != items[0].ID || out[0].OriginalItemNumber != nil {
		t.Fatalf("original row must keep its id and have no original number")
	}
	for _, sib := range out[1:] {
		if !sib.IsNew() {
			t.Errorf("sibling %s should be unsaved", sib.ItemNumber)
		}
		if sib.OriginalItemNumber == nil || *sib.OriginalItemNumber != "J1001-01" {
			t.Errorf("sibling %s should point at J1001-01", sib.ItemNumber)
		}
	}
}

func TestExpandQuantityFive(t *testing.T) {
	deleted := Item{ItemNumber: "J5-02", State: Deleted{At: time.Now()}}
	item := Item{ID: uuid.New(), ItemNumber: "J5-01", Quantity: 5, State: Active{}}
	pool := NewNumberPool("J5", HistoricalNumbers([]Item{item, deleted}))

	out, err := Expand(item, pool)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("expected 5 items, got %d", len(out))
	}

	seen := map[string]bool{}
	kept := 0
	for _, it := range out {
		if it.Quantity != 1 {
			t.Fatalf("quantity %d on %s", it.Quantity, it.ItemNumber)
		}
		if seen[it.ItemNumber] {
			t.Fatalf("duplicate number %s", it.ItemNumber)
		}
		seen[it.ItemNumber] = true
		if it.ItemNumber == "J5-01" {
			kept++
		}
		if it.ItemNumber == "J5-02" {
			t.Fatalf("reused soft-deleted number J5-02")
		}
	}
	if kept != 1 {
		t.Fatalf("expected original number exactly once, got %d", kept)
	}
}

func TestExpandSingleQuantityAndDeleted(t *testing.T) {
	item := Item{ItemNumber: "J1-01", Quantity: 0, State: Active{}}
	out, err := Expand(item, NewNumberPool("J1", nil))
	if err != nil || len(out) != 1 || out[0].Quantity != 1 {
		t.Fatalf("expected single normalised item, got %+v %v", out, err)
	}

	item.State = Deleted{At: time.Now()}
	if _, err := Expand(item, NewNumberPool("J1", nil)); err == nil {
		t.Fatalf("expected error expanding deleted item")
	}
}

func TestItemState(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	it := Item{State: Deleted{At: at}}
	if it.IsActive() {
		t.Fatalf("deleted item reported active")
	}
	if d := it.DeletedAt(); d == nil || !d.Equal(at) {
		t.Fatalf("unexpected deleted at %v", d)
	}
	if (Item{}).DeletedAt() != nil || !(Item{}).IsActive() {
		t.Fatalf("zero item should be active")
	}
}
