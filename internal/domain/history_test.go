package domain

import (
	"testing"
	"time"
)

func snapshot(n int) RecordState {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return NewRecordState(base.Add(time.Duration(n)*time.Second), n)
}

func TestHistory_PushIsNewestFirst(t *testing.T) {
	h := NewHistory()
	for i := 1; i <= 3; i++ {
		if evicted := h.Push(snapshot(i)); evicted {
			t.Fatalf("push %d evicted an entry", i)
		}
	}

	got := h.Entries()
	want := []int{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("Len() = %d, want %d", len(got), len(want))
	}
	for i, n := range want {
		if got[i].NumberOfPassengers != n {
			t.Errorf("entry %d = %d, want %d", i, got[i].NumberOfPassengers, n)
		}
	}
}

func TestHistory_EvictsOldestBeyondCap(t *testing.T) {
	h := NewHistory()
	evictions := 0
	for i := 1; i <= 150; i++ {
		if h.Push(snapshot(i)) {
			evictions++
		}
	}

	if h.Len() != HistoryCap {
		t.Fatalf("Len() = %d, want %d", h.Len(), HistoryCap)
	}
	if evictions != 50 {
		t.Errorf("evictions = %d, want 50", evictions)
	}

	entries := h.Entries()
	for i, e := range entries {
		if want := 150 - i; e.NumberOfPassengers != want {
			t.Fatalf("entry %d = %d, want %d", i, e.NumberOfPassengers, want)
		}
	}
}

func TestHistory_ReplaceTruncatesAndKeepsOrder(t *testing.T) {
	in := make([]RecordState, 0, 120)
	for i := 0; i < 120; i++ {
		in = append(in, snapshot(i))
	}

	h := NewHistory()
	h.Replace(in)

	if h.Len() != HistoryCap {
		t.Fatalf("Len() = %d, want %d", h.Len(), HistoryCap)
	}
	if got := h.Entries()[0].NumberOfPassengers; got != 0 {
		t.Errorf("Entries()[0] = %d passengers, want entry 0", got)
	}

	// Mutating the input must not leak into the history.
	in[0].NumberOfPassengers = 999
	if h.Entries()[0].NumberOfPassengers != 0 {
		t.Errorf("history aliases the replaced slice")
	}
}

func TestHistory_EntriesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Push(snapshot(1))

	entries := h.Entries()
	entries[0].NumberOfPassengers = 42

	if h.Entries()[0].NumberOfPassengers != 1 {
		t.Errorf("Entries() leaked internal storage")
	}
}

func TestHistory_ZeroValueAndClear(t *testing.T) {
	var h History
	if h.Len() != 0 || len(h.Entries()) != 0 {
		t.Fatal("zero history should be empty")
	}

	h.Push(snapshot(1))
	h.Push(snapshot(2))
	h.Clear()

	if h.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", h.Len())
	}
}
