package domain

const (
	// HistoryCap is the maximum number of snapshots kept locally.
	HistoryCap = 100
	// HistoryHeadLimit is how many remote snapshots a pull loads.
	HistoryHeadLimit = 99
)

// History is the bounded, newest-first ring of snapshots.
// The zero value is an empty history ready to use.
type History struct {
	entries []RecordState
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{entries: make([]RecordState, 0, HistoryCap)}
}

// Push prepends entry and drops the oldest snapshot once the cap is exceeded.
// It reports whether an entry was evicted.
func (h *History) Push(entry RecordState) bool {
	h.entries = append(h.entries, RecordState{})
	copy(h.entries[1:], h.entries)
	h.entries[0] = entry

	if len(h.entries) > HistoryCap {
		h.entries = h.entries[:HistoryCap]
		return true
	}
	return false
}

// Replace swaps the whole content, keeping the given order and at most
// HistoryCap entries.
func (h *History) Replace(entries []RecordState) {
	if len(entries) > HistoryCap {
		entries = entries[:HistoryCap]
	}
	h.entries = append(make([]RecordState, 0, HistoryCap), entries...)
}

// Clear empties the history.
func (h *History) Clear() {
	h.entries = h.entries[:0]
}

func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the snapshots, newest first.
func (h *History) Entries() []RecordState {
	out := make([]RecordState, len(h.entries))
	copy(out, h.entries)
	return out
}
