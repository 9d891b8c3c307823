// Package memory keeps a unit's subtree inside the process. It backs the
// "memory" store backend and doubles as a fake in tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/store"
)

var errInjected = errors.New("injected failure")

// Record is a history entry together with its generated key.
type Record struct {
	Key   string
	Entry domain.RecordState
}

// Snapshot is a point-in-time copy of the stored subtree.
type Snapshot struct {
	Current *domain.CurrentState
	Records []Record // ascending key order
}

// Store implements store.Adapter in memory.
type Store struct {
	mu      sync.Mutex
	current *domain.CurrentState
	records map[string]domain.RecordState
	fail    bool
	calls   int
}

var _ store.Adapter = (*Store)(nil)

func New() *Store {
	return &Store{records: make(map[string]domain.RecordState)}
}

// Fail makes every following call return store.ErrRemoteUnavailable.
func (s *Store) Fail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// Calls reports how many adapter operations have been invoked.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SetCurrentState seeds the current state without counting as a call.
func (s *Store) SetCurrentState(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &domain.CurrentState{NumberOfPassengers: n}
}

// PutRecord seeds a history entry under an explicit key.
func (s *Store) PutRecord(key string, entry domain.RecordState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = entry
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	for _, k := range s.sortedKeys() {
		snap.Records = append(snap.Records, Record{Key: k, Entry: s.records[k]})
	}
	return snap
}

func (s *Store) ReadCurrentState(_ context.Context) (domain.CurrentStateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("read current state"); err != nil {
		return domain.Missing(), err
	}
	if s.current == nil {
		return domain.Missing(), nil
	}
	return domain.Present(*s.current), nil
}

func (s *Store) WriteCurrentState(_ context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("write current state"); err != nil {
		return err
	}
	s.current = &domain.CurrentState{NumberOfPassengers: n}
	return nil
}

func (s *Store) ReadHistoryHead(_ context.Context, limit int) ([]domain.RecordState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("read history head"); err != nil {
		return nil, err
	}

	keys := s.sortedKeys()
	if limit >= 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]domain.RecordState, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.records[k])
	}
	return out, nil
}

func (s *Store) AppendHistory(_ context.Context, entry domain.RecordState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("append history"); err != nil {
		return err
	}
	s.records[xid.New().String()] = entry
	return nil
}

func (s *Store) ClearHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("clear history"); err != nil {
		return err
	}
	s.records = make(map[string]domain.RecordState)
	return nil
}

// enter must be called with mu held.
func (s *Store) enter(op string) error {
	s.calls++
	if s.fail {
		return store.Unavailable(op, errInjected)
	}
	return nil
}

func (s *Store) sortedKeys() []string {
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
