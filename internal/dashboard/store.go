// Package dashboard owns the mutable dashboard state and the virtual reset.
package dashboard

import (
	"fmt"
	"sync"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/plc-visualizer/safety-dashboard/internal/safety"
)

// Change describes one effective state mutation.
type Change struct {
	Version    uint64            `json:"version"`
	Collection models.Collection `json:"collection"`
	Changed    []string          `json:"changed"`
}

// Store is the single owner of flags and signal collections. The simulator
// is its only writer; HTTP handlers and renderers read snapshots.
type Store struct {
	mu      sync.RWMutex
	state   models.State
	version uint64

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// NewStore creates a store seeded with a copy of the initial state.
func NewStore(initial models.State) *Store {
	return &Store{
		state: initial.Clone(),
		subs:  make(map[int]chan Change),
	}
}

// Version returns the number of effective mutations so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// State returns a deep copy of the current state.
func (s *Store) State() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Summary evaluates the current state. It is recomputed on every call.
func (s *Store) Summary() models.Summary {
	return safety.Evaluate(s.State())
}

// Groups partitions the current input signals by category.
func (s *Store) Groups() []models.Group {
	return safety.GroupByCategory(s.State().Inputs)
}

// Snapshot returns state, summary, grouping and top faults computed from a
// single consistent read.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	st := s.state.Clone()
	version := s.version
	s.mu.RUnlock()

	summary := safety.Evaluate(st)
	return models.Snapshot{
		Version:   version,
		State:     st,
		Summary:   summary,
		Groups:    safety.GroupByCategory(st.Inputs),
		TopFaults: safety.TopFaults(summary, safety.DefaultTopFaults),
	}
}

// Signal looks up a signal by id in inputs, then outputs.
func (s *Store) Signal(id string) (models.Signal, models.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.FindSignal(id)
}

// MutateSignals calls fn with each signal of a collection and stores the
// value it returns. It returns the ids whose state changed; the version is
// bumped and subscribers notified only when something changed.
func (s *Store) MutateSignals(coll models.Collection, fn func(models.Signal) bool) ([]string, error) {
	s.mu.Lock()
	var signals []models.Signal
	switch coll {
	case models.CollectionInputs:
		signals = s.state.Inputs
	case models.CollectionOutputs:
		signals = s.state.Outputs
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("unknown collection: %s", coll)
	}

	var changed []string
	for i := range signals {
		next := fn(signals[i])
		if next != signals[i].CurrentState {
			signals[i].CurrentState = next
			changed = append(changed, signals[i].ID)
		}
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	s.version++
	ev := Change{Version: s.version, Collection: coll, Changed: changed}
	s.mu.Unlock()

	s.publish(ev)
	return changed, nil
}

// SetSignal forces one signal's state.
func (s *Store) SetSignal(id string, value bool) error {
	_, coll, ok := s.Signal(id)
	if !ok {
		return fmt.Errorf("signal not found: %s", id)
	}
	_, err := s.MutateSignals(coll, func(sig models.Signal) bool {
		if sig.ID == id {
			return value
		}
		return sig.CurrentState
	})
	return err
}

// Subscribe registers for change events. The returned cancel func must be
// called to release the subscription. Slow subscribers miss events rather
// than block writers.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(ev Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
