package schedule

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/planner/pkg/types"
)

// NoCombination is what SelectedCombination returns when there is nothing
// to select.
const NoCombination = -1

// Selection errors.
var (
	ErrDuplicateDiscipline = errors.New("discipline already selected")
	ErrUnknownDiscipline   = errors.New("discipline is not selected")
	ErrUnknownSection      = errors.New("section does not belong to a selected discipline")
)

// EventKind says what part of the selection changed.
type EventKind int

// Event kinds.
const (
	EventMembership EventKind = iota + 1 // a discipline was added or removed
	EventCandidates                      // a section's candidate flag changed
	EventIndex                           // the current combination moved
	EventRecomputed                      // combinations were rebuilt and the index reset
)

func (k EventKind) String() string {
	switch k {
	case EventMembership:
		return "membership"
	case EventCandidates:
		return "candidates"
	case EventIndex:
		return "index"
	case EventRecomputed:
		return "recomputed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Listener receives change notifications. It runs after the selection's
// lock is released and may read the selection.
type Listener func(EventKind)

type subscription struct {
	id int
	fn Listener
}

// Selection owns the selected disciplines (in insertion order), their
// sections' candidate flags and the current combination index. The
// combination list is rebuilt lazily: mutators mark it stale and readers
// regenerate it on demand.
//
// Disciplines passed to a Selection belong to it; callers must not mutate
// them afterwards except through the Selection.
type Selection struct {
	mu          sync.Mutex
	disciplines []*types.Discipline
	combos      Combinations
	stale       bool
	current     int

	listeners []subscription
	nextSubID int
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Selection) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Selection) notify(kind EventKind) {
	s.mu.Lock()
	subs := append([]subscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(kind)
	}
}

// AddDiscipline appends a discipline. Returns ErrDuplicateDiscipline if it
// is already selected.
func (s *Selection) AddDiscipline(d *types.Discipline) error {
	s.mu.Lock()
	if s.indexLocked(d.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateDiscipline, d.ID.Raw)
	}
	s.disciplines = append(s.disciplines, d)
	s.stale = true
	s.mu.Unlock()

	s.notify(EventMembership)
	return nil
}

// RemoveDiscipline drops a discipline and its sections. Returns
// ErrUnknownDiscipline if it was not selected.
func (s *Selection) RemoveDiscipline(id types.ID) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownDiscipline, id.Raw)
	}
	s.disciplines = append(s.disciplines[:i:i], s.disciplines[i+1:]...)
	s.stale = true
	s.mu.Unlock()

	s.notify(EventMembership)
	return nil
}

// SetCandidate sets a section's candidate flag. Setting the current value
// changes nothing and emits nothing.
func (s *Selection) SetCandidate(section types.ID, candidate bool) error {
	s.mu.Lock()
	sec := s.sectionLocked(section)
	if sec == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSection, section.Raw)
	}
	if sec.Candidate == candidate {
		s.mu.Unlock()
		return nil
	}
	sec.Candidate = candidate
	s.stale = true
	s.mu.Unlock()

	s.notify(EventCandidates)
	return nil
}

// Candidate reports a section's candidate flag.
func (s *Selection) Candidate(section types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec := s.sectionLocked(section)
	if sec == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownSection, section.Raw)
	}
	return sec.Candidate, nil
}

// Disciplines returns deep copies of the selected disciplines in order.
func (s *Selection) Disciplines() []*types.Discipline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// State returns deep copies of the selected disciplines together with the
// index SelectedCombination would report, read under one lock so the two
// always agree.
func (s *Selection) State() ([]*types.Discipline, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return s.copyLocked(), s.selectedLocked()
}

// Has reports whether the discipline is selected.
func (s *Selection) Has(id types.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// CombinationCount returns the number of conflict-free combinations.
func (s *Selection) CombinationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return len(s.combos)
}

// Combinations returns the current combination list.
func (s *Selection) Combinations() Combinations {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return s.combos
}

// SelectedCombination returns the current index, clamped into the valid
// range, or NoCombination when there are no combinations.
func (s *Selection) SelectedCombination() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return s.selectedLocked()
}

// Current returns the combination at the current index.
func (s *Selection) Current() (Combination, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	if len(s.combos) == 0 {
		return nil, false
	}
	return s.combos[s.current], true
}

// Status renders the position as "n/total", "0/0" when empty.
func (s *Selection) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	if len(s.combos) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", s.current+1, len(s.combos))
}

// NextCombination advances the index, wrapping around. No-op with fewer
// than two combinations.
func (s *Selection) NextCombination() {
	s.step(1)
}

// PreviousCombination moves the index back, wrapping around. No-op with
// fewer than two combinations.
func (s *Selection) PreviousCombination() {
	s.step(-1)
}

func (s *Selection) step(delta int) {
	s.mu.Lock()
	s.refreshLocked()
	n := len(s.combos)
	if n <= 1 {
		s.mu.Unlock()
		return
	}
	s.current = (s.current + delta + n) % n
	s.mu.Unlock()

	s.notify(EventIndex)
}

// UpdateCombinations forces a rebuild and moves to preferred when it is in
// range, else to the first combination.
func (s *Selection) UpdateCombinations(preferred int) {
	s.mu.Lock()
	s.rebuildLocked(preferred)
	s.mu.Unlock()

	s.notify(EventRecomputed)
}

// Replace swaps the whole discipline set and rebuilds combinations with
// preferred as the index, in one step. Nothing changes if the input holds
// the same discipline twice.
func (s *Selection) Replace(disciplines []*types.Discipline, preferred int) error {
	seen := make(map[types.ID]bool, len(disciplines))
	for _, d := range disciplines {
		if seen[d.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateDiscipline, d.ID.Raw)
		}
		seen[d.ID] = true
	}

	s.mu.Lock()
	s.disciplines = append([]*types.Discipline(nil), disciplines...)
	s.rebuildLocked(preferred)
	s.mu.Unlock()

	s.notify(EventRecomputed)
	return nil
}

func (s *Selection) rebuildLocked(preferred int) {
	s.combos = Generate(s.disciplines)
	s.stale = false
	if preferred >= 0 && preferred < len(s.combos) {
		s.current = preferred
	} else {
		s.current = 0
	}
}

func (s *Selection) refreshLocked() {
	if !s.stale {
		return
	}
	s.combos = Generate(s.disciplines)
	s.stale = false

	n := len(s.combos)
	switch {
	case n == 0:
		s.current = 0
	case s.current >= n:
		s.current = n - 1
	}
}

func (s *Selection) selectedLocked() int {
	if len(s.combos) == 0 {
		return NoCombination
	}
	return s.current
}

func (s *Selection) copyLocked() []*types.Discipline {
	out := make([]*types.Discipline, len(s.disciplines))
	for i, d := range s.disciplines {
		out[i] = d.Clone()
	}
	return out
}

func (s *Selection) indexLocked(id types.ID) int {
	for i, d := range s.disciplines {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *Selection) sectionLocked(id types.ID) *types.Section {
	for _, d := range s.disciplines {
		if sec := d.Section(id); sec != nil {
			return sec
		}
	}
	return nil
}
