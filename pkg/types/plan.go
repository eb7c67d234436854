package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DisciplineRef names a selected discipline inside a Snapshot (raw id).
type DisciplineRef struct {
	ID string `json:"id"`
}

// TeamRef records one team of a selected discipline and its candidate flag.
// IDs are raw (purified).
type TeamRef struct {
	ID         string `json:"id"`
	Discipline string `json:"discipline"`
	Candidate  bool   `json:"_selected"`
}

// Snapshot is a self-contained, storage-ready encoding of the selection
// state and its ambient context at one instant. All ids are raw. An empty
// Discipline means no discipline was being inspected.
type Snapshot struct {
	Semester            string          `json:"semester"`
	Campus              string          `json:"campus"`
	Discipline          string          `json:"discipline,omitempty"`
	SelectedDisciplines []DisciplineRef `json:"selectedDisciplines"`
	Teams               []TeamRef       `json:"teams"`
	SelectedCombination int             `json:"selectedCombination"`
}

// Clone returns a deep copy, so stored snapshots never share slices with
// callers. Nil slices stay nil and empty ones stay empty.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.SelectedDisciplines = slices.Clone(s.SelectedDisciplines)
	c.Teams = slices.Clone(s.Teams)
	return c
}

// TeamsOf returns the team references that belong to the discipline id.
// Raw and live forms of the same id match.
func (s Snapshot) TeamsOf(discipline string) []TeamRef {
	want := Unpurify(discipline, KindDiscipline)
	var out []TeamRef
	for _, t := range s.Teams {
		if Unpurify(t.Discipline, KindDiscipline) == want {
			out = append(out, t)
		}
	}
	return out
}

// HistoryEntry is one saved version of a plan. Version is a unix timestamp
// and strictly increases along the history.
type HistoryEntry struct {
	Version int64    `json:"id"`
	Data    Snapshot `json:"data"`
}

// Plan is a named planning session: an append-only history of snapshots and
// the current one.
type Plan struct {
	PlanID    string
	Code      string
	History   []HistoryEntry
	Current   Snapshot
	CreatedAt time.Time
}

// ValidateCode rejects empty plan codes.
func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidCode
	}
	return nil
}

// NextVersion returns the version id for an entry saved at now: the unix
// timestamp, bumped past the latest entry when timestamps collide.
func (p *Plan) NextVersion(now time.Time) int64 {
	v := now.UTC().Unix()
	if last, ok := p.Latest(); ok && v <= last.Version {
		v = last.Version + 1
	}
	return v
}

// Append adds an entry to the history and makes it current. The version
// must be greater than every existing version.
func (p *Plan) Append(entry HistoryEntry) error {
	if last, ok := p.Latest(); ok && entry.Version <= last.Version {
		return fmt.Errorf("%w: version %d is not after %d", ErrInvalidData, entry.Version, last.Version)
	}
	entry.Data = entry.Data.Clone()
	p.History = append(p.History, entry)
	p.Current = entry.Data
	return nil
}

// Latest returns the most recent history entry.
func (p *Plan) Latest() (HistoryEntry, bool) {
	if len(p.History) == 0 {
		return HistoryEntry{}, false
	}
	return p.History[len(p.History)-1], true
}

// Entry returns the history entry with the given version.
func (p *Plan) Entry(version int64) (HistoryEntry, bool) {
	for _, e := range p.History {
		if e.Version == version {
			return e, true
		}
	}
	return HistoryEntry{}, false
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	c := *p
	c.History = make([]HistoryEntry, len(p.History))
	for i, e := range p.History {
		c.History[i] = HistoryEntry{Version: e.Version, Data: e.Data.Clone()}
	}
	c.Current = p.Current.Clone()
	return &c
}

// ParseVersion parses an external version reference.
func ParseVersion(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedVersion, s)
	}
	return v, nil
}
