package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/planner/pkg/types"
)

// ErrIndexOutOfRange is returned by Combinations.Get.
var ErrIndexOutOfRange = errors.New("combination index out of range")

// Choice assigns one section to a discipline.
type Choice struct {
	Discipline types.ID
	Section    *types.Section
}

// Combination is one conflict-free assignment of at most one candidate
// section per discipline, in discipline order. Disciplines without
// candidates do not appear.
type Combination []Choice

// Section returns the section chosen for the discipline, if any.
func (c Combination) Section(discipline types.ID) (*types.Section, bool) {
	for _, ch := range c {
		if ch.Discipline == discipline {
			return ch.Section, true
		}
	}
	return nil, false
}

// SectionIDs returns the chosen section ids in discipline order.
func (c Combination) SectionIDs() []types.ID {
	ids := make([]types.ID, len(c))
	for i, ch := range c {
		ids[i] = ch.Section.ID
	}
	return ids
}

// Key is a stable textual form of the combination, "disc=team;disc=team".
func (c Combination) Key() string {
	parts := make([]string, len(c))
	for i, ch := range c {
		parts[i] = ch.Discipline.Raw + "=" + ch.Section.ID.Raw
	}
	return strings.Join(parts, ";")
}

// Combinations is the ordered output of Generate.
type Combinations []Combination

// Count returns the number of combinations.
func (cs Combinations) Count() int {
	return len(cs)
}

// Get returns the combination at position i.
func (cs Combinations) Get(i int) (Combination, error) {
	if i < 0 || i >= len(cs) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(cs))
	}
	return cs[i], nil
}

type candidateList struct {
	discipline types.ID
	sections   []*types.Section
}

// Generate enumerates every conflict-free combination of the disciplines'
// candidate sections. Each discipline with candidates contributes exactly
// one of them; a discipline without candidates contributes nothing. The
// search is depth-first in discipline order and then candidate order, and a
// branch is cut as soon as its newest section conflicts with an earlier
// choice, so the output order is deterministic. When no discipline has a
// candidate the result is empty.
func Generate(disciplines []*types.Discipline) Combinations {
	var lists []candidateList
	for _, d := range disciplines {
		if c := d.CandidateSections(); len(c) > 0 {
			lists = append(lists, candidateList{discipline: d.ID, sections: c})
		}
	}
	if len(lists) == 0 {
		return nil
	}

	var out Combinations
	picked := make(Combination, 0, len(lists))

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(lists) {
			out = append(out, append(Combination(nil), picked...))
			return
		}
		for _, s := range lists[depth].sections {
			if conflictsWithAny(s, picked) {
				continue
			}
			picked = append(picked, Choice{Discipline: lists[depth].discipline, Section: s})
			walk(depth + 1)
			picked = picked[:len(picked)-1]
		}
	}
	walk(0)

	return out
}

func conflictsWithAny(s *types.Section, picked Combination) bool {
	for _, ch := range picked {
		if Conflicts(s, ch.Section) {
			return true
		}
	}
	return false
}
