package plan

import (
	"fmt"

	"github.com/mesh-intelligence/planner/internal/schedule"
	"github.com/mesh-intelligence/planner/pkg/types"
)

// AmbientReader is the read side of the ambient context.
type AmbientReader interface {
	Semester() types.ID
	Campus() types.ID
	Discipline() types.ID
}

// Encode builds a Snapshot of the selection and its ambient context. Every
// id is purified to its raw form. The disciplines and the combination index
// come from one read of the selection.
func Encode(amb AmbientReader, sel *schedule.Selection) (types.Snapshot, error) {
	disciplines, index := sel.State()
	snap := types.Snapshot{
		SelectedDisciplines: []types.DisciplineRef{},
		Teams:               []types.TeamRef{},
		SelectedCombination: index,
	}

	var err error
	if snap.Semester, err = encodeID(amb.Semester()); err != nil {
		return types.Snapshot{}, err
	}
	if snap.Campus, err = encodeID(amb.Campus()); err != nil {
		return types.Snapshot{}, err
	}
	if snap.Discipline, err = encodeID(amb.Discipline()); err != nil {
		return types.Snapshot{}, err
	}

	for _, d := range disciplines {
		discipline, err := encodeID(d.ID)
		if err != nil {
			return types.Snapshot{}, err
		}
		snap.SelectedDisciplines = append(snap.SelectedDisciplines, types.DisciplineRef{ID: discipline})
		for _, s := range d.Sections {
			team, err := encodeID(s.ID)
			if err != nil {
				return types.Snapshot{}, err
			}
			snap.Teams = append(snap.Teams, types.TeamRef{
				ID:         team,
				Discipline: discipline,
				Candidate:  s.Candidate,
			})
		}
	}
	return snap, nil
}

// encodeID purifies id. The zero ID encodes as "".
func encodeID(id types.ID) (string, error) {
	if id.IsZero() {
		return "", nil
	}
	raw, err := types.Purify(id.String(), id.Kind)
	if err != nil {
		return "", fmt.Errorf("encoding %s id: %w", id.Kind, err)
	}
	return raw, nil
}

// decodeID turns a stored raw id back into a tagged id, going through the
// live form so that a bad value fails the same way a bad live id would.
func decodeID(kind types.Kind, raw string) (types.ID, error) {
	id, err := types.ParseID(kind, types.Unpurify(raw, kind))
	if err != nil {
		return types.ID{}, fmt.Errorf("stored %s id: %w", kind, err)
	}
	return id, nil
}

// decodeOptional is decodeID for fields where empty means unset.
func decodeOptional(kind types.Kind, raw string) (types.ID, error) {
	if raw == "" {
		return types.ID{}, nil
	}
	return decodeID(kind, raw)
}
