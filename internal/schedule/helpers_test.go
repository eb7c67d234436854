package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planner/pkg/types"
)

// section builds a candidate section from "Mon 08:00-10:00" style slots.
func section(t *testing.T, raw string, slots ...string) *types.Section {
	t.Helper()
	s := &types.Section{ID: types.KindTeam.ID(raw), Code: raw, Candidate: true}
	for _, in := range slots {
		slot, err := types.ParseTimeSlot(in)
		require.NoError(t, err)
		s.Slots = append(s.Slots, slot)
	}
	return s
}

func discipline(t *testing.T, raw string, sections ...*types.Section) *types.Discipline {
	t.Helper()
	d := &types.Discipline{ID: types.KindDiscipline.ID(raw), Code: raw, Name: raw}
	for _, s := range sections {
		require.NoError(t, d.AddSection(s))
	}
	return d
}

// scenario: A1 Mon 08-10, A2 Tue 08-10, B1 Mon 09-11. Only {A2, B1} fits.
func scenario(t *testing.T) (a, b *types.Discipline) {
	t.Helper()
	a = discipline(t, "A",
		section(t, "A1", "Mon 08:00-10:00"),
		section(t, "A2", "Tue 08:00-10:00"),
	)
	b = discipline(t, "B",
		section(t, "B1", "Mon 09:00-11:00"),
	)
	return a, b
}

func keys(cs Combinations) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Key()
	}
	return out
}
