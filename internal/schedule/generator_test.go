package schedule

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planner/pkg/types"
)

func TestGenerateScenario(t *testing.T) {
	a, b := scenario(t)

	got := Generate([]*types.Discipline{a, b})
	require.Equal(t, 1, got.Count())
	assert.Equal(t, "A=A2;B=B1", got[0].Key())

	s, ok := got[0].Section(b.ID)
	require.True(t, ok)
	assert.Equal(t, "B1", s.ID.Raw)
	assert.Equal(t, []types.ID{types.KindTeam.ID("A2"), types.KindTeam.ID("B1")}, got[0].SectionIDs())
}

func TestGenerateEmpty(t *testing.T) {
	assert.Equal(t, 0, Generate(nil).Count())

	a, b := scenario(t)
	for _, s := range append(a.Sections, b.Sections...) {
		s.Candidate = false
	}
	assert.Equal(t, 0, Generate([]*types.Discipline{a, b}).Count())
}

func TestGenerateSkipsDisciplinesWithoutCandidates(t *testing.T) {
	a, b := scenario(t)
	b.Sections[0].Candidate = false

	got := Generate([]*types.Discipline{a, b})
	assert.Equal(t, []string{"A=A1", "A=A2"}, keys(got))
}

func TestGenerateOrder(t *testing.T) {
	a := discipline(t, "A", section(t, "A1", "Mon 08:00-10:00"), section(t, "A2", "Tue 08:00-10:00"))
	b := discipline(t, "B", section(t, "B1", "Wed 08:00-10:00"), section(t, "B2", "Thu 08:00-10:00"))

	got := Generate([]*types.Discipline{a, b})
	assert.Equal(t, []string{"A=A1;B=B1", "A=A1;B=B2", "A=A2;B=B1", "A=A2;B=B2"}, keys(got))
}

func TestGenerateAllConflicting(t *testing.T) {
	a := discipline(t, "A", section(t, "A1", "Mon 08:00-10:00"))
	b := discipline(t, "B", section(t, "B1", "Mon 08:00-10:00"))

	assert.Equal(t, 0, Generate([]*types.Discipline{a, b}).Count())
}

func TestCombinationsGet(t *testing.T) {
	a, b := scenario(t)
	got := Generate([]*types.Discipline{a, b})

	c, err := got.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "A=A2;B=B1", c.Key())

	_, err = got.Get(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = got.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

// randomDisciplines builds n disciplines with up to four sections each on a
// small grid of slots so that conflicts are common.
func randomDisciplines(t *testing.T, r *rand.Rand, n int) []*types.Discipline {
	t.Helper()
	var out []*types.Discipline
	for i := 0; i < n; i++ {
		d := discipline(t, fmt.Sprintf("d%d", i))
		sections := r.IntN(5)
		for j := 0; j < sections; j++ {
			s := &types.Section{
				ID:        types.KindTeam.ID(fmt.Sprintf("d%d-s%d", i, j)),
				Candidate: r.IntN(4) != 0,
			}
			for k := 0; k < 1+r.IntN(2); k++ {
				start := types.NewClock(8+r.IntN(4), 0)
				s.Slots = append(s.Slots, types.TimeSlot{
					Day:   types.Day(1 + r.IntN(3)),
					Start: start,
					End:   start + types.Clock(50*(1+r.IntN(3))),
				})
			}
			require.NoError(t, d.AddSection(s))
		}
		out = append(out, d)
	}
	return out
}

// bruteForce walks the full cartesian product in the same order and keeps
// the conflict-free tuples.
func bruteForce(disciplines []*types.Discipline) []string {
	var lists []*types.Discipline
	for _, d := range disciplines {
		if len(d.CandidateSections()) > 0 {
			lists = append(lists, d)
		}
	}
	if len(lists) == 0 {
		return []string{}
	}

	out := []string{}
	tuple := make(Combination, len(lists))
	var walk func(i int)
	walk = func(i int) {
		if i == len(lists) {
			for x := range tuple {
				for y := x + 1; y < len(tuple); y++ {
					if Conflicts(tuple[x].Section, tuple[y].Section) {
						return
					}
				}
			}
			out = append(out, tuple.Key())
			return
		}
		for _, s := range lists[i].CandidateSections() {
			tuple[i] = Choice{Discipline: lists[i].ID, Section: s}
			walk(i + 1)
		}
	}
	walk(0)
	return out
}

func TestGenerateMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		ds := randomDisciplines(t, r, 1+r.IntN(5))

		got := Generate(ds)
		want := bruteForce(ds)
		require.Equal(t, want, keys(got), "round %d", round)

		for _, c := range got {
			for x := range c {
				for y := x + 1; y < len(c); y++ {
					assert.False(t, Conflicts(c[x].Section, c[y].Section))
				}
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	ds := randomDisciplines(t, r, 5)

	first := keys(Generate(ds))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, keys(Generate(ds)))
	}
}
