package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/planner/pkg/types"
)

func newPlan(id, code string) *types.Plan {
	return &types.Plan{
		PlanID:    id,
		Code:      code,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sampleSnapshot() types.Snapshot {
	return types.Snapshot{
		Semester:            "20241",
		Campus:              "FLO",
		Discipline:          "INE5401",
		SelectedDisciplines: []types.DisciplineRef{{ID: "INE5401"}},
		Teams: []types.TeamRef{
			{ID: "0101", Discipline: "INE5401", Candidate: true},
			{ID: "0102", Discipline: "INE5401", Candidate: false},
		},
		SelectedCombination: 0,
	}
}

func TestCreateAndGetPlan(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	require.NoError(t, b.CreatePlan(ctx, newPlan("p-1", "fall")))

	p, err := b.GetPlan(ctx, "fall")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.PlanID)
	assert.Equal(t, "fall", p.Code)
	assert.True(t, p.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Empty(t, p.History)
}

func TestCreatePlanRejects(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())
	require.NoError(t, b.CreatePlan(ctx, newPlan("p-1", "fall")))

	assert.ErrorIs(t, b.CreatePlan(ctx, newPlan("p-2", "fall")), types.ErrDuplicateCode)
	assert.ErrorIs(t, b.CreatePlan(ctx, newPlan("p-3", "  ")), types.ErrInvalidCode)
	assert.ErrorIs(t, b.CreatePlan(ctx, newPlan("", "spring")), types.ErrInvalidID)
}

func TestGetPlanNotFound(t *testing.T) {
	b := attach(t, t.TempDir())
	_, err := b.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAppendVersion(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())
	require.NoError(t, b.CreatePlan(ctx, newPlan("p-1", "fall")))

	first := sampleSnapshot()
	second := sampleSnapshot()
	second.SelectedCombination = 1
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 100, Data: first}))
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 101, Data: second}))

	p, err := b.GetPlan(ctx, "fall")
	require.NoError(t, err)
	require.Len(t, p.History, 2)
	assert.Equal(t, int64(100), p.History[0].Version)
	assert.Equal(t, int64(101), p.History[1].Version)
	assert.Equal(t, second, p.Current)
}

func TestAppendVersionRejects(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())
	require.NoError(t, b.CreatePlan(ctx, newPlan("p-1", "fall")))
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 100, Data: sampleSnapshot()}))

	assert.ErrorIs(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 100}), types.ErrInvalidData)
	assert.ErrorIs(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 99}), types.ErrInvalidData)
	assert.ErrorIs(t, b.AppendVersion(ctx, "nope", types.HistoryEntry{Version: 1}), types.ErrNotFound)
}

func TestPlanHistoryFileIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := attach(t, dir)
	require.NoError(t, b.CreatePlan(ctx, newPlan("p-1", "fall")))
	require.NoError(t, b.CreatePlan(ctx, newPlan("p-2", "spring")))

	path := filepath.Join(dir, planHistoryJSONL)
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 5, Data: sampleSnapshot()}))
	firstLine := readLines(t, path)[0]

	require.NoError(t, b.AppendVersion(ctx, "p-2", types.HistoryEntry{Version: 3, Data: sampleSnapshot()}))
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 6, Data: sampleSnapshot()}))

	lines := readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, firstLine, lines[0], "earlier entries are never rewritten")
	assert.Contains(t, lines[1], `"plan_id":"p-2"`)
	assert.Contains(t, lines[0], `"data":{"semester":"20241"`)
}

func TestListPlans(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir())

	plans, err := b.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)

	later := newPlan("p-2", "spring")
	later.CreatedAt = later.CreatedAt.Add(time.Hour)
	require.NoError(t, b.CreatePlan(ctx, later))
	require.NoError(t, b.CreatePlan(ctx, newPlan("p-1", "fall")))
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 7, Data: sampleSnapshot()}))
	require.NoError(t, b.AppendVersion(ctx, "p-1", types.HistoryEntry{Version: 9, Data: sampleSnapshot()}))

	plans, err = b.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "fall", plans[0].Code)
	assert.Equal(t, 2, plans[0].Versions)
	assert.Equal(t, int64(9), plans[0].Latest)
	assert.Equal(t, "spring", plans[1].Code)
	assert.Zero(t, plans[1].Versions)
	assert.Zero(t, plans[1].Latest)
}
