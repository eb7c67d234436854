package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/planner/internal/sqlite"
	"github.com/mesh-intelligence/planner/pkg/types"
)

func TestImportIntoSQLiteAndServeThroughCache(t *testing.T) {
	ctx := context.Background()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	sum, err := Import(ctx, b, strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Teams)

	c := NewCache(b, 0, zaptest.NewLogger(t), nil)

	campi, err := c.Campi(ctx, types.KindSemester.ID("20241"))
	require.NoError(t, err)
	require.Len(t, campi, 1)
	assert.Equal(t, "Florianopolis", campi[0].Name)

	d, err := c.FetchDiscipline(ctx, types.KindDiscipline.ID("INE5401"))
	require.NoError(t, err)
	assert.Equal(t, "Intro to Computing", d.Name)
	require.Len(t, d.Sections, 2)
	assert.Equal(t, "INE5401-01208A", d.Sections[0].ID.Raw)
	assert.True(t, d.Sections[1].Candidate)
	require.Len(t, d.Sections[0].Slots, 2)
	assert.Equal(t, "CTC-CTC107", d.Sections[0].Slots[0].Room)

	require.NoError(t, c.SelectDiscipline(ctx, d.ID))

	// Re-importing the same document is an upsert.
	_, err = Import(ctx, b, strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	semesters, err := b.Semesters(ctx)
	require.NoError(t, err)
	assert.Len(t, semesters, 1)
}
