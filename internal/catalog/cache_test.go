package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/planner/internal/metrics"
	"github.com/mesh-intelligence/planner/pkg/types"
)

type countingSource struct {
	fetches  atomic.Int32
	campi    atomic.Int32
	selected atomic.Int32
	gate     chan struct{}
}

func (s *countingSource) FetchDiscipline(_ context.Context, id types.ID) (*types.Discipline, error) {
	s.fetches.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if id.Raw == "missing" {
		return nil, types.ErrNotFound
	}
	d := &types.Discipline{ID: id, Name: "Calculus"}
	if err := d.AddSection(&types.Section{ID: types.KindTeam.ID(id.Raw + "-1"), Candidate: true}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *countingSource) SelectDiscipline(context.Context, types.ID) error {
	s.selected.Add(1)
	return nil
}

func (s *countingSource) Campi(_ context.Context, semester types.ID) ([]types.Campus, error) {
	s.campi.Add(1)
	return []types.Campus{{ID: types.KindCampus.ID("FLO"), Semester: semester}}, nil
}

func TestCacheHit(t *testing.T) {
	src := &countingSource{}
	_, m := metrics.NewRegistry()
	c := NewCache(src, time.Minute, zaptest.NewLogger(t), m)
	ctx := context.Background()
	id := types.KindDiscipline.ID("MTM3101")

	first, err := c.FetchDiscipline(ctx, id)
	require.NoError(t, err)
	second, err := c.FetchDiscipline(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.fetches.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogFetches.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogFetches.WithLabelValues("miss")))
}

func TestCacheReturnsCopies(t *testing.T) {
	c := NewCache(&countingSource{}, 0, nil, nil)
	ctx := context.Background()
	id := types.KindDiscipline.ID("MTM3101")

	first, err := c.FetchDiscipline(ctx, id)
	require.NoError(t, err)
	first.Sections[0].Candidate = false

	second, err := c.FetchDiscipline(ctx, id)
	require.NoError(t, err)
	assert.True(t, second.Sections[0].Candidate, "callers must not share sections")
}

func TestCacheErrorsAreNotCached(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute, nil, nil)
	ctx := context.Background()

	_, err := c.FetchDiscipline(ctx, types.KindDiscipline.ID("missing"))
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = c.FetchDiscipline(ctx, types.KindDiscipline.ID("missing"))
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, int32(2), src.fetches.Load())
}

func TestCacheDeduplicatesConcurrentMisses(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	c := NewCache(src, time.Minute, nil, nil)
	ctx := context.Background()
	id := types.KindDiscipline.ID("MTM3101")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.FetchDiscipline(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, "Calculus", d.Name)
		}()
	}
	require.Eventually(t, func() bool { return src.fetches.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.fetches.Load())
}

func TestCacheInvalidate(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute, nil, nil)
	ctx := context.Background()
	id := types.KindDiscipline.ID("MTM3101")

	_, err := c.FetchDiscipline(ctx, id)
	require.NoError(t, err)
	c.Invalidate(id)
	_, err = c.FetchDiscipline(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.fetches.Load())

	c.Flush()
	_, err = c.FetchDiscipline(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(3), src.fetches.Load())
}

func TestCacheCampiAndSelect(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Minute, nil, nil)
	ctx := context.Background()
	sem := types.KindSemester.ID("20241")

	for i := 0; i < 3; i++ {
		campi, err := c.Campi(ctx, sem)
		require.NoError(t, err)
		require.Len(t, campi, 1)
		assert.Equal(t, "FLO", campi[0].ID.Raw)
	}
	assert.Equal(t, int32(1), src.campi.Load())

	require.NoError(t, c.SelectDiscipline(ctx, types.KindDiscipline.ID("MTM3101")))
	assert.Equal(t, int32(1), src.selected.Load())
}
