package plan

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/planner/pkg/types"
)

type memRepo struct {
	mu    sync.Mutex
	plans map[string]*types.Plan
}

func newMemRepo() *memRepo {
	return &memRepo{plans: map[string]*types.Plan{}}
}

func (r *memRepo) GetPlan(_ context.Context, code string) (*types.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[code]
	if !ok {
		return nil, types.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *memRepo) CreatePlan(_ context.Context, p *types.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[p.Code]; ok {
		return types.ErrDuplicateCode
	}
	r.plans[p.Code] = p.Clone()
	return nil
}

func (r *memRepo) AppendVersion(_ context.Context, planID string, e types.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.plans {
		if p.PlanID == planID {
			return p.Append(e)
		}
	}
	return types.ErrNotFound
}

type fakeCatalog struct {
	mu          sync.Mutex
	disciplines map[string]*types.Discipline
	selected    []string

	// When gate is set, fetches announce themselves on started and wait.
	gate    chan struct{}
	started chan struct{}
}

func (c *fakeCatalog) FetchDiscipline(ctx context.Context, id types.ID) (*types.Discipline, error) {
	if c.gate != nil {
		c.started <- struct{}{}
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.disciplines[id.Raw]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id.Raw)
	}
	return d.Clone(), nil
}

func (c *fakeCatalog) SelectDiscipline(_ context.Context, id types.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = append(c.selected, id.Raw)
	return nil
}

func (c *fakeCatalog) removeTeam(discipline, team string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.disciplines[discipline]
	for i, s := range d.Sections {
		if s.ID.Raw == team {
			d.Sections = append(d.Sections[:i:i], d.Sections[i+1:]...)
			return
		}
	}
}

type directory map[string][]types.Campus

func (d directory) Campi(_ context.Context, semester types.ID) ([]types.Campus, error) {
	c, ok := d[semester.Raw]
	if !ok {
		return nil, types.ErrNotFound
	}
	return c, nil
}

func testDirectory() directory {
	return directory{
		"20241": {{ID: types.KindCampus.ID("FLO")}, {ID: types.KindCampus.ID("JOI")}},
		"20242": {{ID: types.KindCampus.ID("ARA")}},
	}
}
