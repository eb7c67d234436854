package cli

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/planner/internal/plan"
	"github.com/mesh-intelligence/planner/internal/schedule"
	"github.com/mesh-intelligence/planner/internal/session"
	"github.com/mesh-intelligence/planner/pkg/types"
)

// workspace is one plan's live state for the length of a command: the
// version store, the ambient session and the selection rebuilt from the
// plan's current snapshot.
type workspace struct {
	store *plan.Store
	sess  *session.Session
	sel   *schedule.Selection
}

type openMode int

const (
	mustExist openMode = iota // fail when the plan is unknown
	orCreate                  // create the plan when it is unknown
)

// openWorkspace opens the plan under code. When restore is set the
// selection is rebuilt from the plan's current snapshot.
func openWorkspace(ctx context.Context, e *env, code string, mode openMode, restore bool) (*workspace, error) {
	if mode == mustExist {
		if _, err := e.backend.GetPlan(ctx, code); err != nil {
			return nil, err
		}
	}
	st, err := plan.Open(ctx, e.backend, e.catalog, code,
		plan.WithLogger(e.log), plan.WithMetrics(e.metrics))
	if err != nil {
		return nil, err
	}
	w := &workspace{
		store: st,
		sess:  session.New(e.catalog, e.log),
		sel:   schedule.NewSelection(),
	}
	if restore && len(st.Plan().History) > 0 {
		if err := st.Load(ctx, w.sess, w.sel, ""); err != nil {
			return nil, fmt.Errorf("restore plan %s: %w", code, err)
		}
	}
	return w, nil
}

// persist records the state as a new version without announcing it.
func (w *workspace) persist(ctx context.Context) error {
	return w.store.Save(ctx, w.sess, w.sel, true)
}

// enter moves the session to d's semester and campus. A plan covers one
// semester: a discipline from another semester is rejected.
func (w *workspace) enter(ctx context.Context, d *types.Discipline) error {
	switch current := w.sess.Semester(); {
	case current.IsZero():
		if err := w.sess.SetSemester(ctx, d.Semester); err != nil {
			return err
		}
	case current != d.Semester:
		return fmt.Errorf("%w: %s is offered in semester %s, the plan is on %s",
			types.ErrInvalidData, d.Code, d.Semester.Raw, current.Raw)
	}
	if _, err := w.sess.WaitCampus(ctx); err != nil {
		return err
	}
	if !d.Campus.IsZero() && w.sess.Campus() != d.Campus {
		return w.sess.SetCampus(ctx, d.Campus)
	}
	return nil
}

// view renders the workspace for output.
func (w *workspace) view() planView {
	p := w.store.Plan()
	v := planView{
		Code:                p.Code,
		PlanID:              p.PlanID,
		Versions:            len(p.History),
		Semester:            w.sess.Semester().Raw,
		Campus:              w.sess.Campus().Raw,
		Discipline:          w.sess.Discipline().Raw,
		Combinations:        w.sel.CombinationCount(),
		SelectedCombination: w.sel.SelectedCombination(),
		Status:              w.sel.Status(),
		Disciplines:         []disciplineView{},
		Current:             []choiceView{},
	}
	for _, d := range w.sel.Disciplines() {
		v.Disciplines = append(v.Disciplines, viewDiscipline(d))
	}
	if c, ok := w.sel.Current(); ok {
		v.Current = viewCombination(c)
	}
	return v
}
