package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/planner/internal/plan"
	"github.com/mesh-intelligence/planner/pkg/types"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build schedules and keep their history",
		Long: `A plan is a named set of chosen disciplines, the teams still in play for
each of them and the combination being looked at. Every change is stored
as a new version of the plan; older versions can be loaded back.`,
	}
	cmd.AddCommand(
		newPlanCreateCmd(),
		newPlanListCmd(),
		newPlanAddCmd(),
		newPlanRemoveCmd(),
		newPlanToggleCmd(),
		newPlanShowCmd(),
		newPlanStepCmd("next", "Move to the next combination", true),
		newPlanStepCmd("prev", "Move to the previous combination", false),
		newPlanSaveCmd(),
		newPlanHistoryCmd(),
		newPlanLoadCmd(),
	)
	return cmd
}

// showWorkspace prints the workspace in the selected output mode.
func showWorkspace(cmd *cobra.Command, w *workspace) error {
	if flags.jsonMode {
		return printJSON(cmd, w.view())
	}
	writePlan(cmd.OutOrStdout(), w.view())
	return nil
}

func newPlanCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <code>",
		Short: "Create an empty plan",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				st, err := plan.Create(ctx, e.backend, e.catalog, args[0],
					plan.WithLogger(e.log), plan.WithMetrics(e.metrics))
				if err != nil {
					return err
				}
				p := st.Plan()
				if flags.jsonMode {
					return printJSON(cmd, map[string]string{"code": p.Code, "plan_id": p.PlanID})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s (%s)\n", p.Code, p.PlanID)
				return nil
			})
		},
	}
}

func newPlanListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plans",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				plans, err := e.backend.ListPlans(ctx)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					type row struct {
						Code      string `json:"code"`
						PlanID    string `json:"plan_id"`
						CreatedAt string `json:"created_at"`
						Versions  int    `json:"versions"`
						Latest    int64  `json:"latest,omitempty"`
					}
					out := make([]row, len(plans))
					for i, p := range plans {
						out[i] = row{Code: p.Code, PlanID: p.PlanID, CreatedAt: p.CreatedAt.Format(time.RFC3339), Versions: p.Versions, Latest: p.Latest}
					}
					return printJSON(cmd, out)
				}
				for _, p := range plans {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %3d versions  created %s\n",
						p.Code, p.Versions, p.CreatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newPlanAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <code> <discipline>...",
		Short: "Add disciplines to a plan, creating the plan if needed",
		Long: `Add fetches each discipline from the catalog and adds it with all of its
teams as candidates. The plan follows the discipline's semester and campus;
every discipline of a plan must belong to the same semester.`,
		Args: minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], orCreate, true)
				if err != nil {
					return err
				}
				for _, raw := range args[1:] {
					id := types.KindDiscipline.ID(raw)
					d, err := e.catalog.FetchDiscipline(ctx, id)
					if err != nil {
						return err
					}
					if err := w.enter(ctx, d); err != nil {
						return err
					}
					if err := w.sel.AddDiscipline(d); err != nil {
						return err
					}
					if err := e.catalog.SelectDiscipline(ctx, id); err != nil {
						return err
					}
					w.sess.SetDiscipline(id)
					e.log.Debug("discipline added", zap.String("discipline", raw), zap.String("status", w.sel.Status()))
				}
				if err := w.persist(ctx); err != nil {
					return err
				}
				return showWorkspace(cmd, w)
			})
		},
	}
}

func newPlanRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <code> <discipline>...",
		Short: "Remove disciplines from a plan",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], mustExist, true)
				if err != nil {
					return err
				}
				for _, raw := range args[1:] {
					id := types.KindDiscipline.ID(raw)
					if err := w.sel.RemoveDiscipline(id); err != nil {
						return err
					}
					if w.sess.Discipline() == id {
						w.sess.SetDiscipline(types.ID{})
					}
				}
				if err := w.persist(ctx); err != nil {
					return err
				}
				return showWorkspace(cmd, w)
			})
		},
	}
}

func newPlanToggleCmd() *cobra.Command {
	var on, off bool
	cmd := &cobra.Command{
		Use:   "toggle <code> <team>...",
		Short: "Flip whether teams take part in combinations",
		Args:  minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if on && off {
				return usageError{fmt.Errorf("--on and --off are mutually exclusive")}
			}
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], mustExist, true)
				if err != nil {
					return err
				}
				for _, raw := range args[1:] {
					id := types.KindTeam.ID(raw)
					current, err := w.sel.Candidate(id)
					if err != nil {
						return err
					}
					want := !current
					switch {
					case on:
						want = true
					case off:
						want = false
					}
					if err := w.sel.SetCandidate(id, want); err != nil {
						return err
					}
				}
				if err := w.persist(ctx); err != nil {
					return err
				}
				return showWorkspace(cmd, w)
			})
		},
	}
	cmd.Flags().BoolVar(&on, "on", false, "make the teams candidates")
	cmd.Flags().BoolVar(&off, "off", false, "take the teams out of the combinations")
	return cmd
}

func newPlanShowCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "show <code>",
		Short: "Show a plan's disciplines, teams and current combination",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], mustExist, version == "")
				if err != nil {
					return err
				}
				if version != "" {
					if err := w.store.Load(ctx, w.sess, w.sel, version); err != nil {
						return err
					}
				}
				return showWorkspace(cmd, w)
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "show this history version instead of the current state")
	return cmd
}

func newPlanStepCmd(use, short string, forward bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <code>",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], mustExist, true)
				if err != nil {
					return err
				}
				if forward {
					w.sel.NextCombination()
				} else {
					w.sel.PreviousCombination()
				}
				if err := w.persist(ctx); err != nil {
					return err
				}
				return showWorkspace(cmd, w)
			})
		},
	}
}

func newPlanSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <code>",
		Short: "Record the current state as a new version",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], mustExist, true)
				if err != nil {
					return err
				}
				var saved int64
				unsubscribe := w.store.Subscribe(func(ev plan.Event) {
					if ev.Kind == plan.EventSaved {
						saved = ev.Version
					}
				})
				defer unsubscribe()

				if err := w.store.Save(ctx, w.sess, w.sel, false); err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd, map[string]any{"code": args[0], "version": saved})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s version %s\n", args[0], formatVersion(saved))
				return nil
			})
		},
	}
}

func newPlanHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <code>",
		Short: "List a plan's versions, oldest first",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				p, err := e.backend.GetPlan(ctx, args[0])
				if err != nil {
					return err
				}
				if flags.jsonMode {
					type row struct {
						Version     int64    `json:"version"`
						Semester    string   `json:"semester,omitempty"`
						Campus      string   `json:"campus,omitempty"`
						Disciplines []string `json:"disciplines"`
						Selected    int      `json:"selected_combination"`
					}
					out := make([]row, len(p.History))
					for i, h := range p.History {
						out[i] = row{Version: h.Version, Semester: h.Data.Semester, Campus: h.Data.Campus,
							Disciplines: disciplineIDs(h.Data), Selected: h.Data.SelectedCombination}
					}
					return printJSON(cmd, out)
				}
				for _, h := range p.History {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s/%s  %v\n",
						formatVersion(h.Version), h.Data.Semester, h.Data.Campus, disciplineIDs(h.Data))
				}
				return nil
			})
		},
	}
}

func disciplineIDs(s types.Snapshot) []string {
	out := make([]string, len(s.SelectedDisciplines))
	for i, d := range s.SelectedDisciplines {
		out[i] = d.ID
	}
	return out
}

func newPlanLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <code> <version>",
		Short: "Restore a history version and make it current",
		Long: `Load rebuilds the plan from a history version and records the result as
a new version. It fails, changing nothing, when a team stored in that
version no longer exists in the catalog.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				w, err := openWorkspace(ctx, e, args[0], mustExist, false)
				if err != nil {
					return err
				}
				if err := w.store.Load(ctx, w.sess, w.sel, args[1]); err != nil {
					return err
				}
				if err := w.persist(ctx); err != nil {
					return err
				}
				return showWorkspace(cmd, w)
			})
		},
	}
}
