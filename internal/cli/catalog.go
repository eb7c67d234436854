package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/planner/internal/catalog"
	"github.com/mesh-intelligence/planner/pkg/types"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import and browse the course catalog",
	}
	cmd.AddCommand(
		newCatalogImportCmd(),
		newCatalogSemestersCmd(),
		newCatalogCampiCmd(),
		newCatalogDisciplinesCmd(),
		newCatalogSearchCmd(),
		newCatalogShowCmd(),
	)
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a catalog JSON document (use - for stdin)",
		Long: `Import reads a catalog document and stores its semesters, campi,
disciplines and teams. Disciplines already stored are replaced with the
teams in the document.

Team schedules use the registrar notation "2.0820-2 / CTC-CTC107": weekday
(1=Sunday .. 7=Saturday), start time, number of 50-minute lessons, room.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return usageError{err}
				}
				defer f.Close()
				r = f
			}
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				sum, err := catalog.Import(ctx, e.backend, r)
				if err != nil {
					return fmt.Errorf("import %s: %w", args[0], err)
				}
				e.log.Info("catalog imported", zap.String("source", args[0]), zap.Stringer("summary", sum))
				if flags.jsonMode {
					return printJSON(cmd, sum)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", sum)
				return nil
			})
		},
	}
}

func newCatalogSemestersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "semesters",
		Short: "List semesters",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				semesters, err := e.backend.Semesters(ctx)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					out := make([]map[string]string, len(semesters))
					for i, s := range semesters {
						out[i] = map[string]string{"id": s.ID.Raw, "name": s.Name}
					}
					return printJSON(cmd, out)
				}
				for _, s := range semesters {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", s.ID.Raw, s.Name)
				}
				return nil
			})
		},
	}
}

func newCatalogCampiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "campi <semester>",
		Short: "List the campi of a semester",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				campi, err := e.catalog.Campi(ctx, types.KindSemester.ID(args[0]))
				if err != nil {
					return err
				}
				if flags.jsonMode {
					out := make([]map[string]string, len(campi))
					for i, c := range campi {
						out[i] = map[string]string{"id": c.ID.Raw, "name": c.Name}
					}
					return printJSON(cmd, out)
				}
				for _, c := range campi {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", c.ID.Raw, c.Name)
				}
				return nil
			})
		},
	}
}

func newCatalogDisciplinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disciplines <semester> <campus>",
		Short: "List the disciplines offered on a campus",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				list, err := e.backend.Disciplines(ctx, types.KindSemester.ID(args[0]), types.KindCampus.ID(args[1]))
				if err != nil {
					return err
				}
				if flags.jsonMode {
					out := make([]disciplineView, len(list))
					for i, d := range list {
						out[i] = viewDiscipline(d)
					}
					return printJSON(cmd, out)
				}
				for _, d := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", d.Code, d.Name)
				}
				return nil
			})
		},
	}
}

func newCatalogSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <semester> <campus> <query>...",
		Short: "Find disciplines on a campus by code or name",
		Long: `Search matches the query against "<code> - <name>" of every discipline
offered on the campus. Each query word must start a word of the discipline,
in any order; case, accents and punctuation are ignored. Digits in a code
match on their own, so "5401" finds INE5401.`,
		Args: minArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return usageError{fmt.Errorf("--limit must not be negative")}
			}
			query := strings.Join(args[2:], " ")
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				list, err := e.backend.SearchDisciplines(ctx,
					types.KindSemester.ID(args[0]), types.KindCampus.ID(args[1]), query, limit)
				if err != nil {
					return err
				}
				e.log.Debug("catalog search", zap.String("query", query), zap.Int("results", len(list)))
				if flags.jsonMode {
					out := make([]disciplineView, len(list))
					for i, d := range list {
						out[i] = viewDiscipline(d)
					}
					return printJSON(cmd, out)
				}
				if len(list) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No disciplines match %q\n", query)
					return nil
				}
				for _, d := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", d.Code, d.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", types.DefaultSearchLimit, "maximum number of results (0 for all)")
	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <discipline>",
		Short: "Show a discipline and its teams",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				d, err := e.catalog.FetchDiscipline(ctx, types.KindDiscipline.ID(args[0]))
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd, viewDiscipline(d))
				}
				writeDiscipline(cmd.OutOrStdout(), viewDiscipline(d))
				return nil
			})
		},
	}
}
