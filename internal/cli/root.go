// Package cli implements the planner command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	dataDir     string
	jsonMode    bool
	logLevel    string
	metricsFile string
}

var flags rootFlags

// NewRootCmd creates the top-level "planner" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags = rootFlags{}

	root := &cobra.Command{
		Use:   "planner",
		Short: "Plan conflict-free class schedules",
		Long: "Planner imports a course catalog, enumerates the combinations of teams\n" +
			"that fit together in a week, and keeps every plan's history of choices.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: $PLANNER_CONFIG_DIR or the platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: config data_dir, $PLANNER_DATA_DIR or the platform data dir)")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: config log_level)")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newPlanCmd())

	return root
}

// Execute runs the root command, reports any error on stderr and returns
// the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return exitCode(err)
}
