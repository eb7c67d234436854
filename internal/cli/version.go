package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/planner"

// Version is the planner release, set at build time with
// -ldflags "-X github.com/mesh-intelligence/planner/internal/cli.Version=...".
var Version = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the planner version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return printJSON(cmd, map[string]string{"version": Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "planner v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
