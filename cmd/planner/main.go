// Command planner builds conflict-free class schedules from a course
// catalog and keeps a versioned history of each plan.
package main

import (
	"os"

	"github.com/mesh-intelligence/planner/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
