package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/planner/internal/paths"
	"github.com/mesh-intelligence/planner/pkg/sqlite"
	"github.com/mesh-intelligence/planner/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend         string `yaml:"backend"`
	DataDir         string `yaml:"data_dir,omitempty"`
	LogLevel        string `yaml:"log_level"`
	LogFile         string `yaml:"log_file,omitempty"`
	CatalogCacheTTL string `yaml:"catalog_cache_ttl"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize planner storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nwhen none exists, then initialize the storage backend.",
		Args:  exactArgs(0),
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings()
	if err != nil {
		return systemError{err}
	}

	if err := os.MkdirAll(s.ConfigDir, 0o755); err != nil {
		return systemError{fmt.Errorf("create config directory: %w", err)}
	}
	path := paths.ConfigFile(s.ConfigDir)
	pinned := ""
	if flags.dataDir != "" {
		pinned = s.Config.DataDir
	}
	written, err := writeConfigIfMissing(path, pinned)
	if err != nil {
		return systemError{fmt.Errorf("write config: %w", err)}
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(s.Config); err != nil {
		return systemError{fmt.Errorf("initialize storage: %w", err)}
	}
	if err := backend.Detach(); err != nil {
		return systemError{fmt.Errorf("finalize storage: %w", err)}
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
	fmt.Fprintf(out, "Planner initialized in %s\n", s.Config.DataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone and reported as not written.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	cfg := configFile{
		Backend:         types.BackendSQLite,
		DataDir:         dataDir,
		LogLevel:        defaultLogLevel,
		CatalogCacheTTL: types.DefaultCatalogCacheTTL.String(),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := fmt.Sprintf("# planner configuration, written %s\n", time.Now().UTC().Format(time.DateOnly))
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
