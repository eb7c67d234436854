package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/planner/internal/paths"
	"github.com/mesh-intelligence/planner/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"
	cfgKeyLogFile  = "log_file"
	cfgKeyCacheTTL = "catalog_cache_ttl"

	envLogLevel = "PLANNER_LOG_LEVEL"

	defaultLogLevel = "info"
)

// settings is the resolved configuration of one invocation.
type settings struct {
	ConfigDir string
	Config    types.Config
	LogLevel  string
	LogFile   string
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error; the defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyCacheTTL, types.DefaultCatalogCacheTTL)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.BindEnv(cfgKeyLogLevel, envLogLevel); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// resolveSettings applies flags over config.yaml over the environment over
// platform defaults, and validates the result.
func resolveSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	s := settings{
		ConfigDir: configDir,
		Config: types.Config{
			Backend:         v.GetString(cfgKeyBackend),
			DataDir:         dataDir,
			CatalogCacheTTL: v.GetDuration(cfgKeyCacheTTL),
		},
		LogLevel: v.GetString(cfgKeyLogLevel),
		LogFile:  v.GetString(cfgKeyLogFile),
	}
	if flags.logLevel != "" {
		s.LogLevel = flags.logLevel
	}
	if err := s.Config.Validate(); err != nil {
		return settings{}, fmt.Errorf("%s: %w", paths.ConfigFile(configDir), err)
	}
	return s, nil
}
