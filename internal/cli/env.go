package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/planner/internal/catalog"
	"github.com/mesh-intelligence/planner/internal/logging"
	"github.com/mesh-intelligence/planner/internal/metrics"
	isqlite "github.com/mesh-intelligence/planner/internal/sqlite"
	"github.com/mesh-intelligence/planner/pkg/sqlite"
)

// env is everything a command needs: configuration, logger, metrics and
// the attached backend behind a catalog cache.
type env struct {
	settings settings
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	backend  *isqlite.Backend
	catalog  *catalog.Cache
}

func openEnv(cmd *cobra.Command) (*env, error) {
	s, err := resolveSettings()
	if err != nil {
		return nil, systemError{err}
	}
	log, err := logging.New(logging.Options{
		Level:   s.LogLevel,
		File:    s.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, systemError{err}
	}
	registry, m := metrics.NewRegistry()

	backend := sqlite.NewBackend()
	if err := backend.Attach(s.Config); err != nil {
		return nil, systemError{fmt.Errorf("attach backend: %w", err)}
	}
	log.Debug("backend attached", zap.String("data_dir", s.Config.DataDir))

	return &env{
		settings: s,
		log:      log,
		registry: registry,
		metrics:  m,
		backend:  backend,
		catalog:  catalog.NewCache(backend, s.Config.CacheTTL(), log, m),
	}, nil
}

// close detaches the backend and writes the metrics file when one was
// requested.
func (e *env) close() error {
	var errs []error
	if err := e.backend.Detach(); err != nil {
		errs = append(errs, systemError{fmt.Errorf("detach backend: %w", err)})
	}
	if flags.metricsFile != "" {
		if err := metrics.WriteTextfile(e.registry, flags.metricsFile); err != nil {
			errs = append(errs, systemError{fmt.Errorf("write metrics: %w", err)})
		}
	}
	_ = e.log.Sync()
	return errors.Join(errs...)
}

// withEnv runs fn with an open env and always closes it.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) (err error) {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, e.close())
	}()
	return fn(cmd.Context(), e)
}
