// Package session holds the ambient context of a planning session: the
// current semester, the campus resolved for it and the discipline being
// inspected.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/planner/internal/logging"
	"github.com/mesh-intelligence/planner/pkg/types"
)

// Session is the ambient context. Changing the semester starts campus
// resolution; WaitCampus blocks until the latest resolution settles.
type Session struct {
	dir types.CampusDirectory
	log *zap.Logger

	mu         sync.Mutex
	semester   types.ID
	campus     types.ID
	discipline types.ID
	ready      chan struct{}
	resolveErr error
}

// New returns a session with no semester. Campus lists come from dir.
func New(dir types.CampusDirectory, log *zap.Logger) *Session {
	ready := make(chan struct{})
	close(ready)
	return &Session{dir: dir, log: logging.OrNop(log), ready: ready}
}

// Semester returns the current semester.
func (s *Session) Semester() types.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.semester
}

// Campus returns the current campus.
func (s *Session) Campus() types.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.campus
}

// Discipline returns the discipline being inspected.
func (s *Session) Discipline() types.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discipline
}

// SetDiscipline sets the discipline being inspected.
func (s *Session) SetDiscipline(id types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discipline = id
}

// SetSemester switches the semester, clears the campus and resolves the
// semester's campi, defaulting to the first one. A zero id clears both.
func (s *Session) SetSemester(ctx context.Context, id types.ID) error {
	s.mu.Lock()
	s.semester = id
	s.campus = types.ID{}
	ready := make(chan struct{})
	s.ready = ready
	s.mu.Unlock()

	if id.IsZero() {
		s.settle(ready, id, types.ID{}, nil)
		return nil
	}

	campi, err := s.dir.Campi(ctx, id)
	if err != nil {
		err = fmt.Errorf("campi for semester %s: %w", id.Raw, err)
		s.settle(ready, id, types.ID{}, err)
		return err
	}
	var first types.ID
	if len(campi) > 0 {
		first = campi[0].ID
	}
	s.settle(ready, id, first, nil)
	s.log.Debug("semester set", zap.String("semester", id.Raw), zap.String("campus", first.Raw))
	return nil
}

// settle publishes a resolution result unless a newer SetSemester has
// started since, then wakes waiters.
func (s *Session) settle(ready chan struct{}, semester, campus types.ID, err error) {
	s.mu.Lock()
	if s.ready == ready && s.semester == semester {
		s.campus = campus
		s.resolveErr = err
	}
	s.mu.Unlock()
	close(ready)
}

// WaitCampus blocks until campus resolution for the current semester has
// settled and returns the resolved campus.
func (s *Session) WaitCampus(ctx context.Context) (types.ID, error) {
	for {
		s.mu.Lock()
		ready := s.ready
		s.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return types.ID{}, ctx.Err()
		}

		s.mu.Lock()
		if s.ready == ready {
			campus, err := s.campus, s.resolveErr
			s.mu.Unlock()
			return campus, err
		}
		s.mu.Unlock()
	}
}

// SetCampus sets the campus. It must be one of the current semester's
// campi; a zero id clears it.
func (s *Session) SetCampus(ctx context.Context, id types.ID) error {
	if id.IsZero() {
		s.mu.Lock()
		s.campus = id
		s.mu.Unlock()
		return nil
	}

	semester := s.Semester()
	if semester.IsZero() {
		return fmt.Errorf("%w: campus %s set without a semester", types.ErrInvalidID, id.Raw)
	}
	campi, err := s.dir.Campi(ctx, semester)
	if err != nil {
		return fmt.Errorf("campi for semester %s: %w", semester.Raw, err)
	}
	for _, c := range campi {
		if c.ID == id {
			s.mu.Lock()
			if s.semester == semester {
				s.campus = id
			}
			s.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("%w: campus %s in semester %s", types.ErrNotFound, id.Raw, semester.Raw)
}
