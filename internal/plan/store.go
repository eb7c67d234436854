// Package plan saves selection state as versioned snapshots and rebuilds a
// selection from any saved version.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/planner/internal/logging"
	"github.com/mesh-intelligence/planner/internal/metrics"
	"github.com/mesh-intelligence/planner/internal/schedule"
	"github.com/mesh-intelligence/planner/pkg/types"
)

// Ambient is the semester, campus and inspected-discipline context a plan
// is saved with and restored into. WaitCampus blocks until campus
// resolution for the current semester has settled.
type Ambient interface {
	AmbientReader
	SetSemester(ctx context.Context, id types.ID) error
	SetCampus(ctx context.Context, id types.ID) error
	SetDiscipline(id types.ID)
	WaitCampus(ctx context.Context) (types.ID, error)
}

// EventKind identifies a store notification.
type EventKind int

// Store events.
const (
	EventSaved EventKind = iota + 1
	EventLoaded
	EventLoadFailed
)

func (k EventKind) String() string {
	switch k {
	case EventSaved:
		return "saved"
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to store listeners. Err is set for EventLoadFailed.
type Event struct {
	Kind    EventKind
	Version int64
	Err     error
}

// Listener receives store events.
type Listener func(Event)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(l) }
}

// WithMetrics sets the collectors to record into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock replaces time.Now for version ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the plan version store. Every Save appends a history entry; Load
// rebuilds a selection from the current snapshot or any history entry.
//
// Save and Load both advance a generation counter. A Load whose generation
// is no longer the latest when its catalog resolution completes applies
// nothing and returns ErrLoadSuperseded.
type Store struct {
	repo    types.PlanRepository
	catalog types.Catalog
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	gen      atomic.Uint64
	disposed atomic.Bool
	applyMu  sync.Mutex

	mu        sync.Mutex
	plan      *types.Plan
	listeners []subscription
	nextSubID int
}

type subscription struct {
	id int
	fn Listener
}

func newStore(repo types.PlanRepository, catalog types.Catalog, opts []Option) *Store {
	s := &Store{
		repo:    repo,
		catalog: catalog,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns the store for the plan with the given code, creating the
// plan when it does not exist yet.
func Open(ctx context.Context, repo types.PlanRepository, catalog types.Catalog, code string, opts ...Option) (*Store, error) {
	if err := types.ValidateCode(code); err != nil {
		return nil, err
	}
	s := newStore(repo, catalog, opts)

	p, err := repo.GetPlan(ctx, code)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return s, s.create(ctx, code)
	case err != nil:
		return nil, fmt.Errorf("get plan %s: %w", code, err)
	}
	s.plan = p
	s.log.Debug("plan opened", zap.String("code", code), zap.Int("versions", len(p.History)))
	return s, nil
}

// Create creates a new plan. Returns ErrDuplicateCode if the code is taken.
func Create(ctx context.Context, repo types.PlanRepository, catalog types.Catalog, code string, opts ...Option) (*Store, error) {
	if err := types.ValidateCode(code); err != nil {
		return nil, err
	}
	s := newStore(repo, catalog, opts)
	if err := s.create(ctx, code); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) create(ctx context.Context, code string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate plan id: %w", err)
	}
	p := &types.Plan{PlanID: id.String(), Code: code, CreatedAt: s.now().UTC()}
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return fmt.Errorf("create plan %s: %w", code, err)
	}
	s.plan = p
	s.log.Info("plan created", zap.String("code", code), zap.String("plan_id", p.PlanID))
	return nil
}

// Plan returns a copy of the plan and its history.
func (s *Store) Plan() *types.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.Clone()
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	subs := append([]subscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}

// Dispose turns every later Save into a no-op.
func (s *Store) Dispose() {
	s.disposed.Store(true)
}

// Save appends a snapshot of sel and amb to the history and makes it
// current. It does nothing when the store is disposed or either argument is
// nil. silent suppresses EventSaved; the entry is appended regardless.
func (s *Store) Save(ctx context.Context, amb AmbientReader, sel *schedule.Selection, silent bool) error {
	if s.disposed.Load() || amb == nil || sel == nil {
		return nil
	}
	s.gen.Add(1)
	snap, err := Encode(amb, sel)
	if err != nil {
		s.metrics.ObserveSave(metrics.ResultError)
		return fmt.Errorf("save plan: %w", err)
	}

	s.mu.Lock()
	entry := types.HistoryEntry{Version: s.plan.NextVersion(s.now()), Data: snap}
	if err := s.repo.AppendVersion(ctx, s.plan.PlanID, entry); err != nil {
		code := s.plan.Code
		s.mu.Unlock()
		s.metrics.ObserveSave(metrics.ResultError)
		s.log.Warn("plan save failed", zap.String("code", code), zap.Error(err))
		return fmt.Errorf("save plan %s: %w", code, err)
	}
	err = s.plan.Append(entry)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.metrics.ObserveSave(metrics.ResultOK)
	s.log.Debug("plan saved",
		zap.Int64("version", entry.Version),
		zap.Int("disciplines", len(snap.SelectedDisciplines)),
		zap.Bool("silent", silent))
	if !silent {
		s.notify(Event{Kind: EventSaved, Version: entry.Version})
	}
	return nil
}

// Load rebuilds sel and amb from a snapshot: the current one when version
// is empty, else the history entry with that version. The steps run in
// order: semester, then campus once it has settled, then every selected
// discipline in parallel with its team flags, then one combination rebuild
// at the stored index, then the inspected discipline.
//
// A team that no longer exists fails the load with a
// *types.StaleReferenceError. On any failure sel is untouched and amb is
// restored to its previous semester and campus.
func (s *Store) Load(ctx context.Context, amb Ambient, sel *schedule.Selection, version string) error {
	start := time.Now()
	err := s.load(ctx, amb, sel, version)
	switch {
	case err == nil:
		s.metrics.ObserveLoad(metrics.ResultOK, time.Since(start))
	case errors.Is(err, types.ErrLoadSuperseded):
		s.metrics.ObserveLoad(metrics.ResultSuperseded, time.Since(start))
	default:
		s.metrics.ObserveLoad(metrics.ResultError, time.Since(start))
	}
	return err
}

func (s *Store) load(ctx context.Context, amb Ambient, sel *schedule.Selection, version string) error {
	v, snap, err := s.pick(version)
	if err != nil {
		return s.failed(v, err)
	}
	d, err := decodeSnapshot(snap)
	if err != nil {
		return s.failed(v, err)
	}

	token := s.gen.Add(1)
	log := s.log.With(zap.Int64("version", v))

	prevSemester, prevCampus := amb.Semester(), amb.Campus()
	restore := func() {
		rctx := context.WithoutCancel(ctx)
		if amb.Semester() != prevSemester {
			if err := amb.SetSemester(rctx, prevSemester); err != nil {
				log.Warn("restore semester failed", zap.Error(err))
			}
		}
		if amb.Campus() != prevCampus {
			if err := amb.SetCampus(rctx, prevCampus); err != nil {
				log.Warn("restore campus failed", zap.Error(err))
			}
		}
	}

	if err := applyContext(ctx, amb, d); err != nil {
		restore()
		return s.failed(v, err)
	}

	disciplines, err := s.resolve(ctx, d.disciplines)
	if err != nil {
		restore()
		log.Info("plan load failed", zap.Error(err))
		return s.failed(v, err)
	}

	s.applyMu.Lock()
	if s.gen.Load() != token {
		s.applyMu.Unlock()
		log.Debug("plan load superseded")
		return s.failed(v, types.ErrLoadSuperseded)
	}
	began := time.Now()
	if err := sel.Replace(disciplines, snap.SelectedCombination); err != nil {
		s.applyMu.Unlock()
		restore()
		return s.failed(v, err)
	}
	s.metrics.ObserveEnumeration(sel.CombinationCount(), time.Since(began))
	if !d.discipline.IsZero() {
		amb.SetDiscipline(d.discipline)
	}
	s.applyMu.Unlock()

	log.Debug("plan loaded", zap.Int("disciplines", len(disciplines)), zap.String("status", sel.Status()))
	s.notify(Event{Kind: EventLoaded, Version: v})
	return nil
}

func (s *Store) failed(version int64, err error) error {
	s.notify(Event{Kind: EventLoadFailed, Version: version, Err: err})
	return err
}

// pick returns the snapshot to load and its version.
func (s *Store) pick(version string) (int64, types.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(version) == "" {
		latest, _ := s.plan.Latest()
		return latest.Version, s.plan.Current.Clone(), nil
	}
	v, err := types.ParseVersion(version)
	if err != nil {
		return 0, types.Snapshot{}, err
	}
	e, ok := s.plan.Entry(v)
	if !ok {
		return v, types.Snapshot{}, fmt.Errorf("%w: %d", types.ErrVersionNotFound, v)
	}
	return v, e.Data.Clone(), nil
}

type teamRef struct {
	id        types.ID
	candidate bool
}

type disciplineRef struct {
	id    types.ID
	teams []teamRef
}

type decoded struct {
	semester    types.ID
	campus      types.ID
	discipline  types.ID
	disciplines []disciplineRef
}

// decodeSnapshot converts every stored id before anything is mutated.
func decodeSnapshot(snap types.Snapshot) (decoded, error) {
	var d decoded
	var err error
	if d.semester, err = decodeOptional(types.KindSemester, snap.Semester); err != nil {
		return d, err
	}
	if d.campus, err = decodeOptional(types.KindCampus, snap.Campus); err != nil {
		return d, err
	}
	if d.discipline, err = decodeOptional(types.KindDiscipline, snap.Discipline); err != nil {
		return d, err
	}

	seen := make(map[types.ID]bool, len(snap.SelectedDisciplines))
	for _, ref := range snap.SelectedDisciplines {
		id, err := decodeID(types.KindDiscipline, ref.ID)
		if err != nil {
			return d, err
		}
		if seen[id] {
			return d, fmt.Errorf("%w: discipline %s stored twice", types.ErrInvalidData, ref.ID)
		}
		seen[id] = true

		dr := disciplineRef{id: id}
		for _, t := range snap.TeamsOf(ref.ID) {
			tid, err := decodeID(types.KindTeam, t.ID)
			if err != nil {
				return d, err
			}
			dr.teams = append(dr.teams, teamRef{id: tid, candidate: t.Candidate})
		}
		d.disciplines = append(d.disciplines, dr)
	}
	return d, nil
}

// applyContext moves amb to the snapshot's semester, waits for campus
// resolution to settle, then applies the snapshot's campus.
func applyContext(ctx context.Context, amb Ambient, d decoded) error {
	if d.semester.IsZero() {
		return nil
	}
	if amb.Semester() != d.semester {
		if err := amb.SetSemester(ctx, d.semester); err != nil {
			return fmt.Errorf("set semester %s: %w", d.semester.Raw, err)
		}
	}
	if _, err := amb.WaitCampus(ctx); err != nil {
		return fmt.Errorf("wait for campus: %w", err)
	}
	if !d.campus.IsZero() && amb.Campus() != d.campus {
		if err := amb.SetCampus(ctx, d.campus); err != nil {
			return fmt.Errorf("set campus %s: %w", d.campus.Raw, err)
		}
	}
	return nil
}

// resolve fetches and selects every discipline concurrently and applies the
// stored candidate flags. The first failure cancels the rest.
func (s *Store) resolve(ctx context.Context, refs []disciplineRef) ([]*types.Discipline, error) {
	out := make([]*types.Discipline, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			d, err := s.catalog.FetchDiscipline(gctx, ref.id)
			if err != nil {
				return fmt.Errorf("fetch discipline %s: %w", ref.id.Raw, err)
			}
			if err := s.catalog.SelectDiscipline(gctx, ref.id); err != nil {
				return fmt.Errorf("select discipline %s: %w", ref.id.Raw, err)
			}
			for _, t := range ref.teams {
				sec := d.Section(t.id)
				if sec == nil {
					return &types.StaleReferenceError{Discipline: d.ID, DisciplineName: d.Label(), Team: t.id}
				}
				sec.Candidate = t.candidate
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
