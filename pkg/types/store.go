package types

import (
	"context"
	"time"
)

// PlanRepository persists plans and their append-only history. It is the
// transport the plan version store reads from and writes to.
type PlanRepository interface {
	// GetPlan returns the plan stored under code with its full history in
	// version order. Returns ErrNotFound if no such plan exists.
	GetPlan(ctx context.Context, code string) (*Plan, error)

	// CreatePlan stores a new plan. Returns ErrDuplicateCode if the code is
	// taken.
	CreatePlan(ctx context.Context, plan *Plan) error

	// AppendVersion appends one entry to a plan's history and makes it the
	// plan's current snapshot. Existing entries are never modified.
	AppendVersion(ctx context.Context, planID string, entry HistoryEntry) error
}

// PlanSummary describes a stored plan without its history.
type PlanSummary struct {
	PlanID    string
	Code      string
	CreatedAt time.Time
	Versions  int
	Latest    int64
}

// Catalog resolves disciplines and their sections.
type Catalog interface {
	// FetchDiscipline returns a discipline with its sections. The caller owns
	// the returned value. Returns ErrNotFound for unknown ids.
	FetchDiscipline(ctx context.Context, id ID) (*Discipline, error)

	// SelectDiscipline marks a discipline as actively tracked.
	SelectDiscipline(ctx context.Context, id ID) error
}

// CampusDirectory lists the campi that offer a semester.
type CampusDirectory interface {
	Campi(ctx context.Context, semester ID) ([]Campus, error)
}
