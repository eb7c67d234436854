package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/planner/pkg/types"
)

// GetPlan returns the plan stored under code with its full history in
// version order. Returns ErrNotFound if no such plan exists.
func (b *Backend) GetPlan(ctx context.Context, code string) (*types.Plan, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	var p types.Plan
	var createdAt string
	err := b.db.QueryRowContext(ctx,
		"SELECT plan_id, code, created_at FROM plans WHERE code = ?", code,
	).Scan(&p.PlanID, &p.Code, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %s", types.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("getting plan %s: %w", code, err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	rows, err := b.db.QueryContext(ctx,
		"SELECT version, data FROM plan_history WHERE plan_id = ? ORDER BY version ASC", p.PlanID)
	if err != nil {
		return nil, fmt.Errorf("querying plan history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e types.HistoryEntry
		var data string
		if err := rows.Scan(&e.Version, &data); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("parsing snapshot %d: %w", e.Version, err)
		}
		if err := p.Append(e); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan history: %w", err)
	}
	return &p, nil
}

// CreatePlan stores a new plan without history. Returns ErrDuplicateCode if
// the code is taken.
func (b *Backend) CreatePlan(ctx context.Context, p *types.Plan) error {
	if err := types.ValidateCode(p.Code); err != nil {
		return err
	}
	if p.PlanID == "" {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	err := b.withTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx, "SELECT plan_id FROM plans WHERE code = ?", p.Code).Scan(&existing)
		if err == nil {
			return fmt.Errorf("%w: %s", types.ErrDuplicateCode, p.Code)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking plan code: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO plans (plan_id, code, created_at) VALUES (?, ?, ?)",
			p.PlanID, p.Code, p.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("inserting plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.persist("plans")
}

// AppendVersion appends one entry to a plan's history. The version must be
// greater than every stored version. The history file is only ever
// appended to.
func (b *Backend) AppendVersion(ctx context.Context, planID string, entry types.HistoryEntry) error {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	now := time.Now().UTC().Format(time.RFC3339)
	err = b.withTx(ctx, func(tx *sql.Tx) error {
		var latest sql.NullInt64
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1, (SELECT MAX(version) FROM plan_history WHERE plan_id = ?) FROM plans WHERE plan_id = ?",
			planID, planID,
		).Scan(&exists, &latest)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: plan %s", types.ErrNotFound, planID)
		}
		if err != nil {
			return fmt.Errorf("checking plan: %w", err)
		}
		if latest.Valid && entry.Version <= latest.Int64 {
			return fmt.Errorf("%w: version %d is not after %d", types.ErrInvalidData, entry.Version, latest.Int64)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO plan_history (plan_id, version, data, created_at) VALUES (?, ?, ?, ?)",
			planID, entry.Version, string(data), now,
		); err != nil {
			return fmt.Errorf("inserting history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return appendJSONL(filepath.Join(b.config.DataDir, planHistoryJSONL), planHistoryRecord{
		PlanID:    planID,
		Version:   entry.Version,
		Data:      data,
		CreatedAt: now,
	})
}

// ListPlans returns every plan ordered by creation time.
func (b *Backend) ListPlans(ctx context.Context) ([]types.PlanSummary, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.QueryContext(ctx, `SELECT p.plan_id, p.code, p.created_at,
    COUNT(h.version), COALESCE(MAX(h.version), 0)
FROM plans p LEFT JOIN plan_history h ON h.plan_id = p.plan_id
GROUP BY p.plan_id
ORDER BY p.created_at ASC, p.code ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	out := []types.PlanSummary{}
	for rows.Next() {
		var s types.PlanSummary
		var createdAt string
		if err := rows.Scan(&s.PlanID, &s.Code, &createdAt, &s.Versions, &s.Latest); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
