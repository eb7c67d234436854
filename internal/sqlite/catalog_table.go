package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/planner/pkg/types"
)

// PutSemester creates or renames a semester.
func (b *Backend) PutSemester(ctx context.Context, s types.Semester) error {
	if s.ID.IsZero() {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if _, err := b.db.ExecContext(ctx,
		`INSERT INTO semesters (semester_id, name) VALUES (?, ?)
ON CONFLICT(semester_id) DO UPDATE SET name = excluded.name`,
		s.ID.Raw, s.Name,
	); err != nil {
		return fmt.Errorf("saving semester %s: %w", s.ID.Raw, err)
	}
	return b.persist("semesters")
}

// PutCampus creates or renames a campus of an existing semester.
func (b *Backend) PutCampus(ctx context.Context, c types.Campus) error {
	if c.ID.IsZero() || c.Semester.IsZero() {
		return types.ErrInvalidID
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := b.requireSemester(ctx, c.Semester); err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx,
		`INSERT INTO campi (semester_id, campus_id, name) VALUES (?, ?, ?)
ON CONFLICT(semester_id, campus_id) DO UPDATE SET name = excluded.name`,
		c.Semester.Raw, c.ID.Raw, c.Name,
	); err != nil {
		return fmt.Errorf("saving campus %s: %w", c.ID.Raw, err)
	}
	return b.persist("campi")
}

func (b *Backend) requireSemester(ctx context.Context, id types.ID) error {
	var one int
	err := b.db.QueryRowContext(ctx, "SELECT 1 FROM semesters WHERE semester_id = ?", id.Raw).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: semester %s", types.ErrNotFound, id.Raw)
	}
	return err
}

// PutDiscipline creates or replaces a discipline and all of its teams. Teams
// stored earlier but absent from d are removed. The selection timestamp
// survives a replace.
func (b *Backend) PutDiscipline(ctx context.Context, d *types.Discipline) error {
	if d.ID.IsZero() || d.Campus.IsZero() || d.Semester.IsZero() {
		return types.ErrInvalidID
	}
	for _, s := range d.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	err := b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO disciplines (discipline_id, code, name, semester_id, campus_id) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(discipline_id) DO UPDATE SET code = excluded.code, name = excluded.name,
    semester_id = excluded.semester_id, campus_id = excluded.campus_id`,
			d.ID.Raw, d.Code, d.Name, d.Semester.Raw, d.Campus.Raw,
		); err != nil {
			return fmt.Errorf("saving discipline %s: %w", d.ID.Raw, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE discipline_id = ?", d.ID.Raw); err != nil {
			return fmt.Errorf("clearing teams of %s: %w", d.ID.Raw, err)
		}
		for i, s := range d.Sections {
			slots, err := json.Marshal(nonNil(s.Slots))
			if err != nil {
				return fmt.Errorf("marshaling slots: %w", err)
			}
			teachers, err := json.Marshal(nonNil(s.Teachers))
			if err != nil {
				return fmt.Errorf("marshaling teachers: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO teams (team_id, discipline_id, ordinal, code, slots, teachers, vacancies_offered, vacancies_filled)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ID.Raw, d.ID.Raw, i, s.Code, string(slots), string(teachers), s.VacanciesOffered, s.VacanciesFilled,
			); err != nil {
				return fmt.Errorf("saving team %s: %w", s.ID.Raw, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.persist("disciplines", "teams")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// DeleteTeam removes one team from its discipline.
func (b *Backend) DeleteTeam(ctx context.Context, id types.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	res, err := b.db.ExecContext(ctx, "DELETE FROM teams WHERE team_id = ?", id.Raw)
	if err != nil {
		return fmt.Errorf("deleting team %s: %w", id.Raw, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: team %s", types.ErrNotFound, id.Raw)
	}
	return b.persist("teams")
}

// FetchDiscipline returns a discipline with its teams in stored order.
// Every team comes back as a candidate.
func (b *Backend) FetchDiscipline(ctx context.Context, id types.ID) (*types.Discipline, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	d := &types.Discipline{ID: id}
	var semester, campus string
	err := b.db.QueryRowContext(ctx,
		"SELECT code, name, semester_id, campus_id FROM disciplines WHERE discipline_id = ?", id.Raw,
	).Scan(&d.Code, &d.Name, &semester, &campus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: discipline %s", types.ErrNotFound, id.Raw)
	}
	if err != nil {
		return nil, fmt.Errorf("getting discipline %s: %w", id.Raw, err)
	}
	d.Semester = types.KindSemester.ID(semester)
	d.Campus = types.KindCampus.ID(campus)

	rows, err := b.db.QueryContext(ctx,
		`SELECT team_id, code, slots, teachers, vacancies_offered, vacancies_filled
FROM teams WHERE discipline_id = ? ORDER BY ordinal ASC`, id.Raw)
	if err != nil {
		return nil, fmt.Errorf("querying teams of %s: %w", id.Raw, err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := hydrateTeam(rows)
		if err != nil {
			return nil, err
		}
		if err := d.AddSection(s); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams: %w", err)
	}
	return d, nil
}

func hydrateTeam(rows *sql.Rows) (*types.Section, error) {
	var raw, slots, teachers string
	s := &types.Section{Candidate: true}
	if err := rows.Scan(&raw, &s.Code, &slots, &teachers, &s.VacanciesOffered, &s.VacanciesFilled); err != nil {
		return nil, fmt.Errorf("scanning team: %w", err)
	}
	s.ID = types.KindTeam.ID(raw)
	if err := json.Unmarshal([]byte(slots), &s.Slots); err != nil {
		return nil, fmt.Errorf("parsing slots of team %s: %w", raw, err)
	}
	if err := json.Unmarshal([]byte(teachers), &s.Teachers); err != nil {
		return nil, fmt.Errorf("parsing teachers of team %s: %w", raw, err)
	}
	return s, nil
}

// SelectDiscipline records that a discipline is actively tracked.
func (b *Backend) SelectDiscipline(ctx context.Context, id types.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	res, err := b.db.ExecContext(ctx,
		"UPDATE disciplines SET selected_at = ? WHERE discipline_id = ?",
		time.Now().UTC().Format(time.RFC3339), id.Raw)
	if err != nil {
		return fmt.Errorf("selecting discipline %s: %w", id.Raw, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: discipline %s", types.ErrNotFound, id.Raw)
	}
	return b.persist("disciplines")
}

// Semesters lists every semester, newest id first.
func (b *Backend) Semesters(ctx context.Context) ([]types.Semester, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	rows, err := b.db.QueryContext(ctx, "SELECT semester_id, name FROM semesters ORDER BY semester_id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing semesters: %w", err)
	}
	defer rows.Close()

	out := []types.Semester{}
	for rows.Next() {
		var raw string
		var s types.Semester
		if err := rows.Scan(&raw, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning semester: %w", err)
		}
		s.ID = types.KindSemester.ID(raw)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Campi lists the campi of a semester in the order they were stored.
// Returns ErrNotFound for an unknown semester.
func (b *Backend) Campi(ctx context.Context, semester types.ID) ([]types.Campus, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	if err := b.requireSemester(ctx, semester); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		"SELECT campus_id, name FROM campi WHERE semester_id = ? ORDER BY rowid ASC", semester.Raw)
	if err != nil {
		return nil, fmt.Errorf("listing campi: %w", err)
	}
	defer rows.Close()

	out := []types.Campus{}
	for rows.Next() {
		var raw string
		c := types.Campus{Semester: semester}
		if err := rows.Scan(&raw, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning campus: %w", err)
		}
		c.ID = types.KindCampus.ID(raw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Disciplines lists the disciplines offered on a campus in a semester,
// ordered by code, without their teams.
func (b *Backend) Disciplines(ctx context.Context, semester, campus types.ID) ([]*types.Discipline, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT discipline_id, code, name FROM disciplines
WHERE semester_id = ? AND campus_id = ? ORDER BY code ASC`, semester.Raw, campus.Raw)
	if err != nil {
		return nil, fmt.Errorf("listing disciplines: %w", err)
	}
	defer rows.Close()

	out := []*types.Discipline{}
	for rows.Next() {
		var raw string
		d := &types.Discipline{Semester: semester, Campus: campus}
		if err := rows.Scan(&raw, &d.Code, &d.Name); err != nil {
			return nil, fmt.Errorf("scanning discipline: %w", err)
		}
		d.ID = types.KindDiscipline.ID(raw)
		out = append(out, d)
	}
	return out, rows.Err()
}

// SearchDisciplines returns the disciplines of a campus matching query in
// code order, without their teams. At most limit are returned; limit <= 0
// returns every match.
func (b *Backend) SearchDisciplines(ctx context.Context, semester, campus types.ID, query string, limit int) ([]*types.Discipline, error) {
	all, err := b.Disciplines(ctx, semester, campus)
	if err != nil {
		return nil, err
	}
	q := types.ParseDisciplineQuery(query)
	out := []*types.Discipline{}
	for _, d := range all {
		if limit > 0 && len(out) == limit {
			break
		}
		if q.Match(d) {
			out = append(out, d)
		}
	}
	return out, nil
}
