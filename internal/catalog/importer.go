package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/planner/pkg/types"
)

// Document is the catalog exchange format: semesters, their campi, the
// disciplines each campus offers and their teams.
type Document struct {
	Semesters []SemesterDoc `json:"semesters" validate:"required,min=1,dive"`
}

// SemesterDoc is one semester in a Document.
type SemesterDoc struct {
	ID    string      `json:"id" validate:"required"`
	Name  string      `json:"name"`
	Campi []CampusDoc `json:"campi" validate:"dive"`
}

// CampusDoc is one campus in a Document.
type CampusDoc struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name"`
	Disciplines []DisciplineDoc `json:"disciplines" validate:"dive"`
}

// DisciplineDoc is one discipline in a Document.
type DisciplineDoc struct {
	ID    string    `json:"id" validate:"required"`
	Code  string    `json:"code" validate:"required"`
	Name  string    `json:"name" validate:"required"`
	Teams []TeamDoc `json:"teams" validate:"dive"`
}

// TeamDoc is one team. Schedules use the registrar notation accepted by
// types.ParseUFSCSchedule, for example "2.0820-2 / CTC-CTC107".
type TeamDoc struct {
	ID               string   `json:"id" validate:"required"`
	Code             string   `json:"code"`
	Teachers         []string `json:"teachers"`
	VacanciesOffered int      `json:"vacancies_offered" validate:"gte=0"`
	VacanciesFilled  int      `json:"vacancies_filled" validate:"gte=0"`
	Schedules        []string `json:"schedules" validate:"dive,required"`
}

// Writer receives imported catalog entities.
type Writer interface {
	PutSemester(ctx context.Context, s types.Semester) error
	PutCampus(ctx context.Context, c types.Campus) error
	PutDiscipline(ctx context.Context, d *types.Discipline) error
}

// Summary counts what Import wrote.
type Summary struct {
	Semesters   int `json:"semesters"`
	Campi       int `json:"campi"`
	Disciplines int `json:"disciplines"`
	Teams       int `json:"teams"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d semesters, %d campi, %d disciplines, %d teams", s.Semesters, s.Campi, s.Disciplines, s.Teams)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Import decodes a Document from r, validates it and writes it through w.
// Every team is imported as a candidate. A discipline's teams replace the
// ones already stored for it.
func Import(ctx context.Context, w Writer, r io.Reader) (Summary, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Summary{}, fmt.Errorf("%w: decode catalog: %v", types.ErrInvalidData, err)
	}
	if err := validate.Struct(doc); err != nil {
		return Summary{}, fmt.Errorf("%w: %s", types.ErrInvalidData, describe(err))
	}

	// Convert everything before writing anything.
	type campusBatch struct {
		campus      types.Campus
		disciplines []*types.Discipline
	}
	type semesterBatch struct {
		semester types.Semester
		campi    []campusBatch
	}
	var batches []semesterBatch
	for _, sd := range doc.Semesters {
		sb := semesterBatch{semester: types.Semester{ID: types.KindSemester.ID(sd.ID), Name: sd.Name}}
		for _, cd := range sd.Campi {
			cb := campusBatch{campus: types.Campus{
				ID:       types.KindCampus.ID(cd.ID),
				Semester: sb.semester.ID,
				Name:     cd.Name,
			}}
			for _, dd := range cd.Disciplines {
				d, err := toDiscipline(dd, sb.semester.ID, cb.campus.ID)
				if err != nil {
					return Summary{}, err
				}
				cb.disciplines = append(cb.disciplines, d)
			}
			sb.campi = append(sb.campi, cb)
		}
		batches = append(batches, sb)
	}

	var sum Summary
	for _, sb := range batches {
		if err := w.PutSemester(ctx, sb.semester); err != nil {
			return sum, fmt.Errorf("semester %s: %w", sb.semester.ID.Raw, err)
		}
		sum.Semesters++
		for _, cb := range sb.campi {
			if err := w.PutCampus(ctx, cb.campus); err != nil {
				return sum, fmt.Errorf("campus %s: %w", cb.campus.ID.Raw, err)
			}
			sum.Campi++
			for _, d := range cb.disciplines {
				if err := w.PutDiscipline(ctx, d); err != nil {
					return sum, fmt.Errorf("discipline %s: %w", d.ID.Raw, err)
				}
				sum.Disciplines++
				sum.Teams += len(d.Sections)
			}
		}
	}
	return sum, nil
}

func toDiscipline(dd DisciplineDoc, semester, campus types.ID) (*types.Discipline, error) {
	d := &types.Discipline{
		ID:       types.KindDiscipline.ID(dd.ID),
		Code:     dd.Code,
		Name:     dd.Name,
		Semester: semester,
		Campus:   campus,
	}
	for _, td := range dd.Teams {
		if td.VacanciesFilled > td.VacanciesOffered {
			return nil, fmt.Errorf("%w: team %s has %d of %d vacancies filled",
				types.ErrInvalidData, td.ID, td.VacanciesFilled, td.VacanciesOffered)
		}
		s := &types.Section{
			ID:               types.KindTeam.ID(td.ID),
			Code:             td.Code,
			Candidate:        true,
			Teachers:         append([]string(nil), td.Teachers...),
			VacanciesOffered: td.VacanciesOffered,
			VacanciesFilled:  td.VacanciesFilled,
		}
		for _, raw := range td.Schedules {
			slot, err := types.ParseUFSCSchedule(raw)
			if err != nil {
				return nil, fmt.Errorf("team %s: %w", td.ID, err)
			}
			s.Slots = append(s.Slots, slot)
		}
		if err := d.AddSection(s); err != nil {
			return nil, fmt.Errorf("discipline %s: %w", dd.ID, err)
		}
	}
	return d, nil
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag())
	}
	return strings.Join(parts, "; ")
}
