package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planner/internal/schedule"
	"github.com/mesh-intelligence/planner/pkg/types"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type teamView struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Candidate        bool             `json:"candidate"`
	Slots            []types.TimeSlot `json:"slots"`
	Teachers         []string         `json:"teachers,omitempty"`
	VacanciesOffered int              `json:"vacancies_offered"`
	VacanciesFilled  int              `json:"vacancies_filled"`
}

type disciplineView struct {
	ID       string     `json:"id"`
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	Semester string     `json:"semester,omitempty"`
	Campus   string     `json:"campus,omitempty"`
	Teams    []teamView `json:"teams,omitempty"`
}

type choiceView struct {
	Discipline string           `json:"discipline"`
	Team       string           `json:"team"`
	Slots      []types.TimeSlot `json:"slots"`
}

type planView struct {
	Code                string           `json:"code"`
	PlanID              string           `json:"plan_id"`
	Versions            int              `json:"versions"`
	Semester            string           `json:"semester,omitempty"`
	Campus              string           `json:"campus,omitempty"`
	Discipline          string           `json:"discipline,omitempty"`
	Combinations        int              `json:"combinations"`
	SelectedCombination int              `json:"selected_combination"`
	Status              string           `json:"status"`
	Disciplines         []disciplineView `json:"disciplines"`
	Current             []choiceView     `json:"current"`
}

func viewDiscipline(d *types.Discipline) disciplineView {
	v := disciplineView{
		ID:       d.ID.Raw,
		Code:     d.Code,
		Name:     d.Name,
		Semester: d.Semester.Raw,
		Campus:   d.Campus.Raw,
	}
	for _, s := range d.Sections {
		v.Teams = append(v.Teams, teamView{
			ID:               s.ID.Raw,
			Code:             s.Code,
			Candidate:        s.Candidate,
			Slots:            s.Slots,
			Teachers:         s.Teachers,
			VacanciesOffered: s.VacanciesOffered,
			VacanciesFilled:  s.VacanciesFilled,
		})
	}
	return v
}

func viewCombination(c schedule.Combination) []choiceView {
	out := make([]choiceView, len(c))
	for i, ch := range c {
		out[i] = choiceView{Discipline: ch.Discipline.Raw, Team: ch.Section.ID.Raw, Slots: ch.Section.Slots}
	}
	return out
}

func slotsText(slots []types.TimeSlot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = s.String()
		if s.Room != "" {
			parts[i] += " " + s.Room
		}
	}
	return strings.Join(parts, ", ")
}

func writeDiscipline(w io.Writer, d disciplineView) {
	fmt.Fprintf(w, "%s  %s\n", d.Code, d.Name)
	for _, t := range d.Teams {
		mark := " "
		if t.Candidate {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %-10s %s", mark, t.ID, slotsText(t.Slots))
		if t.VacanciesOffered > 0 {
			fmt.Fprintf(w, "  (%d/%d)", t.VacanciesFilled, t.VacanciesOffered)
		}
		if len(t.Teachers) > 0 {
			fmt.Fprintf(w, "  %s", strings.Join(t.Teachers, "; "))
		}
		fmt.Fprintln(w)
	}
}

func writePlan(w io.Writer, v planView) {
	fmt.Fprintf(w, "plan %s  (%d versions)\n", v.Code, v.Versions)
	if v.Semester != "" {
		fmt.Fprintf(w, "semester %s  campus %s", v.Semester, v.Campus)
		if v.Discipline != "" {
			fmt.Fprintf(w, "  inspecting %s", v.Discipline)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "combination %s\n", v.Status)
	for _, d := range v.Disciplines {
		fmt.Fprintln(w)
		writeDiscipline(w, d)
	}
	if len(v.Current) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "current")
		for _, c := range v.Current {
			fmt.Fprintf(w, "  %-10s %-10s %s\n", c.Discipline, c.Team, slotsText(c.Slots))
		}
	}
}

func formatVersion(v int64) string {
	return fmt.Sprintf("%d  %s", v, time.Unix(v, 0).UTC().Format(time.RFC3339))
}
