package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyRow struct {
	Version     int64    `json:"version"`
	Disciplines []string `json:"disciplines"`
	Selected    int      `json:"selected_combination"`
}

func (h *harness) history(code string) []historyRow {
	h.t.Helper()
	var rows []historyRow
	h.json(&rows, "plan", "history", code)
	return rows
}

func (h *harness) view(args ...string) planView {
	h.t.Helper()
	var v planView
	h.json(&v, args...)
	return v
}

func teams(v planView) []string {
	out := make([]string, len(v.Current))
	for i, c := range v.Current {
		out[i] = c.Discipline + "=" + c.Team
	}
	return out
}

func TestPlanCreateAndList(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.ok("plan", "create", "fall"), "Created plan fall")
	r := h.run("plan", "create", "fall")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.err.Error(), "plan code already exists")

	var rows []struct {
		Code     string `json:"code"`
		Versions int    `json:"versions"`
	}
	h.json(&rows, "plan", "list")
	require.Len(t, rows, 1)
	assert.Equal(t, "fall", rows[0].Code)
	assert.Zero(t, rows[0].Versions)
}

func TestPlanWorkflow(t *testing.T) {
	h := newHarness(t)
	h.importCatalog()

	v := h.view("plan", "add", "fall", "INE5401", "MTM3110")
	assert.Equal(t, "20241", v.Semester)
	assert.Equal(t, "FLO", v.Campus)
	assert.Equal(t, "MTM3110", v.Discipline)
	assert.Equal(t, 3, v.Combinations)
	assert.Equal(t, "1/3", v.Status)
	assert.Equal(t, []string{"INE5401=A", "MTM3110=D"}, teams(v))

	v = h.view("plan", "next", "fall")
	assert.Equal(t, "2/3", v.Status)
	assert.Equal(t, []string{"INE5401=B", "MTM3110=C"}, teams(v))

	v = h.view("plan", "toggle", "fall", "C")
	assert.Equal(t, "2/2", v.Status)
	assert.Equal(t, []string{"INE5401=B", "MTM3110=D"}, teams(v))

	v = h.view("plan", "prev", "fall")
	assert.Equal(t, "1/2", v.Status)

	// State survives between invocations.
	v = h.view("plan", "show", "fall")
	assert.Equal(t, "1/2", v.Status)
	assert.Equal(t, 4, v.Versions)
	require.Len(t, v.Disciplines, 2)
	assert.False(t, v.Disciplines[1].Teams[0].Candidate)

	rows := h.history("fall")
	require.Len(t, rows, 4)
	for i := 1; i < len(rows); i++ {
		assert.Greater(t, rows[i].Version, rows[i-1].Version)
	}
	assert.Equal(t, []string{"INE5401", "MTM3110"}, rows[0].Disciplines)
	assert.Equal(t, 1, rows[1].Selected)

	// Looking at an old version changes nothing.
	first := strconv.FormatInt(rows[0].Version, 10)
	v = h.view("plan", "show", "fall", "--version", first)
	assert.Equal(t, "1/3", v.Status)
	assert.Len(t, h.history("fall"), 4)

	// Loading it makes it current as a new version.
	v = h.view("plan", "load", "fall", first)
	assert.Equal(t, "1/3", v.Status)
	assert.True(t, v.Disciplines[1].Teams[0].Candidate)
	assert.Len(t, h.history("fall"), 5)

	v = h.view("plan", "remove", "fall", "MTM3110")
	assert.Equal(t, []string{"INE5401=A"}, teams(v))
	assert.Empty(t, v.Discipline)
	assert.Equal(t, "1/2", v.Status)
}

func TestPlanSave(t *testing.T) {
	h := newHarness(t)
	h.importCatalog()
	h.ok("plan", "add", "fall", "INE5401")

	out := h.ok("plan", "save", "fall")
	assert.True(t, strings.HasPrefix(out, "Saved fall version "), out)

	rows := h.history("fall")
	require.Len(t, rows, 2)
	assert.Contains(t, out, strconv.FormatInt(rows[1].Version, 10))
}

func TestPlanShowText(t *testing.T) {
	h := newHarness(t)
	h.importCatalog()
	h.ok("plan", "add", "fall", "INE5401", "MTM3110")

	out := h.ok("plan", "show", "fall")
	assert.Contains(t, out, "plan fall  (1 versions)")
	assert.Contains(t, out, "semester 20241  campus FLO  inspecting MTM3110")
	assert.Contains(t, out, "combination 1/3")
	assert.Contains(t, out, "current\n  INE5401    A          Mon 08:20-10:00 CTC-CTC107\n")
}

func TestPlanErrors(t *testing.T) {
	h := newHarness(t)
	h.importCatalog()
	h.ok("plan", "add", "fall", "INE5401")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown plan", []string{"plan", "next", "spring"}, "entity not found"},
		{"duplicate discipline", []string{"plan", "add", "fall", "INE5401"}, "discipline already selected"},
		{"unknown discipline", []string{"plan", "add", "fall", "XXX0000"}, "entity not found"},
		{"remove unselected", []string{"plan", "remove", "fall", "MTM3110"}, "discipline is not selected"},
		{"toggle unknown team", []string{"plan", "toggle", "fall", "Z"}, "section does not belong"},
		{"toggle both ways", []string{"plan", "toggle", "--on", "--off", "fall", "A"}, "mutually exclusive"},
		{"malformed version", []string{"plan", "load", "fall", "yesterday"}, "invalid version"},
		{"missing version", []string{"plan", "load", "fall", "42"}, "version not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := h.run(tt.args...)
			require.Error(t, r.err)
			assert.Equal(t, exitUserError, r.code)
			assert.Contains(t, r.err.Error(), tt.want)
		})
	}
	assert.Len(t, h.history("fall"), 1, "failed commands record nothing")
}

func TestPlanToggleExplicit(t *testing.T) {
	h := newHarness(t)
	h.importCatalog()
	h.ok("plan", "add", "fall", "INE5401")

	v := h.view("plan", "toggle", "--off", "fall", "A", "B")
	assert.Equal(t, "0/0", v.Status)
	assert.Empty(t, v.Current)

	v = h.view("plan", "toggle", "--on", "fall", "B")
	assert.Equal(t, []string{"INE5401=B"}, teams(v))
}

func TestPlanStaleTeam(t *testing.T) {
	h := newHarness(t)
	h.importCatalog()
	h.ok("plan", "add", "fall", "INE5401", "MTM3110")

	// The registrar drops team C.
	withoutC := strings.Replace(catalogFixture,
		`{"id": "C", "code": "C", "vacancies_offered": 30, "vacancies_filled": 0, "schedules": ["2.0910-2"]},`, "", 1)
	require.NotEqual(t, catalogFixture, withoutC)
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(withoutC), 0o644))
	h.ok("catalog", "import", path)

	r := h.run("plan", "show", "fall")
	require.Error(t, r.err)
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.err.Error(), "found teams that no longer exist in discipline Calculus")
}
