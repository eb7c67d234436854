package sqlite

import "encoding/json"

// JSONL file names in DataDir.
const (
	semestersJSONL   = "semesters.jsonl"
	campiJSONL       = "campi.jsonl"
	disciplinesJSONL = "disciplines.jsonl"
	teamsJSONL       = "teams.jsonl"
	plansJSONL       = "plans.jsonl"
	planHistoryJSONL = "plan_history.jsonl"
)

// tableMapping ties a JSONL file to its SQLite table. jsonColumns hold JSON
// documents: they are nested as-is in the file and stored as text in SQLite.
type tableMapping struct {
	file        string
	table       string
	columns     []string
	jsonColumns map[string]bool
	orderBy     string
}

// jsonlTableMapping lists every table in load order: referenced tables load
// before the tables that reference them.
var jsonlTableMapping = []tableMapping{
	{file: semestersJSONL, table: "semesters", columns: []string{"semester_id", "name"}, orderBy: "rowid"},
	{file: campiJSONL, table: "campi", columns: []string{"semester_id", "campus_id", "name"}, orderBy: "rowid"},
	{
		file:    disciplinesJSONL,
		table:   "disciplines",
		columns: []string{"discipline_id", "code", "name", "semester_id", "campus_id", "selected_at"},
		orderBy: "rowid",
	},
	{
		file:        teamsJSONL,
		table:       "teams",
		columns:     []string{"team_id", "discipline_id", "ordinal", "code", "slots", "teachers", "vacancies_offered", "vacancies_filled"},
		jsonColumns: map[string]bool{"slots": true, "teachers": true},
		orderBy:     "discipline_id, ordinal",
	},
	{file: plansJSONL, table: "plans", columns: []string{"plan_id", "code", "created_at"}, orderBy: "created_at, plan_id"},
	{
		file:        planHistoryJSONL,
		table:       "plan_history",
		columns:     []string{"plan_id", "version", "data", "created_at"},
		jsonColumns: map[string]bool{"data": true},
		orderBy:     "plan_id, version",
	},
}

// mappingFor returns the mapping of a table.
func mappingFor(table string) tableMapping {
	for _, m := range jsonlTableMapping {
		if m.table == table {
			return m
		}
	}
	panic("sqlite: no JSONL mapping for table " + table)
}

// planHistoryRecord is one line of plan_history.jsonl.
type planHistoryRecord struct {
	PlanID    string          `json:"plan_id"`
	Version   int64           `json:"version"`
	Data      json.RawMessage `json:"data"`
	CreatedAt string          `json:"created_at"`
}
