// Package sqlite implements the planner's storage backend: SQLite as the
// query engine and JSONL files as the source of truth.
package sqlite

// Schema DDL for all tables.
const (
	createSemesters = `CREATE TABLE semesters (
    semester_id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createCampi = `CREATE TABLE campi (
    semester_id TEXT NOT NULL,
    campus_id TEXT NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (semester_id, campus_id),
    FOREIGN KEY (semester_id) REFERENCES semesters(semester_id)
);`

	createDisciplines = `CREATE TABLE disciplines (
    discipline_id TEXT PRIMARY KEY,
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    semester_id TEXT NOT NULL,
    campus_id TEXT NOT NULL,
    selected_at TEXT
);`

	createTeams = `CREATE TABLE teams (
    team_id TEXT PRIMARY KEY,
    discipline_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    code TEXT NOT NULL,
    slots TEXT NOT NULL,
    teachers TEXT NOT NULL,
    vacancies_offered INTEGER NOT NULL,
    vacancies_filled INTEGER NOT NULL,
    FOREIGN KEY (discipline_id) REFERENCES disciplines(discipline_id) ON DELETE CASCADE
);`

	createPlans = `CREATE TABLE plans (
    plan_id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);`

	createPlanHistory = `CREATE TABLE plan_history (
    plan_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    data TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (plan_id, version),
    FOREIGN KEY (plan_id) REFERENCES plans(plan_id)
);`
)

// Index DDL for common queries.
const (
	idxDisciplinesCampus = `CREATE INDEX idx_disciplines_campus ON disciplines(semester_id, campus_id);`
	idxTeamsDiscipline   = `CREATE INDEX idx_teams_discipline ON teams(discipline_id, ordinal);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createSemesters,
	createCampi,
	createDisciplines,
	createTeams,
	createPlans,
	createPlanHistory,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxDisciplinesCampus,
	idxTeamsDiscipline,
}
