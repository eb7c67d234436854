// Package types defines the entities shared by the planner: weekly time
// slots, disciplines and their sections (teams), catalog semesters and campi,
// plan snapshots and their history, tagged identifiers, the collaborator
// interfaces implemented by storage backends, and the standard errors.
package types
