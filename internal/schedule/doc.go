// Package schedule enumerates conflict-free combinations of class sections
// and owns the user's selection of disciplines, candidate sections and the
// combination currently on display.
package schedule
