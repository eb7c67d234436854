package schedule

import "github.com/mesh-intelligence/planner/pkg/types"

// Conflicts reports whether any slot of a overlaps any slot of b. A section
// never conflicts with itself.
func Conflicts(a, b *types.Section) bool {
	if a == nil || b == nil || a.ID == b.ID {
		return false
	}
	for _, sa := range a.Slots {
		for _, sb := range b.Slots {
			if sa.Overlaps(sb) {
				return true
			}
		}
	}
	return false
}
