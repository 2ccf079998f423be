package pipeline

import (
	"sort"

	"github.com/BillEdwards42/green-moment-BE/internal/models"
)

// UnitSet collects the distinct unit names of a run's records.
func UnitSet(records []models.GenerationRecord) map[string]struct{} {
	units := make(map[string]struct{}, len(records))
	for _, r := range records {
		units[r.UnitName] = struct{}{}
	}
	return units
}

// Diff classifies the unit-set change between runs. Added holds units seen
// now but not previously, missing the reverse; both sorted. A first run
// with no previous state reports every current unit as added.
func Diff(current, previous map[string]struct{}) (added, missing []string) {
	for name := range current {
		if _, ok := previous[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range previous {
		if _, ok := current[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(added)
	sort.Strings(missing)
	return added, missing
}
