// Package focus decides which map of a category view is currently practiced.
//
// Every function is pure: it takes the filtered view (records of the active
// category in display order) and returns the id that should hold focus.
package focus

import "github.com/terra-clan/practice-tracker/internal/models"

// Outcome describes the result of advancing focus
type Outcome int

const (
	// Next means a new incomplete map was selected
	Next Outcome = iota
	// AllComplete means every map of the view has reached its target
	AllComplete
	// Empty means the view has no maps at all
	Empty
)

// String returns the outcome name used in API responses
func (o Outcome) String() string {
	switch o {
	case Next:
		return "next"
	case AllComplete:
		return "all_complete"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// SelectInitial returns the earliest incomplete map, or the first map when
// every map is complete. ok is false only for an empty view.
func SelectInitial(view []models.MapRecord) (id string, ok bool) {
	for _, rec := range view {
		if !rec.Completed() {
			return rec.ID, true
		}
	}
	if len(view) > 0 {
		return view[0].ID, true
	}
	return "", false
}

// Advance scans forward cyclically from the map after current for the next
// incomplete map. An unknown current is treated as positioned before the
// first map. At most len(view) candidates are examined.
func Advance(view []models.MapRecord, current string) (string, Outcome) {
	if len(view) == 0 {
		return "", Empty
	}

	start := indexOf(view, current)
	for i := 1; i <= len(view); i++ {
		rec := view[(start+i)%len(view)]
		if !rec.Completed() {
			return rec.ID, Next
		}
	}
	return "", AllComplete
}

// RepairAfterDeletion keeps previous unless it was the deleted id, in which
// case focus is recomputed from the remaining view.
func RepairAfterDeletion(view []models.MapRecord, deletedID, previous string) (string, bool) {
	if previous != deletedID {
		return previous, previous != ""
	}
	return SelectInitial(view)
}

// RepairAfterCategorySwitch always recomputes focus for the new view.
// Focus is category scoped, so an id from the old category is never kept.
func RepairAfterCategorySwitch(view []models.MapRecord) (string, bool) {
	return SelectInitial(view)
}

// indexOf returns the position of id in view, or -1 when absent
func indexOf(view []models.MapRecord, id string) int {
	if id == "" {
		return -1
	}
	for i, rec := range view {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
