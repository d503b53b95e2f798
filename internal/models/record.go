package models

// Category identifies a practice tab. The set is open-ended: users may add
// maps under categories that are not part of the seed catalog.
type Category string

const (
	CategoryTraining  Category = "training"
	CategoryFairytale Category = "fairytale"
	CategoryCustom    Category = "custom"
)

// DefaultTarget is the completion target given to maps created without one
const DefaultTarget = 5

// MapRecord represents a single practice map and its progress.
// JSON names follow the relay wire format.
type MapRecord struct {
	ID           string   `json:"map_id"`
	Name         string   `json:"map_name"`
	Category     Category `json:"category"`
	CurrentCount int      `json:"current_count"`
	TargetCount  int      `json:"target_count"`
}

// Completed returns true once the count has reached the target.
// Overshooting the target still counts as complete.
func (m MapRecord) Completed() bool {
	return m.CurrentCount >= m.TargetCount
}

// CappedCount returns the count clamped to the target
func (m MapRecord) CappedCount() int {
	if m.CurrentCount > m.TargetCount {
		return m.TargetCount
	}
	return m.CurrentCount
}

// Progress returns completion in percent, capped at 100
func (m MapRecord) Progress() int {
	if m.TargetCount <= 0 {
		return 0
	}
	return m.CappedCount() * 100 / m.TargetCount
}

// Valid reports whether the record satisfies the catalog invariants
func (m MapRecord) Valid() bool {
	return m.ID != "" && m.CurrentCount >= 0 && m.TargetCount > 0
}

// CategoryInfo describes a category known to the seed catalog
type CategoryInfo struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
}
