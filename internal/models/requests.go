package models

// CreateMapRequest represents a request to add a custom map
type CreateMapRequest struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Target   int      `json:"target,omitempty"`
}

// SwitchCategoryRequest represents a request to change the active category
type SwitchCategoryRequest struct {
	Category Category `json:"category"`
}

// GoalResponse reports what a goal signal did
type GoalResponse struct {
	Outcome string     `json:"outcome"`
	Map     *MapRecord `json:"map,omitempty"`
}

// AdvanceResponse reports a manual move to the next map
type AdvanceResponse struct {
	Outcome string    `json:"outcome"`
	State   StateView `json:"state"`
}

// AutoDetectResponse reports the auto-detect flag
type AutoDetectResponse struct {
	AutoDetectEnabled bool `json:"auto_detect_enabled"`
}
