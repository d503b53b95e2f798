package models

// Timers maps a category to accumulated practice seconds
type Timers map[Category]int

// Clone returns an independent copy of the timers
func (t Timers) Clone() Timers {
	out := make(Timers, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Snapshot is the durable representation of the tracker state.
type Snapshot struct {
	Maps           map[string]MapRecord `json:"maps"`
	Order          []string             `json:"order,omitempty"`
	FocusedID      string               `json:"focused_map_id,omitempty"`
	ActiveCategory Category             `json:"active_category,omitempty"`
	Timers         Timers               `json:"tab_timers"`
	AutoDetect     *bool                `json:"auto_detect_enabled,omitempty"`
}

// Totals is the aggregate progress over the whole catalog
type Totals struct {
	Completed int `json:"completed"`
	Goal      int `json:"goal"`
}

// MapView is a map record decorated for display
type MapView struct {
	MapRecord
	Completed bool `json:"completed"`
	Focused   bool `json:"focused"`
	Progress  int  `json:"progress"`
}

// StateView is the read model handed to UI collaborators
type StateView struct {
	ActiveCategory Category       `json:"active_category"`
	FocusedID      string         `json:"focused_map_id,omitempty"`
	FocusedName    string         `json:"focused_map_name,omitempty"`
	Maps           []MapView      `json:"maps"`
	Totals         Totals         `json:"totals"`
	Timers         Timers         `json:"tab_timers"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	AutoDetect     bool           `json:"auto_detect_enabled"`
	Connected      bool           `json:"relay_connected"`
	Categories     []CategoryInfo `json:"categories"`
}

// Stats is the aggregate summary returned by the stats endpoint
type Stats struct {
	Totals Totals `json:"totals"`
	Timers Timers `json:"tab_timers"`
}
