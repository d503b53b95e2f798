package models

import (
	"encoding/json"
	"time"
)

// Relay message types
const (
	MessageStateUpdate      = "state_update"
	MessageGoalDetected     = "goal_detected"
	MessageIncrement        = "increment"
	MessageReset            = "reset"
	MessageToggleAutoDetect = "toggle_auto_detect"
)

// RelayMessage is the envelope exchanged over the relay websocket
type RelayMessage struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	MapID string          `json:"map_id,omitempty"`
}

// RelayState is the payload of a state_update message
type RelayState struct {
	Maps                map[string]MapRecord `json:"maps"`
	AutoDetectEnabled   bool                 `json:"auto_detect_enabled"`
	SessionStartTime    time.Time            `json:"session_start_time"`
	TotalSessionSeconds int                  `json:"total_session_seconds"`
}

// GoalDetected is the payload of a goal_detected message
type GoalDetected struct {
	MapID     string    `json:"map_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event stream message types sent to UI clients
const (
	EventState  = "state"
	EventNotice = "notice"
	EventClock  = "clock"
)

// NoticeLevel mirrors the toast levels of the UI
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a user-facing notification
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	MapID   string      `json:"map_id,omitempty"`
}

// StreamMessage is one frame of the UI event stream
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
