// Package relay serves the shared practice state and goal detections to
// tracker instances over a websocket.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/wshub"
)

// DefaultCooldown is the minimum gap between two forwarded detections
const DefaultCooldown = 3 * time.Second

// Common errors
var (
	ErrMapNotFound = errors.New("map not found")
	ErrMapExists   = errors.New("map already exists")
	ErrEmptyName   = errors.New("map name is required")
)

// Detection reasons
const (
	ReasonAccepted = "accepted"
	ReasonDisabled = "auto_detect_disabled"
	ReasonCooldown = "cooldown"
)

// Detection is a goal sighting reported by an external detector
type Detection struct {
	MapID      string  `json:"map_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Options tunes the relay
type Options struct {
	Cooldown time.Duration
	Now      func() time.Time
}

// Relay owns the relay-side catalog and fans changes out to websocket clients
type Relay struct {
	opts Options
	hub  *wshub.Hub

	mu         sync.Mutex
	store      *catalog.Store
	autoDetect bool
	startedAt  time.Time
	lastGoal   time.Time
}

// New creates a relay seeded with the built-in catalog
func New(seeds *catalog.Seeds, opts Options) *Relay {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Relay{
		opts:       opts,
		store:      seeds.Store(),
		autoDetect: true,
		startedAt:  opts.Now(),
	}
	r.hub = wshub.NewHub(wshub.Options{
		OnConnect: func(c *wshub.Client) {
			if err := c.Send(r.stateMessage()); err != nil {
				slog.Warn("failed to send initial state", "client_id", c.ID(), "error", err)
			}
		},
		OnMessage: r.handleFrame,
	})
	return r
}

// Close disconnects all clients
func (r *Relay) Close() {
	r.hub.Close()
}

// State returns the relay state
func (r *Relay) State() models.RelayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Increment counts one completion and returns the new count
func (r *Relay) Increment(id string) (int, error) {
	r.mu.Lock()
	rec, ok := r.store.Increment(id)
	r.mu.Unlock()

	if !ok {
		return 0, ErrMapNotFound
	}
	slog.Info("relay map incremented", "map_id", id, "count", rec.CurrentCount)
	r.broadcastState()
	return rec.CurrentCount, nil
}

// Reset sets a count back to zero
func (r *Relay) Reset(id string) error {
	r.mu.Lock()
	ok := r.store.Reset(id)
	r.mu.Unlock()

	if !ok {
		return ErrMapNotFound
	}
	slog.Info("relay map reset", "map_id", id)
	r.broadcastState()
	return nil
}

// ToggleAutoDetect flips detection forwarding and returns the new value
func (r *Relay) ToggleAutoDetect() bool {
	r.mu.Lock()
	r.autoDetect = !r.autoDetect
	enabled := r.autoDetect
	r.mu.Unlock()

	slog.Info("relay auto-detect toggled", "enabled", enabled)
	r.broadcastState()
	return enabled
}

// AddMap adds a map whose id is derived from its name
func (r *Relay) AddMap(name string, category models.Category) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if category == "" {
		category = models.CategoryCustom
	}

	rec := models.MapRecord{
		ID:          MapIDFromName(name),
		Name:        name,
		Category:    category,
		TargetCount: models.DefaultTarget,
	}

	r.mu.Lock()
	err := r.store.Insert(rec)
	r.mu.Unlock()

	if errors.Is(err, catalog.ErrDuplicateID) {
		return "", ErrMapExists
	}
	if err != nil {
		return "", fmt.Errorf("failed to add map: %w", err)
	}

	slog.Info("relay map added", "map_id", rec.ID, "category", category)
	r.broadcastState()
	return rec.ID, nil
}

// MapIDFromName derives the relay id of a user-added map
func MapIDFromName(name string) string {
	return "custom_" + strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// Detect forwards a detection as goal_detected unless auto-detect is off or
// the previous one was forwarded less than the cooldown ago.
func (r *Relay) Detect(d Detection) string {
	r.mu.Lock()
	now := r.opts.Now()
	switch {
	case !r.autoDetect:
		r.mu.Unlock()
		return ReasonDisabled
	case !r.lastGoal.IsZero() && now.Sub(r.lastGoal) < r.opts.Cooldown:
		r.mu.Unlock()
		slog.Debug("detection inside cooldown", "since_last", now.Sub(r.lastGoal))
		return ReasonCooldown
	}
	r.lastGoal = now
	r.mu.Unlock()

	slog.Info("goal detected", "map_id", d.MapID, "confidence", d.Confidence)
	r.broadcast(models.MessageGoalDetected, models.GoalDetected{MapID: d.MapID, Timestamp: now})
	return ReasonAccepted
}

// handleFrame applies increment, reset and toggle frames from clients.
// Unknown ids and malformed frames are ignored.
func (r *Relay) handleFrame(c *wshub.Client, data []byte) {
	var msg models.RelayMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Debug("ignoring malformed client frame", "client_id", c.ID(), "error", err)
		return
	}

	switch msg.Type {
	case models.MessageIncrement:
		if msg.MapID != "" {
			_, _ = r.Increment(msg.MapID)
		}
	case models.MessageReset:
		if msg.MapID != "" {
			_ = r.Reset(msg.MapID)
		}
	case models.MessageToggleAutoDetect:
		r.ToggleAutoDetect()
	default:
		slog.Debug("ignoring client frame", "client_id", c.ID(), "type", msg.Type)
	}
}

func (r *Relay) stateLocked() models.RelayState {
	maps, _ := r.store.Export()
	return models.RelayState{
		Maps:                maps,
		AutoDetectEnabled:   r.autoDetect,
		SessionStartTime:    r.startedAt,
		TotalSessionSeconds: int(r.opts.Now().Sub(r.startedAt).Seconds()),
	}
}

func (r *Relay) stateMessage() models.RelayMessage {
	state := r.State()
	data, err := json.Marshal(state)
	if err != nil {
		slog.Error("failed to marshal relay state", "error", err)
	}
	return models.RelayMessage{Type: models.MessageStateUpdate, Data: data}
}

func (r *Relay) broadcastState() {
	if err := r.hub.Broadcast(r.stateMessage()); err != nil {
		slog.Error("failed to broadcast state", "error", err)
	}
}

func (r *Relay) broadcast(msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal relay payload", "type", msgType, "error", err)
		return
	}
	if err := r.hub.Broadcast(models.RelayMessage{Type: msgType, Data: data}); err != nil {
		slog.Error("failed to broadcast", "type", msgType, "error", err)
	}
}
