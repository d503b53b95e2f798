// Package tracker owns the practice state and applies every user, network
// and timer event to it.
//
// All operations run under one mutex for their whole duration, so event
// handlers never overlap. Subscribers are notified after the lock is released.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/focus"
	"github.com/terra-clan/practice-tracker/internal/models"
)

// Common errors
var (
	ErrEmptyName = errors.New("map name is required")
)

// Goal outcomes reported to callers
const (
	GoalCounted = "counted"
	GoalNoFocus = "no_focus"
)

// Persister saves and restores snapshots
type Persister interface {
	Save(ctx context.Context, snap models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, bool)
}

// RelaySender forwards frames to the relay
type RelaySender interface {
	Send(msg models.RelayMessage) error
}

// Options tunes tracker behaviour
type Options struct {
	DefaultCategory models.Category
	// GoalDelay is how long focus stays on a map after a goal before
	// advancing. Zero advances synchronously.
	GoalDelay time.Duration
	// SaveEvery persists timers when the active counter is a multiple of it
	SaveEvery int
	Now       func() time.Time
}

// Event is a notification sent to subscribers
type Event struct {
	Type    string
	State   models.StateView
	Notice  models.Notice
	Elapsed int
	Timers  models.Timers
}

// Message converts the event to its stream frame
func (e Event) Message() models.StreamMessage {
	switch e.Type {
	case models.EventNotice:
		return models.StreamMessage{Type: e.Type, Data: e.Notice}
	case models.EventClock:
		return models.StreamMessage{Type: e.Type, Data: clockPayload{Elapsed: e.Elapsed, Timers: e.Timers}}
	default:
		return models.StreamMessage{Type: e.Type, Data: e.State}
	}
}

type clockPayload struct {
	Elapsed int           `json:"elapsed_seconds"`
	Timers  models.Timers `json:"tab_timers"`
}

// Tracker is the single owner of the practice state
type Tracker struct {
	mu        sync.Mutex
	store     *catalog.Store
	seeds     *catalog.Seeds
	persister Persister
	relay     RelaySender
	opts      Options

	active     models.Category
	focusedID  string
	timers     models.Timers
	autoDetect bool
	connected  bool
	startedAt  time.Time
	pending    *time.Timer
	advanceGen uint64
	closed     bool

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates a tracker and restores the last saved state, falling back to
// the seed catalog. persister may be nil.
func New(ctx context.Context, seeds *catalog.Seeds, persister Persister, opts Options) *Tracker {
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = models.CategoryTraining
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t := &Tracker{
		seeds:      seeds,
		persister:  persister,
		opts:       opts,
		active:     opts.DefaultCategory,
		timers:     seeds.Timers(),
		autoDetect: true,
		startedAt:  opts.Now(),
		subs:       make(map[int]func(Event)),
	}

	var snap *models.Snapshot
	if persister != nil {
		snap, _ = persister.Load(ctx)
	}

	if snap != nil {
		t.restore(snap)
		slog.Info("tracker state restored", "maps", t.store.Len(), "category", t.active, "focus", t.focusedID)
	} else {
		t.store = seeds.Store()
		t.focusedID, _ = focus.SelectInitial(t.store.View(t.active))
		slog.Info("tracker started from seed catalog", "maps", t.store.Len(), "focus", t.focusedID)
	}

	return t
}

// restore installs a loaded snapshot
func (t *Tracker) restore(snap *models.Snapshot) {
	t.store = catalog.NewStore()
	for _, id := range snap.Order {
		if err := t.store.Insert(snap.Maps[id]); err != nil {
			slog.Warn("skipping saved map", "map_id", id, "error", err)
		}
	}

	for category, seconds := range snap.Timers {
		t.timers[category] = seconds
	}
	if snap.ActiveCategory != "" {
		t.active = snap.ActiveCategory
	}
	if snap.AutoDetect != nil {
		t.autoDetect = *snap.AutoDetect
	}

	view := t.store.View(t.active)
	if containsID(view, snap.FocusedID) {
		t.focusedID = snap.FocusedID
	} else {
		t.focusedID, _ = focus.SelectInitial(view)
	}
}

// AttachRelay sets where preference changes are forwarded. It may be called
// once the relay client exists, since the client also needs the tracker.
func (t *Tracker) AttachRelay(s RelaySender) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.relay = s
}

// Subscribe registers fn for every future event. The returned function
// removes the subscription.
func (t *Tracker) Subscribe(fn func(Event)) func() {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

// apply runs fn under the state lock and publishes the events it returns
func (t *Tracker) apply(fn func() []Event) {
	t.mu.Lock()
	events := fn()
	t.mu.Unlock()
	t.publish(events)
}

func (t *Tracker) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	t.subMu.RLock()
	subs := make([]func(Event), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.subMu.RUnlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Close cancels a pending focus advance and writes a final snapshot
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}

	if t.persister == nil {
		return nil
	}
	return t.persister.Save(ctx, t.snapshotLocked())
}

// Helpers below expect the caller to hold t.mu

func (t *Tracker) saveLocked(ctx context.Context) {
	if t.persister == nil {
		return
	}
	if err := t.persister.Save(ctx, t.snapshotLocked()); err != nil {
		slog.Warn("failed to persist state", "error", err)
	}
}

func (t *Tracker) snapshotLocked() models.Snapshot {
	maps, order := t.store.Export()
	autoDetect := t.autoDetect
	return models.Snapshot{
		Maps:           maps,
		Order:          order,
		FocusedID:      t.focusedID,
		ActiveCategory: t.active,
		Timers:         t.timers.Clone(),
		AutoDetect:     &autoDetect,
	}
}

func (t *Tracker) stateEventLocked() Event {
	return Event{Type: models.EventState, State: t.stateLocked()}
}

func noticeEvent(level models.NoticeLevel, mapID, message string) Event {
	return Event{Type: models.EventNotice, Notice: models.Notice{Level: level, Message: message, MapID: mapID}}
}

func containsID(view []models.MapRecord, id string) bool {
	if id == "" {
		return false
	}
	for _, rec := range view {
		if rec.ID == id {
			return true
		}
	}
	return false
}
