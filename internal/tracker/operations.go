package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/terra-clan/practice-tracker/internal/focus"
	"github.com/terra-clan/practice-tracker/internal/ingress"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/session"
)

// Create adds a custom map. An empty category means the active one. Adding
// to another category switches to it.
func (t *Tracker) Create(ctx context.Context, name string, category models.Category, target int) (models.MapRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.MapRecord{}, ErrEmptyName
	}

	var rec models.MapRecord
	t.apply(func() []Event {
		if category == "" {
			category = t.active
		}

		rec = t.store.Create(name, category, target)
		slog.Info("map created", "map_id", rec.ID, "category", rec.Category)

		if category != t.active {
			t.switchLocked(category)
		} else if t.focusedID == "" {
			t.focusedID, _ = focus.SelectInitial(t.store.View(t.active))
		}

		t.saveLocked(ctx)
		return []Event{
			noticeEvent(models.NoticeSuccess, rec.ID, fmt.Sprintf("%q added", rec.Name)),
			t.stateEventLocked(),
		}
	})

	return rec, nil
}

// Increment counts one completion of a map. Unknown ids are ignored.
func (t *Tracker) Increment(ctx context.Context, id string) (models.MapRecord, bool) {
	var (
		rec models.MapRecord
		ok  bool
	)
	t.apply(func() []Event {
		rec, ok = t.store.Increment(id)
		if !ok {
			return nil
		}
		slog.Info("map incremented", "map_id", id, "count", rec.CurrentCount, "target", rec.TargetCount)
		t.saveLocked(ctx)
		return []Event{t.stateEventLocked()}
	})
	return rec, ok
}

// Reset sets a map count back to zero. Unknown ids are ignored.
func (t *Tracker) Reset(ctx context.Context, id string) bool {
	var ok bool
	t.apply(func() []Event {
		ok = t.store.Reset(id)
		if !ok {
			return nil
		}
		slog.Info("map reset", "map_id", id)
		t.saveLocked(ctx)
		return []Event{
			noticeEvent(models.NoticeInfo, id, "progress reset"),
			t.stateEventLocked(),
		}
	})
	return ok
}

// Delete removes a map and repairs focus when the focused map was removed
func (t *Tracker) Delete(ctx context.Context, id string) bool {
	var deleted bool
	t.apply(func() []Event {
		rec, ok := t.store.Get(id)
		if !ok {
			return nil
		}

		var wasFocused bool
		deleted, wasFocused = t.store.Delete(id, t.focusedID)
		if !deleted {
			return nil
		}
		if wasFocused {
			t.focusedID, _ = focus.RepairAfterDeletion(t.store.View(t.active), id, t.focusedID)
		}

		slog.Info("map deleted", "map_id", id, "was_focused", wasFocused, "focus", t.focusedID)
		t.saveLocked(ctx)
		return []Event{
			noticeEvent(models.NoticeInfo, id, fmt.Sprintf("%q deleted", rec.Name)),
			t.stateEventLocked(),
		}
	})
	return deleted
}

// SwitchCategory makes category active and recomputes focus for it
func (t *Tracker) SwitchCategory(ctx context.Context, category models.Category) {
	if category == "" {
		return
	}
	t.apply(func() []Event {
		t.switchLocked(category)
		slog.Info("category switched", "category", category, "focus", t.focusedID)
		t.saveLocked(ctx)
		return []Event{t.stateEventLocked()}
	})
}

func (t *Tracker) switchLocked(category models.Category) {
	t.active = category
	if _, ok := t.timers[category]; !ok {
		t.timers[category] = 0
	}
	t.focusedID, _ = focus.RepairAfterCategorySwitch(t.store.View(category))
}

// Focus explicitly selects a map. A map of another category makes that
// category active. Unknown ids are ignored.
func (t *Tracker) Focus(ctx context.Context, id string) bool {
	var ok bool
	t.apply(func() []Event {
		var rec models.MapRecord
		rec, ok = t.store.Get(id)
		if !ok {
			return nil
		}
		if rec.Category != t.active {
			t.active = rec.Category
		}
		t.focusedID = id
		t.saveLocked(ctx)
		return []Event{t.stateEventLocked()}
	})
	return ok
}

// Advance moves focus to the next incomplete map of the active category
func (t *Tracker) Advance(ctx context.Context) focus.Outcome {
	var outcome focus.Outcome
	t.apply(func() []Event {
		var events []Event
		outcome, events = t.advanceLocked(ctx)
		return events
	})
	return outcome
}

func (t *Tracker) advanceLocked(ctx context.Context) (focus.Outcome, []Event) {
	id, outcome := focus.Advance(t.store.View(t.active), t.focusedID)

	switch outcome {
	case focus.Next:
		t.focusedID = id
		t.saveLocked(ctx)
		rec, _ := t.store.Get(id)
		return outcome, []Event{
			noticeEvent(models.NoticeInfo, id, "next map: "+rec.Name),
			t.stateEventLocked(),
		}
	case focus.AllComplete:
		slog.Info("category complete", "category", t.active)
		return outcome, []Event{
			noticeEvent(models.NoticeSuccess, "", "every map in this category is complete"),
		}
	default:
		return outcome, nil
	}
}

// ToggleAutoDetect flips the auto-detect preference and returns the new
// value. The change is forwarded to the relay, which gates detections on it.
func (t *Tracker) ToggleAutoDetect(ctx context.Context) bool {
	var (
		enabled bool
		relay   RelaySender
	)
	t.apply(func() []Event {
		t.autoDetect = !t.autoDetect
		enabled = t.autoDetect
		relay = t.relay
		t.saveLocked(ctx)

		msg := "goal auto-detect off"
		if enabled {
			msg = "goal auto-detect on"
		}
		return []Event{noticeEvent(models.NoticeInfo, "", msg), t.stateEventLocked()}
	})

	if relay != nil {
		err := relay.Send(models.RelayMessage{Type: models.MessageToggleAutoDetect})
		switch {
		case errors.Is(err, ingress.ErrNotConnected):
			slog.Debug("relay offline, auto-detect toggle kept local")
		case err != nil:
			slog.Warn("failed to forward auto-detect toggle", "error", err)
		}
	}
	return enabled
}

// Goal counts a completion of the focused map and schedules the focus
// advance after the configured delay. Without a focus nothing changes.
func (t *Tracker) Goal(ctx context.Context) models.GoalResponse {
	var resp models.GoalResponse
	t.apply(func() []Event {
		rec, ok := t.store.Increment(t.focusedID)
		if !ok {
			resp.Outcome = GoalNoFocus
			slog.Warn("goal received without a focused map")
			return []Event{noticeEvent(models.NoticeWarning, "", "no active focus")}
		}

		resp = models.GoalResponse{Outcome: GoalCounted, Map: &rec}
		slog.Info("goal counted", "map_id", rec.ID, "count", rec.CurrentCount, "target", rec.TargetCount)
		t.saveLocked(ctx)

		events := []Event{
			noticeEvent(models.NoticeSuccess, rec.ID, rec.Name+" cleared"),
			t.stateEventLocked(),
		}

		if t.opts.GoalDelay <= 0 {
			_, more := t.advanceLocked(ctx)
			return append(events, more...)
		}

		t.scheduleAdvanceLocked()
		return events
	})
	return resp
}

// scheduleAdvanceLocked arms the delayed advance. A goal arriving while an
// advance is pending re-arms it, and only the latest timer may advance.
func (t *Tracker) scheduleAdvanceLocked() {
	if t.closed {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
	}
	t.advanceGen++
	gen := t.advanceGen
	t.pending = time.AfterFunc(t.opts.GoalDelay, func() {
		t.fireAdvance(gen)
	})
}

// fireAdvance runs a delayed advance unless a newer goal superseded it. A
// timer that fired while a later goal held the lock finds a newer generation.
func (t *Tracker) fireAdvance(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.apply(func() []Event {
		if t.closed || gen != t.advanceGen {
			return nil
		}
		t.pending = nil
		_, events := t.advanceLocked(ctx)
		return events
	})
}

// HandleGoal is the ingress entry point for goal_detected
func (t *Tracker) HandleGoal(ctx context.Context) {
	t.Goal(ctx)
}

// HandleStateSync merges a remote catalog. Local records win; focus is kept.
func (t *Tracker) HandleStateSync(ctx context.Context, maps map[string]models.MapRecord) {
	t.apply(func() []Event {
		inserted := t.store.MergeExternal(maps)
		if inserted > 0 {
			slog.Info("merged remote maps", "inserted", inserted)
			t.saveLocked(ctx)
		}
		return []Event{t.stateEventLocked()}
	})
}

// HandleConnection records the relay connection state
func (t *Tracker) HandleConnection(connected bool) {
	t.apply(func() []Event {
		if t.connected == connected {
			return nil
		}
		t.connected = connected

		events := []Event{t.stateEventLocked()}
		if connected {
			events = append([]Event{noticeEvent(models.NoticeSuccess, "", "relay connected")}, events...)
		}
		return events
	})
}

// Tick adds one second to the active category timer and persists every
// SaveEvery seconds of that timer.
func (t *Tracker) Tick(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.timers = session.Tick(t.timers, t.active)
	if t.opts.SaveEvery > 0 && t.timers[t.active]%t.opts.SaveEvery == 0 {
		t.saveLocked(ctx)
	}
}

// RefreshClock publishes the elapsed session time and category timers
func (t *Tracker) RefreshClock(ctx context.Context) {
	t.apply(func() []Event {
		return []Event{{
			Type:    models.EventClock,
			Elapsed: t.elapsedLocked(),
			Timers:  t.timers.Clone(),
		}}
	})
}
