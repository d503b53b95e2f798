package tracker

import (
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/session"
)

// State returns the read model of the active category
func (t *Tracker) State() models.StateView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

// Maps returns the decorated view of one category; empty means the active one
func (t *Tracker) Maps(category models.Category) []models.MapView {
	t.mu.Lock()
	defer t.mu.Unlock()

	if category == "" {
		category = t.active
	}
	return t.mapViewsLocked(category)
}

// Get returns a single map
func (t *Tracker) Get(id string) (models.MapRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Get(id)
}

// Stats returns totals over the whole catalog and the category timers
func (t *Tracker) Stats() models.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return models.Stats{
		Totals: session.Totals(t.store.All()),
		Timers: t.timers.Clone(),
	}
}

// Snapshot returns the persisted form of the current state
func (t *Tracker) Snapshot() models.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) stateLocked() models.StateView {
	state := models.StateView{
		ActiveCategory: t.active,
		FocusedID:      t.focusedID,
		Maps:           t.mapViewsLocked(t.active),
		Totals:         session.Totals(t.store.All()),
		Timers:         t.timers.Clone(),
		ElapsedSeconds: t.elapsedLocked(),
		AutoDetect:     t.autoDetect,
		Connected:      t.connected,
		Categories:     t.categoriesLocked(),
	}

	if rec, ok := t.store.Get(t.focusedID); ok {
		state.FocusedName = rec.Name
	}
	return state
}

func (t *Tracker) mapViewsLocked(category models.Category) []models.MapView {
	view := t.store.View(category)
	result := make([]models.MapView, 0, len(view))
	for _, rec := range view {
		result = append(result, models.MapView{
			MapRecord: rec,
			Completed: rec.Completed(),
			Focused:   rec.ID == t.focusedID,
			Progress:  rec.Progress(),
		})
	}
	return result
}

// categoriesLocked lists seed categories first, then any user-added ones
func (t *Tracker) categoriesLocked() []models.CategoryInfo {
	categories := t.seeds.Categories()
	known := make(map[models.Category]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	extra := t.store.Categories()
	extra = append(extra, t.active)
	for _, c := range extra {
		if !known[c] {
			known[c] = true
			categories = append(categories, models.CategoryInfo{ID: c, Label: string(c)})
		}
	}
	return categories
}

func (t *Tracker) elapsedLocked() int {
	return int(t.opts.Now().Sub(t.startedAt).Seconds())
}
