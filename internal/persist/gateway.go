// Package persist serializes the tracker state to a durable slot and restores it.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/terra-clan/practice-tracker/internal/catalog"
	"github.com/terra-clan/practice-tracker/internal/models"
	"github.com/terra-clan/practice-tracker/internal/storage"
)

// Gateway saves and loads snapshots through a storage slot
type Gateway struct {
	slot  storage.Slot
	seeds *catalog.Seeds
}

// NewGateway creates a gateway. seeds are authoritative for the shape of
// built-in maps when a snapshot is restored.
func NewGateway(slot storage.Slot, seeds *catalog.Seeds) *Gateway {
	return &Gateway{slot: slot, seeds: seeds}
}

// Save overwrites the slot with the encoded snapshot
func (g *Gateway) Save(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := g.slot.Store(ctx, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load restores the last saved snapshot. Absent or malformed data yields
// ok=false; the error is logged, never returned.
func (g *Gateway) Load(ctx context.Context) (*models.Snapshot, bool) {
	data, err := g.slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrSlotEmpty) {
			slog.Warn("failed to read saved state", "error", err)
		}
		return nil, false
	}

	var raw models.Snapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("discarding malformed saved state", "error", err)
		return nil, false
	}
	if raw.Maps == nil {
		slog.Warn("discarding saved state without maps")
		return nil, false
	}

	return g.restore(raw), true
}

// Ping checks the underlying slot
func (g *Gateway) Ping(ctx context.Context) error {
	return g.slot.Ping(ctx)
}

// restore applies the seed catalog to a raw snapshot: built-in ids take their
// shape from the seed and only their count from the snapshot; custom ids are
// taken as saved.
func (g *Gateway) restore(raw models.Snapshot) *models.Snapshot {
	snap := &models.Snapshot{
		Maps:           make(map[string]models.MapRecord, len(raw.Maps)),
		FocusedID:      raw.FocusedID,
		ActiveCategory: raw.ActiveCategory,
		Timers:         make(models.Timers),
		AutoDetect:     raw.AutoDetect,
	}

	for id, saved := range raw.Maps {
		rec := saved
		if seed, ok := g.seeds.Lookup(id); ok {
			rec = seed
			rec.CurrentCount = saved.CurrentCount
		}
		rec.ID = id
		if rec.CurrentCount < 0 {
			rec.CurrentCount = 0
		}
		if rec.TargetCount <= 0 {
			rec.TargetCount = models.DefaultTarget
		}
		snap.Maps[id] = rec
	}

	snap.Order = restoreOrder(raw.Order, snap.Maps, g.seeds)

	for category, seconds := range raw.Timers {
		if seconds < 0 {
			seconds = 0
		}
		snap.Timers[category] = seconds
	}

	if _, ok := snap.Maps[snap.FocusedID]; !ok {
		snap.FocusedID = ""
	}

	return snap
}

// restoreOrder keeps the saved order for ids still present, then appends ids
// missing from it: seeds in seed order first, the rest sorted.
func restoreOrder(saved []string, maps map[string]models.MapRecord, seeds *catalog.Seeds) []string {
	order := make([]string, 0, len(maps))
	placed := make(map[string]bool, len(maps))

	for _, id := range saved {
		if _, ok := maps[id]; ok && !placed[id] {
			order = append(order, id)
			placed[id] = true
		}
	}

	for _, rec := range seeds.Records() {
		if _, ok := maps[rec.ID]; ok && !placed[rec.ID] {
			order = append(order, rec.ID)
			placed[rec.ID] = true
		}
	}

	var rest []string
	for id := range maps {
		if !placed[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)

	return append(order, rest...)
}
