package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/practice-tracker/internal/models"
)

func TestStoreCreate(t *testing.T) {
	s := NewStore()

	rec := s.Create("Loop", models.CategoryCustom, 0)
	assert.True(t, strings.HasPrefix(rec.ID, "custom_custom_"), "id %q should be category prefixed", rec.ID)
	assert.Equal(t, 0, rec.CurrentCount)
	assert.Equal(t, models.DefaultTarget, rec.TargetCount)

	other := s.Create("Loop", models.CategoryCustom, 3)
	assert.NotEqual(t, rec.ID, other.ID)
	assert.Equal(t, 3, other.TargetCount)
	assert.Equal(t, 2, s.Len())
}

func TestStoreIncrementOvershoots(t *testing.T) {
	s := NewStore()
	rec := s.Create("A", models.CategoryTraining, 2)

	for i := 0; i < 4; i++ {
		_, ok := s.Increment(rec.ID)
		require.True(t, ok)
	}

	got, ok := s.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, 4, got.CurrentCount)
	assert.True(t, got.Completed())
	assert.Equal(t, 2, got.CappedCount())
	assert.Equal(t, 100, got.Progress())
}

func TestStoreUnknownIDIsNoop(t *testing.T) {
	s := NewStore()

	_, ok := s.Increment("missing")
	assert.False(t, ok)
	assert.False(t, s.Reset("missing"))

	deleted, wasFocused := s.Delete("missing", "missing")
	assert.False(t, deleted)
	assert.False(t, wasFocused)
	assert.Equal(t, 0, s.Len())
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	rec := s.Create("A", models.CategoryTraining, 5)
	s.Increment(rec.ID)
	s.Increment(rec.ID)

	require.True(t, s.Reset(rec.ID))
	got, _ := s.Get(rec.ID)
	assert.Equal(t, 0, got.CurrentCount)
}

func TestStoreDeleteReportsFocus(t *testing.T) {
	s := NewStore()
	a := s.Create("A", models.CategoryTraining, 5)
	b := s.Create("B", models.CategoryTraining, 5)

	deleted, wasFocused := s.Delete(a.ID, b.ID)
	assert.True(t, deleted)
	assert.False(t, wasFocused)

	deleted, wasFocused = s.Delete(b.ID, b.ID)
	assert.True(t, deleted)
	assert.True(t, wasFocused)
	assert.Empty(t, s.View(models.CategoryTraining))
}

func TestStoreInsertDuplicate(t *testing.T) {
	s := NewStore()
	rec := models.MapRecord{ID: "custom_loop", Name: "loop", Category: models.CategoryCustom, TargetCount: 5}

	require.NoError(t, s.Insert(rec))
	assert.ErrorIs(t, s.Insert(rec), ErrDuplicateID)
	assert.ErrorIs(t, s.Insert(models.MapRecord{ID: "x", TargetCount: 0}), ErrInvalidMap)
}

func TestStoreMergeExternalLocalWins(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(models.MapRecord{ID: "a", Name: "A", Category: models.CategoryTraining, CurrentCount: 3, TargetCount: 5}))

	inserted := s.MergeExternal(map[string]models.MapRecord{
		"a":   {ID: "a", Name: "remote A", Category: models.CategoryTraining, CurrentCount: 0, TargetCount: 5},
		"c":   {Name: "C", Category: models.CategoryTraining, CurrentCount: 1, TargetCount: 5},
		"b":   {ID: "b", Name: "B", Category: models.CategoryTraining, CurrentCount: 2, TargetCount: 5},
		"bad": {ID: "bad", Name: "bad", Category: models.CategoryTraining, CurrentCount: -1, TargetCount: 5},
	})
	assert.Equal(t, 2, inserted)

	a, _ := s.Get("a")
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, 3, a.CurrentCount)

	c, ok := s.Get("c")
	require.True(t, ok)
	assert.Equal(t, "c", c.ID)
	assert.Equal(t, 1, c.CurrentCount)

	var ids []string
	for _, rec := range s.View(models.CategoryTraining) {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestStoreViewKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	first := s.Create("first", models.CategoryTraining, 5)
	s.Create("other", models.CategoryFairytale, 5)
	second := s.Create("second", models.CategoryTraining, 5)

	view := s.View(models.CategoryTraining)
	require.Len(t, view, 2)
	assert.Equal(t, first.ID, view[0].ID)
	assert.Equal(t, second.ID, view[1].ID)

	assert.Equal(t, []models.Category{models.CategoryTraining, models.CategoryFairytale}, s.Categories())
}

func TestStoreCountsNeverNegative(t *testing.T) {
	s := DefaultSeeds().Store()
	ids := []string{"training_updown", "fairytale_momotaro", "missing"}

	for i := 0; i < 50; i++ {
		id := ids[i%len(ids)]
		switch i % 4 {
		case 0, 1:
			s.Increment(id)
		case 2:
			s.Reset(id)
		case 3:
			s.Delete("missing", "")
		}
	}

	for _, rec := range s.All() {
		assert.GreaterOrEqual(t, rec.CurrentCount, 0, rec.ID)
	}
}
