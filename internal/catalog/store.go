package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/terra-clan/practice-tracker/internal/models"
)

// Common errors
var (
	ErrDuplicateID = errors.New("map id already exists")
	ErrInvalidMap  = errors.New("invalid map record")
)

// Store owns the map records keyed by id. Insertion order is the view order.
type Store struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*models.MapRecord
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		records: make(map[string]*models.MapRecord),
	}
}

// NewID generates a category-prefixed id for a custom map.
// UUIDv7 is time ordered and monotonic within the process.
func NewID(category models.Category) string {
	return fmt.Sprintf("%s_custom_%s", category, uuid.Must(uuid.NewV7()).String())
}

// Create inserts a new custom map with a zero count and returns it
func (s *Store) Create(name string, category models.Category, target int) models.MapRecord {
	if target <= 0 {
		target = models.DefaultTarget
	}

	rec := models.MapRecord{
		ID:          NewID(category),
		Name:        name,
		Category:    category,
		TargetCount: target,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		panic(fmt.Sprintf("catalog: generated duplicate id %q", rec.ID))
	}
	s.insertLocked(rec)
	return rec
}

// Insert adds a record with a caller-chosen id
func (s *Store) Insert(rec models.MapRecord) error {
	if !rec.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMap, rec.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, rec.ID)
	}
	s.insertLocked(rec)
	return nil
}

// Get returns a copy of the record with the given id
func (s *Store) Get(id string) (models.MapRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return models.MapRecord{}, false
	}
	return *rec, true
}

// Increment adds one completion to the map. The count may exceed the target.
func (s *Store) Increment(id string) (models.MapRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return models.MapRecord{}, false
	}
	rec.CurrentCount++
	return *rec, true
}

// Reset sets the map count back to zero
func (s *Store) Reset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.CurrentCount = 0
	return true
}

// Delete removes a map. wasFocused reports whether the removed id was focusedID.
func (s *Store) Delete(id, focusedID string) (deleted, wasFocused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, false
	}

	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return true, id == focusedID
}

// MergeExternal inserts every record whose id is unknown locally.
// Known ids are never overwritten and invalid records are skipped.
// Returns the number of inserted records.
func (s *Store) MergeExternal(maps map[string]models.MapRecord) int {
	ids := make([]string, 0, len(maps))
	for id := range maps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, id := range ids {
		if _, exists := s.records[id]; exists {
			continue
		}
		rec := maps[id]
		rec.ID = id
		if !rec.Valid() {
			continue
		}
		s.insertLocked(rec)
		inserted++
	}
	return inserted
}

// View returns the records of one category in display order
func (s *Store) View(category models.Category) []models.MapRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.MapRecord
	for _, id := range s.order {
		rec := s.records[id]
		if rec.Category == category {
			result = append(result, *rec)
		}
	}
	return result
}

// All returns every record in display order
func (s *Store) All() []models.MapRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.MapRecord, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, *s.records[id])
	}
	return result
}

// Categories returns the distinct categories in order of first appearance
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[models.Category]bool)
	var result []models.Category
	for _, id := range s.order {
		c := s.records[id].Category
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	return result
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Export returns the records keyed by id together with the display order
func (s *Store) Export() (map[string]models.MapRecord, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maps := make(map[string]models.MapRecord, len(s.records))
	for id, rec := range s.records {
		maps[id] = *rec
	}
	order := make([]string, len(s.order))
	copy(order, s.order)
	return maps, order
}

func (s *Store) insertLocked(rec models.MapRecord) {
	if rec.CurrentCount < 0 {
		panic(fmt.Sprintf("catalog: negative count for %q", rec.ID))
	}
	r := rec
	s.records[rec.ID] = &r
	s.order = append(s.order, rec.ID)
}
