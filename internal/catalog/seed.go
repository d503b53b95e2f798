package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/practice-tracker/internal/models"
)

//go:embed seeds.yaml
var defaultSeedsYAML []byte

// Seeds is the predefined catalog created on first run.
// It is also authoritative for the shape of built-in maps on restore.
type Seeds struct {
	categories []models.CategoryInfo
	records    []models.MapRecord
	byID       map[string]models.MapRecord
}

// DefaultSeeds returns the embedded seed catalog
func DefaultSeeds() *Seeds {
	seeds, err := ParseSeeds(defaultSeedsYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded seeds are invalid: %v", err))
	}
	return seeds
}

// LoadSeedsFromFile loads a seed catalog from a YAML file
func LoadSeedsFromFile(path string) (*Seeds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	seeds, err := ParseSeeds(data)
	if err != nil {
		return nil, err
	}

	slog.Info("seed catalog loaded", "file", path,
		"categories", len(seeds.categories), "maps", len(seeds.records))
	return seeds, nil
}

// ParseSeeds parses a seed catalog document
func ParseSeeds(data []byte) (*Seeds, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seeds := &Seeds{
		byID: make(map[string]models.MapRecord),
	}

	for _, c := range sf.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category id is required")
		}

		label := c.Label
		if label == "" {
			label = string(c.ID)
		}
		seeds.categories = append(seeds.categories, models.CategoryInfo{ID: c.ID, Label: label})

		target := c.Target
		if target <= 0 {
			target = models.DefaultTarget
		}

		for _, m := range c.Maps {
			if m.ID == "" {
				return nil, fmt.Errorf("map id is required in category %q", c.ID)
			}
			if _, dup := seeds.byID[m.ID]; dup {
				return nil, fmt.Errorf("duplicate map id %q", m.ID)
			}

			rec := models.MapRecord{
				ID:          m.ID,
				Name:        m.Name,
				Category:    c.ID,
				TargetCount: target,
			}
			if m.Target > 0 {
				rec.TargetCount = m.Target
			}
			if rec.Name == "" {
				rec.Name = m.ID
			}

			seeds.records = append(seeds.records, rec)
			seeds.byID[rec.ID] = rec
		}
	}

	return seeds, nil
}

// Store builds a fresh store holding every seed map with a zero count
func (s *Seeds) Store() *Store {
	store := NewStore()
	for _, rec := range s.records {
		store.insertLocked(rec)
	}
	return store
}

// Lookup returns the seed shape of a built-in map
func (s *Seeds) Lookup(id string) (models.MapRecord, bool) {
	rec, ok := s.byID[id]
	return rec, ok
}

// Records returns the seed maps in file order
func (s *Seeds) Records() []models.MapRecord {
	result := make([]models.MapRecord, len(s.records))
	copy(result, s.records)
	return result
}

// Categories returns the categories declared by the seed file
func (s *Seeds) Categories() []models.CategoryInfo {
	result := make([]models.CategoryInfo, len(s.categories))
	copy(result, s.categories)
	return result
}

// Timers returns a zeroed timer for every seed category
func (s *Seeds) Timers() models.Timers {
	timers := make(models.Timers, len(s.categories))
	for _, c := range s.categories {
		timers[c.ID] = 0
	}
	return timers
}

// YAML file structs

type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
}

type seedCategory struct {
	ID     models.Category `yaml:"id"`
	Label  string          `yaml:"label"`
	Target int             `yaml:"target"`
	Maps   []seedMap       `yaml:"maps"`
}

type seedMap struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Target int    `yaml:"target"`
}
