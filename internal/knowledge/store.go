package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

// Store holds the fixed corpus of construction-standard records. Records are
// loaded once and never mutated; all lookups are read-only and safe for
// concurrent use.
type Store struct {
	records []entities.StandardRecord
	logger  zerolog.Logger
}

// NewStore creates a store over an already-materialized record set,
// assigning sequential IDs to records that lack one.
func NewStore(records []entities.StandardRecord, logger zerolog.Logger) *Store {
	for i := range records {
		if records[i].ID == 0 {
			records[i].ID = i + 1
		}
	}
	return &Store{records: records, logger: logger}
}

// LoadFromDir loads every *.json file under dir as a JSON array of standard
// records. An unreadable directory or a corpus that ends up empty is an
// error; this is the one condition that should stop startup.
func LoadFromDir(dir string, logger zerolog.Logger) (*Store, error) {
	entriesList, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read standards dir %s: %w", dir, err)
	}

	var records []entities.StandardRecord
	for _, e := range entriesList {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		var fileRecords []entities.StandardRecord
		if err := json.Unmarshal(data, &fileRecords); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		records = append(records, fileRecords...)
		logger.Debug().
			Str("file", e.Name()).
			Int("records", len(fileRecords)).
			Msg("Loaded standards file")
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no standard records found under %s", dir)
	}

	store := NewStore(records, logger)
	logger.Info().
		Int("records", len(records)).
		Str("dir", dir).
		Msg("Knowledge store loaded")
	return store, nil
}

// All returns every record in the corpus
func (s *Store) All() []entities.StandardRecord {
	return s.records
}

// Count returns the corpus size
func (s *Store) Count() int {
	return len(s.records)
}

// Filter returns records matching the discipline and category filters.
// Records with discipline "general" match any discipline filter. Empty
// filter values match everything.
func (s *Store) Filter(discipline entities.Discipline, category entities.Category) []entities.StandardRecord {
	var out []entities.StandardRecord
	for _, r := range s.records {
		if !MatchesDiscipline(r.Discipline, discipline) {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MatchesDiscipline reports whether a record's discipline satisfies a
// discipline filter. General records match every filter.
func MatchesDiscipline(recordDiscipline, filter entities.Discipline) bool {
	if filter == "" {
		return true
	}
	if recordDiscipline == entities.DisciplineGeneral || recordDiscipline == "" {
		return true
	}
	return recordDiscipline == filter
}

// KeywordLookup returns records whose content contains the term as a
// case-insensitive substring.
func (s *Store) KeywordLookup(term string, discipline entities.Discipline, category entities.Category) []entities.StandardRecord {
	needle := strings.ToUpper(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	var out []entities.StandardRecord
	for _, r := range s.Filter(discipline, category) {
		if strings.Contains(strings.ToUpper(r.Content), needle) {
			out = append(out, r)
		}
	}
	return out
}

// Stats summarizes the corpus by discipline and category
type Stats struct {
	Total        int                         `json:"total"`
	ByDiscipline map[entities.Discipline]int `json:"by_discipline"`
	ByCategory   map[entities.Category]int   `json:"by_category"`
	Sources      []string                    `json:"sources"`
}

// Stats returns corpus composition counts
func (s *Store) Stats() Stats {
	stats := Stats{
		Total:        len(s.records),
		ByDiscipline: make(map[entities.Discipline]int),
		ByCategory:   make(map[entities.Category]int),
	}
	sources := make(map[string]struct{})
	for _, r := range s.records {
		stats.ByDiscipline[r.Discipline]++
		stats.ByCategory[r.Category]++
		if r.Source != "" {
			sources[r.Source] = struct{}{}
		}
	}
	for src := range sources {
		stats.Sources = append(stats.Sources, src)
	}
	sort.Strings(stats.Sources)
	return stats
}
