package pattern

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Roand-7/Lokaah-sub001/internal/solver"
)

// CorpusFormatError describes one malformed corpus record. Records that
// fail validation are skipped, not fatal: the store keeps loading and
// surfaces these as warnings.
type CorpusFormatError struct {
	Source    string // file or stream the record came from
	Index     int    // position within the source
	PatternID string // id if one was present
	Reason    string
}

func (e *CorpusFormatError) Error() string {
	id := e.PatternID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("corpus record %s (%s): %s", id, e.Source, e.Reason)
}

// ErrNotFound reports that no pattern exists for a topic or id.
type ErrNotFound struct {
	Topic string
	ID    string
}

func (e *ErrNotFound) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("no pattern with id %q", e.ID)
	}
	return fmt.Sprintf("no patterns for topic %q", e.Topic)
}

// Store indexes an immutable pattern corpus. Built once at startup,
// read-only afterwards, safe for concurrent lookups.
type Store struct {
	patterns []Definition
	byID     map[string]int
	byTopic  map[string][]int // insertion order preserved
	warnings []*CorpusFormatError
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byID:    make(map[string]int),
		byTopic: make(map[string][]int),
	}
}

// Load reads a JSON array of pattern records from r. Each malformed
// record is recorded as a CorpusFormatError warning and skipped; Load
// only fails when the stream itself is not a JSON array.
func (s *Store) Load(source string, r io.Reader) error {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("corpus %s: %w", source, err)
	}
	for i, raw := range records {
		s.addRecord(source, i, raw)
	}
	return nil
}

// LoadDir loads every .json corpus file in dir in name order, skipping
// the manifest. Duplicate pattern ids keep the first occurrence, so a
// combined file alongside per-chapter files is harmless.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("corpus dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || e.Name() == "manifest.json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("corpus dir %s has no corpus files", dir)
	}
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("corpus file %s: %w", name, err)
		}
		err = s.Load(name, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addRecord(source string, index int, raw json.RawMessage) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		s.warn(source, index, "", err.Error())
		return
	}
	if reason := Validate(&def); reason != "" {
		s.warn(source, index, def.ID, reason)
		return
	}
	if _, exists := s.byID[def.ID]; exists {
		return
	}
	s.patterns = append(s.patterns, def)
	idx := len(s.patterns) - 1
	s.byID[def.ID] = idx
	topic := normalizeTopic(def.Topic)
	s.byTopic[topic] = append(s.byTopic[topic], idx)
}

func (s *Store) warn(source string, index int, id, reason string) {
	s.warnings = append(s.warnings, &CorpusFormatError{
		Source: source, Index: index, PatternID: id, Reason: reason,
	})
}

// Validate checks one pattern definition for the defects that make it
// unusable: missing template or solver expression, missing variables,
// a solver expression or predicate outside the sandbox whitelist, or a
// cyclic derived-variable graph. Returns "" when the pattern is sound.
func Validate(def *Definition) string {
	if strings.TrimSpace(def.ID) == "" {
		return "missing pattern_id"
	}
	if strings.TrimSpace(def.TemplateText) == "" {
		return "missing template_text"
	}
	if strings.TrimSpace(def.SolverExpression) == "" {
		return "empty solver_expression"
	}
	if len(def.Variables) == 0 {
		return "variables is not a mapping"
	}

	declared := make(map[string]bool, len(def.Variables))
	for name := range def.Variables {
		declared[name] = true
	}
	if err := solver.Vet(def.SolverExpression, declared); err != nil {
		return fmt.Sprintf("solver_expression: %v", err)
	}
	for name, rule := range def.Variables {
		if rule.Kind == RuleDerived {
			if err := solver.Vet(rule.Formula, declared); err != nil {
				return fmt.Sprintf("variable %q formula: %v", name, err)
			}
		}
	}
	for i, pred := range def.ValidationRules {
		if err := solver.Vet(pred, declared); err != nil {
			return fmt.Sprintf("validation rule %d: %v", i, err)
		}
	}
	if _, err := OrderedNames(def.Variables); err != nil {
		return err.Error()
	}
	return ""
}

// Warnings returns the malformed records skipped during load.
func (s *Store) Warnings() []*CorpusFormatError { return s.warnings }

// Len returns the number of loaded patterns.
func (s *Store) Len() int { return len(s.patterns) }

// All returns every loaded pattern in corpus insertion order.
func (s *Store) All() []Definition {
	out := make([]Definition, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// ByID returns the pattern with the given id.
func (s *Store) ByID(id string) (*Definition, error) {
	idx, ok := s.byID[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	return &s.patterns[idx], nil
}

// ByTopic returns the patterns for a topic in corpus insertion order.
func (s *Store) ByTopic(topic string) []*Definition {
	idxs := s.byTopic[normalizeTopic(topic)]
	out := make([]*Definition, len(idxs))
	for i, idx := range idxs {
		out[i] = &s.patterns[idx]
	}
	return out
}

// Topics returns the distinct topics in sorted order.
func (s *Store) Topics() []string {
	out := make([]string, 0, len(s.byTopic))
	for t := range s.byTopic {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SelectCandidate picks a pattern for the topic. When a hint is given,
// the first pattern whose id contains any hint token wins; otherwise
// the choice is uniform over the topic's patterns. Returns ErrNotFound
// when the topic has no patterns at all.
func (s *Store) SelectCandidate(topic, hint string, rng *rand.Rand) (*Definition, error) {
	matches := s.ByTopic(topic)
	if len(matches) == 0 {
		return nil, &ErrNotFound{Topic: topic}
	}
	// Corpus order is the tie-break: the first pattern matching any
	// token wins, however late that token appears in the hint.
	tokens := hintTokens(hint)
	for _, def := range matches {
		id := strings.ToLower(def.ID)
		for _, token := range tokens {
			if strings.Contains(id, token) {
				return def, nil
			}
		}
	}
	return matches[rng.IntN(len(matches))], nil
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// hintTokens splits a free-form hint into lowercase alphanumeric tokens.
func hintTokens(hint string) []string {
	fields := strings.FieldsFunc(strings.ToLower(hint), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
