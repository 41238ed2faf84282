package taxonomy

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/gofrs/flock"

	"wrenchbot/internal/logging"
)

// patternStoreState is the persisted JSON document (spec.md §3, §6).
type patternStoreState struct {
	CategoryCounts     map[string]uint64            `json:"category_counts"`
	WordCategoryCounts map[string]map[string]uint64 `json:"word_category_counts"`
}

func newPatternStoreState() patternStoreState {
	return patternStoreState{
		CategoryCounts:     make(map[string]uint64),
		WordCategoryCounts: make(map[string]map[string]uint64),
	}
}

// PatternStore is a multinomial naive-Bayes classifier over tokenised error
// messages, persisted as a single JSON document per user (spec.md §4.1).
// Ported line-for-line from
// _examples/original_source/agent_s3/tools/error_pattern_learner.py's
// ErrorPatternLearner: whitespace-split tokens filtered to alphabetic-only,
// Laplace-smoothed log-probabilities, argmax over category_counts.
type PatternStore struct {
	mu    sync.Mutex
	path  string
	state patternStoreState
}

// NewPatternStore opens (or lazily creates) the store at path. A corrupted
// or missing file resets in-memory state to empty without raising, per
// spec.md §4.1's corruption-recovery contract.
func NewPatternStore(path string) *PatternStore {
	s := &PatternStore{path: path, state: newPatternStoreState()}
	s.load()
	return s
}

// DefaultPatternStorePath returns the per-user path for the pattern store,
// <os.UserConfigDir()>/wrenchbot/<user>/pattern_store.json, with user
// "default" when empty; on Linux os.UserConfigDir() is $XDG_CONFIG_HOME when
// set (spec.md §6).
func DefaultPatternStorePath(user string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("taxonomy: resolve user config dir: %w", err)
	}
	if user == "" {
		user = "default"
	}
	return filepath.Join(base, "wrenchbot", user, "pattern_store.json"), nil
}

func (s *PatternStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.state = newPatternStoreState()
		return
	}
	var loaded patternStoreState
	if err := json.Unmarshal(data, &loaded); err != nil {
		logging.Get(logging.CategoryTaxonomy).Warn("pattern store corrupted, resetting", "path", s.path, "error", err.Error())
		s.state = newPatternStoreState()
		return
	}
	if loaded.CategoryCounts == nil {
		loaded.CategoryCounts = make(map[string]uint64)
	}
	if loaded.WordCategoryCounts == nil {
		loaded.WordCategoryCounts = make(map[string]map[string]uint64)
	}
	s.state = loaded
}

// Tokenize splits on whitespace and keeps only the whole words that are
// purely alphabetic, lowercased — the fixed tokenisation rule of spec.md
// §4.1, matching ErrorPatternLearner._tokenize's
// `[w.lower() for w in text.split() if w.isalpha()]` exactly: a token like
// "file.py:42" is dropped in its entirety rather than split at the
// punctuation, since it is not a whole alphabetic word.
func Tokenize(message string) []string {
	fields := strings.Fields(message)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if isAlpha(f) {
			tokens = append(tokens, strings.ToLower(f))
		}
	}
	return tokens
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Update records a confirmed (message, category) observation and persists
// the store atomically. A zero-token message is a no-op (spec.md §4.1).
func (s *PatternStore) Update(message, categoryName string) error {
	tokens := Tokenize(message)
	if len(tokens) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CategoryCounts[categoryName]++
	if s.state.WordCategoryCounts[categoryName] == nil {
		s.state.WordCategoryCounts[categoryName] = make(map[string]uint64)
	}
	for _, tok := range tokens {
		s.state.WordCategoryCounts[categoryName][tok]++
	}

	return s.persist()
}

// Predict returns the argmax-category for a message, or ("", false) if the
// store is empty or the message tokenises to nothing (spec.md §4.1).
func (s *PatternStore) Predict(message string) (string, bool) {
	tokens := Tokenize(message)
	if len(tokens) == 0 {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.CategoryCounts) == 0 {
		return "", false
	}

	total := uint64(0)
	for _, n := range s.state.CategoryCounts {
		total += n
	}
	if total == 0 {
		return "", false
	}

	var bestCategory string
	bestScore := math.Inf(-1)
	for category, count := range s.state.CategoryCounts {
		vocabSize := len(s.state.WordCategoryCounts[category])
		wordTotal := uint64(0)
		for _, c := range s.state.WordCategoryCounts[category] {
			wordTotal += c
		}

		score := math.Log(float64(count) / float64(total))
		for _, tok := range tokens {
			wc := s.state.WordCategoryCounts[category][tok]
			score += math.Log((float64(wc) + 1) / (float64(wordTotal) + float64(vocabSize)))
		}

		if score > bestScore {
			bestScore = score
			bestCategory = category
		}
	}

	return bestCategory, bestCategory != ""
}

// persist writes the store atomically: a gofrs/flock advisory lock guards
// against concurrent writers (spec.md §5), and the write itself goes to a
// temp file in the same directory followed by os.Rename (spec.md §4.1).
func (s *PatternStore) persist() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("taxonomy: create pattern store dir: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("taxonomy: acquire pattern store lock: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("taxonomy: marshal pattern store: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pattern_store-*.tmp")
	if err != nil {
		return fmt.Errorf("taxonomy: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("taxonomy: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("taxonomy: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("taxonomy: rename temp file: %w", err)
	}
	return nil
}
