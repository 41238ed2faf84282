package scratchpad

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"wrenchbot/internal/logging"
)

// LLMInteractionStatus is the outcome recorded by LogLastLLMInteraction.
type LLMInteractionStatus string

const (
	LLMStatusSuccess         LLMInteractionStatus = "success"
	LLMStatusFallbackSuccess LLMInteractionStatus = "fallback_success"
	LLMStatusError           LLMInteractionStatus = "error"
)

// LLMInteraction is the record kept for GetLastLLMInteraction (spec.md §4.3).
type LLMInteraction struct {
	Model    string
	Prompt   string
	Response string
	Summary  string
	Status   LLMInteractionStatus
	Error    string
}

// Options configures a Scratchpad, mirroring the recognised config keys of
// spec.md §6.
type Options struct {
	LogDir            string
	MaxSessions        int
	MaxFileSizeMB      int
	EnableEncryption   bool
	EncryptionSecret   string
	RecentEntriesSize  int
	PromptMaxLen       int
	ResponseMaxLen     int
}

// DefaultOptions returns the spec's documented scratchpad defaults.
func DefaultOptions(logDir string) Options {
	return Options{
		LogDir:            logDir,
		MaxSessions:       10,
		MaxFileSizeMB:     5,
		RecentEntriesSize: 100,
		PromptMaxLen:      4000,
		ResponseMaxLen:    4000,
	}
}

// Scratchpad is a single-threaded cooperative writer over a rotating session
// log file, per spec.md §4.3 and the concurrency contract in §4.3/§5.
type Scratchpad struct {
	mu sync.Mutex

	opts      Options
	sessionID string
	partNum   int
	file      *os.File
	dirLock   *flock.Flock

	sectionStack []Section

	recent     []LogEntry
	recentHead int
	recentLen  int

	lastLLM *LLMInteraction
}

// New starts a fresh scratchpad session: acquires the directory's advisory
// lock, runs startup cleanup (spec.md §4.3), and opens part 1 of a new
// session file.
func New(opts Options) (*Scratchpad, error) {
	if opts.RecentEntriesSize <= 0 {
		opts.RecentEntriesSize = 100
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 10
	}
	if opts.MaxFileSizeMB <= 0 {
		opts.MaxFileSizeMB = 5
	}

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("scratchpad: create log dir: %w", err)
	}

	dirLock := flock.New(filepath.Join(opts.LogDir, ".scratchpad.lock"))
	if err := dirLock.Lock(); err != nil {
		return nil, fmt.Errorf("scratchpad: acquire directory lock: %w", err)
	}

	sp := &Scratchpad{
		opts:       opts,
		sessionID:  time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8],
		partNum:    1,
		dirLock:    dirLock,
		recent:     make([]LogEntry, opts.RecentEntriesSize),
	}

	if err := CleanupOldSessions(opts.LogDir, opts.MaxSessions); err != nil {
		logging.Get(logging.CategoryScratchpad).Warn("session cleanup failed", "error", err.Error())
	}

	if err := sp.openPart(); err != nil {
		dirLock.Unlock()
		return nil, err
	}

	return sp, nil
}

func (s *Scratchpad) activeFileName() string {
	return fmt.Sprintf("scratchpad_%s_part%d.log", s.sessionID, s.partNum)
}

func (s *Scratchpad) openPart() error {
	path := filepath.Join(s.opts.LogDir, s.activeFileName())
	resolved, err := safeLogPath(s.opts.LogDir, path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(resolved, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("scratchpad: open %s: %w", resolved, err)
	}
	s.file = f
	return nil
}

// safeLogPath refuses a path whose resolved form would leave logDir — the
// symlink-escape defence required by spec.md §4.3.
func safeLogPath(logDir, path string) (string, error) {
	absDir, err := filepath.Abs(logDir)
	if err != nil {
		return "", fmt.Errorf("scratchpad: resolve log dir: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("scratchpad: resolve path: %w", err)
	}
	checkDir, checkPath := absDir, absPath
	if resolved, err := filepath.EvalSymlinks(absDir); err == nil {
		checkDir = resolved
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		checkPath = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(absPath)); err == nil {
		checkPath = filepath.Join(parent, filepath.Base(absPath))
	}
	rel, err := filepath.Rel(checkDir, checkPath)
	if err != nil || rel == ".." || len(rel) >= 2 && rel[:2] == ".." {
		return "", fmt.Errorf("scratchpad: path %s escapes log directory", path)
	}
	return absPath, nil
}

// Log formats and appends a LogEntry. Per spec.md §4.3, I/O failures are
// reported to stderr and the entry is dropped — Log itself never errors.
func (s *Scratchpad) Log(role, message string, level Level, section *Section, metadata map[string]any, tags []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Role:      role,
		Level:     level,
		Section:   section,
		Message:   message,
		Metadata:  metadata,
		Tags:      tags,
	}

	if err := s.writeEntry(&entry); err != nil {
		fmt.Fprintf(os.Stderr, "[scratchpad] write failed: %v\n", err)
		return
	}

	s.pushRecent(entry)
	s.checkRotation()
}

func (s *Scratchpad) pushRecent(entry LogEntry) {
	idx := (s.recentHead + s.recentLen) % len(s.recent)
	if s.recentLen < len(s.recent) {
		s.recent[idx] = entry
		s.recentLen++
	} else {
		s.recent[s.recentHead] = entry
		s.recentHead = (s.recentHead + 1) % len(s.recent)
	}
}

// RecentEntries returns a snapshot of the ring buffer in insertion order.
func (s *Scratchpad) RecentEntries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LogEntry, s.recentLen)
	for i := 0; i < s.recentLen; i++ {
		out[i] = s.recent[(s.recentHead+i)%len(s.recent)]
	}
	return out
}

func (s *Scratchpad) writeEntry(entry *LogEntry) error {
	if s.file == nil {
		return fmt.Errorf("scratchpad: no open file")
	}

	line := entry.formatHeader() + "\n" + entry.Message + "\n"
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err == nil {
			line += "  METADATA: " + string(data) + "\n"
		}
	}

	if s.opts.EnableEncryption {
		line = encryptLine(line, s.opts.EncryptionSecret)
	}

	_, err := s.file.WriteString(line)
	return err
}

// StartSection pushes a section and emits its begin marker.
func (s *Scratchpad) StartSection(section Section) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sectionStack = append(s.sectionStack, section)
	marker := fmt.Sprintf("===== BEGIN %s =====\n", section.String())
	if s.file != nil {
		s.file.WriteString(marker)
	}
}

// EndSection pops the current section. If section is non-nil and mismatches
// the top of the stack, a warning is logged and the stack is untouched
// (spec.md §4.3).
func (s *Scratchpad) EndSection(section *Section) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sectionStack) == 0 {
		return
	}
	top := s.sectionStack[len(s.sectionStack)-1]
	if section != nil && *section != top {
		logging.Get(logging.CategoryScratchpad).Warn("end_section mismatch", "expected", top.String(), "got", section.String())
		return
	}

	marker := fmt.Sprintf("===== END %s =====\n", top.String())
	if s.file != nil {
		s.file.WriteString(marker)
	}
	s.sectionStack = s.sectionStack[:len(s.sectionStack)-1]
}

// CloseOpenSections force-closes every still-open section, for graceful
// shutdown (spec.md §8 invariant 6: "or the implementation closes open
// sections on shutdown").
func (s *Scratchpad) CloseOpenSections() {
	for {
		s.mu.Lock()
		if len(s.sectionStack) == 0 {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.EndSection(nil)
	}
}

// LogLastLLMInteraction truncates prompt/response to the configured limits
// and records the outcome for later retrieval (spec.md §4.3).
func (s *Scratchpad) LogLastLLMInteraction(model, prompt, response, summary string, usedFallback bool, callErr error) {
	s.mu.Lock()
	promptMax, responseMax := s.opts.PromptMaxLen, s.opts.ResponseMaxLen
	if promptMax <= 0 {
		promptMax = 4000
	}
	if responseMax <= 0 {
		responseMax = 4000
	}
	s.mu.Unlock()

	status := LLMStatusSuccess
	errText := ""
	if callErr != nil {
		status = LLMStatusError
		errText = callErr.Error()
	} else if usedFallback {
		status = LLMStatusFallbackSuccess
	}

	interaction := &LLMInteraction{
		Model:    model,
		Prompt:   truncate(prompt, promptMax),
		Response: truncate(response, responseMax),
		Summary:  summary,
		Status:   status,
		Error:    errText,
	}

	s.mu.Lock()
	s.lastLLM = interaction
	s.mu.Unlock()
}

// GetLastLLMInteraction returns the most recently recorded LLM interaction,
// or nil if none has been logged yet.
func (s *Scratchpad) GetLastLLMInteraction() *LLMInteraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLLM
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Close closes the active file and releases the directory lock, force
// closing any still-open sections first.
func (s *Scratchpad) Close() error {
	s.CloseOpenSections()

	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.file != nil {
		err = s.file.Close()
	}
	if s.dirLock != nil {
		s.dirLock.Unlock()
	}
	return err
}

// SessionID returns the scratchpad's current session identifier.
func (s *Scratchpad) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// encryptLine XOR-obfuscates a line with secret and base64-encodes it. This
// is documented obfuscation, not cryptographic protection (spec.md §4.3,
// §9 Open Question).
func encryptLine(line, secret string) string {
	if secret == "" {
		return line
	}
	buf := []byte(line)
	key := []byte(secret)
	for i := range buf {
		buf[i] ^= key[i%len(key)]
	}
	return base64.StdEncoding.EncodeToString(buf) + "\n"
}
