package scratchpad

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// sessionPartPattern matches scratchpad_<session>_part<N>.log, the file
// naming grammar spec.md §4.3 requires cleanup and rotation to parse.
var sessionPartPattern = regexp.MustCompile(`^scratchpad_(.+)_part(\d+)\.log$`)

// checkRotation rolls the active file over to a new part when it exceeds
// MaxFileSizeMB. Must be called with s.mu held.
func (s *Scratchpad) checkRotation() {
	if s.file == nil {
		return
	}
	info, err := s.file.Stat()
	if err != nil {
		return
	}
	limit := int64(s.opts.MaxFileSizeMB) * 1024 * 1024
	if info.Size() < limit {
		return
	}

	s.file.Close()
	s.partNum++
	if err := s.openPart(); err != nil {
		fmt.Fprintf(os.Stderr, "[scratchpad] rotation failed: %v\n", err)
	}
}

// sessionFiles groups every scratchpad_*_part*.log file in dir by session ID.
func sessionFiles(dir string) (map[string][]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]os.DirEntry{}, nil
		}
		return nil, err
	}

	bySession := make(map[string][]os.DirEntry)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := sessionPartPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		session := m[1]
		bySession[session] = append(bySession[session], entry)
	}
	return bySession, nil
}

// CleanupOldSessions deletes every file belonging to the oldest sessions
// once more than maxSessions are present on disk, as required on scratchpad
// startup by spec.md §4.3. Sessions are ordered by their embedded timestamp
// prefix, which sorts lexicographically in chronological order.
func CleanupOldSessions(dir string, maxSessions int) error {
	bySession, err := sessionFiles(dir)
	if err != nil {
		return fmt.Errorf("scratchpad: list sessions: %w", err)
	}
	if len(bySession) <= maxSessions {
		return nil
	}

	sessions := make([]string, 0, len(bySession))
	for session := range bySession {
		sessions = append(sessions, session)
	}
	sort.Strings(sessions)

	toRemove := sessions[:len(sessions)-maxSessions]
	var firstErr error
	for _, session := range toRemove {
		for _, entry := range bySession[session] {
			path, pathErr := safeLogPath(dir, filepath.Join(dir, entry.Name()))
			if pathErr != nil {
				if firstErr == nil {
					firstErr = pathErr
				}
				continue
			}
			if removeErr := os.Remove(path); removeErr != nil && firstErr == nil {
				firstErr = removeErr
			}
		}
	}
	return firstErr
}
