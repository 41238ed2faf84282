// Package scratchpad implements the structured Chain-of-Thought scratchpad:
// an append-only categorised log with sections, session rotation/cleanup,
// and relevance-scored context extraction (spec.md §4.3). Grounded on the
// teacher's internal/logging/logger.go rotation-by-size discipline,
// generalized into an explicit section-stack state machine.
package scratchpad

import (
	"fmt"
	"time"
)

// Level is a LogEntry's severity (spec.md §3).
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = [...]string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

func (l Level) String() string {
	if int(l) >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// Section names a logical region of the scratchpad log (spec.md §3, §4.3).
type Section int

const (
	SectionPlanning Section = iota
	SectionGeneration
	SectionDebugging
	SectionTesting
	SectionAnalysis
	SectionImplementation
	SectionError
	SectionReasoning
	SectionDecision
	SectionMetadata
	SectionUserInteraction
)

var sectionNames = [...]string{
	"Planning", "Generation", "Debugging", "Testing", "Analysis",
	"Implementation", "Error", "Reasoning", "Decision", "Metadata",
	"UserInteraction",
}

func (s Section) String() string {
	if int(s) >= 0 && int(s) < len(sectionNames) {
		return sectionNames[s]
	}
	return "Metadata"
}

// LogEntry is one scratchpad record (spec.md §3).
type LogEntry struct {
	Timestamp time.Time
	Role      string
	Level     Level
	Section   *Section
	Message   string
	Metadata  map[string]any
	Tags      []string
}

// formatHeader renders the entry's header line per spec.md §6:
// "[role • timestamp • LEVEL] [SECTION] #tag…".
func (e *LogEntry) formatHeader() string {
	header := fmt.Sprintf("[%s • %s • %s]", e.Role, e.Timestamp.Format(time.RFC3339), e.Level.String())
	if e.Section != nil {
		header += fmt.Sprintf(" [%s]", e.Section.String())
	}
	for _, tag := range e.Tags {
		header += " #" + tag
	}
	return header
}
