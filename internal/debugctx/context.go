// Package debugctx defines the data model shared by the debugging engine's
// tiers and orchestrator: ErrorContext, DebugAttempt, and the similar-error
// predicate (spec.md §3, §4.2).
package debugctx

import (
	"time"

	"wrenchbot/internal/taxonomy"
)

// TestFailureInfo carries the optional test-failure metadata schema from
// spec.md §6, promoted out of the free-form metadata map into a typed
// struct per spec.md §9's re-architecture hint ("a tagged variant for
// test-failure metadata plus a small open-ended string map for extension
// points").
type TestFailureInfo struct {
	TestName         string         `json:"test_name,omitempty"`
	TestFile         string         `json:"test_file,omitempty"`
	TestClass        string         `json:"test_class,omitempty"`
	LineNumber       int            `json:"line_number,omitempty"`
	Expected         string         `json:"expected,omitempty"`
	Actual           string         `json:"actual,omitempty"`
	Assertion        string         `json:"assertion,omitempty"`
	Traceback        string         `json:"traceback,omitempty"`
	FailureCategory  string         `json:"failure_category,omitempty"`
	PossibleBadTest  bool           `json:"possible_bad_test,omitempty"`
	Variables        map[string]any `json:"variables,omitempty"`
	FailureInfo      any            `json:"failure_info,omitempty"`
}

// ErrorContext is owned by the orchestrator for the lifetime of one error
// episode (spec.md §3).
type ErrorContext struct {
	Message   string               `json:"message"`
	Traceback string               `json:"traceback"`
	Category  taxonomy.ErrorCategory `json:"category"`

	FilePath     string `json:"file_path,omitempty"`
	LineNumber   *int   `json:"line_number,omitempty"`
	FunctionName string `json:"function_name,omitempty"`
	CodeSnippet  string `json:"code_snippet,omitempty"`

	Variables   map[string]string `json:"variables,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
	AttemptNumber int             `json:"attempt_number"`

	TestFailure *TestFailureInfo `json:"test_failure,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// NewErrorContext builds a context with AttemptNumber=1 and OccurredAt=now,
// matching the invariant in spec.md §3.
func NewErrorContext(message, traceback string, category taxonomy.ErrorCategory) *ErrorContext {
	return &ErrorContext{
		Message:       message,
		Traceback:     traceback,
		Category:      category,
		Variables:     make(map[string]string),
		OccurredAt:    time.Now(),
		AttemptNumber: 1,
		Metadata:      make(map[string]any),
	}
}

// PossibleBadTest reports the orchestrator's invariant trigger: when set,
// Tier 1 must be skipped (spec.md §3 invariant).
func (e *ErrorContext) PossibleBadTest() bool {
	return e.TestFailure != nil && e.TestFailure.PossibleBadTest
}

// ToMap renders the context as a plain map for round-trip serialization
// (spec.md §8 invariant 5) and for scratchpad/JSON logging.
func (e *ErrorContext) ToMap() map[string]any {
	m := map[string]any{
		"message":        e.Message,
		"traceback":      e.Traceback,
		"category":       e.Category.String(),
		"occurred_at":    e.OccurredAt.Format(time.RFC3339Nano),
		"attempt_number": e.AttemptNumber,
	}
	if e.FilePath != "" {
		m["file_path"] = e.FilePath
	}
	if e.LineNumber != nil {
		m["line_number"] = *e.LineNumber
	}
	if e.FunctionName != "" {
		m["function_name"] = e.FunctionName
	}
	if e.CodeSnippet != "" {
		m["code_snippet"] = e.CodeSnippet
	}
	if len(e.Variables) > 0 {
		vars := make(map[string]any, len(e.Variables))
		for k, v := range e.Variables {
			vars[k] = v
		}
		m["variables"] = vars
	}
	if e.Metadata != nil {
		m["metadata"] = e.Metadata
	}
	if e.TestFailure != nil {
		m["test_failure"] = e.TestFailure
	}
	return m
}

// FromMap reconstructs an ErrorContext from ToMap's output. Together they
// satisfy spec.md §8 invariant 5 (round-trip identity).
func FromMap(m map[string]any) *ErrorContext {
	e := &ErrorContext{
		Variables: make(map[string]string),
		Metadata:  make(map[string]any),
	}
	if v, ok := m["message"].(string); ok {
		e.Message = v
	}
	if v, ok := m["traceback"].(string); ok {
		e.Traceback = v
	}
	if v, ok := m["category"].(string); ok {
		e.Category = taxonomy.CategoryFromString(v)
	}
	if v, ok := m["occurred_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			e.OccurredAt = t
		}
	}
	if v, ok := m["attempt_number"].(int); ok {
		e.AttemptNumber = v
	}
	if v, ok := m["file_path"].(string); ok {
		e.FilePath = v
	}
	if v, ok := m["line_number"].(int); ok {
		e.LineNumber = &v
	}
	if v, ok := m["function_name"].(string); ok {
		e.FunctionName = v
	}
	if v, ok := m["code_snippet"].(string); ok {
		e.CodeSnippet = v
	}
	if v, ok := m["variables"].(map[string]any); ok {
		for k, val := range v {
			if s, ok := val.(string); ok {
				e.Variables[k] = s
			}
		}
	}
	if v, ok := m["metadata"].(map[string]any); ok {
		e.Metadata = v
	}
	if v, ok := m["test_failure"].(*TestFailureInfo); ok {
		e.TestFailure = v
	}
	return e
}

// DebugAttempt is appended once per orchestrator decision and is immutable
// thereafter (spec.md §3).
type DebugAttempt struct {
	ErrorContext     ErrorContext              `json:"error_context"`
	Phase            taxonomy.DebuggingPhase   `json:"phase"`
	FixDescription   string                    `json:"fix_description"`
	Reasoning        string                    `json:"reasoning"`
	CodeChanges      map[string]string         `json:"code_changes,omitempty"`
	Success          bool                      `json:"success"`
	DurationSeconds  float64                   `json:"duration_seconds"`
	Metadata         map[string]any            `json:"metadata,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
}

// ToMap renders the attempt as a plain map (spec.md §8 invariant 5).
func (d *DebugAttempt) ToMap() map[string]any {
	m := map[string]any{
		"error_context":    d.ErrorContext.ToMap(),
		"phase":            d.Phase.String(),
		"fix_description":  d.FixDescription,
		"reasoning":        d.Reasoning,
		"success":          d.Success,
		"duration_seconds": d.DurationSeconds,
		"timestamp":        d.Timestamp.Format(time.RFC3339Nano),
	}
	if len(d.CodeChanges) > 0 {
		changes := make(map[string]any, len(d.CodeChanges))
		for k, v := range d.CodeChanges {
			changes[k] = v
		}
		m["code_changes"] = changes
	}
	if d.Metadata != nil {
		m["metadata"] = d.Metadata
	}
	return m
}

var phaseByName = map[string]taxonomy.DebuggingPhase{
	"Analysis":         taxonomy.PhaseAnalysis,
	"QuickFix":         taxonomy.PhaseQuickFix,
	"FullDebug":        taxonomy.PhaseFullDebug,
	"StrategicRestart": taxonomy.PhaseStrategicRestart,
}

// DebugAttemptFromMap reconstructs a DebugAttempt from ToMap's output.
func DebugAttemptFromMap(m map[string]any) *DebugAttempt {
	d := &DebugAttempt{}
	if ec, ok := m["error_context"].(map[string]any); ok {
		d.ErrorContext = *FromMap(ec)
	}
	if v, ok := m["phase"].(string); ok {
		d.Phase = phaseByName[v]
	}
	if v, ok := m["fix_description"].(string); ok {
		d.FixDescription = v
	}
	if v, ok := m["reasoning"].(string); ok {
		d.Reasoning = v
	}
	if v, ok := m["success"].(bool); ok {
		d.Success = v
	}
	if v, ok := m["duration_seconds"].(float64); ok {
		d.DurationSeconds = v
	}
	if v, ok := m["timestamp"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			d.Timestamp = t
		}
	}
	if v, ok := m["code_changes"].(map[string]any); ok {
		d.CodeChanges = make(map[string]string, len(v))
		for k, val := range v {
			if s, ok := val.(string); ok {
				d.CodeChanges[k] = s
			}
		}
	}
	if v, ok := m["metadata"].(map[string]any); ok {
		d.Metadata = v
	}
	return d
}

// similarityMessageThreshold is the fixed Ratcliff/Obershelp cutoff from
// spec.md §4.2.
const similarityMessageThreshold = 0.70

// similarityLineDelta is the fixed line-number window from spec.md §4.2.
const similarityLineDelta = 5

// Similar implements the two-ErrorContext similarity predicate of spec.md
// §4.2: equal categories, equal (present) file paths, line numbers within 5
// when both present, and message similarity strictly above 0.70.
func Similar(a, b *ErrorContext) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Category != b.Category {
		return false
	}
	if a.FilePath == "" || b.FilePath == "" || a.FilePath != b.FilePath {
		return false
	}
	if a.LineNumber != nil && b.LineNumber != nil {
		delta := *a.LineNumber - *b.LineNumber
		if delta < 0 {
			delta = -delta
		}
		if delta > similarityLineDelta {
			return false
		}
	}
	return taxonomy.RatcliffObershelp(a.Message, b.Message) > similarityMessageThreshold
}
