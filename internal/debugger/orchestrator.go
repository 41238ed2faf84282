package debugger

import (
	"context"
	"sync"
	"time"

	"wrenchbot/internal/config"
	"wrenchbot/internal/debugctx"
	"wrenchbot/internal/logging"
	"wrenchbot/internal/scratchpad"
	"wrenchbot/internal/taxonomy"
	"wrenchbot/internal/types"
)

// Severity is the derived urgency bucket returned by AnalyzeError.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// FixApproach is the derived remediation category returned by AnalyzeError.
type FixApproach string

const (
	FixApproachCode        FixApproach = "code_fix"
	FixApproachEnvironment FixApproach = "environment_fix"
	FixApproachUnknown     FixApproach = "unknown"
)

// Orchestrator is C9: owns the episode state and picks tiers (spec.md §4.9).
type Orchestrator struct {
	mu sync.Mutex

	cfg *config.Config
	sp  *scratchpad.Scratchpad

	quickFix  *QuickFix
	fullDebug *FullDebug
	restart   *StrategicRestart

	currentError *debugctx.ErrorContext

	generatorAttempts int
	debuggerAttempts  int
	restartAttempts   int

	history []*debugctx.DebugAttempt

	store *taxonomy.PatternStore
}

// NewOrchestrator wires the three tiers and the persistent pattern store
// behind the public handle_error/analyze_error facade.
func NewOrchestrator(cfg *config.Config, sp *scratchpad.Scratchpad, store *taxonomy.PatternStore, fs types.FileInterface, client types.LLMClient, planner types.PlannerInterface, codeGen types.CodeGeneratorInterface) *Orchestrator {
	return &Orchestrator{
		cfg:   cfg,
		sp:    sp,
		store: store,
		quickFix:  &QuickFix{FS: fs, Client: client, Cfg: cfg.LLM, SP: sp},
		fullDebug: &FullDebug{FS: fs, Client: client, Cfg: cfg.LLM, SP: sp},
		restart:   &StrategicRestart{FS: fs, Client: client, Planner: planner, CodeGen: codeGen, Cfg: cfg.LLM, SP: sp},
	}
}

// HandleErrorInput carries the raw failure data of spec.md §4.9's
// handle_error signature.
type HandleErrorInput struct {
	Message      string
	Traceback    string
	FilePath     string
	LineNumber   *int
	FunctionName string
	CodeSnippet  string
	Variables    map[string]string
	Metadata     map[string]any

	// Restart-only fields, forwarded to Tier 3 when reached.
	Task      string
	Plan      map[string]any
	TechStack string
}

// HandleError is the public operation of spec.md §4.9.
func (o *Orchestrator) HandleError(ctx context.Context, in HandleErrorInput) (result TierResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			result = TierResult{Success: false, Description: "internal panic recovered"}
		}
	}()

	log := logging.Get(logging.CategoryDebugger)

	category := taxonomy.Classify(in.Message, in.Traceback, o.store)
	ec := debugctx.NewErrorContext(in.Message, in.Traceback, category)
	ec.FilePath = in.FilePath
	ec.LineNumber = in.LineNumber
	ec.FunctionName = in.FunctionName
	ec.CodeSnippet = in.CodeSnippet
	if in.Variables != nil {
		ec.Variables = in.Variables
	}
	if in.Metadata != nil {
		ec.Metadata = in.Metadata
	}
	ec.TestFailure = extractTestFailure(in.Metadata)

	if o.sp != nil {
		errSection := scratchpad.SectionError
		o.sp.StartSection(errSection)
		defer o.sp.EndSection(&errSection)
	}

	if ec.PossibleBadTest() {
		log.Warn("possible bad test detected, skipping Tier 1", "message", in.Message)
		return o.handleBadTestBranch(ctx, ec, in)
	}

	if o.currentError != nil && debugctx.Similar(o.currentError, ec) {
		ec.AttemptNumber = o.currentError.AttemptNumber + 1
	} else {
		o.resetCounters()
	}
	o.currentError = ec

	result, phase := o.selectAndRun(ctx, ec, in)
	if phase == nil {
		return TierResult{Success: false, Description: "exhausted"}
	}

	o.recordAttempt(ec, *phase, result)

	if result.Success {
		o.currentError = nil
		o.resetCounters()
	}

	return result
}

func (o *Orchestrator) handleBadTestBranch(ctx context.Context, ec *debugctx.ErrorContext, in HandleErrorInput) TierResult {
	maxDebugger := o.maxDebuggerAttempts()
	var result TierResult
	var phase taxonomy.DebuggingPhase

	if o.debuggerAttempts < maxDebugger {
		o.debuggerAttempts++
		phase = taxonomy.PhaseFullDebug
		result = o.fullDebug.Run(ctx, ec)
	} else {
		o.restartAttempts++
		phase = taxonomy.PhaseStrategicRestart
		result = o.restart.Run(ctx, ec, in.Task, in.Plan, in.TechStack, o.history)
	}

	o.recordAttempt(ec, phase, result)
	if result.Success {
		o.currentError = nil
		o.resetCounters()
	}
	return result
}

func (o *Orchestrator) selectAndRun(ctx context.Context, ec *debugctx.ErrorContext, in HandleErrorInput) (TierResult, *taxonomy.DebuggingPhase) {
	maxGenerator := o.maxGeneratorAttempts()
	maxDebugger := o.maxDebuggerAttempts()
	maxRestart := o.maxRestartAttempts()

	if o.generatorAttempts < maxGenerator {
		o.generatorAttempts++
		phase := taxonomy.PhaseQuickFix
		return o.quickFix.Run(ctx, ec), &phase
	}
	if o.debuggerAttempts < maxDebugger {
		o.debuggerAttempts++
		phase := taxonomy.PhaseFullDebug
		return o.fullDebug.Run(ctx, ec), &phase
	}
	if o.restartAttempts < maxRestart {
		o.restartAttempts++
		phase := taxonomy.PhaseStrategicRestart
		return o.restart.Run(ctx, ec, in.Task, in.Plan, in.TechStack, o.history), &phase
	}
	return TierResult{Success: false, Description: "exhausted"}, nil
}

func (o *Orchestrator) recordAttempt(ec *debugctx.ErrorContext, phase taxonomy.DebuggingPhase, result TierResult) {
	metadata := result.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	attempt := &debugctx.DebugAttempt{
		ErrorContext:    *ec,
		Phase:           phase,
		FixDescription:  result.Description,
		Reasoning:       result.Reasoning,
		CodeChanges:     result.Changes,
		Success:         result.Success,
		DurationSeconds: result.DurationSeconds,
		Metadata:        metadata,
		Timestamp:       time.Now(),
	}
	o.history = append(o.history, attempt)

	if result.Success {
		o.store.Update(ec.Message, ec.Category.String())
	}
}

func (o *Orchestrator) resetCounters() {
	o.generatorAttempts = 0
	o.debuggerAttempts = 0
	o.restartAttempts = 0
}

func (o *Orchestrator) maxGeneratorAttempts() int {
	if o.cfg.Tiers.MaxQuickFixAttempts > 0 {
		return o.cfg.Tiers.MaxQuickFixAttempts
	}
	return config.DefaultMaxGeneratorAttempts
}

func (o *Orchestrator) maxDebuggerAttempts() int {
	if o.cfg.Tiers.MaxFullDebugAttempts > 0 {
		return o.cfg.Tiers.MaxFullDebugAttempts
	}
	return config.DefaultMaxDebuggerAttempts
}

func (o *Orchestrator) maxRestartAttempts() int {
	if o.cfg.Tiers.MaxRestartAttempts > 0 {
		return o.cfg.Tiers.MaxRestartAttempts
	}
	return config.DefaultMaxRestartAttempts
}

func extractTestFailure(metadata map[string]any) *debugctx.TestFailureInfo {
	if metadata == nil {
		return nil
	}
	raw, ok := metadata["test_failure"].(map[string]any)
	if !ok {
		return nil
	}

	info := &debugctx.TestFailureInfo{}
	if v, ok := raw["test_name"].(string); ok {
		info.TestName = v
	}
	if v, ok := raw["test_file"].(string); ok {
		info.TestFile = v
	}
	if v, ok := raw["expected"].(string); ok {
		info.Expected = v
	}
	if v, ok := raw["actual"].(string); ok {
		info.Actual = v
	}
	if v, ok := raw["failure_category"].(string); ok {
		info.FailureCategory = v
	}
	if v, ok := raw["possible_bad_test"].(bool); ok {
		info.PossibleBadTest = v
	}
	if v, ok := raw["failure_info"]; ok {
		info.FailureInfo = v
	}
	return info
}
