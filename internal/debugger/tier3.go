package debugger

import (
	"context"
	"fmt"
	"time"

	"wrenchbot/internal/config"
	"wrenchbot/internal/debugctx"
	"wrenchbot/internal/llmfabric"
	"wrenchbot/internal/respparse"
	"wrenchbot/internal/scratchpad"
	"wrenchbot/internal/taxonomy"
	"wrenchbot/internal/types"
)

// StrategicRestart is Tier 3 (C8): chooses and executes code regeneration,
// plan redesign, or request modification.
type StrategicRestart struct {
	FS        types.FileInterface
	Client    types.LLMClient
	Planner   types.PlannerInterface
	CodeGen   types.CodeGeneratorInterface
	Cfg       config.LLMConfig
	SP        *scratchpad.Scratchpad
}

// SelectStrategy implements the selection state machine of spec.md §4.8,
// evaluated against the accumulated history for the current error category.
func SelectStrategy(category taxonomy.ErrorCategory, history []*debugctx.DebugAttempt) taxonomy.RestartStrategy {
	hasRegenerate, hasRedesign := false, false
	for _, attempt := range history {
		if attempt.Phase != taxonomy.PhaseStrategicRestart || attempt.ErrorContext.Category != category {
			continue
		}
		strategyName, _ := attempt.Metadata["restart_strategy"].(string)
		switch strategyName {
		case taxonomy.RestartRegenerateCode.String():
			hasRegenerate = true
		case taxonomy.RestartRedesignPlan.String():
			hasRedesign = true
		}
	}

	strategy := taxonomy.RestartRegenerateCode
	if hasRegenerate {
		strategy = taxonomy.RestartRedesignPlan
	}
	if hasRedesign {
		strategy = taxonomy.RestartModifyRequest
	}

	if strategy == taxonomy.RestartModifyRequest && category.IsImplementationIssue() {
		strategy = taxonomy.RestartRedesignPlan
	}
	if strategy == taxonomy.RestartRegenerateCode && category.IsEnvironmental() {
		strategy = taxonomy.RestartRedesignPlan
	}

	return strategy
}

// Run executes the Tier 3 contract of spec.md §4.8.
func (t *StrategicRestart) Run(ctx context.Context, ec *debugctx.ErrorContext, task string, plan map[string]any, techStack string, history []*debugctx.DebugAttempt) TierResult {
	start := time.Now()
	strategy := SelectStrategy(ec.Category, history)

	var result TierResult
	switch strategy {
	case taxonomy.RestartRegenerateCode:
		result = t.runRegenerateCode(ctx, ec, task, plan, techStack)
	case taxonomy.RestartRedesignPlan:
		result = t.runRedesignPlan(ctx, ec, task, techStack)
	case taxonomy.RestartModifyRequest:
		result = t.runModifyRequest(ctx, ec, task, plan, techStack)
	}

	result.DurationSeconds = time.Since(start).Seconds()
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	result.Metadata["restart_strategy"] = strategy.String()
	return result
}

func (t *StrategicRestart) runRegenerateCode(ctx context.Context, ec *debugctx.ErrorContext, task string, plan map[string]any, techStack string) TierResult {
	annotatedTask := fmt.Sprintf("%s\n\nPrevious error: %s", task, ec.Message)
	success, files, err := t.CodeGen.GenerateCode(ctx, annotatedTask, plan, techStack, 0)
	if err != nil || !success {
		return TierResult{Success: false, Description: "code regeneration failed"}
	}

	for path, content := range files {
		t.FS.WriteFile(path, content)
	}
	return TierResult{Success: true, Description: "regenerated code", Changes: files}
}

func (t *StrategicRestart) runRedesignPlan(ctx context.Context, ec *debugctx.ErrorContext, task, techStack string) TierResult {
	planContext := map[string]any{"error_context": ec.Message}
	success, newPlan, err := t.Planner.GeneratePlan(ctx, task, planContext)
	if err != nil || !success {
		return TierResult{Success: false, Description: "plan redesign failed"}
	}

	codeSuccess, files, err := t.CodeGen.GenerateCode(ctx, task, newPlan, techStack, 0)
	if err != nil || !codeSuccess {
		return TierResult{Success: false, Description: "regeneration under new plan failed"}
	}

	for path, content := range files {
		t.FS.WriteFile(path, content)
	}
	return TierResult{Success: true, Description: "redesigned plan and regenerated code", Changes: files}
}

func (t *StrategicRestart) runModifyRequest(ctx context.Context, ec *debugctx.ErrorContext, task string, plan map[string]any, techStack string) TierResult {
	snapshotTask, snapshotPlan := task, plan

	prompt := fmt.Sprintf(
		"The current task has repeatedly failed with a %s error: %s\n\n"+
			"Respond with JSON: {\"modified_task\": string, \"rationale\": string, \"implementation_steps\": [string]}",
		ec.Category.String(), ec.Message,
	)

	result := llmfabric.CallLLMWithRetry(ctx, t.Client, "generate", map[string]any{"prompt": prompt}, t.Cfg, t.SP, ec.Message)
	if !result.Success {
		return TierResult{Success: false, Description: "modify-request call failed"}
	}

	responseText, _ := result.Response["response"].(string)
	parsed, ok := respparse.ExtractJSONFromResponse(responseText)
	if !ok {
		return TierResult{Success: false, Description: "could not parse modify-request response"}
	}
	modifiedTask, _ := parsed["modified_task"].(string)
	if modifiedTask == "" {
		return TierResult{Success: false, Description: "modify-request response missing modified_task"}
	}

	newPlanCtx := map[string]any{"error_context": ec.Message, "modified_task": modifiedTask}
	planSuccess, newPlan, err := t.Planner.GeneratePlan(ctx, modifiedTask, newPlanCtx)
	if err != nil || !planSuccess {
		return TierResult{Success: false, Description: "replan after request modification failed", Metadata: snapshotMetadata(snapshotTask, snapshotPlan)}
	}

	codeSuccess, files, err := t.CodeGen.GenerateCode(ctx, modifiedTask, newPlan, techStack, 0)
	if err != nil || !codeSuccess {
		return TierResult{Success: false, Description: "regeneration after request modification failed", Metadata: snapshotMetadata(snapshotTask, snapshotPlan)}
	}

	for path, content := range files {
		t.FS.WriteFile(path, content)
	}
	return TierResult{
		Success:     true,
		Description: "modified request and regenerated code",
		Reasoning:   fmt.Sprintf("%v", parsed["rationale"]),
		Changes:     files,
		Metadata:    map[string]any{"modified_task": modifiedTask},
	}
}

func snapshotMetadata(task string, plan map[string]any) map[string]any {
	return map[string]any{"restored_task": task, "restored_plan": plan}
}
