package llmfabric

import (
	"context"
	"fmt"
	"math"
	"time"

	"wrenchbot/internal/config"
	"wrenchbot/internal/logging"
	"wrenchbot/internal/scratchpad"
	"wrenchbot/internal/types"
)

// Result is the discriminated outcome of CallLLMWithRetry (spec.md §4.4).
type Result struct {
	Success    bool
	Response   map[string]any
	Cached     bool
	UsedFallback bool
	Error      string
	Details    map[string]any
}

const fallbackPromptTemplate = "Previous attempt failed: %s\n\n"

// CallLLMWithRetry is C4's single central operation. It resolves nothing by
// reflection: methodName is forwarded to the client's own dispatch, and a
// client that does not recognise it must return a NonTransientError.
func CallLLMWithRetry(ctx context.Context, client types.LLMClient, methodName string, promptData map[string]any, cfg config.LLMConfig, sp *scratchpad.Scratchpad, summary string) Result {
	log := logging.Get(logging.CategoryLLM)

	timeout := cfg.DefaultTimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	maxAttempts := cfg.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := cfg.InitialBackoffSeconds
	if backoff <= 0 {
		backoff = 1
	}
	factor := cfg.BackoffFactor
	if factor <= 0 {
		factor = 2.0
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		callData := shallowCopyWithTimeout(promptData, timeout)

		response, err := client.Call(ctx, methodName, callData)
		if err == nil {
			logInteraction(sp, methodName, callData, response, false, nil)
			return Result{Success: true, Response: response}
		}

		lastErr = err
		log.Warn("llm call failed", "attempt", attempt, "error", err.Error())

		if !IsRetryable(err) {
			logInteraction(sp, methodName, callData, nil, false, err)
			return Result{Success: false, Error: err.Error(), Details: map[string]any{"retryable": false}}
		}

		if attempt < maxAttempts-1 {
			sleep(ctx, backoffDuration(backoff, factor, attempt))
		}
	}

	if cfg.FallbackStrategy == "retry_simplified" {
		simplified := simplifyPrompt(promptData, summary)
		callData := shallowCopyWithTimeout(simplified, timeout)
		response, err := client.Call(ctx, methodName, callData)
		if err == nil {
			logInteraction(sp, methodName, callData, response, true, nil)
			return Result{Success: true, Response: response, UsedFallback: true}
		}
		lastErr = err
	}

	logInteraction(sp, methodName, promptData, nil, false, lastErr)
	return Result{
		Success: false,
		Error:   lastErr.Error(),
		Details: map[string]any{"retries_exhausted": true},
	}
}

func shallowCopyWithTimeout(promptData map[string]any, timeoutSeconds float64) map[string]any {
	out := make(map[string]any, len(promptData)+1)
	for k, v := range promptData {
		out[k] = v
	}
	out["timeout"] = timeoutSeconds
	return out
}

func simplifyPrompt(promptData map[string]any, summary string) map[string]any {
	out := make(map[string]any, len(promptData))
	for k, v := range promptData {
		out[k] = v
	}
	if prompt, ok := out["prompt"].(string); ok {
		out["prompt"] = fmt.Sprintf(fallbackPromptTemplate, summary) + prompt
	}
	return out
}

func backoffDuration(initial, factor float64, attempt int) time.Duration {
	seconds := initial * math.Pow(factor, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func logInteraction(sp *scratchpad.Scratchpad, model string, promptData map[string]any, response map[string]any, usedFallback bool, err error) {
	if sp == nil {
		return
	}
	prompt := fmt.Sprintf("%v", promptData["prompt"])
	respText := ""
	if response != nil {
		respText = fmt.Sprintf("%v", response["response"])
	}
	sp.LogLastLLMInteraction(model, prompt, respText, "", usedFallback, err)
}
