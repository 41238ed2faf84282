package llmfabric

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SupabaseConfig names the optional remote transport of spec.md §4.4.
type SupabaseConfig struct {
	BaseURL      string
	FunctionName string
	OAuthToken   string
	HTTPClient   *http.Client
}

// CallLLMViaSupabase POSTs payload to {base_url}/functions/v1/{function_name}
// with an Authorization header when a token is configured, and returns the
// decoded JSON response. A 5xx or 429 status is surfaced as a TransientError
// and any other 4xx status as a NonTransientError (callers that want retry
// semantics wrap this in CallLLMWithRetry).
func CallLLMViaSupabase(cfg SupabaseConfig, payload map[string]any) (map[string]any, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &NonTransientError{Cause: fmt.Errorf("encode payload: %w", err)}
	}

	url := fmt.Sprintf("%s/functions/v1/%s", cfg.BaseURL, cfg.FunctionName)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &NonTransientError{Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.OAuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.OAuthToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransientError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Cause: err}
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &TransientError{Cause: fmt.Errorf("supabase function returned %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode >= 400 {
		return nil, &NonTransientError{Cause: fmt.Errorf("supabase function returned %d: %s", resp.StatusCode, respBody)}
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &NonTransientError{Cause: fmt.Errorf("decode response: %w", err)}
	}
	return result, nil
}
