package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowsage/workflow-registry/pkg/versioning"
)

// httpEngine talks to the external workflow execution engine over its REST
// API. It satisfies versioning.ExecutionEngine.
type httpEngine struct {
	baseURL string
	http    *http.Client
}

func newHTTPEngine(baseURL string) *httpEngine {
	return &httpEngine{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CountRunningExecutions queries the engine for in-flight executions.
func (e *httpEngine) CountRunningExecutions(ctx context.Context, workflowID string) (int, error) {
	url := fmt.Sprintf("%s/workflows/%s/executions/running/count", e.baseURL, workflowID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := e.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("engine returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode engine response: %w", err)
	}
	return out.Count, nil
}

// SetActiveDefinition pushes the definition the engine should serve to
// subsequently started executions.
func (e *httpEngine) SetActiveDefinition(ctx context.Context, workflowID string, def versioning.Definition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode definition: %w", err)
	}
	url := fmt.Sprintf("%s/workflows/%s/definition", e.baseURL, workflowID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("engine returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
