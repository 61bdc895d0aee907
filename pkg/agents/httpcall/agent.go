// Package httpcall provides an agent that performs HTTP requests. URL,
// headers, and body support templating against the merged task input, so a
// step can call an endpoint derived from its dependencies' outputs.
package httpcall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/troupe-dev/troupe/pkg/models"
	"github.com/troupe-dev/troupe/pkg/template"
)

const defaultTimeoutSeconds = 30

var ErrURLRequired = errors.New("http call requires a 'url' input")

// RetryConfig defines retry behavior for failed requests.
type RetryConfig struct {
	Attempts int
	DelayMs  int
}

// Agent performs one HTTP request per task.
type Agent struct {
	client *http.Client
}

func NewAgent(config map[string]any) (*Agent, error) {
	timeout := defaultTimeoutSeconds * time.Second

	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Agent{
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (a *Agent) ExecuteTask(ctx context.Context, task models.AgentTask, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "httpcall_agent")

	rawURL, _ := task.Input["url"].(string)
	if rawURL == "" {
		return nil, ErrURLRequired
	}

	method, _ := task.Input["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)

	templateData := map[string]any{"input": task.Input}

	url, err := template.RenderString(rawURL, templateData)
	if err != nil {
		return nil, fmt.Errorf("failed to render url: %w", err)
	}

	body, err := a.renderBody(task.Input, templateData)
	if err != nil {
		return nil, err
	}

	headers, err := a.renderHeaders(task.Input, templateData)
	if err != nil {
		return nil, err
	}

	retry := parseRetryConfig(task.Input["retry"])

	logger.InfoContext(ctx, "Executing HTTP call", "method", method, "url", url, "attempts", retry.Attempts)

	resp, err := a.doWithRetry(ctx, method, url, headers, body, retry, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.WarnContext(ctx, "Failed to close response body", "error", err)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var responseBody any
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		responseBody = string(bodyBytes)
	}

	logger.InfoContext(ctx, "HTTP call completed", "status_code", resp.StatusCode, "body_length", len(bodyBytes))

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        responseBody,
		"headers":     flattenHeaders(resp.Header),
	}, nil
}

func (a *Agent) doWithRetry(
	ctx context.Context,
	method, url string,
	headers map[string]string,
	body string,
	retry RetryConfig,
	logger *slog.Logger,
) (*http.Response, error) {
	var (
		lastErr error
		resp    *http.Response
	)

	for attempt := 1; attempt <= retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying HTTP call", "attempt", attempt, "max_attempts", retry.Attempts)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retry.DelayMs) * time.Millisecond):
			}
		}

		var bodyReader io.Reader
		if body != "" {
			bodyReader = strings.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create http request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err = a.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)

			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < retry.Attempts {
			if err := resp.Body.Close(); err != nil {
				logger.WarnContext(ctx, "Failed to close response body", "error", err)
			}

			lastErr = fmt.Errorf("server error (status %d)", resp.StatusCode)
			resp = nil

			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("all attempts failed, last error: %w", lastErr)
}

func (a *Agent) renderBody(input map[string]any, templateData map[string]any) (string, error) {
	raw, _ := input["body"].(string)
	if raw == "" {
		return "", nil
	}

	body, err := template.RenderString(raw, templateData)
	if err != nil {
		return "", fmt.Errorf("failed to render body: %w", err)
	}

	return body, nil
}

func (a *Agent) renderHeaders(input map[string]any, templateData map[string]any) (map[string]string, error) {
	headers := make(map[string]string)

	headersConfig, exists := input["headers"]
	if !exists {
		return headers, nil
	}

	headersMap, ok := headersConfig.(map[string]any)
	if !ok {
		return headers, nil
	}

	for key, value := range headersMap {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		rendered, err := template.RenderString(raw, templateData)
		if err != nil {
			return nil, fmt.Errorf("failed to render header %q: %w", key, err)
		}

		headers[key] = rendered
	}

	return headers, nil
}

func parseRetryConfig(raw any) RetryConfig {
	retry := RetryConfig{Attempts: 1, DelayMs: 0}

	retryMap, ok := raw.(map[string]any)
	if !ok {
		return retry
	}

	if attempts, ok := retryMap["attempts"].(float64); ok && attempts >= 1 {
		retry.Attempts = int(attempts)
	}

	if delay, ok := retryMap["delay_ms"].(float64); ok && delay >= 0 {
		retry.DelayMs = int(delay)
	}

	return retry
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))

	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}
