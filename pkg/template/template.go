// Package template renders Go text/template expressions against a task's
// merged input, so agent configuration can reference dependency outputs.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// RenderTaskInput renders the template string against the task's merged
// input, exposing dependency outputs under .input and the process
// environment under .env.
func RenderTaskInput(templateStr string, input map[string]any) (any, error) {
	data := map[string]any{
		"input": input,
		"env":   envVars(),
	}

	return Render(templateStr, data)
}

// Render executes the template and coerces the textual result back into a
// structured value: JSON objects and arrays are decoded, then numbers, then
// booleans, otherwise the raw string is returned.
func Render(templateStr string, data any) (any, error) {
	rendered, err := RenderString(templateStr, data)
	if err != nil {
		return nil, err
	}

	result := strings.TrimSpace(rendered)

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString executes the template and returns the textual result without
// any coercion, for URLs, headers, and request bodies where the caller wants
// the string exactly as rendered.
func RenderString(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"json": func(v any) string {
				body, err := json.Marshal(v)
				if err != nil {
					return ""
				}

				return string(body)
			},
		}).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	return buf.String(), nil
}

func envVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
