// Copyright 2025 the codedriver authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package anthropic implements the Anthropic Messages API backend.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/suggest"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultVersion = "2023-06-01"
	defaultModel   = "claude-sonnet-4-5"

	maxResponseTokens = 8192
)

// mediaTypes the Messages API accepts for file content blocks
var mediaTypes = map[string]string{
	".py":   "text/x-python",
	".js":   "application/javascript",
	".ts":   "text/plain",
	".jsx":  "application/javascript",
	".tsx":  "text/plain",
	".java": "text/x-java",
	".cpp":  "text/x-c++src",
	".h":    "text/x-c++src",
	".cs":   "text/plain",
	".go":   "text/x-go",
	".rb":   "text/x-ruby",
	".rs":   "text/x-rust",
	".json": "application/json",
	".yaml": "application/x-yaml",
	".yml":  "application/x-yaml",
	".md":   "text/markdown",
	".html": "text/html",
	".css":  "text/css",
	".xml":  "text/xml",
	"":      "text/plain",
}

// 🤖 Client is the Anthropic Messages API backend
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// 🏭 New creates an Anthropic backend. An empty model selects the default.
func New(apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) Name() string {
	return "anthropic"
}

func (c *Client) MediaTypeForExtension(ext string) string {
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return mediaTypes[""]
}

// 📤 SendPrompt submits one user message and returns the text reply
func (c *Client) SendPrompt(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": maxResponseTokens,
		"messages": []message{
			{Role: "user", Content: []content{{Type: "text", Text: prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Errorf("encoding request: %w", err)
	}

	respBody, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}

	var response apiResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", errors.Errorf("decoding response: %w", err)
	}
	text := extractText(response.Content)
	if text == "" {
		return "", errors.New("anthropic empty response")
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Errorf("building request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", defaultVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Errorf("calling anthropic: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, suggest.ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &suggest.RateLimitError{Backend: c.Name(), Wait: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return nil, suggest.ErrOverloaded
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, errors.Errorf("anthropic error: %s - %s", resp.Status, string(errorBody))
	}
	return io.ReadAll(resp.Body)
}

func retryAfter(resp *http.Response) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("retry-after")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Minute
}

type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	Content []content `json:"content"`
}

func extractText(contents []content) string {
	var buf bytes.Buffer
	for _, item := range contents {
		if item.Type == "text" {
			buf.WriteString(item.Text)
		}
	}
	return buf.String()
}
