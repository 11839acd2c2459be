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

// Package gemini implements the Google generateContent API backend.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/suggest"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"
)

// 🤖 Client wraps the Gemini generateContent endpoint
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// 🏭 New creates a Gemini backend. An empty model selects the default.
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
	return "gemini"
}

// MediaTypeForExtension is uniform for Gemini; file content is sent inline
func (c *Client) MediaTypeForExtension(ext string) string {
	switch ext {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

// 📤 SendPrompt submits one user turn and returns the candidate text
func (c *Client) SendPrompt(ctx context.Context, prompt string) (string, error) {
	payload := request{
		Contents: []requestContent{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Errorf("building request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", suggest.ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		errorBody, _ := io.ReadAll(resp.Body)
		// Gemini reports exhausted daily quota with the same status as a
		// short-term rate limit; the body tells them apart.
		if strings.Contains(strings.ToLower(string(errorBody)), "quota") {
			return "", suggest.ErrQuotaExceeded
		}
		return "", &suggest.RateLimitError{Backend: c.Name(), Wait: time.Minute}
	case resp.StatusCode >= 500:
		return "", suggest.ErrOverloaded
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		errorBody, _ := io.ReadAll(resp.Body)
		return "", errors.Errorf("gemini error: %s - %s", resp.Status, string(errorBody))
	}

	var response apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", errors.Errorf("decoding response: %w", err)
	}
	if len(response.Candidates) == 0 {
		return "", errors.New("gemini empty response")
	}
	var buf bytes.Buffer
	for _, p := range response.Candidates[0].Content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String(), nil
}

type request struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content requestContent `json:"content"`
}
