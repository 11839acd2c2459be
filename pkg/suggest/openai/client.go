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

// Package openai implements the chat-completions backend.
package openai

import (
	"context"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/suggest"
)

const defaultModel = "gpt-4o"

// 🤖 Client is the OpenAI chat-completions backend
type Client struct {
	model  string
	client *goopenai.Client
}

// 🏭 New creates an OpenAI backend. An empty model selects the default.
func New(apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		model:  model,
		client: goopenai.NewClient(apiKey),
	}
}

func (c *Client) Name() string {
	return "openai"
}

// MediaTypeForExtension is uniform; chat completions take inline text
func (c *Client) MediaTypeForExtension(ext string) string {
	return "text/plain"
}

// 📤 SendPrompt submits one user message and returns the completion text
func (c *Client) SendPrompt(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", c.classify(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) classify(err error) error {
	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) {
		return errors.Errorf("calling openai: %w", err)
	}
	switch {
	case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
		return suggest.ErrUnauthorized
	case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return suggest.ErrQuotaExceeded
		}
		return &suggest.RateLimitError{Backend: c.Name(), Wait: time.Minute}
	case apiErr.HTTPStatusCode >= 500:
		return suggest.ErrOverloaded
	default:
		return errors.Errorf("openai error: %w", err)
	}
}
