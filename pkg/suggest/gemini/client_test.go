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

package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/suggest"
)

// 🧪 testClient points a client at a stub generateContent endpoint
func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test-key", "")
	c.baseURL = srv.URL
	return c
}

func TestSendPrompt(t *testing.T) {
	var gotPath, gotKey string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"answer"}]}}]}`))
	})

	text, err := c.SendPrompt(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
	assert.Equal(t, "/v1beta/models/"+defaultModel+":generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey, "the key travels as a query parameter")
}

func TestSendPromptQuotaVsRateLimit(t *testing.T) {
	quota := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Quota exceeded for quota metric"}}`))
	})
	_, err := quota.SendPrompt(context.Background(), "p")
	assert.ErrorIs(t, err, suggest.ErrQuotaExceeded)

	limited := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Resource has been exhausted"}}`))
	})
	_, err = limited.SendPrompt(context.Background(), "p")
	var rl *suggest.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, "gemini", rl.Backend)
	assert.Equal(t, time.Minute, rl.Wait)
}

func TestSendPromptErrorMapping(t *testing.T) {
	unauthorized := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := unauthorized.SendPrompt(context.Background(), "p")
	assert.ErrorIs(t, err, suggest.ErrUnauthorized)

	overloaded := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err = overloaded.SendPrompt(context.Background(), "p")
	assert.ErrorIs(t, err, suggest.ErrOverloaded)
}

func TestSendPromptEmptyCandidates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})
	_, err := c.SendPrompt(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestMediaTypeForExtension(t *testing.T) {
	c := New("k", "")
	assert.Equal(t, "application/json", c.MediaTypeForExtension(".json"))
	assert.Equal(t, "text/markdown", c.MediaTypeForExtension(".md"))
	assert.Equal(t, "text/plain", c.MediaTypeForExtension(".go"))
}
