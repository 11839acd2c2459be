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

package registry_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedriver/codedriver/pkg/suggest/registry"
)

func TestOpenCreatesMissingRegistry(t *testing.T) {
	dir := t.TempDir()

	r, err := registry.Open(dir)
	require.NoError(t, err)
	assert.Empty(t, r.Current())
	assert.FileExists(t, filepath.Join(dir, "llms_registry.json"), "an empty registry is written eagerly")
}

func TestSwitchPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	r, err := registry.Open(dir)
	require.NoError(t, err)
	require.NoError(t, r.RecordSwitch("none", "anthropic", "manual"))
	require.NoError(t, r.RecordSwitch("anthropic", "gemini", "rate limit"))

	reopened, err := registry.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, "gemini", reopened.Current())

	history := reopened.History()
	require.Len(t, history, 2)
	assert.Equal(t, "anthropic", history[0].To)
	assert.Equal(t, "rate limit", history[1].Reason)
	assert.False(t, history[1].Timestamp.IsZero())
}

func TestRateLimitCooldown(t *testing.T) {
	dir := t.TempDir()
	r, err := registry.Open(dir)
	require.NoError(t, err)

	require.NoError(t, r.RecordRateLimit("anthropic", time.Hour))

	limit, err := r.RateLimitInfo("anthropic")
	require.NoError(t, err)
	require.NotNil(t, limit)
	assert.Equal(t, 3600, limit.WaitSeconds)
	assert.True(t, limit.Until.After(time.Now().UTC()))

	limit, err = r.RateLimitInfo("gemini")
	require.NoError(t, err)
	assert.Nil(t, limit, "backends never limited have no cooldown")
}

func TestRateLimitExpiryPrunes(t *testing.T) {
	dir := t.TempDir()
	r, err := registry.Open(dir)
	require.NoError(t, err)

	// An already-expired cooldown must be pruned on first read.
	require.NoError(t, r.RecordRateLimit("gemini", -time.Minute))

	limit, err := r.RateLimitInfo("gemini")
	require.NoError(t, err)
	assert.Nil(t, limit)

	reopened, err := registry.Open(dir)
	require.NoError(t, err)
	limit, err = reopened.RateLimitInfo("gemini")
	require.NoError(t, err)
	assert.Nil(t, limit, "the prune is persisted")
}
