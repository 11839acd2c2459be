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

// Package registry persists backend selection and rate-limit cooldowns
// across runs.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
)

const fileName = "llms_registry.json"

// 📒 State is the on-disk registry document
type State struct {
	Switches       []Switch             `json:"switches"`
	CurrentBackend string               `json:"current_backend"`
	LastUpdated    time.Time            `json:"last_updated"`
	RateLimits     map[string]RateLimit `json:"rate_limits"`
}

// Switch records one backend change
type Switch struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason"`
}

// RateLimit records when a backend becomes usable again
type RateLimit struct {
	Until       time.Time `json:"until"`
	WaitSeconds int       `json:"wait_seconds"`
}

// 🔧 Registry loads, mutates, and saves the registry file. Not safe for
// concurrent use; the CLI is single-threaded over it.
type Registry struct {
	path  string
	state State
	now   func() time.Time
}

// 🏭 Open loads the registry, creating an empty one under dir when
// missing. Pass "" to use ~/.codedriver.
func Open(dir string) (*Registry, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Errorf("resolving home dir: %w", err)
		}
		dir = filepath.Join(home, ".codedriver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Errorf("creating registry dir: %w", err)
	}

	r := &Registry{
		path: filepath.Join(dir, fileName),
		now:  time.Now,
		state: State{
			RateLimits: map[string]RateLimit{},
		},
	}

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		if err := r.Save(); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading registry: %w", err)
	}
	if err := json.Unmarshal(data, &r.state); err != nil {
		return nil, errors.Errorf("decoding registry %s: %w", r.path, err)
	}
	if r.state.RateLimits == nil {
		r.state.RateLimits = map[string]RateLimit{}
	}
	return r, nil
}

// 💾 Save writes the registry document back to disk
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r.state, "", "  ")
	if err != nil {
		return errors.Errorf("encoding registry: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return errors.Errorf("writing registry: %w", err)
	}
	return nil
}

// Current returns the selected backend name, empty when never set
func (r *Registry) Current() string {
	return r.state.CurrentBackend
}

// 🔀 RecordSwitch selects a new backend and appends to the history
func (r *Registry) RecordSwitch(from, to, reason string) error {
	r.state.Switches = append(r.state.Switches, Switch{
		Timestamp: r.now(),
		From:      from,
		To:        to,
		Reason:    reason,
	})
	r.state.CurrentBackend = to
	r.state.LastUpdated = r.now()
	return r.Save()
}

// History returns the recorded backend switches, oldest first
func (r *Registry) History() []Switch {
	return r.state.Switches
}

// ⏳ RecordRateLimit notes that a backend is cooling down for wait
func (r *Registry) RecordRateLimit(backend string, wait time.Duration) error {
	r.state.RateLimits[backend] = RateLimit{
		Until:       r.now().UTC().Add(wait),
		WaitSeconds: int(wait.Seconds()),
	}
	return r.Save()
}

// RateLimitInfo returns the active cooldown for a backend, or nil when
// none is active. Expired entries are pruned on read.
func (r *Registry) RateLimitInfo(backend string) (*RateLimit, error) {
	limit, ok := r.state.RateLimits[backend]
	if !ok {
		return nil, nil
	}
	if !r.now().UTC().Before(limit.Until) {
		delete(r.state.RateLimits, backend)
		if err := r.Save(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &limit, nil
}
