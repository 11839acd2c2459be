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

package commands

import (
	"context"
	"os"
	"time"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/cmd/codedriver/opts"
	"github.com/codedriver/codedriver/pkg/suggest"
	"github.com/codedriver/codedriver/pkg/suggest/anthropic"
	"github.com/codedriver/codedriver/pkg/suggest/gemini"
	"github.com/codedriver/codedriver/pkg/suggest/openai"
)

const defaultBackendName = "anthropic"

// backendNames in registry/display order
var backendNames = []string{"anthropic", "gemini", "openai"}

// resolveBackendName picks the backend: registry selection first, then
// config, then the default.
func resolveBackendName(o *opts.RootOpts) string {
	if name := o.Registry.Current(); name != "" {
		return name
	}
	if o.Config.Backend != "" {
		return o.Config.Backend
	}
	return defaultBackendName
}

// 🏭 buildBackend constructs the named backend from its environment key
func buildBackend(name, model string) (suggest.Backend, error) {
	switch name {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is not set")
		}
		return anthropic.New(key, model), nil
	case "gemini":
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			key = os.Getenv("GOOGLE_API_KEY")
		}
		if key == "" {
			return nil, errors.New("GEMINI_API_KEY is not set")
		}
		return gemini.New(key, model), nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return openai.New(key, model), nil
	default:
		return nil, errors.Errorf("unknown backend %q", name)
	}
}

// backendStatus renders the availability of one backend for operators
func backendStatus(o *opts.RootOpts, name string) string {
	limit, err := o.Registry.RateLimitInfo(name)
	if err != nil || limit == nil {
		return "Available"
	}
	wait := time.Until(limit.Until)
	return "Rate limited for " + suggest.FormatWait(wait)
}

// 📤 sendPrompt submits a prompt behind a spinner, enforcing the recorded
// rate-limit cooldown and classifying backend failures for the operator.
func sendPrompt(ctx context.Context, o *opts.RootOpts, b suggest.Backend, prompt, activity string) (string, error) {
	limit, err := o.Registry.RateLimitInfo(b.Name())
	if err != nil {
		return "", err
	}
	if limit != nil {
		suggestAlternatives(o, b.Name())
		return "", errors.Errorf("%s is rate limited for %s", b.Name(), suggest.FormatWait(time.Until(limit.Until)))
	}

	spinner, _ := pterm.DefaultSpinner.Start(activity)
	reply, err := b.SendPrompt(ctx, prompt)
	if err != nil {
		spinner.Fail(activity)
		var rateErr *suggest.RateLimitError
		switch {
		case errors.As(err, &rateErr):
			if recErr := o.Registry.RecordRateLimit(b.Name(), rateErr.Wait); recErr != nil {
				o.Console.Warningf("recording rate limit: %v", recErr)
			}
			suggestAlternatives(o, b.Name())
		case errors.Is(err, suggest.ErrOverloaded):
			o.Console.Warningf("%s is currently overloaded. Try again in a few minutes or switch backends.", b.Name())
			suggestAlternatives(o, b.Name())
		case errors.Is(err, suggest.ErrQuotaExceeded):
			o.Console.Warningf("API quota exceeded for %s. Wait for the quota reset or switch backends.", b.Name())
			suggestAlternatives(o, b.Name())
		}
		return "", err
	}
	spinner.Success(activity)
	return reply, nil
}

// suggestAlternatives prints the status of every backend and the switch
// commands for the usable ones.
func suggestAlternatives(o *opts.RootOpts, current string) {
	o.Console.Info("Current backend status:")
	for _, name := range backendNames {
		o.Console.Infof("  - %s: %s", name, backendStatus(o, name))
	}
	for _, name := range backendNames {
		if name == current {
			continue
		}
		if limit, err := o.Registry.RateLimitInfo(name); err == nil && limit == nil {
			o.Console.Infof("  codedriver set-backend %s", name)
		}
	}
}
