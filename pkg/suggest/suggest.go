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

// Package suggest talks to text-generation backends to obtain edit
// suggestions in the change protocol format.
package suggest

import (
	"context"
)

// 🔌 Backend is one text-generation API. Implementations live in the
// subpackages and are selected through the registry.
type Backend interface {
	// Name identifies the backend in the registry and in console output
	Name() string

	// SendPrompt submits one prompt and returns the model's text reply
	SendPrompt(ctx context.Context, prompt string) (string, error)

	// MediaTypeForExtension maps a file extension (with leading dot) to
	// the media type string the backend's API understands
	MediaTypeForExtension(ext string) string
}
