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

package suggest

import (
	"fmt"
	"time"

	"gitlab.com/tozd/go/errors"
)

// ❌ Backend error taxonomy. Callers branch on these with errors.Is /
// errors.As; anything else is an unclassified transport failure.
var (
	ErrUnauthorized  = errors.New("backend unauthorized")
	ErrOverloaded    = errors.New("backend overloaded")
	ErrQuotaExceeded = errors.New("backend quota exceeded")
)

// ⏳ RateLimitError carries how long the backend asked us to back off.
// The registry persists the cooldown so later runs skip the backend.
type RateLimitError struct {
	Backend string
	Wait    time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited, retry in %s", e.Backend, e.Wait)
}

// FormatWait renders a cooldown duration for operators
func FormatWait(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%d seconds", secs)
	}
	mins := secs / 60
	if mins < 60 {
		return fmt.Sprintf("%d minutes", mins)
	}
	return fmt.Sprintf("%d hours and %d minutes", mins/60, mins%60)
}
