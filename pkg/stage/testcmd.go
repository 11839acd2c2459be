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

package stage

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧪 RunTestCommands executes the collected post-edit test commands inside
// the preview workspace. The commands are a convenience signal, not a
// correctness gate, except that the first non-zero exit fails the staging
// result so a broken preview is never offered for apply.
func (w *Workspace) RunTestCommands(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	for _, cmd := range w.TestCommands {
		logger.Info().Str("cmd", cmd).Msg("running test command in preview")

		c := exec.CommandContext(ctx, "sh", "-c", cmd)
		c.Dir = w.Dir
		out, err := c.CombinedOutput()
		if len(out) > 0 {
			logger.Info().Str("cmd", cmd).Msg(string(out))
		}
		if err != nil {
			return errors.Errorf("test command %q failed: %w", cmd, err)
		}
	}
	return nil
}
