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

package apply

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/diffview"
	"github.com/codedriver/codedriver/pkg/stage"
)

// patchStripLevels are tried in order; some patch producers carry an extra
// leading path component, so a -p0 failure is retried with -p1.
var patchStripLevels = []string{"-p0", "-p1"}

// applyPatch builds one multi-file unified diff restricted to the selected
// write paths and hands it to the external patch tool. If the tool reports
// failure for every strip level, the whole apply is failed; no per-file
// partial-success accounting is surfaced.
func (e *Engine) applyPatch(ctx context.Context, ws *stage.Workspace, writes []string) error {
	logger := zerolog.Ctx(ctx)

	if len(writes) == 0 {
		return nil
	}

	patch, err := diffview.BatchDiff(e.workingRoot, ws.Dir, writes)
	if err != nil {
		return errors.Errorf("building patch: %w", err)
	}
	if patch == "" {
		logger.Info().Msg("no content differences, nothing to patch")
		return nil
	}

	patchFile, err := os.CreateTemp("", "codedriver_changes_*.patch")
	if err != nil {
		return errors.Errorf("creating patch file: %w", err)
	}
	patchPath := patchFile.Name()
	defer os.Remove(patchPath)

	if _, err := patchFile.WriteString(patch); err != nil {
		patchFile.Close()
		return errors.Errorf("writing patch file: %w", err)
	}
	if err := patchFile.Close(); err != nil {
		return errors.Errorf("closing patch file: %w", err)
	}

	var lastErr error
	for _, strip := range patchStripLevels {
		out, err := e.runPatch(ctx, patchPath, strip)
		if err == nil {
			logger.Info().Str("strip", strip).Int("files", len(writes)).Msg("patch applied")
			return nil
		}
		lastErr = errors.Errorf("patch %s: %w (output: %s)", strip, err, strings.TrimSpace(out))
		logger.Warn().Str("strip", strip).Err(err).Msg("patch attempt failed")
	}
	return errors.Errorf("applying patch: %w", lastErr)
}

func (e *Engine) runPatch(ctx context.Context, patchPath, strip string) (string, error) {
	f, err := os.Open(patchPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cmd := exec.CommandContext(ctx, "patch", strip, "--batch", "--forward")
	cmd.Dir = e.workingRoot
	cmd.Stdin = f
	out, err := cmd.CombinedOutput()
	return string(out), err
}
