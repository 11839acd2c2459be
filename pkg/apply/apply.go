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

// Package apply commits selected edits from a preview workspace into the
// working tree. The working tree is the single shared mutable resource of
// the whole system and this package is the only thing that writes to it,
// always behind a completed backup snapshot when backups are enabled.
package apply

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/backup"
	"github.com/codedriver/codedriver/pkg/stage"
)

// 🔩 Strategy selects how file contents reach the working tree
type Strategy int

const (
	// StrategyDirect copies bytes verbatim from the preview workspace
	StrategyDirect Strategy = iota

	// StrategyPatch builds one multi-file unified diff and hands it to the
	// external patch tool
	StrategyPatch
)

// 📋 Result is the outcome of one apply attempt
type Result struct {
	// Success is true only if every selected operation completed
	Success bool

	// PreviewDir is the originating preview workspace
	PreviewDir string

	// BackupDir is the snapshot taken before the first write, empty when
	// backups were disabled
	BackupDir string
}

// 🔧 Engine commits previewed changes into one working tree
type Engine struct {
	workingRoot string
	backups     *backup.Manager
	strategy    Strategy
}

// 🏭 New creates an application engine for the working tree
func New(workingRoot string, backups *backup.Manager, strategy Strategy) *Engine {
	return &Engine{workingRoot: workingRoot, backups: backups, strategy: strategy}
}

// 🏃 Apply commits the selected paths from the preview workspace. When
// backupFirst is set, the snapshot must complete before the first write;
// a failed snapshot aborts the whole apply (fail closed). On any later
// failure the apply is reported failed as a whole: writes that already
// happened are not undone, recovery relies on the backup snapshot.
func (e *Engine) Apply(ctx context.Context, ws *stage.Workspace, selected []string, backupFirst bool) (Result, error) {
	logger := zerolog.Ctx(ctx)
	result := Result{PreviewDir: ws.Dir}

	if len(selected) == 0 {
		logger.Info().Msg("nothing selected, working tree untouched")
		result.Success = true
		return result, nil
	}

	if backupFirst {
		dir, err := e.backups.Snapshot(ctx)
		if err != nil {
			return result, errors.Errorf("creating backup before apply: %w", err)
		}
		result.BackupDir = dir
	}

	var writes, deletes []string
	for _, rel := range selected {
		if ws.IsDelete(rel) {
			deletes = append(deletes, rel)
		} else {
			writes = append(writes, rel)
		}
	}

	switch e.strategy {
	case StrategyPatch:
		if err := e.applyPatch(ctx, ws, writes); err != nil {
			return result, err
		}
	default:
		if err := e.applyDirect(ctx, ws, writes); err != nil {
			return result, err
		}
	}

	for _, rel := range deletes {
		target := filepath.Join(e.workingRoot, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return result, errors.Errorf("deleting %s: %w", rel, err)
		}
		logger.Info().Str("path", rel).Msg("deleted from working tree")
	}

	result.Success = true
	return result, nil
}

// applyDirect copies bytes verbatim from the preview into the working tree,
// creating missing parent directories.
func (e *Engine) applyDirect(ctx context.Context, ws *stage.Workspace, writes []string) error {
	logger := zerolog.Ctx(ctx)

	for _, rel := range writes {
		src := filepath.Join(ws.Dir, filepath.FromSlash(rel))
		dst := filepath.Join(e.workingRoot, filepath.FromSlash(rel))

		content, err := os.ReadFile(src)
		if err != nil {
			return errors.Errorf("reading staged file %s: %w", rel, err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.Errorf("creating parent directories for %s: %w", rel, err)
		}
		if err := os.WriteFile(dst, content, 0644); err != nil {
			return errors.Errorf("writing %s: %w", rel, err)
		}
		logger.Info().Str("path", rel).Msg("applied to working tree")
	}
	return nil
}
