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

// Package backup snapshots the working tree before any destructive write.
// The snapshot is the sole recovery mechanism: if it cannot be taken, the
// apply never starts.
package backup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/ignore"
	"github.com/codedriver/codedriver/pkg/stage"
)

// Prefix is the recognizable name prefix of backup snapshot directories
const Prefix = "codedriver_backup_"

// 🔧 Manager takes snapshots of one working tree
type Manager struct {
	workingRoot string
	rules       *ignore.Rules
}

// 🏭 New creates a backup manager rooted at the working tree
func New(workingRoot string, rules *ignore.Rules) *Manager {
	if rules == nil {
		rules = ignore.FromPatterns(nil)
	}
	return &Manager{workingRoot: workingRoot, rules: rules}
}

// 📸 Snapshot copies the working tree (minus ignored paths) into a new
// uniquely named temporary directory and verifies the result is non-empty.
// The snapshot is never deleted automatically. Any failure aborts the apply
// that requested it: the system fails closed rather than mutate the tree
// without a recovery point.
func (m *Manager) Snapshot(ctx context.Context) (string, error) {
	logger := zerolog.Ctx(ctx)

	dir, err := os.MkdirTemp("", Prefix+time.Now().UTC().Format("20060102_150405")+"_")
	if err != nil {
		return "", errors.Errorf("creating backup directory: %w", err)
	}

	if err := stage.CopyTree(m.workingRoot, dir, m.rules, logger); err != nil {
		return "", errors.Errorf("copying working tree into backup %s: %w", dir, err)
	}

	empty, err := isEmptyDir(dir)
	if err != nil {
		return "", errors.Errorf("verifying backup %s: %w", dir, err)
	}
	if empty {
		return "", errors.Errorf("backup %s is empty, refusing to proceed", dir)
	}

	logger.Info().Str("backup", dir).Msg("working tree snapshot created")
	return dir, nil
}

func isEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// 🔎 List returns existing snapshot directories for display, newest first.
func List() ([]string, error) {
	pattern := filepath.Join(os.TempDir(), Prefix+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Errorf("listing backups: %w", err)
	}
	// Glob returns lexical order; the timestamped names make that oldest
	// first, so reverse for newest first.
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	return matches, nil
}
