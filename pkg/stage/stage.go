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

// Package stage materializes a disposable preview workspace: a full copy of
// the working tree with the proposed edits layered on top. The real tree is
// never touched here.
package stage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/ignore"
	"github.com/codedriver/codedriver/pkg/protocol"
)

// PreviewPrefix is the recognizable name prefix of preview workspaces
const PreviewPrefix = "codedriver_preview_"

// testCmdMarker flags a line inside an edited file body as a post-edit
// test command, e.g. `"""TEST CMD: go test ./..."""`.
const testCmdMarker = "TEST CMD:"

// 🗂️ Workspace is a staged preview: the working tree plus proposed edits.
// It is owned by the run that created it, never reused, and never deleted
// automatically so the operator can inspect or recover from it.
type Workspace struct {
	// Dir is the preview directory on disk
	Dir string

	// WorkingRoot is the tree the preview was staged from
	WorkingRoot string

	// Modified is the ModifiedFileList: paths whose preview differs from
	// the working tree, in change order, duplicates resolved last-wins.
	// Delete entries appear only when the target currently exists.
	Modified []string

	// Deletes marks which Modified entries are deletions. The preview copy
	// still physically contains those files; deletion is realized only at
	// apply time, against the real tree.
	Deletes map[string]bool

	// TestCommands are post-edit commands extracted from staged bodies
	TestCommands []string
}

// IsDelete reports whether a staged path is a pending deletion.
func (w *Workspace) IsDelete(rel string) bool {
	return w.Deletes[rel]
}

// 🔧 Stager builds preview workspaces for one working tree
type Stager struct {
	workingRoot string
	rules       *ignore.Rules
}

// 🏭 New creates a stager rooted at the working tree
func New(workingRoot string, rules *ignore.Rules) *Stager {
	if rules == nil {
		rules = ignore.FromPatterns(nil)
	}
	return &Stager{workingRoot: workingRoot, rules: rules}
}

// 🏗️ Stage creates a fresh preview workspace and layers the change set on
// top of a copy of the working tree. Any I/O failure is fatal to the run: a
// partially built preview must never be handed downstream.
func (s *Stager) Stage(ctx context.Context, cs *protocol.ChangeSet) (*Workspace, error) {
	logger := zerolog.Ctx(ctx)

	dir, err := os.MkdirTemp("", PreviewPrefix)
	if err != nil {
		return nil, errors.Errorf("creating preview directory: %w", err)
	}

	if err := CopyTree(s.workingRoot, dir, s.rules, logger); err != nil {
		return nil, errors.Errorf("copying working tree into preview %s: %w", dir, err)
	}

	ws := &Workspace{
		Dir:         dir,
		WorkingRoot: s.workingRoot,
		Deletes:     make(map[string]bool),
	}

	// Later blocks for the same path overwrite earlier ones, so applying
	// changes sequentially implements the documented last-wins policy.
	for _, change := range cs.Changes {
		if !pathWithin(dir, change.Path) {
			logger.Warn().Str("path", change.Path).Msg("change escapes working tree, skipping")
			continue
		}

		switch change.Op {
		case protocol.OpDelete:
			if _, err := os.Stat(filepath.Join(s.workingRoot, filepath.FromSlash(change.Path))); err != nil {
				// A delete of a path that does not exist is a no-op and
				// never reaches the modified list.
				logger.Debug().Str("path", change.Path).Msg("delete target absent, skipping")
				continue
			}
			ws.Deletes[change.Path] = true
			ws.markModified(change.Path)

		case protocol.OpCreate, protocol.OpModify:
			content := normalize(change.Content)
			target := filepath.Join(dir, filepath.FromSlash(change.Path))
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return nil, errors.Errorf("creating preview parent directories for %s: %w", change.Path, err)
			}
			if err := os.WriteFile(target, content, 0644); err != nil {
				return nil, errors.Errorf("writing preview file %s: %w", change.Path, err)
			}
			delete(ws.Deletes, change.Path)

			ws.TestCommands = append(ws.TestCommands, extractTestCommands(content)...)

			if sameAsWorking(s.workingRoot, change.Path, content) {
				ws.unmarkModified(change.Path)
				logger.Debug().Str("path", change.Path).Msg("staged content identical to working tree")
				continue
			}
			ws.markModified(change.Path)
		}
	}

	logger.Info().
		Str("preview", dir).
		Int("modified", len(ws.Modified)).
		Msg("changes staged in preview workspace")

	return ws, nil
}

// markModified appends rel to the modified list, moving it to the back if
// already present (last occurrence wins).
func (w *Workspace) markModified(rel string) {
	w.unmarkModified(rel)
	w.Modified = append(w.Modified, rel)
}

func (w *Workspace) unmarkModified(rel string) {
	for i, p := range w.Modified {
		if p == rel {
			w.Modified = append(w.Modified[:i], w.Modified[i+1:]...)
			return
		}
	}
}

// sameAsWorking reports whether the working tree already holds exactly the
// staged content for rel.
func sameAsWorking(root, rel string, content []byte) bool {
	existing, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return false
	}
	return bytes.Equal(existing, content)
}

// normalize guarantees a trailing newline so staged files and the unified
// diffs computed from them agree with what the patch tool expects.
func normalize(content []byte) []byte {
	if len(content) == 0 || content[len(content)-1] == '\n' {
		return content
	}
	return append(content, '\n')
}

func extractTestCommands(content []byte) []string {
	var cmds []string
	for _, line := range strings.Split(string(content), "\n") {
		idx := strings.Index(line, testCmdMarker)
		if idx < 0 {
			continue
		}
		cmd := strings.TrimSpace(line[idx+len(testCmdMarker):])
		cmd = strings.TrimSuffix(cmd, `"""`)
		cmd = strings.TrimSpace(cmd)
		if cmd != "" {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// pathWithin reports whether rel stays inside root once cleaned.
func pathWithin(root, rel string) bool {
	full := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, full)
	if err != nil {
		return false
	}
	return r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// 📦 CopyTree recursively copies src into dst, excluding ignored paths.
// Any failure aborts the whole copy. Backups use the same walk so a
// snapshot sees exactly what staging sees.
func CopyTree(src, dst string, rules *ignore.Rules, logger *zerolog.Logger) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if ignore.IgnoredDir(d.Name()) || rules.Ignored(logger, rel) {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0755)
		}

		if rules.Ignored(logger, rel) {
			return nil
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
