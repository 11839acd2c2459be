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

// Package pipeline orchestrates one change-application run:
// parse → verify → stage → (view diff) → select → backup → apply.
// The pipeline is single-threaded and synchronous; stage ordering is the
// safety model, not locking.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/apply"
	"github.com/codedriver/codedriver/pkg/backup"
	"github.com/codedriver/codedriver/pkg/diffview"
	"github.com/codedriver/codedriver/pkg/ignore"
	"github.com/codedriver/codedriver/pkg/protocol"
	"github.com/codedriver/codedriver/pkg/stage"
	"github.com/codedriver/codedriver/pkg/status"
)

// 🚦 RunState tracks where a pipeline run is in its lifecycle
type RunState int

const (
	StateIdle RunState = iota
	StateParsed
	StateVerified
	StateStaged
	StateSelected
	StateBackedUp
	StateApplied
	StateFailed
)

// String returns a string representation of the run state
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsed:
		return "parsed"
	case StateVerified:
		return "verified"
	case StateStaged:
		return "staged"
	case StateSelected:
		return "selected"
	case StateBackedUp:
		return "backed_up"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📦 StageResult is the preview contract handed back to the CLI layer
type StageResult struct {
	// Workspace is the staged preview
	Workspace *stage.Workspace

	// PreviewDir is the preview workspace path (kept on disk either way)
	PreviewDir string

	// TestCommands are post-edit commands extracted from staged bodies
	TestCommands []string

	// ModifiedPaths is the ModifiedFileList
	ModifiedPaths []string

	// Entries is the modified file list with per-entry line counts
	Entries []status.FileInfo

	// RejectedPaths are dropped by hash verification (warned, not fatal)
	RejectedPaths []string

	// Summary is the free-text SUMMARY block from the batch
	Summary string

	// Success is false when staging completed but a test command failed
	Success bool
}

// 🔧 Pipeline runs the change-application stages against one working tree
type Pipeline struct {
	workingRoot string
	rules       *ignore.Rules
	stager      *stage.Stager
	engine      *apply.Engine
	runID       string
	state       RunState

	// RunTests controls whether TEST CMD markers found in staged files
	// are executed after staging. On by default.
	RunTests bool
}

// 🏭 New creates a pipeline for the working tree. Every run gets a fresh
// pipeline; preview workspaces and backups are never shared across runs.
func New(workingRoot string, rules *ignore.Rules, strategy apply.Strategy) (*Pipeline, error) {
	root, err := filepath.Abs(workingRoot)
	if err != nil {
		return nil, errors.Errorf("resolving working tree root: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, errors.Errorf("working tree root %s is not a directory", root)
	}
	if rules == nil {
		rules = ignore.FromPatterns(nil)
	}

	return &Pipeline{
		workingRoot: root,
		rules:       rules,
		stager:      stage.New(root, rules),
		engine:      apply.New(root, backup.New(root, rules), strategy),
		runID:       uuid.NewString()[:8],
		state:       StateIdle,
		RunTests:    true,
	}, nil
}

// State returns the run state for this pipeline.
func (p *Pipeline) State() RunState {
	return p.state
}

// WorkingRoot returns the absolute working tree root.
func (p *Pipeline) WorkingRoot() string {
	return p.workingRoot
}

// 🏗️ StageForPreview parses protocol text, drops unverifiable changes, and
// stages the rest into a fresh preview workspace. Parse and hash failures
// are absorbed per item; staging I/O failures are fatal to the run.
// When the delimiter scan yields nothing, the simpler header-form protocol
// is tried before giving up on the response.
func (p *Pipeline) StageForPreview(ctx context.Context, protocolText string, delims protocol.Delimiters) (*StageResult, error) {
	cs := protocol.Parse(protocolText, delims)
	if len(cs.Changes) == 0 && cs.Summary == "" {
		cs = protocol.ParseHeaderForm(protocolText)
	}
	return p.StageChangeSet(ctx, cs)
}

// 🏗️ StageChangeSet verifies and stages an already-parsed change set. It is
// also the entry point for the simpler header-form protocol.
func (p *Pipeline) StageChangeSet(ctx context.Context, cs *protocol.ChangeSet) (*StageResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("run", p.runID).Logger()
	ctx = logger.WithContext(ctx)

	p.transition(&logger, StateParsed)
	logger.Info().Int("changes", len(cs.Changes)).Msg("protocol parsed")

	verified, rejected := protocol.VerifyAll(&logger, cs)
	p.transition(&logger, StateVerified)

	ws, err := p.stager.Stage(ctx, verified)
	if err != nil {
		p.transition(&logger, StateFailed)
		return nil, err
	}
	p.transition(&logger, StateStaged)

	result := &StageResult{
		Workspace:     ws,
		PreviewDir:    ws.Dir,
		TestCommands:  ws.TestCommands,
		ModifiedPaths: ws.Modified,
		Entries:       p.buildEntries(&logger, ws),
		RejectedPaths: rejected,
		Summary:       verified.Summary,
		Success:       true,
	}

	if !p.RunTests {
		return result, nil
	}
	if err := ws.RunTestCommands(ctx); err != nil {
		logger.Warn().Err(err).Msg("post-edit test command failed, preview kept for inspection")
		result.Success = false
	}

	return result, nil
}

// 🖊️ RenderDiff writes the colorized preview-vs-working diff for every
// modified path. Display and apply share the diff computation, so what the
// operator reviews is what gets applied.
func (p *Pipeline) RenderDiff(ctx context.Context, ws *stage.Workspace, w io.Writer) error {
	patch, err := p.displayPatch(ws)
	if err != nil {
		return err
	}
	diffview.Render(w, patch)
	return nil
}

// displayPatch builds the full review patch, including delete entries
// rendered as all-removed lines (the preview retains deleted files, so a
// plain tree comparison would hide them).
func (p *Pipeline) displayPatch(ws *stage.Workspace) (string, error) {
	var out string
	for _, rel := range ws.Modified {
		if ws.IsDelete(rel) {
			before := readOrEmpty(filepath.Join(p.workingRoot, filepath.FromSlash(rel)))
			out += diffview.Unified(rel, "/dev/null", before, "")
			continue
		}
		section, err := diffview.FileDiff(
			filepath.Join(p.workingRoot, filepath.FromSlash(rel)),
			filepath.Join(ws.Dir, filepath.FromSlash(rel)),
			rel, rel,
		)
		if err != nil {
			return "", errors.Errorf("diffing %s: %w", rel, err)
		}
		out += section
	}
	return out, nil
}

// 🚀 ApplyToWorking commits the selected subset from the preview into the
// working tree. BackedUp always precedes the first mutation when
// backupFirst is set.
func (p *Pipeline) ApplyToWorking(ctx context.Context, ws *stage.Workspace, selected []string, backupFirst bool) (apply.Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("run", p.runID).Logger()
	ctx = logger.WithContext(ctx)

	p.transition(&logger, StateSelected)

	result, err := p.engine.Apply(ctx, ws, selected, backupFirst)
	if result.BackupDir != "" {
		p.transition(&logger, StateBackedUp)
	}
	if err != nil {
		p.transition(&logger, StateFailed)
		return result, err
	}

	p.transition(&logger, StateApplied)
	return result, nil
}

// buildEntries computes the per-entry status and line counts shown by the
// selection prompt.
func (p *Pipeline) buildEntries(logger *zerolog.Logger, ws *stage.Workspace) []status.FileInfo {
	mgr := status.NewManager()
	for _, rel := range ws.Modified {
		workingPath := filepath.Join(p.workingRoot, filepath.FromSlash(rel))

		if ws.IsDelete(rel) {
			removed := countLines(workingPath)
			mgr.Track(status.FileInfo{Path: rel, Status: status.StatusDeleted, Removed: removed})
			continue
		}

		before := readOrEmpty(workingPath)
		after := readOrEmpty(filepath.Join(ws.Dir, filepath.FromSlash(rel)))
		added, removed := diffview.Stats(before, after)

		st := status.StatusModified
		if _, err := os.Stat(workingPath); os.IsNotExist(err) {
			st = status.StatusNew
		}
		mgr.Track(status.FileInfo{Path: rel, Status: st, Added: added, Removed: removed})
	}
	return mgr.List()
}

func (p *Pipeline) transition(logger *zerolog.Logger, next RunState) {
	logger.Debug().Str("from", p.state.String()).Str("to", next.String()).Msg("pipeline state")
	p.state = next
}

func readOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func countLines(path string) int {
	content := readOrEmpty(path)
	if content == "" {
		return 0
	}
	lines := 0
	for _, r := range content {
		if r == '\n' {
			lines++
		}
	}
	if content[len(content)-1] != '\n' {
		lines++
	}
	return lines
}
