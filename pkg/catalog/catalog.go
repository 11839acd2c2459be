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

// Package catalog scans the working tree and decides which paths are even
// eligible for editing.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/codedriver/codedriver/pkg/ignore"
)

// collectWorkers bounds concurrent file reads during Collect
const collectWorkers = 8

// 🗃️ knownExtensions classifies the file types the tool will offer for
// editing. Everything else is reported as unhandled.
var knownExtensions = map[string]string{
	".py":   "Python source",
	".js":   "JavaScript source",
	".ts":   "TypeScript source",
	".java": "Java source",
	".cpp":  "C++ source",
	".h":    "C/C++ header",
	".cs":   "C# source",
	".go":   "Go source",
	".rs":   "Rust source",
	".cfg":  "config",
	".toml": "TOML config",
	".yaml": "YAML config",
	".yml":  "YAML config",
	".json": "JSON config",
	".md":   "Markdown",
	".rst":  "reStructuredText",
	".txt":  "Text file",
}

// specialFiles are extension-less names that are still eligible
var specialFiles = map[string]bool{
	"LICENSE":    true,
	"Makefile":   true,
	"Dockerfile": true,
	"go.mod":     true,
	"go.sum":     true,
}

// 📄 Entry is one eligible file in the working tree
type Entry struct {
	// Path is the slash-separated path relative to the root
	Path string

	// Kind is the human-readable classification
	Kind string

	// Content is the file body, populated by Collect
	Content []byte
}

// 🔧 Catalog lists the editable files of one working tree
type Catalog struct {
	root  string
	rules *ignore.Rules
	extra []string // extra extensions from config
}

// 🏭 New creates a catalog for the working tree root
func New(root string, rules *ignore.Rules, extraExtensions []string) *Catalog {
	if rules == nil {
		rules = ignore.FromPatterns(nil)
	}
	return &Catalog{root: root, rules: rules, extra: extraExtensions}
}

// 🔍 Scan walks the tree and returns the eligible relative paths, sorted,
// plus the paths it could not classify.
func (c *Catalog) Scan(ctx context.Context) (eligible []Entry, unhandled []string, err error) {
	logger := zerolog.Ctx(ctx)

	err = filepath.WalkDir(c.root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(c.root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignore.IgnoredDir(d.Name()) || c.rules.Ignored(logger, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if c.rules.Ignored(logger, rel) {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}

		if kind, ok := c.classify(name); ok {
			eligible = append(eligible, Entry{Path: rel, Kind: kind})
		} else {
			unhandled = append(unhandled, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, errors.Errorf("scanning working tree: %w", err)
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].Path < eligible[j].Path })
	sort.Strings(unhandled)
	return eligible, unhandled, nil
}

// 📥 Collect scans and then reads every eligible file's content, a bounded
// number at a time. The read fan-out is internal to this collaborator; the
// change pipeline itself stays single-threaded.
func (c *Catalog) Collect(ctx context.Context) ([]Entry, error) {
	entries, _, err := c.Scan(ctx)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(collectWorkers)

	for i := range entries {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			content, err := os.ReadFile(filepath.Join(c.root, filepath.FromSlash(entries[i].Path)))
			if err != nil {
				return errors.Errorf("reading %s: %w", entries[i].Path, err)
			}
			entries[i].Content = content
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Catalog) classify(name string) (string, bool) {
	if specialFiles[name] {
		return "project file", true
	}
	ext := strings.ToLower(filepath.Ext(name))
	if kind, ok := knownExtensions[ext]; ok {
		return kind, true
	}
	for _, e := range c.extra {
		if ext == strings.ToLower(e) {
			return "configured type", true
		}
	}
	return "", false
}
