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

// Package ignore decides which working-tree paths are excluded from
// staging, backups and the file catalog.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// RuleFile is the per-tree ignore file read from the working tree root
const RuleFile = ".codedriverignore"

// 🚫 alwaysIgnoredDirs are directory names excluded on every run regardless
// of the rule file: version-control metadata, dependency caches, and the
// tool's own artifacts.
var alwaysIgnoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	".codedriver":  true,
}

// 🔍 Rules holds the compiled ignore decisions for one working tree
type Rules struct {
	patterns []string
}

// 🏭 Load reads the rule file from the working tree root. A missing rule
// file is not an error; it just means no extra patterns.
func Load(root string) (*Rules, error) {
	f, err := os.Open(filepath.Join(root, RuleFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Rules{}, nil
		}
		return nil, errors.Errorf("opening ignore rule file: %w", err)
	}
	defer f.Close()

	r := &Rules{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.patterns = append(r.patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("reading ignore rule file: %w", err)
	}
	return r, nil
}

// FromPatterns builds rules directly from glob patterns (used by config
// supplied patterns and by tests).
func FromPatterns(patterns []string) *Rules {
	return &Rules{patterns: patterns}
}

// Patterns returns the loaded glob patterns.
func (r *Rules) Patterns() []string {
	return r.patterns
}

// IgnoredDir reports whether a bare directory name is always excluded.
func IgnoredDir(name string) bool {
	return alwaysIgnoredDirs[name]
}

// 🔍 Ignored reports whether a slash-separated relative path should be
// excluded, either because one of its segments is an always-ignored
// directory or because a rule pattern matches.
func (r *Rules) Ignored(logger *zerolog.Logger, relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, segment := range strings.Split(relPath, "/") {
		if alwaysIgnoredDirs[segment] {
			return true
		}
	}

	for _, pattern := range r.patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			if logger != nil {
				logger.Debug().Str("pattern", pattern).Str("path", relPath).Err(err).Msg("error matching ignore pattern")
			}
			continue
		}
		if matched {
			return true
		}
		// Also match against the basename so simple patterns like *.log
		// behave the way operators expect.
		if matched, _ := doublestar.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
	}

	return false
}
