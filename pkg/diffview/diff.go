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

// Package diffview computes line-based differences between the working tree
// and a staged preview. The same computation feeds both the colorized
// operator display and the byte-exact unified patch text handed to the
// patch-application step, so display and apply can never diverge.
package diffview

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"
)

// contextLines is the number of unchanged lines kept around each hunk
const contextLines = 3

// LineType classifies one line of a computed diff
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// 📄 Line is a single line of a computed diff with its positions
type Line struct {
	Type    LineType
	Text    string
	OldLine int // 1-based, 0 when the line only exists on the new side
	NewLine int // 1-based, 0 when the line only exists on the old side
}

// 🔍 Lines computes a line-based LCS-style diff between two contents.
// diffmatchpatch is run in line mode so the quadratic character diff never
// sees full file bodies.
func Lines(before, after string) []Line {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []Line
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, Line{Type: LineContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, Line{Type: LineRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, Line{Type: LineAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	return lines
}

// 🧮 Stats returns the added/removed line counts between two contents
func Stats(before, after string) (added, removed int) {
	for _, line := range Lines(before, after) {
		switch line.Type {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		}
	}
	return added, removed
}

// 📝 Unified renders a diff between two contents as unified-diff text with
// `--- aName` / `+++ bName` headers and `@@` hunk markers. The result is
// empty when the contents are line-identical, and is valid input for the
// external patch tool.
func Unified(aName, bName, before, after string) string {
	lines := Lines(before, after)
	hunks := buildHunks(lines)
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n", aName)
	fmt.Fprintf(&sb, "+++ %s\n", bName)
	for _, h := range hunks {
		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)
		for _, line := range h.lines {
			switch line.Type {
			case LineContext:
				sb.WriteString(" ")
			case LineAdded:
				sb.WriteString("+")
			case LineRemoved:
				sb.WriteString("-")
			}
			sb.WriteString(line.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// 📂 FileDiff diffs two on-disk files, labelling the sections with the given
// names. A non-existent file on either side is treated as empty, so new
// files render as all-added lines.
func FileDiff(aPath, bPath, aName, bName string) (string, error) {
	before, err := readOrEmpty(aPath)
	if err != nil {
		return "", errors.Errorf("reading diff source %s: %w", aPath, err)
	}
	after, err := readOrEmpty(bPath)
	if err != nil {
		return "", errors.Errorf("reading diff target %s: %w", bPath, err)
	}
	return Unified(aName, bName, before, after), nil
}

// 📦 BatchDiff concatenates one unified-diff section per path, comparing
// rootA (the working tree) against rootB (the preview workspace). Paths with
// no difference contribute nothing.
func BatchDiff(rootA, rootB string, paths []string) (string, error) {
	var sb strings.Builder
	for _, rel := range paths {
		section, err := FileDiff(
			filepath.Join(rootA, filepath.FromSlash(rel)),
			filepath.Join(rootB, filepath.FromSlash(rel)),
			rel, rel,
		)
		if err != nil {
			return "", errors.Errorf("diffing %s: %w", rel, err)
		}
		sb.WriteString(section)
	}
	return sb.String(), nil
}

func readOrEmpty(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []Line
}

// buildHunks groups diff lines into unified hunks with context, merging
// hunks whose unchanged gap is within twice the context width.
func buildHunks(lines []Line) []hunk {
	var hunks []hunk
	i := 0
	for i < len(lines) {
		if lines[i].Type == LineContext {
			i++
			continue
		}

		// Extend the group over changes and short context gaps.
		end := i + 1
		j := i + 1
		for j < len(lines) {
			if lines[j].Type != LineContext {
				j++
				end = j
				continue
			}
			k := j
			for k < len(lines) && lines[k].Type == LineContext {
				k++
			}
			if k < len(lines) && k-j <= 2*contextLines {
				j = k
				continue
			}
			break
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}
		stop := end + contextLines
		if stop > len(lines) {
			stop = len(lines)
		}

		hunks = append(hunks, makeHunk(lines[start:stop]))
		i = stop
	}
	return hunks
}

func makeHunk(lines []Line) hunk {
	h := hunk{lines: lines}
	for _, line := range lines {
		switch line.Type {
		case LineContext:
			h.oldCount++
			h.newCount++
		case LineRemoved:
			h.oldCount++
		case LineAdded:
			h.newCount++
		}
	}
	for _, line := range lines {
		if line.OldLine > 0 {
			h.oldStart = line.OldLine
			break
		}
	}
	for _, line := range lines {
		if line.NewLine > 0 {
			h.newStart = line.NewLine
			break
		}
	}
	// Empty sides use the unified convention of the line before the change.
	if h.oldCount == 0 {
		h.oldStart = h.newStart - 1
	}
	if h.newCount == 0 {
		h.newStart = h.oldStart - 1
	}
	return h
}
