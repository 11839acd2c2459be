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

package selection_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedriver/codedriver/pkg/selection"
	"github.com/codedriver/codedriver/pkg/status"
)

// 🧪 entries is a fixed modified-file list for the scripted conversations
func entries() []status.FileInfo {
	return []status.FileInfo{
		{Path: "src/main.go", Status: status.StatusModified, Added: 3, Removed: 1},
		{Path: "pkg/new.go", Status: status.StatusNew, Added: 12},
		{Path: "old.go", Status: status.StatusDeleted, Removed: 8},
	}
}

// 🧪 run scripts the operator input and returns selection, state, and output
func run(t *testing.T, input string, viewDiff selection.DiffViewer) ([]string, selection.State, string) {
	t.Helper()
	var out bytes.Buffer
	if viewDiff == nil {
		viewDiff = func() error { return nil }
	}
	ctrl := selection.New(strings.NewReader(input), &out, entries(), viewDiff)
	selected, err := ctrl.Run()
	require.NoError(t, err)
	return selected, ctrl.State(), out.String()
}

func TestRunApplyAll(t *testing.T) {
	selected, state, out := run(t, "y\n", nil)
	assert.Equal(t, []string{"src/main.go", "pkg/new.go", "old.go"}, selected)
	assert.Equal(t, selection.StateDone, state)
	assert.Contains(t, out, "Files to be changed:")
	assert.Contains(t, out, "src/main.go")
}

func TestRunSingleFile(t *testing.T) {
	selected, state, _ := run(t, "2\n", nil)
	assert.Equal(t, []string{"pkg/new.go"}, selected, "numbers are 1-based")
	assert.Equal(t, selection.StateDone, state)
}

func TestRunQuit(t *testing.T) {
	selected, state, _ := run(t, "q\n", nil)
	assert.Nil(t, selected, "quitting selects nothing")
	assert.Equal(t, selection.StateCancelled, state)
}

func TestRunViewDiffThenApply(t *testing.T) {
	viewed := 0
	selected, state, _ := run(t, "d\ny\n", func() error {
		viewed++
		return nil
	})
	assert.Equal(t, 1, viewed, "diff rendered once")
	assert.Len(t, selected, 3, "viewing does not change the selection")
	assert.Equal(t, selection.StateDone, state)
}

func TestRunInvalidInputReprompts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"garbage", "wat\n1\n"},
		{"zero index", "0\n1\n"},
		{"out of range", "4\n1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, state, out := run(t, tt.input, nil)
			assert.Equal(t, []string{"src/main.go"}, selected, "recovers after the bad input")
			assert.Equal(t, selection.StateDone, state)
			assert.Contains(t, out, "invalid")
		})
	}
}

func TestRunInputClosed(t *testing.T) {
	selected, state, _ := run(t, "", nil)
	assert.Nil(t, selected, "EOF behaves like quit")
	assert.Equal(t, selection.StateCancelled, state)
}

func TestRunDiffErrorKeepsPrompting(t *testing.T) {
	selected, state, out := run(t, "d\nq\n", func() error {
		return assert.AnError
	})
	assert.Nil(t, selected)
	assert.Equal(t, selection.StateCancelled, state)
	assert.Contains(t, out, "failed to render diff")
}
