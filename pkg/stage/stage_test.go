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

package stage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedriver/codedriver/pkg/ignore"
	"github.com/codedriver/codedriver/pkg/protocol"
	"github.com/codedriver/codedriver/pkg/stage"
	"github.com/codedriver/codedriver/pkg/testutils"
)

// 🧪 newWorkingTree builds a small working tree for staging tests
func newWorkingTree(t *testing.T) string {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"main.go":          "package main\n",
		"lib/helper.go":    "package lib\n",
		"README.md":        "# demo\n",
		".git/config":      "[core]\n",
		"app.log":          "noise\n",
		".codedriverignore": "*.log\n",
	})
	return root
}

func TestStageCreatesIsolatedPreview(t *testing.T) {
	root := newWorkingTree(t)
	rules, err := ignore.Load(root)
	require.NoError(t, err)

	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpModify, Path: "main.go", Content: []byte("package main\n\nfunc main() {}")},
		{Op: protocol.OpCreate, Path: "pkg/new.go", Content: []byte("package pkg")},
	}}

	ws, err := stage.New(root, rules).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.True(t, strings.Contains(filepath.Base(ws.Dir), "codedriver_preview_"), "preview dir is recognizable")
	assert.Equal(t, []string{"main.go", "pkg/new.go"}, ws.Modified)

	// Edits land in the preview, not in the working tree.
	assert.Contains(t, testutils.ReadFile(t, filepath.Join(ws.Dir, "main.go")), "func main()")
	assert.Equal(t, "package main\n", testutils.ReadFile(t, filepath.Join(root, "main.go")))
	assert.Equal(t, "package pkg\n", testutils.ReadFile(t, filepath.Join(ws.Dir, "pkg/new.go")), "staged bodies gain a trailing newline")

	// The untouched file is present so diffs and test commands see a full tree.
	assert.FileExists(t, filepath.Join(ws.Dir, "lib/helper.go"))

	// Ignored paths never enter the preview.
	assert.NoFileExists(t, filepath.Join(ws.Dir, ".git/config"))
	assert.NoFileExists(t, filepath.Join(ws.Dir, "app.log"))
}

func TestStageIdenticalContentExcluded(t *testing.T) {
	root := newWorkingTree(t)

	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpModify, Path: "main.go", Content: []byte("package main")},
	}}

	ws, err := stage.New(root, nil).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.Empty(t, ws.Modified, "normalized content equal to the working tree is not a modification")
}

func TestStageDuplicatePathLastWins(t *testing.T) {
	root := newWorkingTree(t)

	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpModify, Path: "main.go", Content: []byte("first version\n")},
		{Op: protocol.OpCreate, Path: "other.go", Content: []byte("package other\n")},
		{Op: protocol.OpModify, Path: "main.go", Content: []byte("second version\n")},
	}}

	ws, err := stage.New(root, nil).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.Equal(t, "second version\n", testutils.ReadFile(t, filepath.Join(ws.Dir, "main.go")))
	assert.Equal(t, []string{"other.go", "main.go"}, ws.Modified, "last occurrence decides order")
}

func TestStageDeleteSemantics(t *testing.T) {
	root := newWorkingTree(t)

	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpDelete, Path: "lib/helper.go"},
		{Op: protocol.OpDelete, Path: "not/there.go"},
	}}

	ws, err := stage.New(root, nil).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.Equal(t, []string{"lib/helper.go"}, ws.Modified, "absent delete target is a no-op")
	assert.True(t, ws.IsDelete("lib/helper.go"))
	assert.False(t, ws.IsDelete("not/there.go"))

	// Deletion is recorded, not realized: the preview copy still holds the file.
	assert.FileExists(t, filepath.Join(ws.Dir, "lib/helper.go"))
	assert.FileExists(t, filepath.Join(root, "lib/helper.go"))
}

func TestStageDeleteThenRecreate(t *testing.T) {
	root := newWorkingTree(t)

	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpDelete, Path: "main.go"},
		{Op: protocol.OpCreate, Path: "main.go", Content: []byte("fresh start\n")},
	}}

	ws, err := stage.New(root, nil).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.False(t, ws.IsDelete("main.go"), "later write supersedes the delete")
	assert.Equal(t, []string{"main.go"}, ws.Modified)
}

func TestStageSkipsEscapingPaths(t *testing.T) {
	root := newWorkingTree(t)

	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpCreate, Path: "../outside.go", Content: []byte("nope\n")},
		{Op: protocol.OpCreate, Path: "inside.go", Content: []byte("ok\n")},
	}}

	ws, err := stage.New(root, nil).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.Equal(t, []string{"inside.go"}, ws.Modified)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(ws.Dir), "outside.go"))
}

func TestStageExtractsTestCommands(t *testing.T) {
	root := newWorkingTree(t)

	body := "\"\"\"\nTEST CMD: go vet ./...\n\"\"\"\npackage main\n"
	cs := &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpModify, Path: "main.go", Content: []byte(body)},
	}}

	ws, err := stage.New(root, nil).Stage(testutils.Context(t), cs)
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	assert.Equal(t, []string{"go vet ./..."}, ws.TestCommands)
}

func TestRunTestCommands(t *testing.T) {
	root := newWorkingTree(t)
	ws, err := stage.New(root, nil).Stage(testutils.Context(t), &protocol.ChangeSet{Changes: []protocol.FileChange{
		{Op: protocol.OpModify, Path: "main.go", Content: []byte("x\nTEST CMD: true\n")},
	}})
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(ws.Dir) })

	require.Equal(t, []string{"true"}, ws.TestCommands)
	assert.NoError(t, ws.RunTestCommands(testutils.Context(t)), "exit 0 passes")

	ws.TestCommands = []string{"false"}
	assert.Error(t, ws.RunTestCommands(testutils.Context(t)), "non-zero exit fails staging")
}

func TestCopyTreePreservesLayout(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutils.WriteTree(t, src, map[string]string{
		"a/b/c.txt": "deep\n",
		"top.txt":   "top\n",
		"skip.log":  "noise\n",
	})

	rules := ignore.FromPatterns([]string{"*.log"})
	require.NoError(t, stage.CopyTree(src, dst, rules, nil))

	assert.Equal(t, "deep\n", testutils.ReadFile(t, filepath.Join(dst, "a/b/c.txt")))
	assert.Equal(t, "top\n", testutils.ReadFile(t, filepath.Join(dst, "top.txt")))
	assert.NoFileExists(t, filepath.Join(dst, "skip.log"))
}
