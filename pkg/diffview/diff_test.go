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

package diffview_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedriver/codedriver/pkg/diffview"
	"github.com/codedriver/codedriver/pkg/testutils"
)

func TestLines(t *testing.T) {
	before := "a\nb\nc\n"
	after := "a\nB\nc\nd\n"

	lines := diffview.Lines(before, after)
	var added, removed, context int
	for _, l := range lines {
		switch l.Type {
		case diffview.LineAdded:
			added++
		case diffview.LineRemoved:
			removed++
		case diffview.LineContext:
			context++
		}
	}
	assert.Equal(t, 2, added, "B and d are new")
	assert.Equal(t, 1, removed, "b is gone")
	assert.Equal(t, 2, context, "a and c are unchanged")
}

func TestStats(t *testing.T) {
	added, removed := diffview.Stats("x\ny\n", "x\nz\nw\n")
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)

	added, removed = diffview.Stats("same\n", "same\n")
	assert.Zero(t, added)
	assert.Zero(t, removed)
}

func TestUnifiedIdenticalContentsIsEmpty(t *testing.T) {
	assert.Empty(t, diffview.Unified("a", "b", "one\ntwo\n", "one\ntwo\n"))
}

func TestUnifiedSimpleChange(t *testing.T) {
	before := "one\ntwo\nthree\n"
	after := "one\nTWO\nthree\n"

	patch := diffview.Unified("f.txt", "f.txt", before, after)
	want := `--- f.txt
+++ f.txt
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`
	assert.Equal(t, want, patch)
}

func TestUnifiedNewFile(t *testing.T) {
	patch := diffview.Unified("/dev/null", "new.txt", "", "alpha\nbeta\n")
	assert.True(t, strings.HasPrefix(patch, "--- /dev/null\n+++ new.txt\n"), "headers label the sides")
	assert.Contains(t, patch, "@@ -0,0 +1,2 @@", "empty old side starts at zero")
	assert.Contains(t, patch, "+alpha\n+beta\n")
	assert.NotContains(t, patch, "\n-", "nothing is removed from an empty file")
}

func TestUnifiedDeletedFile(t *testing.T) {
	patch := diffview.Unified("old.txt", "/dev/null", "alpha\nbeta\n", "")
	assert.Contains(t, patch, "@@ -1,2 +0,0 @@")
	assert.Contains(t, patch, "-alpha\n-beta\n")
}

func TestUnifiedDistantChangesSplitIntoHunks(t *testing.T) {
	var beforeLines, afterLines []string
	for i := 0; i < 30; i++ {
		beforeLines = append(beforeLines, "line")
		afterLines = append(afterLines, "line")
	}
	afterLines[0] = "changed-top"
	afterLines[29] = "changed-bottom"

	patch := diffview.Unified("a", "b",
		strings.Join(beforeLines, "\n")+"\n",
		strings.Join(afterLines, "\n")+"\n")
	assert.Equal(t, 2, strings.Count(patch, "@@ -"), "far-apart edits get separate hunks")
}

func TestFileDiffMissingSideTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteTree(t, dir, map[string]string{"b.txt": "content\n"})

	patch, err := diffview.FileDiff(
		filepath.Join(dir, "absent.txt"),
		filepath.Join(dir, "b.txt"),
		"absent.txt", "b.txt",
	)
	require.NoError(t, err)
	assert.Contains(t, patch, "+content")
}

func TestBatchDiff(t *testing.T) {
	working := t.TempDir()
	preview := t.TempDir()
	testutils.WriteTree(t, working, map[string]string{
		"same.txt":    "no change\n",
		"changed.txt": "old body\n",
	})
	testutils.WriteTree(t, preview, map[string]string{
		"same.txt":    "no change\n",
		"changed.txt": "new body\n",
		"created.txt": "hello\n",
	})

	patch, err := diffview.BatchDiff(working, preview, []string{"same.txt", "changed.txt", "created.txt"})
	require.NoError(t, err)

	assert.NotContains(t, patch, "same.txt", "identical files contribute nothing")
	assert.Contains(t, patch, "--- changed.txt")
	assert.Contains(t, patch, "-old body")
	assert.Contains(t, patch, "+new body")
	assert.Contains(t, patch, "+hello")
}
