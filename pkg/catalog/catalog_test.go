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

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedriver/codedriver/pkg/catalog"
	"github.com/codedriver/codedriver/pkg/ignore"
	"github.com/codedriver/codedriver/pkg/testutils"
)

func paths(entries []catalog.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestScanClassifiesAndSorts(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"main.go":          "package main\n",
		"docs/readme.md":   "# readme\n",
		"Makefile":         "all:\n",
		"photo.png":        "binary",
		"scripts/run.py":   "print()\n",
		".env":             "SECRET=1\n",
		".git/config":      "[core]\n",
		"node_modules/x.js": "ignored\n",
	})

	cat := catalog.New(root, nil, nil)
	eligible, unhandled, err := cat.Scan(testutils.Context(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Makefile", "docs/readme.md", "main.go", "scripts/run.py"}, paths(eligible))
	assert.Equal(t, []string{"photo.png"}, unhandled, "unknown extensions are reported, not dropped silently")

	byPath := map[string]string{}
	for _, e := range eligible {
		byPath[e.Path] = e.Kind
	}
	assert.Equal(t, "Go source", byPath["main.go"])
	assert.Equal(t, "Markdown", byPath["docs/readme.md"])
	assert.Equal(t, "project file", byPath["Makefile"])
	assert.Equal(t, "Python source", byPath["scripts/run.py"])
}

func TestScanHonorsIgnoreRules(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"main.go":       "package main\n",
		"vendor/dep.go": "package dep\n",
		"debug.log":     "noise\n",
	})

	rules := ignore.FromPatterns([]string{"vendor/**", "*.log"})
	eligible, unhandled, err := catalog.New(root, rules, nil).Scan(testutils.Context(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go"}, paths(eligible))
	assert.Empty(t, unhandled, "ignored files never reach classification")
}

func TestScanExtraExtensions(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		"query.sql": "select 1;\n",
	})

	eligible, unhandled, err := catalog.New(root, nil, []string{".sql"}).Scan(testutils.Context(t))
	require.NoError(t, err)

	require.Len(t, eligible, 1)
	assert.Equal(t, "configured type", eligible[0].Kind)
	assert.Empty(t, unhandled)
}

func TestCollectReadsContent(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.go":     "package a\n",
		"b/b.go":   "package b\n",
		"c/c/c.md": "# c\n",
	}
	testutils.WriteTree(t, root, files)

	entries, err := catalog.New(root, nil, nil).Collect(testutils.Context(t))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	for _, e := range entries {
		assert.Equal(t, files[e.Path], string(e.Content), "content matches for %s", e.Path)
	}
}
