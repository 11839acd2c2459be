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

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codedriver/codedriver/pkg/config"
	"github.com/codedriver/codedriver/pkg/testutils"
)

func TestLoadHCL(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".codedriver.hcl": `
backend         = "gemini"
model           = "gemini-2.0-flash"
extensions      = ["sql", ".Proto"]
ignore_patterns = ["vendor/**"]
run_tests       = false
patch_apply     = true
`,
	})

	cfg, err := config.Load(testutils.Context(t), root+"/.codedriver.hcl")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Backend)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, []string{".sql", ".proto"}, cfg.Extensions, "extensions are normalized to lowercase dotted form")
	assert.Equal(t, []string{"vendor/**"}, cfg.IgnorePatterns)
	assert.False(t, cfg.RunTestsEnabled())
	assert.True(t, cfg.BackupEnabled(), "unset toggles resolve to on")
	assert.True(t, cfg.PatchApply)
}

func TestLoadYAML(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".codedriver.yaml": "backend: anthropic\nbackup: false\n",
	})

	cfg, err := config.Load(testutils.Context(t), root+"/.codedriver.yaml")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Backend)
	assert.False(t, cfg.BackupEnabled())
	assert.True(t, cfg.RunTestsEnabled())
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".codedriver.yaml": "backend: anthropic\nbogus_key: 1\n",
	})

	_, err := config.Load(testutils.Context(t), root+"/.codedriver.yaml")
	require.Error(t, err)
}

func TestLoadJSON(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".codedriver.json": `{"backend": "openai", "model": "gpt-4o", "run_tests": true}`,
	})

	cfg, err := config.Load(testutils.Context(t), root+"/.codedriver.json")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Backend)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.True(t, cfg.RunTestsEnabled())
}

func TestLoadJSONRejectsUnknownFields(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".codedriver.json": `{"backend": "openai", "bogus": true}`,
	})

	_, err := config.Load(testutils.Context(t), root+"/.codedriver.json")
	require.Error(t, err)
}

func TestDiscoverPrefersHCL(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{
		".codedriver.hcl":  `backend = "gemini"`,
		".codedriver.yaml": "backend: anthropic\n",
	})

	cfg, err := config.Discover(testutils.Context(t), root)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Backend)
}

func TestDiscoverFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Discover(testutils.Context(t), t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Backend)
	assert.True(t, cfg.RunTestsEnabled())
	assert.True(t, cfg.BackupEnabled())
	assert.False(t, cfg.PatchApply)
}

func TestValidateRejectsEmptyExtension(t *testing.T) {
	cfg := &config.Config{Extensions: []string{"  "}}
	require.Error(t, cfg.Validate())
}

func TestGetParser(t *testing.T) {
	assert.IsType(t, &config.HCLParser{}, config.GetParser(".codedriver.hcl"))
	assert.IsType(t, &config.YAMLParser{}, config.GetParser(".codedriver.yml"))
	assert.IsType(t, &config.JSONParser{}, config.GetParser(".codedriver.json"))
	assert.Nil(t, config.GetParser("config.toml"))
}
