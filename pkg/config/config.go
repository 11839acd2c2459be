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

// Package config loads the tool configuration from .codedriver.hcl,
// .codedriver.yaml, or .codedriver.json in the working tree root.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// candidate config file names, checked in order
var fileNames = []string{".codedriver.hcl", ".codedriver.yaml", ".codedriver.yml", ".codedriver.json"}

// 📚 Config represents the complete tool configuration
type Config struct {
	// Backend is the default text-generation backend name
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Model overrides the backend's default model
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Extensions adds file extensions to the eligible set
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`

	// IgnorePatterns adds glob patterns on top of .codedriverignore
	IgnorePatterns []string `json:"ignore_patterns,omitempty" yaml:"ignore_patterns,omitempty"`

	// RunTests runs TEST CMD markers found in staged files
	RunTests *bool `json:"run_tests,omitempty" yaml:"run_tests,omitempty"`

	// Backup snapshots the working tree before applying
	BackupDefault *bool `json:"backup,omitempty" yaml:"backup,omitempty"`

	// PatchApply uses the external patch tool instead of byte copy
	PatchApply bool `json:"patch_apply,omitempty" yaml:"patch_apply,omitempty"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{}
}

// RunTestsEnabled resolves the run_tests toggle (default on)
func (cfg *Config) RunTestsEnabled() bool {
	return cfg.RunTests == nil || *cfg.RunTests
}

// BackupEnabled resolves the backup toggle (default on)
func (cfg *Config) BackupEnabled() bool {
	return cfg.BackupDefault == nil || *cfg.BackupDefault
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔎 Discover finds the config file under root and loads it, falling
// back to defaults when none exists.
func Discover(ctx context.Context, root string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return Load(ctx, path)
		}
	}
	return Default(), nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	for i, ext := range cfg.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return errors.Errorf("extensions[%d] is empty", i)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Extensions[i] = strings.ToLower(ext)
	}
	return nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

// 🔍 CanParse checks if this parser can handle the given file
func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

// 📝 Parse parses the config from YAML
func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
