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

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/cmd/codedriver/opts"
	"github.com/codedriver/codedriver/pkg/config"
	"github.com/codedriver/codedriver/pkg/log"
	"github.com/codedriver/codedriver/pkg/suggest/registry"
)

var (
	// Flags
	configFile string
	workDir    string
	debug      bool
)

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: discover in working tree)")
	cmd.PersistentFlags().StringVar(&workDir, "dir", ".", "working tree root")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// initRootOpts populates the shared options after flags are parsed
func initRootOpts(ctx context.Context, o *opts.RootOpts) error {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	root, err := filepath.Abs(workDir)
	if err != nil {
		return errors.Errorf("resolving working tree root: %w", err)
	}
	o.WorkingRoot = root

	if configFile != "" {
		o.Config, err = config.Load(ctx, configFile)
	} else {
		o.Config, err = config.Discover(ctx, root)
	}
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	o.Registry, err = registry.Open("")
	if err != nil {
		return errors.Errorf("opening backend registry: %w", err)
	}

	o.Console = log.New(os.Stdout, level)
	return nil
}
