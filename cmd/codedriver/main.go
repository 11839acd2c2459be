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

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/codedriver/codedriver/cmd/codedriver/commands"
	"github.com/codedriver/codedriver/cmd/codedriver/opts"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.WarnLevel)
	ctx := logger.WithContext(context.Background())

	o := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "codedriver",
		Short: "Apply AI-suggested code changes safely",
		Long: `codedriver sends your change request together with the project's code
files to a text-generation backend, stages the suggested edits in a preview
directory, and lets you review and selectively apply them to the working tree.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRootOpts(cmd.Context(), o)
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewChangeCmd(o),
		commands.NewInfoCmd(o),
		commands.NewSetBackendCmd(o),
		commands.NewBackendsCmd(o),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
