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

package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/codedriver/codedriver/cmd/codedriver/opts"
	"github.com/codedriver/codedriver/pkg/catalog"
	"github.com/codedriver/codedriver/pkg/suggest"
)

// NewInfoCmd creates a new info command
func NewInfoCmd(o *opts.RootOpts) *cobra.Command {
	var request string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Summarize the project with the selected backend",
		Long: `Info collects the project's code files and asks the backend for a
summary of the application's purpose, features, and components.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "info").Logger().WithContext(cmd.Context())

			backend, err := buildBackend(resolveBackendName(o), o.Config.Model)
			if err != nil {
				return err
			}

			rules, err := loadRules(o)
			if err != nil {
				return err
			}
			files, err := catalog.New(o.WorkingRoot, rules, o.Config.Extensions).Collect(ctx)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				o.Console.Warning("No code files found in the working tree.")
				return nil
			}

			reply, err := sendPrompt(ctx, o, backend, suggest.InfoPrompt(files, request), "Analyzing project...")
			if err != nil {
				return err
			}

			o.Console.Header("Project Analysis:")
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVarP(&request, "request", "r", "", "additional question to address in the analysis")

	return cmd
}
