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

// Package commands holds the codedriver subcommands.
package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/cmd/codedriver/opts"
	"github.com/codedriver/codedriver/pkg/apply"
	"github.com/codedriver/codedriver/pkg/catalog"
	"github.com/codedriver/codedriver/pkg/ignore"
	"github.com/codedriver/codedriver/pkg/pipeline"
	"github.com/codedriver/codedriver/pkg/protocol"
	"github.com/codedriver/codedriver/pkg/selection"
	"github.com/codedriver/codedriver/pkg/status"
	"github.com/codedriver/codedriver/pkg/suggest"
)

// NewChangeCmd creates a new change command
func NewChangeCmd(o *opts.RootOpts) *cobra.Command {
	var (
		noBackup bool
		assumeOK bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "change <request>",
		Short: "Request, preview, and apply code changes",
		Long: `Change sends your request and the project's code files to the selected
backend. The suggested edits are staged in a preview directory where you can
inspect the diff and pick which files to apply. The working tree is backed
up before anything is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "change").Logger().WithContext(cmd.Context())
			request := strings.Join(args, " ")

			backend, err := buildBackend(resolveBackendName(o), o.Config.Model)
			if err != nil {
				return err
			}

			// Interpretation gate: have the backend restate the request
			// and judge whether it is actionable before touching files.
			reply, err := sendPrompt(ctx, o, backend, suggest.DescribeChangePrompt(request), "Analyzing request...")
			if err != nil {
				return err
			}
			interpretation, actionable := suggest.ParseStatus(reply)
			o.Console.Header("Change Request Interpretation:")
			fmt.Fprintln(cmd.OutOrStdout(), interpretation)

			if !actionable && !assumeOK {
				if !confirm(cmd, "Change request may be unclear or risky. Proceed anyway?") {
					o.Console.Warning("Operation cancelled.")
					return nil
				}
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
			o.Console.Header("Processing files:")
			for _, f := range files {
				o.Console.Path(f.Path)
			}

			delims, err := protocol.NewDelimiters()
			if err != nil {
				return err
			}
			reply, err = sendPrompt(ctx, o, backend, suggest.ChangePrompt(files, request, delims, backend.MediaTypeForExtension), "Requesting changes...")
			if err != nil {
				return err
			}
			if verbose {
				o.Console.Header("Raw Response:")
				fmt.Fprintln(cmd.OutOrStdout(), reply)
			}

			strategy := apply.StrategyDirect
			if o.Config.PatchApply {
				strategy = apply.StrategyPatch
			}
			p, err := pipeline.New(o.WorkingRoot, rules, strategy)
			if err != nil {
				return err
			}
			p.RunTests = o.Config.RunTestsEnabled()

			staged, err := p.StageForPreview(ctx, reply, delims)
			if err != nil {
				return errors.Errorf("staging changes: %w", err)
			}

			if staged.Summary != "" {
				o.Console.Header("Summary:")
				fmt.Fprintln(cmd.OutOrStdout(), staged.Summary)
			}
			o.Console.Infof("Changes are staged in: %s", staged.PreviewDir)
			if len(staged.Entries) == 0 {
				o.Console.Warning("No file changes detected in response.")
				return nil
			}
			if !staged.Success {
				o.Console.Warning("A post-edit test command failed. Review the preview before applying.")
			}

			o.Console.Header("Changes Overview:")
			for i, entry := range staged.Entries {
				fmt.Fprintln(cmd.OutOrStdout(), status.FormatEntry(i+1, entry))
			}

			ctrl := selection.New(cmd.InOrStdin(), cmd.OutOrStdout(), staged.Entries, func() error {
				return p.RenderDiff(ctx, staged.Workspace, cmd.OutOrStdout())
			})
			selected, err := ctrl.Run()
			if err != nil {
				return err
			}
			if ctrl.State() == selection.StateCancelled || len(selected) == 0 {
				o.Console.Warning("Operation cancelled. Preview kept for inspection.")
				return nil
			}

			result, err := p.ApplyToWorking(ctx, staged.Workspace, selected, !noBackup && o.Config.BackupEnabled())
			if err != nil {
				return errors.Errorf("applying changes: %w", err)
			}
			if result.BackupDir != "" {
				o.Console.Infof("Backup saved in: %s", result.BackupDir)
			}
			o.Console.Successf("Applied %d file(s) to the working tree", len(selected))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip the working tree backup before applying")
	cmd.Flags().BoolVarP(&assumeOK, "yes", "y", false, "proceed even when the request is judged unclear")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the raw backend response")

	return cmd
}

// loadRules merges .codedriverignore with patterns from the config file
func loadRules(o *opts.RootOpts) (*ignore.Rules, error) {
	rules, err := ignore.Load(o.WorkingRoot)
	if err != nil {
		return nil, errors.Errorf("loading ignore rules: %w", err)
	}
	if len(o.Config.IgnorePatterns) == 0 {
		return rules, nil
	}
	return ignore.FromPatterns(append(rules.Patterns(), o.Config.IgnorePatterns...)), nil
}

// confirm asks a yes/no question on the command's streams
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "⚠ %s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
