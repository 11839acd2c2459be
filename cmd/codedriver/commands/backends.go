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
	"slices"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/cmd/codedriver/opts"
)

// NewBackendsCmd creates a new backends command
func NewBackendsCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List backends and their rate-limit status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := resolveBackendName(o)
			for _, name := range backendNames {
				marker := " "
				if name == current {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", marker, name, backendStatus(o, name))
			}
			return nil
		},
	}
}

// NewSetBackendCmd creates a new set-backend command
func NewSetBackendCmd(o *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "set-backend <name>",
		Short: "Select the text-generation backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !slices.Contains(backendNames, name) {
				return errors.Errorf("unknown backend %q, expected one of %v", name, backendNames)
			}
			from := o.Registry.Current()
			if from == "" {
				from = "none"
			}
			if err := o.Registry.RecordSwitch(from, name, "manual"); err != nil {
				return errors.Errorf("recording backend switch: %w", err)
			}
			o.Console.Successf("Backend set to %s", name)
			return nil
		},
	}
}
