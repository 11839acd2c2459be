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

// Package selection turns a full staged change set into an operator-chosen
// subset through a blocking prompt loop. The loop is a plain finite state
// machine: it is strictly single-threaded, has no timeout, and "quit" is the
// only in-protocol cancellation path.
package selection

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gitlab.com/tozd/go/errors"

	"github.com/codedriver/codedriver/pkg/status"
)

// 🎛️ State is a node of the selection state machine
type State int

const (
	StatePresenting State = iota
	StateAwaitingChoice
	StateViewDiff
	StateDone
	StateCancelled
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case StatePresenting:
		return "presenting"
	case StateAwaitingChoice:
		return "awaiting_choice"
	case StateViewDiff:
		return "view_diff"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DiffViewer renders the staged diff for operator review
type DiffViewer func() error

var (
	promptColor = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
)

// 🔧 Controller drives the selection loop over the modified file list
type Controller struct {
	in       *bufio.Reader
	out      io.Writer
	entries  []status.FileInfo
	viewDiff DiffViewer
	state    State
}

// 🏭 New creates a controller reading operator choices from in. The reader
// and writer are injected so tests can script the conversation.
func New(in io.Reader, out io.Writer, entries []status.FileInfo, viewDiff DiffViewer) *Controller {
	return &Controller{
		in:       bufio.NewReader(in),
		out:      out,
		entries:  entries,
		viewDiff: viewDiff,
		state:    StatePresenting,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

// 🏃 Run blocks on operator input until the machine reaches DONE or
// CANCELLED. It returns the selected paths; a nil slice with no error means
// the operator quit. Invalid input re-prompts without a state change.
func (c *Controller) Run() ([]string, error) {
	c.present()

	for {
		c.state = StateAwaitingChoice
		promptColor.Fprintln(c.out, "\nOptions: y=apply all, d=view diff, <number>=apply one file, q=quit")
		fmt.Fprint(c.out, "> ")

		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			// Input closed under us; treat like quit, no side effects.
			c.state = StateCancelled
			if err == io.EOF {
				return nil, nil
			}
			return nil, errors.Errorf("reading operator choice: %w", err)
		}

		choice := strings.ToLower(strings.TrimSpace(line))
		switch {
		case choice == "q":
			c.state = StateCancelled
			return nil, nil

		case choice == "y":
			c.state = StateDone
			return c.allPaths(), nil

		case choice == "d":
			c.state = StateViewDiff
			if err := c.viewDiff(); err != nil {
				errColor.Fprintf(c.out, "failed to render diff: %v\n", err)
			}
			// Back to the prompt; viewing never changes the selection.

		case isIndex(choice):
			k, _ := strconv.Atoi(choice)
			if k < 1 || k > len(c.entries) {
				errColor.Fprintln(c.out, "invalid file number")
				continue
			}
			c.state = StateDone
			return []string{c.entries[k-1].Path}, nil

		default:
			errColor.Fprintln(c.out, "invalid choice")
		}
	}
}

// present shows the modified file list with per-entry line counts.
func (c *Controller) present() {
	c.state = StatePresenting
	fmt.Fprintln(c.out, "\nFiles to be changed:")
	for i, info := range c.entries {
		fmt.Fprintln(c.out, status.FormatEntry(i+1, info))
	}
}

func (c *Controller) allPaths() []string {
	paths := make([]string, 0, len(c.entries))
	for _, info := range c.entries {
		paths = append(paths, info.Path)
	}
	return paths
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
