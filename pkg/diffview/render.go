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

package diffview

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgBlue, color.Bold)
	hunkColor   = color.New(color.FgCyan)
	addColor    = color.New(color.FgGreen)
	delColor    = color.New(color.FgRed)
)

// 🎨 Render writes colorized unified-diff text for a human. The input is the
// same patch text the apply step consumes, so what the operator reviews is
// exactly what gets applied.
func Render(w io.Writer, patch string) {
	for _, line := range strings.Split(strings.TrimRight(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			headerColor.Fprintln(w, line)
		case strings.HasPrefix(line, "@@"):
			hunkColor.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			addColor.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			delColor.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
}
