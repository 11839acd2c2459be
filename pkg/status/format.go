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

package status

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	newColor     = color.New(color.FgGreen)
	modColor     = color.New(color.FgYellow)
	delColor     = color.New(color.FgRed)
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
)

// 📝 FormatEntry renders one modified-file entry for the selection prompt,
// with a 1-based index and per-entry added/removed line counts.
func FormatEntry(idx int, info FileInfo) string {
	var label string
	switch info.Status {
	case StatusNew:
		label = newColor.Sprintf("%-8s", "new")
	case StatusDeleted:
		label = delColor.Sprintf("%-8s", "delete")
	default:
		label = modColor.Sprintf("%-8s", "modify")
	}

	var counts []string
	if info.Added > 0 {
		counts = append(counts, addedColor.Sprintf("+%d", info.Added))
	}
	if info.Removed > 0 {
		counts = append(counts, removedColor.Sprintf("-%d", info.Removed))
	}

	line := fmt.Sprintf("  [%d] %s %s", idx, label, info.Path)
	if len(counts) > 0 {
		line += "  " + strings.Join(counts, " ")
	}
	return line
}
