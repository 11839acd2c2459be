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

package suggest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/codedriver/codedriver/pkg/catalog"
	"github.com/codedriver/codedriver/pkg/protocol"
)

const statusOK = "STATUS: OK"

// 📝 ChangePrompt builds the edit-request prompt: the file inventory,
// the requested change, and the exact delimiter contract the parser
// expects back. mediaType comes from the active backend.
func ChangePrompt(entries []catalog.Entry, request string, delims protocol.Delimiters, mediaType func(string) string) string {
	var b strings.Builder

	b.WriteString("I need help modifying some code files. Here are the current files:\n\n")
	for _, e := range entries {
		mt := "text/plain"
		if mediaType != nil {
			mt = mediaType(filepath.Ext(e.Path))
		}
		fmt.Fprintf(&b, "File: %s\nType: %s\n\n%s\n\n", e.Path, mt, e.Content)
	}

	fmt.Fprintf(&b, "The requested changes are:\n%s\n\n", request)

	fmt.Fprintf(&b, `Use these EXACT markers to format your response (note: these are unique for this session):

%[1]s SUMMARY
Brief description of changes
%[2]s SUMMARY

For each file change, use this format:
%[1]s FILE <operation> <filepath> <hash>
File content goes here
%[2]s FILE

Where:
- <operation> is: MODIFY, CREATE, or DELETE
- <filepath> is the path without './' prefix
- <hash> is the first 8 hex characters of the SHA-256 of the file content
- For DELETE operations, no content or hash is needed

Example:
%[1]s FILE MODIFY src/main.py abc12345
def main():
    print("hello")
%[2]s FILE
`, delims.Start, delims.End)

	return b.String()
}

// DescribeChangePrompt asks the backend to interpret a change request
// before any edit is attempted. The reply must end with a STATUS line;
// ParseStatus evaluates it.
func DescribeChangePrompt(request string) string {
	return fmt.Sprintf(`I need to understand how to apply this change request to a software project:

%s

Please analyze and:
1. Explain what changes would be needed
2. List files that might be affected
3. Note any potential risks
4. End with exactly "STATUS: OK" if the request is clear and actionable,
   or "STATUS: NOK" if the request is unclear, risky, or not actionable.

Keep the response concise.`, request)
}

// ParseStatus splits a describe-change reply into the interpretation
// text and whether the backend judged the request actionable.
func ParseStatus(response string) (string, bool) {
	trimmed := strings.TrimSpace(response)
	ok := strings.HasSuffix(trimmed, statusOK)
	if idx := strings.LastIndex(trimmed, "\n"); idx >= 0 {
		last := strings.TrimSpace(trimmed[idx:])
		if strings.HasPrefix(last, "STATUS:") {
			return strings.TrimSpace(trimmed[:idx]), ok
		}
	}
	return trimmed, ok
}

// InfoPrompt builds the project-analysis prompt for the info command
func InfoPrompt(entries []catalog.Entry, request string) string {
	var b strings.Builder

	b.WriteString(`Please analyze these code files and provide a concise summary of:
1. The main purpose of the application
2. Key features and functionality
3. Main components and their roles`)

	if request != "" {
		fmt.Fprintf(&b, "\n\nAdditionally, please address this specific request:\n%s", request)
	}

	b.WriteString("\n\nHere are the files:\n\n")
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("File: %s\n\n%s\n", e.Path, e.Content))
	}
	b.WriteString(strings.Join(blocks, "\n---\n"))

	return b.String()
}
