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

package protocol

import (
	"strings"
)

// 📝 Parse lexes protocol text into a ChangeSet using the session delimiters
// as literal anchors. It is a single forward pass: no backtracking, so large
// bodies and bodies containing protocol-looking text are safe. Malformed or
// truncated blocks (missing closing delimiter, missing header fields, bad
// hash field) are skipped silently; a partially truncated response still
// yields every well-formed block it contains.
func Parse(content string, delims Delimiters) *ChangeSet {
	cs := &ChangeSet{}
	pos := 0

	for {
		idx := strings.Index(content[pos:], delims.Start)
		if idx < 0 {
			break
		}
		idx += pos

		headerStart := idx + len(delims.Start)
		headerEnd := strings.IndexByte(content[headerStart:], '\n')
		if headerEnd < 0 {
			// Header line is cut off at the end of the response.
			break
		}
		headerEnd += headerStart
		header := strings.Fields(content[headerStart:headerEnd])

		// Resume scanning after the start token unless the block closes.
		pos = headerStart

		if len(header) == 0 {
			continue
		}

		switch header[0] {
		case "SUMMARY":
			body, next, ok := readBody(content, headerEnd+1, delims.End, "SUMMARY")
			if !ok {
				continue
			}
			cs.Summary = strings.TrimSpace(body)
			pos = next

		case "FILE":
			change, ok := parseFileHeader(header)
			if !ok {
				continue
			}
			body, next, ok := readBody(content, headerEnd+1, delims.End, "FILE")
			if !ok {
				continue
			}
			if change.Op != OpDelete {
				change.Content = []byte(strings.TrimSpace(body))
			}
			cs.Changes = append(cs.Changes, change)
			pos = next
		}
	}

	return cs
}

// parseFileHeader validates the `FILE <op> <path> <hash>` header fields.
// The hash field is required for MODIFY/CREATE and optional for DELETE.
func parseFileHeader(header []string) (FileChange, bool) {
	if len(header) < 3 {
		return FileChange{}, false
	}

	var op Operation
	switch strings.ToUpper(header[1]) {
	case "MODIFY":
		op = OpModify
	case "CREATE":
		op = OpCreate
	case "DELETE":
		op = OpDelete
	default:
		return FileChange{}, false
	}

	path := cleanPath(header[2])
	if path == "" || path == "." || strings.HasPrefix(path, "..") || strings.HasPrefix(path, "/") {
		return FileChange{}, false
	}

	change := FileChange{Op: op, Path: path}
	if op == OpDelete {
		return change, true
	}

	if len(header) < 4 || !isShortHash(header[3]) {
		return FileChange{}, false
	}
	change.DeclaredHash = header[3]
	return change, true
}

// readBody scans forward from start for the literal end delimiter followed by
// the expected keyword, returning the body in between and the position just
// past the closing line.
func readBody(content string, start int, endDelim, keyword string) (string, int, bool) {
	if start > len(content) {
		return "", 0, false
	}
	idx := strings.Index(content[start:], endDelim)
	if idx < 0 {
		return "", 0, false
	}
	idx += start

	tailStart := idx + len(endDelim)
	tailEnd := strings.IndexByte(content[tailStart:], '\n')
	if tailEnd < 0 {
		tailEnd = len(content)
	} else {
		tailEnd += tailStart
	}
	tail := strings.Fields(content[tailStart:tailEnd])
	if len(tail) == 0 || tail[0] != keyword {
		return "", 0, false
	}

	return content[start:idx], tailEnd, true
}

func isShortHash(s string) bool {
	if len(s) != shortHashLen {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// 📑 ParseHeaderForm parses the simpler `### [relative-path]` protocol form,
// used when hash-verified delete semantics are not needed. Every block is a
// full-content replacement; whether it lands as a create or a modify is
// decided at staging time by whether the target exists. No integrity hash is
// carried, so all entries verify unconditionally.
func ParseHeaderForm(content string) *ChangeSet {
	cs := &ChangeSet{}

	var currentPath string
	var currentBody []string

	flush := func() {
		if currentPath == "" {
			return
		}
		cs.Changes = append(cs.Changes, FileChange{
			Op:      OpModify,
			Path:    currentPath,
			Content: []byte(strings.Join(currentBody, "\n")),
		})
	}

	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "### [") && strings.HasSuffix(trimmed, "]") {
			flush()
			currentPath = cleanPath(trimmed[len("### [") : len(trimmed)-1])
			currentBody = nil
			continue
		}
		if currentPath != "" {
			currentBody = append(currentBody, line)
		}
	}
	flush()

	return cs
}
