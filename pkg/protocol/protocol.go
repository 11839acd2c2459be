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

// Package protocol parses the delimited edit protocol produced by a
// text-generation backend into a verified set of file changes.
package protocol

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// 🔧 Operation is the kind of edit a block describes
type Operation string

const (
	OpModify Operation = "modify"
	OpCreate Operation = "create"
	OpDelete Operation = "delete"
)

// String returns a string representation of the operation
func (op Operation) String() string {
	return string(op)
}

// 📄 FileChange is a single proposed edit to one relative path
type FileChange struct {
	// Op is what should happen to the path
	Op Operation

	// Path is the slash-separated path relative to the working tree root
	Path string

	// DeclaredHash is the 8-hex-char fingerprint the backend claims for
	// Content. Empty for deletes and for header-form blocks, which carry
	// no integrity hash.
	DeclaredHash string

	// Content is the full new file body. Nil for deletes.
	Content []byte
}

// 📚 ChangeSet is the ordered result of parsing one protocol batch.
// Duplicate paths are kept in order; the staging step resolves them
// last-occurrence-wins.
type ChangeSet struct {
	// Summary is the free-text SUMMARY block, if the batch carried one
	Summary string

	// Changes are the well-formed blocks in the order they appeared
	Changes []FileChange
}

// Paths returns the relative paths of all changes, in order.
func (cs *ChangeSet) Paths() []string {
	paths := make([]string, 0, len(cs.Changes))
	for _, c := range cs.Changes {
		paths = append(paths, c.Path)
	}
	return paths
}

// 🔑 Delimiters are the session-unique tokens that bound protocol blocks.
// They are random per session so that block bodies may contain arbitrary
// text (including text that looks like other protocols) without breaking
// the lexer.
type Delimiters struct {
	Start string
	End   string
}

// 🏭 NewDelimiters generates a fresh delimiter pair from crypto/rand
func NewDelimiters() (Delimiters, error) {
	start, err := newToken()
	if err != nil {
		return Delimiters{}, err
	}
	end, err := newToken()
	if err != nil {
		return Delimiters{}, err
	}
	return Delimiters{Start: start, End: end}, nil
}

func newToken() (string, error) {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generating delimiter token: %w", err)
	}
	return fmt.Sprintf("@==CODEDRIVER==%s==@", base64.RawURLEncoding.EncodeToString(buf[:])), nil
}

// 🧹 cleanPath normalizes a protocol path to a clean relative form.
// Absolute paths and leading "./" are not accepted from the backend.
func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "./")
	p = filepath.ToSlash(filepath.Clean(p))
	return p
}
