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
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"
)

// shortHashLen is the number of hex characters in a content fingerprint
const shortHashLen = 8

// 🔍 ShortHash returns the 8-lowercase-hex-char fingerprint of content.
// It is a corruption/mismatch detector, not a security boundary.
func ShortHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:shortHashLen]
}

// ✅ Verify reports whether a change's content matches its declared hash.
// Deletes carry no content and always verify. Header-form blocks carry no
// declared hash and are accepted as-is.
func Verify(change FileChange) bool {
	if change.Op == OpDelete {
		return true
	}
	if change.DeclaredHash == "" {
		return true
	}
	return ShortHash(change.Content) == change.DeclaredHash
}

// 🧮 VerifyAll splits a change set into trusted changes and the paths that
// failed verification. Failed entries are dropped, never applied; each one
// is reported as a warning naming the path so the operator can retry just
// that file.
func VerifyAll(logger *zerolog.Logger, cs *ChangeSet) (*ChangeSet, []string) {
	verified := &ChangeSet{Summary: cs.Summary}
	var rejected []string
	for _, change := range cs.Changes {
		if !Verify(change) {
			rejected = append(rejected, change.Path)
			logger.Warn().
				Str("path", change.Path).
				Str("declared_hash", change.DeclaredHash).
				Str("computed_hash", ShortHash(change.Content)).
				Msg("content verification failed, dropping change")
			continue
		}
		verified.Changes = append(verified.Changes, change)
	}
	return verified, rejected
}
