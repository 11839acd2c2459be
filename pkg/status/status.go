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

// Package status tracks the per-file state of a staged change set for
// operator display.
package status

import (
	"sync"
)

// 📊 FileStatus represents what a staged change does to a file
type FileStatus int

const (
	StatusUnknown  FileStatus = iota
	StatusNew                 // File does not exist in the working tree
	StatusModified            // File exists and the preview content differs
	StatusDeleted             // File will be removed at apply time
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// 📄 FileInfo describes one entry of the modified file list
type FileInfo struct {
	Path    string     // Relative path
	Status  FileStatus // What the change does
	Added   int        // Lines added relative to the working tree
	Removed int        // Lines removed relative to the working tree
}

// 🔧 Manager collects FileInfo entries in presentation order
type Manager struct {
	mu    sync.RWMutex
	order []string
	files map[string]FileInfo
}

// 🏭 NewManager creates an empty status manager
func NewManager() *Manager {
	return &Manager{files: make(map[string]FileInfo)}
}

// 📈 Track records or updates the status of a path, preserving first-seen
// order for display.
func (m *Manager) Track(info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[info.Path]; !ok {
		m.order = append(m.order, info.Path)
	}
	m.files[info.Path] = info
}

// 🔍 Get returns the tracked info for a path
func (m *Manager) Get(path string) (FileInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[path]
	return info, ok
}

// 📋 List returns all tracked entries in presentation order
func (m *Manager) List() []FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FileInfo, 0, len(m.order))
	for _, path := range m.order {
		out = append(out, m.files[path])
	}
	return out
}

// Len returns the number of tracked entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
