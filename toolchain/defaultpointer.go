//
// Copyright (c) 2025 Sumicare
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package toolchain

import (
	"path/filepath"
	"runtime"
)

// maxPathLen bounds the null-terminated path buffer spliced into a launcher
// pointer file, sized for Windows' extended-length path support.
const maxPathLen = 32768

// launcherMarker is the fixed byte sequence located in the launcher
// template to find the splice point, per spec.md §6.
const launcherMarker = "!!!THIS MARKS THE zig_exe_string MEMORY!!#"

// DefaultPointer records and reads back the install id selected as the
// default toolchain, per spec.md §4.6. Two implementations exist: a POSIX
// symlink and, on platforms lacking usable symlinks, a launcher executable
// with the target path spliced in at a fixed marker offset.
type DefaultPointer interface {
	// Set points the pointer at target (an absolute compiler_bin/zls_bin path).
	Set(target string) error
	// Read resolves the pointer and returns the install id it points at.
	// ok is false when the pointer does not exist.
	Read() (id string, ok bool, err error)
}

// NewDefaultPointer returns the platform-appropriate DefaultPointer for path.
func NewDefaultPointer(path string) (DefaultPointer, error) {
	if runtime.GOOS == "windows" {
		return newLauncherPointer(path)
	}

	return &SymlinkPointer{Path: path}, nil
}

// installPathToVersion extracts "zig-<ver>" from a compiler_bin path of the
// form ".../zig-<ver>/files/zig[.exe]".
func installPathToVersion(path string) string {
	return filepath.Base(filepath.Dir(filepath.Dir(path)))
}
