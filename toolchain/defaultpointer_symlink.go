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
	"fmt"
	"os"
)

// SymlinkPointer is the POSIX DefaultPointer implementation: a symlink whose
// target is the compiler or zls binary path.
type SymlinkPointer struct {
	Path string
}

// Set implements DefaultPointer.
func (p *SymlinkPointer) Set(target string) error {
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing existing pointer: %w", err)
	}

	if err := os.Symlink(target, p.Path); err != nil {
		return fmt.Errorf("creating pointer symlink: %w", err)
	}

	return nil
}

// Read implements DefaultPointer. A target exactly maxPathLen bytes long is
// treated as possible silent truncation by the OS and reported as corrupt,
// per spec.md §4.6.
func (p *SymlinkPointer) Read() (string, bool, error) {
	target, err := os.Readlink(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("reading pointer symlink: %w", err)
	}

	if len(target) == maxPathLen {
		return "", false, fmt.Errorf("%w: symlink target exactly at max length", ErrCorruptPointer)
	}

	return installPathToVersion(target), true, nil
}
