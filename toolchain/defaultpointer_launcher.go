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
	"bytes"
	_ "embed"
	"fmt"
	"os"
)

// launcherTemplate is the pre-built launcher binary, committed as a static
// asset: a real launcher is normally produced by compiling
// cmd/zigup-launcher and capturing its bytes. This template is checked in
// as a stand-in so the marker-splice format can be implemented and tested
// without invoking the Go toolchain; see DESIGN.md.
//
//go:embed launcher/template.bin
var launcherTemplate []byte

// newLauncherPointer returns a LauncherPointer for path, failing fast if the
// embedded launcher template's marker cannot be located uniquely.
func newLauncherPointer(path string) (*LauncherPointer, error) {
	prefix, suffix, err := splitLauncherTemplate(launcherTemplate)
	if err != nil {
		return nil, err
	}

	return &LauncherPointer{Path: path, prefix: prefix, suffix: suffix}, nil
}

// splitLauncherTemplate locates the unique marker in template and returns
// the bytes before the path buffer (through the marker) and after it.
func splitLauncherTemplate(template []byte) (prefix, suffix []byte, err error) {
	marker := []byte(launcherMarker)

	first := bytes.Index(template, marker)
	if first < 0 {
		return nil, nil, ErrMarkerNotFound
	}

	if bytes.Index(template[first+len(marker):], marker) >= 0 {
		return nil, nil, ErrMarkerNotUnique
	}

	prefixEnd := first + len(marker)
	bufferEnd := prefixEnd + maxPathLen + 1

	if bufferEnd > len(template) {
		return nil, nil, fmt.Errorf("%w: launcher template shorter than path buffer", ErrCorruptPointer)
	}

	return template[:prefixEnd], template[bufferEnd:], nil
}

// LauncherPointer is the DefaultPointer implementation for platforms lacking
// usable symlinks: a copy of the launcher template with the target path
// spliced into its null-terminated path buffer.
type LauncherPointer struct {
	Path string

	prefix []byte
	suffix []byte
}

// Set implements DefaultPointer.
func (p *LauncherPointer) Set(target string) error {
	if len(target) > maxPathLen {
		return fmt.Errorf("%w: target path longer than launcher buffer", ErrCorruptPointer)
	}

	buffer := make([]byte, maxPathLen+1)
	copy(buffer, target)

	payload := make([]byte, 0, len(p.prefix)+len(buffer)+len(p.suffix))
	payload = append(payload, p.prefix...)
	payload = append(payload, buffer...)
	payload = append(payload, p.suffix...)

	if err := os.WriteFile(p.Path, payload, CommonExecutablePermission); err != nil {
		return fmt.Errorf("writing launcher pointer: %w", err)
	}

	return nil
}

// Read implements DefaultPointer.
func (p *LauncherPointer) Read() (string, bool, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("reading launcher pointer: %w", err)
	}

	bufferStart := len(p.prefix)
	bufferEnd := bufferStart + maxPathLen + 1

	if len(data) < bufferEnd {
		return "", false, fmt.Errorf("%w: launcher payload truncated", ErrCorruptPointer)
	}

	buffer := data[bufferStart:bufferEnd]

	nul := bytes.IndexByte(buffer, 0)
	if nul < 0 {
		return "", false, fmt.Errorf("%w: launcher path buffer not null-terminated", ErrCorruptPointer)
	}

	target := string(buffer[:nul])

	return installPathToVersion(target), true, nil
}
