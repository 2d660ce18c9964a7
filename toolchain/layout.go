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
	"os"
	"path/filepath"
	"strings"
)

// InstallLayout is a pure path/file-convention helper bound to one
// install_dir. None of its methods mutate anything except EnsureInstallDir.
type InstallLayout struct {
	InstallDir string
}

// NewInstallLayout returns an InstallLayout rooted at installDir.
func NewInstallLayout(installDir string) *InstallLayout {
	return &InstallLayout{InstallDir: installDir}
}

// CompilerDir returns install_dir/<id>.
func (l *InstallLayout) CompilerDir(id string) string {
	return filepath.Join(l.InstallDir, id)
}

// CompilerBin returns install_dir/<id>/files/zig[.exe].
func (l *InstallLayout) CompilerBin(id string) string {
	return filepath.Join(l.CompilerDir(id), "files", "zig"+ExeSuffix())
}

// ZlsBin returns install_dir/<id>/zls[.exe].
func (l *InstallLayout) ZlsBin(id string) string {
	return filepath.Join(l.CompilerDir(id), "zls"+ExeSuffix())
}

// InstallingDir returns the transient shadow directory for id.
func (l *InstallLayout) InstallingDir(id string) string {
	return l.CompilerDir(id) + ".installing"
}

// KeepMarker returns the path of id's .keep marker file.
func (l *InstallLayout) KeepMarker(id string) string {
	return filepath.Join(l.CompilerDir(id), ".keep")
}

// ZlsRepoDir returns install_dir/zls-repo.
func (l *InstallLayout) ZlsRepoDir() string {
	return filepath.Join(l.InstallDir, "zls-repo")
}

// EnsureInstallDir creates install_dir if it does not already exist.
func (l *InstallLayout) EnsureInstallDir() error {
	return EnsureDir(l.InstallDir)
}

// Exists reports whether path exists, tolerating "not found" rather than
// propagating it as an error (spec.md §4.3: "tolerate missing paths").
func Exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

// HasKeepMarker reports whether id has a .keep marker.
func (l *InstallLayout) HasKeepMarker(id string) bool {
	return Exists(l.KeepMarker(id))
}

// Installs enumerates immediate subdirectories of install_dir whose name
// starts with "zig-" and does not end with ".installing". Missing
// install_dir yields an empty, non-error result.
func (l *InstallLayout) Installs() ([]string, error) {
	entries, err := os.ReadDir(l.InstallDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var ids []string

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		name := e.Name()
		if !strings.HasPrefix(name, "zig-") || strings.HasSuffix(name, ".installing") {
			continue
		}

		ids = append(ids, name)
	}

	return ids, nil
}
