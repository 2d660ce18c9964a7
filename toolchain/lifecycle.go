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
	"context"
	"fmt"
	"os"
	"sort"
)

// Lifecycle implements the install_dir housekeeping operations of spec.md
// §4.8: list, keep, clean, clean-outdated, and run.
type Lifecycle struct {
	Layout *InstallLayout
}

// NewLifecycle returns a Lifecycle bound to layout.
func NewLifecycle(layout *InstallLayout) *Lifecycle {
	return &Lifecycle{Layout: layout}
}

// InstallEntry is one row of a List result.
type InstallEntry struct {
	ID   string
	Kept bool
}

// List enumerates installs sorted ascending by id, annotating kept installs.
func (l *Lifecycle) List() ([]InstallEntry, error) {
	ids, err := l.Layout.Installs()
	if err != nil {
		return nil, err
	}

	sort.Strings(ids)

	entries := make([]InstallEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, InstallEntry{ID: id, Kept: l.Layout.HasKeepMarker(id)})
	}

	return entries, nil
}

// Keep creates id's .keep marker. An existing marker is a no-op; a missing
// install is a user error.
func (l *Lifecycle) Keep(id string) error {
	if !Exists(l.Layout.CompilerDir(id)) {
		return fmt.Errorf("%w: %s", ErrInstallNotFound, id)
	}

	if l.Layout.HasKeepMarker(id) {
		return nil
	}

	f, err := os.Create(l.Layout.KeepMarker(id))
	if err != nil {
		return fmt.Errorf("creating keep marker: %w", err)
	}

	return f.Close()
}

// Clean deletes id's install tree. A missing install_dir is a no-op.
func (l *Lifecycle) Clean(id string) error {
	if err := os.RemoveAll(l.Layout.CompilerDir(id)); err != nil {
		return fmt.Errorf("removing install: %w", err)
	}

	return nil
}

// CleanOutdated deletes every install that is neither the overall latest nor
// the latest stable, and carries no .keep marker. zls-repo is never touched.
func (l *Lifecycle) CleanOutdated() ([]string, error) {
	ids, err := l.Layout.Installs()
	if err != nil {
		return nil, err
	}

	latest, _ := HighestSemver(ids, false)
	latestStable, _ := HighestSemver(ids, true)

	var removed []string

	for _, id := range ids {
		if id == latest || id == latestStable {
			continue
		}

		if l.Layout.HasKeepMarker(id) {
			continue
		}

		if err := l.Clean(id); err != nil {
			return removed, err
		}

		removed = append(removed, id)
	}

	return removed, nil
}

// Run resolves id to its compiler binary and spawns it with args,
// propagating its exit code. A non-exit termination (spawn failure, signal)
// is returned as an error.
func (l *Lifecycle) Run(ctx context.Context, id string, args []string) (int, error) {
	bin := l.Layout.CompilerBin(id)
	if !Exists(bin) {
		return 0, fmt.Errorf("%w: %s", ErrInstallNotFound, id)
	}

	return RunChild(ctx, "", bin, args...)
}
