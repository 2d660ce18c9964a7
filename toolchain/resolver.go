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
)

// ReleaseRecord is the immutable result of a successful (or partially
// successful) version resolution, per spec.md §3.
type ReleaseRecord struct {
	ID   string
	URL  string
	Date string // empty when the resolution outcome is NoDate
}

// VersionResolver lazily resolves a VersionSpec to a ReleaseRecord. The
// three getters share one resolution attempt: the first call that needs the
// record performs it; the outcome (including a sticky failure) is memoized
// for every subsequent getter call. This mirrors spec.md §9's "lazy
// resolution with shared error memoization" design note.
type VersionResolver struct {
	Spec   VersionSpec
	Index  *IndexStore
	Layout *InstallLayout

	attempted bool
	record    *ReleaseRecord
	noDate    bool
	err       error
}

// NewVersionResolver constructs a resolver for spec, backed by index and layout.
func NewVersionResolver(spec VersionSpec, index *IndexStore, layout *InstallLayout) *VersionResolver {
	return &VersionResolver{Spec: spec, Index: index, Layout: layout}
}

func (r *VersionResolver) resolve(ctx context.Context) {
	if r.attempted {
		return
	}

	r.attempted = true

	switch r.Spec.Class {
	case ClassStable:
		r.resolveFromIndex(ctx, IndexZig, NeverCache, func(doc IndexDocument) (string, bool) {
			return highestStableKey(doc)
		})
	case ClassMaster:
		r.resolveFromIndex(ctx, IndexZig, NeverCache, func(doc IndexDocument) (string, bool) {
			_, ok := doc["master"]

			return "master", ok
		})
	case ClassMachLatest:
		r.resolveFromIndex(ctx, IndexMach, NeverCache, func(doc IndexDocument) (string, bool) {
			_, ok := doc["mach-latest"]

			return "mach-latest", ok
		})
	case ClassMachTagged:
		r.resolveMachTagged(ctx)
	case ClassTagged:
		r.resolveTagged(ctx)
	case ClassDev:
		r.resolveDev()
	case ClassLatestInstalled:
		r.resolveInstalled(false)
	case ClassStableInstalled:
		r.resolveInstalledStable(ctx)
	default:
		r.err = fmt.Errorf("%w: %s", ErrInvalidVersion, r.Spec.Raw)
	}
}

func (r *VersionResolver) resolveFromIndex(
	ctx context.Context, kind IndexKind, policy CachePolicy, pick func(IndexDocument) (string, bool),
) {
	doc, err := r.Index.Get(ctx, kind, policy)
	if err != nil {
		r.err = err

		return
	}

	key, ok := pick(doc)
	if !ok {
		r.err = fmt.Errorf("%w: %s", ErrInvalidVersion, r.Spec.Raw)

		return
	}

	r.finishFromRelease(key, doc[key])
}

func (r *VersionResolver) finishFromRelease(key string, rel IndexRelease) {
	platformKey, err := PlatformKey()
	if err != nil {
		r.err = err

		return
	}

	platform, ok := rel.Platforms[platformKey]
	if !ok {
		r.err = fmt.Errorf("%w: no tarball for %s", ErrUnsupportedSystem, platformKey)

		return
	}

	id := key
	if rel.Version != "" {
		id = rel.Version
	}

	r.record = &ReleaseRecord{
		ID:   InstallID(id),
		URL:  platform.Tarball,
		Date: rel.Date,
	}
}

func highestStableKey(doc IndexDocument) (string, bool) {
	var candidates []string

	for key := range doc {
		if key == "master" || key == "mach-latest" {
			continue
		}

		candidates = append(candidates, key)
	}

	return HighestSemver(candidates, true)
}

func (r *VersionResolver) resolveMachTagged(ctx context.Context) {
	pick := func(doc IndexDocument) (string, bool) {
		_, ok := doc[r.Spec.Raw]

		return r.Spec.Raw, ok
	}

	doc, err := r.Index.Get(ctx, IndexMach, TryCache)
	if err != nil {
		r.err = err

		return
	}

	if key, ok := pick(doc); ok {
		r.finishFromRelease(key, doc[key])

		return
	}

	doc, err = r.Index.Get(ctx, IndexMach, NeverCache)
	if err != nil {
		r.err = err

		return
	}

	if key, ok := pick(doc); ok {
		r.finishFromRelease(key, doc[key])

		return
	}

	r.err = fmt.Errorf("%w: %s", ErrInvalidVersion, r.Spec.Raw)
}

func (r *VersionResolver) resolveTagged(ctx context.Context) {
	pick := func(doc IndexDocument) (string, bool) {
		_, ok := doc[r.Spec.Raw]

		return r.Spec.Raw, ok
	}

	doc, err := r.Index.Get(ctx, IndexZig, TryCache)
	if err != nil {
		r.err = err

		return
	}

	if key, ok := pick(doc); ok {
		r.finishFromRelease(key, doc[key])

		return
	}

	doc, err = r.Index.Get(ctx, IndexZig, NeverCache)
	if err != nil {
		r.err = err

		return
	}

	if key, ok := pick(doc); ok {
		r.finishFromRelease(key, doc[key])

		return
	}

	r.err = fmt.Errorf("%w: %s", ErrInvalidVersion, r.Spec.Raw)
}

func (r *VersionResolver) resolveDev() {
	url, err := HostTarballURL(r.Spec.Raw)
	if err != nil {
		r.err = err

		return
	}

	r.record = &ReleaseRecord{ID: InstallID(r.Spec.Raw), URL: url}
	r.noDate = true
}

func (r *VersionResolver) resolveInstalled(excludePrerelease bool) {
	ids, err := r.Layout.Installs()
	if err != nil {
		r.err = fmt.Errorf("%w: %s", ErrFailedInstallSearch, err)

		return
	}

	best, ok := HighestSemver(ids, excludePrerelease)
	if !ok {
		r.err = ErrNoInstalledVersions

		return
	}

	url, err := HostTarballURL(stripZigPrefix(best))
	if err != nil {
		r.err = err

		return
	}

	r.record = &ReleaseRecord{ID: best, URL: url}
	r.noDate = true
}

func (r *VersionResolver) resolveInstalledStable(ctx context.Context) {
	ids, err := r.Layout.Installs()
	if err != nil {
		r.err = fmt.Errorf("%w: %s", ErrFailedInstallSearch, err)

		return
	}

	best, ok := HighestSemver(ids, true)
	if !ok {
		r.err = ErrNoInstalledVersions

		return
	}

	doc, err := r.Index.Get(ctx, IndexZig, AlwaysCache)
	if err != nil {
		r.err = err

		return
	}

	rawVersion := stripZigPrefix(best)

	if rel, ok := doc[rawVersion]; ok {
		r.finishFromRelease(rawVersion, rel)

		return
	}

	// The installed version predates or postdates whatever the index
	// currently advertises under that exact key; fall back to a
	// synthesized URL so id/url still resolve, date just does not.
	url, err := HostTarballURL(rawVersion)
	if err != nil {
		r.err = err

		return
	}

	r.record = &ReleaseRecord{ID: best, URL: url}
	r.noDate = true
}

func stripZigPrefix(id string) string {
	if len(id) > 4 && id[:4] == "zig-" {
		return id[4:]
	}

	return id
}

// ID returns the resolved install id, or an error.
func (r *VersionResolver) ID(ctx context.Context) (string, error) {
	r.resolve(ctx)

	if r.err != nil {
		return "", r.err
	}

	return r.record.ID, nil
}

// URL returns the resolved archive URL, or an error.
func (r *VersionResolver) URL(ctx context.Context) (string, error) {
	r.resolve(ctx)

	if r.err != nil {
		return "", r.err
	}

	return r.record.URL, nil
}

// Date returns the resolved release date, or ErrNoDate if id/url resolved
// but no date is available (ClassDev, ClassLatestInstalled, and the
// no-index-match path of ClassStableInstalled).
func (r *VersionResolver) Date(ctx context.Context) (string, error) {
	r.resolve(ctx)

	if r.err != nil {
		return "", r.err
	}

	if r.noDate || r.record.Date == "" {
		return "", ErrNoDate
	}

	return r.record.Date, nil
}
