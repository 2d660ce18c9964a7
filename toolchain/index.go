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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// IndexKind identifies one of the two release indexes zigup serves.
type IndexKind string

const (
	// IndexZig is the official Zig release index.
	IndexZig IndexKind = "zig"
	// IndexMach is the Mach-engine release index.
	IndexMach IndexKind = "mach"
)

const (
	zigIndexURL  = "https://ziglang.org/download/index.json"
	machIndexURL = "https://machengine.org/zig/index.json"
)

// CachePolicy controls how IndexStore.Get reconciles its in-process and
// on-disk caches with the network, per spec.md §4.2.
type CachePolicy int

const (
	// NeverCache always re-fetches and overwrites the on-disk cache.
	NeverCache CachePolicy = iota
	// TryCache returns the on-disk cache if present and parseable, else fetches.
	TryCache
	// AlwaysCache is served exactly like TryCache: the on-disk cache when
	// present and parseable, otherwise one fetch whose result is cached.
	AlwaysCache
)

// IndexRelease is one release-name's entry inside an IndexDocument.
type IndexRelease struct {
	Date      string                     `json:"date"`
	Version   string                     `json:"version,omitempty"`
	Platforms map[string]IndexPlatform `json:"-"`
}

// IndexPlatform is a release's per-platform sub-object.
type IndexPlatform struct {
	Tarball string `json:"tarball"`
}

// UnmarshalJSON splits the known {date, version} fields from the remaining
// per-platform keys, since IndexRelease's schema mixes fixed metadata fields
// with dynamic platform-keyed sub-objects in the same object.
func (r *IndexRelease) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if dateRaw, ok := raw["date"]; ok {
		if err := json.Unmarshal(dateRaw, &r.Date); err != nil {
			return err
		}

		delete(raw, "date")
	}

	if versionRaw, ok := raw["version"]; ok {
		if err := json.Unmarshal(versionRaw, &r.Version); err != nil {
			return err
		}

		delete(raw, "version")
	}

	r.Platforms = make(map[string]IndexPlatform, len(raw))

	for key, value := range raw {
		var platform IndexPlatform
		if err := json.Unmarshal(value, &platform); err != nil {
			continue
		}

		r.Platforms[key] = platform
	}

	return nil
}

// IndexDocument is a parsed release index: release-name -> release-object.
type IndexDocument map[string]IndexRelease

// IndexStore fetches, parses, caches, and serves the zig and mach release
// indexes, per spec.md §4.2.
type IndexStore struct {
	CacheDir string

	// ZigIndexURL and MachIndexURL override the default remote endpoints
	// when non-empty; tests point these at an httptest.Server.
	ZigIndexURL  string
	MachIndexURL string

	memo map[IndexKind]IndexDocument
}

// NewIndexStore returns an IndexStore whose on-disk cache lives under
// cacheDir/zigup/index-<kind>.json.
func NewIndexStore(cacheDir string) *IndexStore {
	return &IndexStore{CacheDir: cacheDir}
}

func (s *IndexStore) cachePath(kind IndexKind) string {
	return filepath.Join(s.CacheDir, "zigup", fmt.Sprintf("index-%s.json", kind))
}

func (s *IndexStore) remoteURL(kind IndexKind) string {
	if kind == IndexMach {
		if s.MachIndexURL != "" {
			return s.MachIndexURL
		}

		return machIndexURL
	}

	if s.ZigIndexURL != "" {
		return s.ZigIndexURL
	}

	return zigIndexURL
}

// Get returns the parsed document for kind, honoring policy. Once a kind has
// been resolved in-process, subsequent Get calls for that kind return the
// memoized document regardless of policy.
func (s *IndexStore) Get(ctx context.Context, kind IndexKind, policy CachePolicy) (IndexDocument, error) {
	if s.memo == nil {
		s.memo = make(map[IndexKind]IndexDocument)
	}

	if doc, ok := s.memo[kind]; ok {
		return doc, nil
	}

	var doc IndexDocument

	switch policy {
	case NeverCache:
		fetched, err := s.fetch(ctx, kind)
		if err != nil {
			return nil, err
		}

		doc = fetched

		if err := s.writeCache(kind, fetched); err != nil {
			return nil, err
		}

	case TryCache, AlwaysCache:
		if cached, ok := s.readCache(kind); ok {
			doc = cached
		} else {
			fetched, err := s.fetch(ctx, kind)
			if err != nil {
				return nil, err
			}

			doc = fetched

			if err := s.writeCache(kind, fetched); err != nil {
				return nil, err
			}
		}

	default:
		return nil, fmt.Errorf("%w: unknown cache policy", ErrInvalidVersion)
	}

	s.memo[kind] = doc

	return doc, nil
}

func (s *IndexStore) fetch(ctx context.Context, kind IndexKind) (IndexDocument, error) {
	raw, err := DownloadToString(ctx, s.remoteURL(kind))
	if err != nil {
		return nil, err
	}

	var doc IndexDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIndexJSON, err)
	}

	return doc, nil
}

// readCache returns the cached document for kind if present and parseable.
// A corrupt cache file is treated as a miss (logged, not propagated), per
// spec.md §4.2.
func (s *IndexStore) readCache(kind IndexKind) (IndexDocument, bool) {
	data, err := os.ReadFile(s.cachePath(kind))
	if err != nil {
		if !os.IsNotExist(err) {
			Errf("%s: %s", ErrReadCacheFailed, err)
		}

		return nil, false
	}

	var doc IndexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		Errf("corrupt index cache for %s, refetching: %s", kind, err)

		return nil, false
	}

	return doc, true
}

func (s *IndexStore) writeCache(kind IndexKind, doc IndexDocument) error {
	if s.CacheDir == "" {
		return fmt.Errorf("%w", ErrNoCacheDirectory)
	}

	dir := filepath.Join(s.CacheDir, "zigup")
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("%w: %s", ErrWriteCacheFailed, err)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrWriteCacheFailed, err)
	}

	if err := os.WriteFile(s.cachePath(kind), buf.Bytes(), CommonFilePermission); err != nil {
		return fmt.Errorf("%w: %s", ErrWriteCacheFailed, err)
	}

	return nil
}
