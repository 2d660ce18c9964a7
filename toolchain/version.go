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
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SpecClass classifies a user-supplied version spec per spec.md §3.
type SpecClass int

const (
	// ClassStable is the literal "stable" spec: highest released non-prerelease version.
	ClassStable SpecClass = iota
	// ClassMaster is the literal "master" spec: the zig index's rolling master build.
	ClassMaster
	// ClassLatestInstalled is the literal "latest-installed" spec.
	ClassLatestInstalled
	// ClassStableInstalled is the literal "stable-installed" spec.
	ClassStableInstalled
	// ClassMachLatest is the literal "mach-latest" spec.
	ClassMachLatest
	// ClassMachTagged is a "<version>-mach" spec.
	ClassMachTagged
	// ClassTagged is a semver spec with no prerelease component.
	ClassTagged
	// ClassDev is a semver spec with a prerelease component.
	ClassDev
)

// VersionSpec is a parsed, classified user-supplied version string.
type VersionSpec struct {
	// Raw is the original input string, prefix-stripped but otherwise untouched.
	Raw string
	// Class is the resolved classification.
	Class SpecClass
	// Semver is set for ClassTagged, ClassDev, and ClassMachTagged (the numeric part).
	Semver *semver.Version
}

// ParseVersionSpec classifies a user-supplied version spec string following
// the priority order in spec.md §3: literal aliases first, then the -mach
// suffix, then an optional zig- prefix strip, then semantic version parsing.
func ParseVersionSpec(raw string) (VersionSpec, error) {
	switch raw {
	case "stable":
		return VersionSpec{Raw: raw, Class: ClassStable}, nil
	case "master":
		return VersionSpec{Raw: raw, Class: ClassMaster}, nil
	case "latest-installed":
		return VersionSpec{Raw: raw, Class: ClassLatestInstalled}, nil
	case "stable-installed":
		return VersionSpec{Raw: raw, Class: ClassStableInstalled}, nil
	case "mach-latest":
		return VersionSpec{Raw: raw, Class: ClassMachLatest}, nil
	}

	if strings.HasSuffix(raw, "-mach") {
		numeric := strings.TrimSuffix(raw, "-mach")
		numeric = strings.TrimPrefix(numeric, "zig-")

		v, err := semver.NewVersion(numeric)
		if err != nil {
			return VersionSpec{}, fmt.Errorf("%w: %s", ErrInvalidVersion, raw)
		}

		return VersionSpec{Raw: strings.TrimPrefix(raw, "zig-"), Class: ClassMachTagged, Semver: v}, nil
	}

	stripped := strings.TrimPrefix(raw, "zig-")

	v, err := semver.NewVersion(stripped)
	if err != nil {
		return VersionSpec{}, fmt.Errorf("%w: %s", ErrInvalidVersion, raw)
	}

	class := ClassTagged
	if v.Prerelease() != "" {
		class = ClassDev
	}

	return VersionSpec{Raw: stripped, Class: class, Semver: v}, nil
}

// InstallID returns the canonical "zig-<semver>" directory name for a raw
// version string.
func InstallID(raw string) string {
	return "zig-" + strings.TrimPrefix(raw, "zig-")
}

// HighestSemver returns the highest version among candidates, optionally
// excluding prereleases. It returns false if no candidate parses or (when
// excluding prereleases) none qualifies. Ties keep the first-seen winner.
// Semver precedence ignores build metadata, so only candidates differing
// solely in build metadata can tie; for those the candidate order decides.
func HighestSemver(candidates []string, excludePrerelease bool) (string, bool) {
	var (
		best    string
		bestVer *semver.Version
	)

	for _, c := range candidates {
		v, err := semver.NewVersion(strings.TrimPrefix(c, "zig-"))
		if err != nil {
			continue
		}

		if excludePrerelease && v.Prerelease() != "" {
			continue
		}

		if bestVer == nil || v.GreaterThan(bestVer) {
			bestVer = v
			best = c
		}
	}

	return best, bestVer != nil
}
