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
	"runtime"
)

// ZigPlatform returns the Zig download naming for the running OS, e.g.
// "linux", "macos", "windows". Grounded on the host-platform template
// resolution in the teacher's plugins/asdf_plugin_zig/plugin.go.
func ZigPlatform() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "linux", nil
	case "darwin":
		return "macos", nil
	case "windows":
		return "windows", nil
	case "freebsd":
		return "freebsd", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSystem, runtime.GOOS)
	}
}

// ZigArch returns the Zig download naming for the running architecture,
// e.g. "x86_64", "aarch64", "armv7a".
func ZigArch() (string, error) {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64", nil
	case "386":
		return "x86", nil
	case "arm64":
		return "aarch64", nil
	case "arm":
		return "armv7a", nil
	case "riscv64":
		return "riscv64", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSystem, runtime.GOARCH)
	}
}

// ArchiveExt returns the archive suffix Zig publishes for the running OS:
// "zip" on Windows, "tar.xz" everywhere else.
func ArchiveExt() string {
	if runtime.GOOS == "windows" {
		return "zip"
	}

	return "tar.xz"
}

// ExeSuffix returns ".exe" on Windows, "" otherwise.
func ExeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}

	return ""
}

// HostTarballURL synthesizes the host-platform download URL for a raw Zig
// version string, per the spec's host platform template:
// https://ziglang.org/builds/zig-<os>-<arch>-<version>.<ext>
func HostTarballURL(version string) (string, error) {
	platform, err := ZigPlatform()
	if err != nil {
		return "", err
	}

	arch, err := ZigArch()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"https://ziglang.org/builds/zig-%s-%s-%s.%s",
		platform, arch, version, ArchiveExt(),
	), nil
}

// PlatformKey returns the per-platform index key used to look up a tarball
// URL inside an IndexDocument release object, e.g. "x86_64-linux".
func PlatformKey() (string, error) {
	platform, err := ZigPlatform()
	if err != nil {
		return "", err
	}

	arch, err := ZigArch()
	if err != nil {
		return "", err
	}

	return arch + "-" + platform, nil
}
