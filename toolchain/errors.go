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

import "errors"

// Sentinel errors surfaced to the user, mirroring the teacher's pattern of
// package-level errors.New values wrapped with fmt.Errorf("%w: ...").
var (
	// ErrInvalidVersion indicates a version spec could not be classified or resolved.
	ErrInvalidVersion = errors.New("invalid version")
	// ErrInvalidIndexJSON indicates a release index document failed to parse.
	ErrInvalidIndexJSON = errors.New("invalid index json")
	// ErrUnsupportedSystem indicates the running OS/arch has no known Zig download token.
	ErrUnsupportedSystem = errors.New("unsupported system")
	// ErrNoInstalledVersions indicates an installed-only resolution found nothing under install_dir.
	ErrNoInstalledVersions = errors.New("no installed versions")
	// ErrFailedInstallSearch indicates scanning install_dir for installed versions failed.
	ErrFailedInstallSearch = errors.New("failed to search installed versions")
	// ErrNoDate indicates a resolution partially succeeded: id and url are known but date is not.
	ErrNoDate = errors.New("no date available")

	// ErrNoDataDirectory indicates the platform data directory could not be determined.
	ErrNoDataDirectory = errors.New("no data directory")
	// ErrNoCacheDirectory indicates the platform cache directory could not be determined.
	ErrNoCacheDirectory = errors.New("no cache directory")
	// ErrNoConfigDirectory indicates the platform config directory could not be determined.
	ErrNoConfigDirectory = errors.New("no config directory")

	// ErrDownloadFailed indicates an HTTP download completed with a non-success status code.
	ErrDownloadFailed = errors.New("download failed")
	// ErrDownloadParseURL indicates the download URL could not be parsed into a request.
	ErrDownloadParseURL = errors.New("download failed: invalid url")
	// ErrDownloadConnect indicates the HTTP connection to the remote host failed.
	ErrDownloadConnect = errors.New("download failed: connect error")
	// ErrDownloadTransfer indicates the HTTP request or response body transfer failed.
	ErrDownloadTransfer = errors.New("download failed: transfer error")
	// ErrDownloadWrite indicates writing the downloaded body to its destination failed.
	ErrDownloadWrite = errors.New("download failed: write error")

	// ErrWriteCacheFailed indicates a cache file could not be written.
	ErrWriteCacheFailed = errors.New("write cache failed")
	// ErrReadCacheFailed indicates a cache file could not be read.
	ErrReadCacheFailed = errors.New("read cache failed")

	// ErrUnknownArchiveExtension indicates a download URL has neither a .tar.xz nor .zip suffix.
	ErrUnknownArchiveExtension = errors.New("unknown archive extension")

	// ErrFailedCompile indicates the ZLS build invocation exited non-zero.
	ErrFailedCompile = errors.New("failed to compile")
	// ErrFailedClone indicates cloning the ZLS repository failed.
	ErrFailedClone = errors.New("failed to clone")
	// ErrFailedFetch indicates fetching the ZLS repository's origin remote failed.
	ErrFailedFetch = errors.New("failed to fetch")
	// ErrFailedCheckout indicates checking out the resolved ZLS commit failed.
	ErrFailedCheckout = errors.New("failed to checkout")

	// ErrCorruptPointer indicates a default-pointer read detected a truncated or otherwise corrupt payload.
	ErrCorruptPointer = errors.New("default pointer is corrupt")
	// ErrMarkerNotFound indicates the launcher marker sequence was absent from the launcher template.
	ErrMarkerNotFound = errors.New("launcher marker not found")
	// ErrMarkerNotUnique indicates the launcher marker sequence appeared more than once.
	ErrMarkerNotUnique = errors.New("launcher marker is not unique")

	// ErrInstallNotFound indicates a lifecycle operation targeted an id with no install directory.
	ErrInstallNotFound = errors.New("install not found")
	// ErrPromptNoAnswer indicates a MustConfirm prompt received no explicit y/n answer.
	ErrPromptNoAnswer = errors.New("no answer given")
	// ErrUnknownConfigKey indicates a zigup.conf line used a key outside {install_dir, zig_symlink, zls_symlink}.
	ErrUnknownConfigKey = errors.New("unknown config key")
)
