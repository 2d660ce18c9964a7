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
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CompilerInstaller performs the atomic download -> extract -> rename
// install sequence for one compiler id, per spec.md §4.5.
type CompilerInstaller struct {
	Layout *InstallLayout
}

// NewCompilerInstaller returns a CompilerInstaller bound to layout.
func NewCompilerInstaller(layout *InstallLayout) *CompilerInstaller {
	return &CompilerInstaller{Layout: layout}
}

// Install materializes id from url. It is a no-op if compiler_dir(id)
// already exists (idempotent install).
func (c *CompilerInstaller) Install(ctx context.Context, id, url string) error {
	compilerDir := c.Layout.CompilerDir(id)
	if Exists(compilerDir) {
		return nil
	}

	installingDir := c.Layout.InstallingDir(id)

	if err := os.RemoveAll(installingDir); err != nil {
		return fmt.Errorf("clearing stale install staging directory: %w", err)
	}

	if err := EnsureDir(installingDir); err != nil {
		return fmt.Errorf("creating install staging directory: %w", err)
	}

	base := filepath.Base(url)

	archivePath := filepath.Join(installingDir, base)

	if err := c.downloadArchive(ctx, url, archivePath); err != nil {
		os.RemoveAll(installingDir) //nolint:errcheck // best-effort cleanup, original error is what matters

		return err
	}

	archiveRoot, extractErr := extractArchive(base, archivePath, installingDir)
	if extractErr != nil {
		os.RemoveAll(installingDir) //nolint:errcheck // best-effort cleanup, original error is what matters

		return extractErr
	}

	filesDir := filepath.Join(installingDir, "files")
	if archiveRoot != filesDir {
		if err := os.Rename(archiveRoot, filesDir); err != nil {
			os.RemoveAll(installingDir) //nolint:errcheck // best-effort cleanup

			return fmt.Errorf("normalizing archive root: %w", err)
		}
	}

	if err := os.Remove(archivePath); err != nil {
		os.RemoveAll(installingDir) //nolint:errcheck // best-effort cleanup

		return fmt.Errorf("removing downloaded archive: %w", err)
	}

	if err := os.Rename(installingDir, compilerDir); err != nil {
		return fmt.Errorf("committing install: %w", err)
	}

	return nil
}

func (c *CompilerInstaller) downloadArchive(ctx context.Context, url, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}

	downloadErr := Download(ctx, url, f)

	// Close before inspecting the download error: the file handle must be
	// gone before any parent-directory cleanup delete (spec.md §4.5 step 3).
	closeErr := f.Close()

	if downloadErr != nil {
		return downloadErr
	}

	if closeErr != nil {
		return fmt.Errorf("closing archive file: %w", closeErr)
	}

	return nil
}

// extractArchive extracts the archive at archivePath (named base) into
// destDir and returns the path of the extracted top-level archive root
// (destDir/<base without extension>).
func extractArchive(base, archivePath, destDir string) (string, error) {
	switch {
	case strings.HasSuffix(base, ".tar.xz"):
		if err := ExtractTarXz(archivePath, destDir); err != nil {
			return "", err
		}

		return filepath.Join(destDir, strings.TrimSuffix(base, ".tar.xz")), nil

	case strings.HasSuffix(base, ".zip"):
		if err := ExtractZip(archivePath, destDir); err != nil {
			return "", err
		}

		return filepath.Join(destDir, strings.TrimSuffix(base, ".zip")), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownArchiveExtension, base)
	}
}

// CopyFile copies a single file from src to dst, preserving src's mode.
// Reconstructed from the copyFile walk step in the teacher's
// plugins/asdf_plugin_zig/plugin.go (the exported CopyDir itself was not
// present in the retrieved teacher tree, see DESIGN.md).
func CopyFile(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("reading symlink %s: %w", src, err)
		}

		os.Remove(dst) //nolint:errcheck // replacing any existing file at dst

		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()

		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}

	return out.Close()
}

// CopyDir recursively copies the tree rooted at src into dst, creating dst
// and any intermediate directories as needed, preserving regular-file
// modes and re-creating symlinks rather than following them.
func CopyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm()|CommonDirectoryPermission)
		}

		if err := EnsureDir(filepath.Dir(target)); err != nil {
			return err
		}

		return CopyFile(path, target)
	})
}
