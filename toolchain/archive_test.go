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
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Archive helpers", func() {
	Describe("ExtractTarXz", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "extract-tarxz-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("extracts a tar.xz archive", func() {
			archivePath := filepath.Join(tempDir, "zig-linux-x86_64-0.13.0.tar.xz")
			CreateTestTarXz(archivePath, map[string]string{
				"zig-linux-x86_64-0.13.0/zig": "#!/bin/sh\necho zig\n",
			})

			destDir := filepath.Join(tempDir, "extracted")
			err := ExtractTarXz(archivePath, destDir)
			Expect(err).NotTo(HaveOccurred())

			content, err := os.ReadFile(filepath.Join(destDir, "zig-linux-x86_64-0.13.0", "zig"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("echo zig"))
		})

		It("extracts archive with directories", func() {
			archivePath := filepath.Join(tempDir, "test-dirs.tar.xz")
			CreateTestTarXzWithDirs(archivePath)

			destDir := filepath.Join(tempDir, "extracted-dirs")
			err := ExtractTarXz(archivePath, destDir)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(filepath.Join(destDir, "mydir"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("extracts archive with symlinks", func() {
			archivePath := filepath.Join(tempDir, "test-symlink.tar.xz")
			CreateTestTarXzWithSymlink(archivePath)

			destDir := filepath.Join(tempDir, "extracted-symlink")
			err := ExtractTarXz(archivePath, destDir)
			Expect(err).NotTo(HaveOccurred())

			linkTarget, err := os.Readlink(filepath.Join(destDir, "link"))
			Expect(err).NotTo(HaveOccurred())
			Expect(linkTarget).To(Equal("target.txt"))
		})

		It("returns error for nonexistent file", func() {
			err := ExtractTarXz("/nonexistent/archive.tar.xz", tempDir)
			Expect(err).To(HaveOccurred())
		})

		It("returns error for invalid xz file", func() {
			invalidPath := filepath.Join(tempDir, "invalid.tar.xz")
			err := os.WriteFile(invalidPath, []byte("not an xz file"), CommonFilePermission)
			Expect(err).NotTo(HaveOccurred())

			err = ExtractTarXz(invalidPath, filepath.Join(tempDir, "out"))
			Expect(err).To(HaveOccurred())
		})

		It("returns error for directory traversal attempt", func() {
			archivePath := filepath.Join(tempDir, "traversal.tar.xz")
			CreateTestTarXzWithTraversal(archivePath)

			destDir := filepath.Join(tempDir, "extracted-traversal")
			err := ExtractTarXz(archivePath, destDir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid file path"))
		})
	})

	Describe("ExtractZip", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "extract-zip-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("extracts zip archive", func() {
			archivePath := filepath.Join(tempDir, "zig-windows-x86_64-0.13.0.zip")
			CreateTestZip(archivePath, map[string]string{
				"zig-windows-x86_64-0.13.0/zig.exe": "fake exe content",
			})

			destDir := filepath.Join(tempDir, "extracted")
			err := ExtractZip(archivePath, destDir)
			Expect(err).NotTo(HaveOccurred())

			content, err := os.ReadFile(filepath.Join(destDir, "zig-windows-x86_64-0.13.0", "zig.exe"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("fake exe content"))
		})

		It("returns error for nonexistent file", func() {
			err := ExtractZip("/nonexistent/archive.zip", tempDir)
			Expect(err).To(HaveOccurred())
		})

		It("returns error for directory traversal", func() {
			archivePath := filepath.Join(tempDir, "traversal.zip")
			CreateTestZipWithTraversal(archivePath)

			destDir := filepath.Join(tempDir, "extracted-traversal")
			err := ExtractZip(archivePath, destDir)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid file path"))
		})

		It("extracts zip with directories", func() {
			archivePath := filepath.Join(tempDir, "dirs.zip")
			CreateTestZipWithDirs(archivePath)

			destDir := filepath.Join(tempDir, "extracted-dirs")
			err := ExtractZip(archivePath, destDir)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(filepath.Join(destDir, "mydir"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())

			content, err := os.ReadFile(filepath.Join(destDir, "mydir", "file.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal("file in dir"))
		})
	})

	Describe("isPathWithinDir", func() {
		It("returns true for paths inside directory", func() {
			base := filepath.Join(os.TempDir(), "base")
			path := filepath.Join(base, "sub", "file.txt")
			Expect(isPathWithinDir(path, base)).To(BeTrue())
		})

		It("returns false for paths outside directory", func() {
			base := filepath.Join(os.TempDir(), "base")
			path := filepath.Join(os.TempDir(), "other", "file.txt")
			Expect(isPathWithinDir(path, base)).To(BeFalse())
		})

		It("handles equal paths", func() {
			base := filepath.Join(os.TempDir(), "base")
			Expect(isPathWithinDir(base, base)).To(BeTrue())
		})
	})

	Describe("limitedArchiveWriter", func() {
		It("enforces per-file and total limits", func() {
			var buf bytes.Buffer
			var total int64

			writer := &limitedArchiveWriter{
				w:        &buf,
				total:    &total,
				maxTotal: 8,
				maxFile:  5,
			}

			n, err := writer.Write([]byte("hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(5))
			Expect(total).To(Equal(int64(5)))
			Expect(buf.String()).To(Equal("hello"))

			_, err = writer.Write([]byte("world"))
			Expect(err).To(HaveOccurred())
		})

		It("returns error when total counter is nil", func() {
			var buf bytes.Buffer

			writer := &limitedArchiveWriter{
				w:        &buf,
				total:    nil,
				maxTotal: 100,
				maxFile:  50,
			}

			_, err := writer.Write([]byte("test"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("total counter is nil"))
		})

		It("returns error when limits are zero or negative", func() {
			var buf bytes.Buffer
			var total int64

			writer := &limitedArchiveWriter{
				w:        &buf,
				total:    &total,
				maxTotal: 0,
				maxFile:  0,
			}

			_, err := writer.Write([]byte("test"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid archive size limits"))
		})

		It("enforces total limit across multiple files", func() {
			var buf bytes.Buffer
			var total int64

			writer := &limitedArchiveWriter{
				w:        &buf,
				total:    &total,
				maxTotal: 10,
				maxFile:  100,
			}

			numBytes, err := writer.Write([]byte("hello!"))
			Expect(err).NotTo(HaveOccurred())
			Expect(numBytes).To(Equal(6))
			Expect(total).To(Equal(int64(6)))

			writer2 := &limitedArchiveWriter{
				w:        &buf,
				total:    &total,
				maxTotal: 10,
				maxFile:  100,
			}

			numBytes, err = writer2.Write([]byte("world!"))
			Expect(err).To(HaveOccurred())
			Expect(numBytes).To(Equal(4))
			Expect(total).To(Equal(int64(10)))
		})
	})
})

// CreateTestTarXz creates a tar.xz archive at the given path with the
// provided files, mirroring the layout of a real Zig release tarball.
func CreateTestTarXz(path string, files map[string]string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	xzw, err := xz.NewWriter(file)
	Expect(err).NotTo(HaveOccurred())

	defer xzw.Close()

	tw := tar.NewWriter(xzw)
	defer tw.Close()

	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: int64(TarFilePermission),
			Size: int64(len(content)),
		}
		err := tw.WriteHeader(header)
		Expect(err).NotTo(HaveOccurred())

		_, err = tw.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
}

// CreateTestTarXzWithDirs creates a tar.xz archive containing directories
// and files, used to verify directory handling during extraction.
func CreateTestTarXzWithDirs(path string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	xzw, err := xz.NewWriter(file)
	Expect(err).NotTo(HaveOccurred())

	defer xzw.Close()

	tw := tar.NewWriter(xzw)
	defer tw.Close()

	err = tw.WriteHeader(&tar.Header{
		Name:     "mydir/",
		Mode:     int64(CommonDirectoryPermission),
		Typeflag: tar.TypeDir,
	})
	Expect(err).NotTo(HaveOccurred())

	content := "file in dir"

	err = tw.WriteHeader(&tar.Header{
		Name: "mydir/file.txt",
		Mode: int64(TarFilePermission),
		Size: int64(len(content)),
	})
	Expect(err).NotTo(HaveOccurred())

	_, err = tw.Write([]byte(content))
	Expect(err).NotTo(HaveOccurred())
}

// CreateTestTarXzWithSymlink creates a tar.xz archive containing a file and
// a symlink, used to test symlink handling during extraction.
func CreateTestTarXzWithSymlink(path string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	xzw, err := xz.NewWriter(file)
	Expect(err).NotTo(HaveOccurred())

	defer xzw.Close()

	tw := tar.NewWriter(xzw)
	defer tw.Close()

	content := "target content"

	err = tw.WriteHeader(&tar.Header{
		Name: "target.txt",
		Mode: int64(TarFilePermission),
		Size: int64(len(content)),
	})
	Expect(err).NotTo(HaveOccurred())

	_, err = tw.Write([]byte(content))
	Expect(err).NotTo(HaveOccurred())

	err = tw.WriteHeader(&tar.Header{
		Name:     "link",
		Mode:     int64(TarLinkPermission),
		Typeflag: tar.TypeSymlink,
		Linkname: "target.txt",
	})
	Expect(err).NotTo(HaveOccurred())
}

// CreateTestTarXzWithTraversal creates a tar.xz archive with a path
// traversal entry, used to ensure ExtractTarXz rejects it.
func CreateTestTarXzWithTraversal(path string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	xzw, err := xz.NewWriter(file)
	Expect(err).NotTo(HaveOccurred())

	defer xzw.Close()

	tw := tar.NewWriter(xzw)
	defer tw.Close()

	content := "malicious content"

	err = tw.WriteHeader(&tar.Header{
		Name: "../../../etc/malicious.txt",
		Mode: int64(TarFilePermission),
		Size: int64(len(content)),
	})
	Expect(err).NotTo(HaveOccurred())

	_, err = tw.Write([]byte(content))
	Expect(err).NotTo(HaveOccurred())
}

// CreateTestZip creates a zip archive at the given path with the provided
// files. The resulting archive is intentionally small so ExtractZip tests
// stay fast.
func CreateTestZip(path string, files map[string]string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	zipw := zip.NewWriter(file)
	defer zipw.Close()

	for name, content := range files {
		f, err := zipw.Create(name)
		Expect(err).NotTo(HaveOccurred())

		_, err = f.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
}

// CreateTestZipWithTraversal creates a zip archive containing a path
// traversal entry, used to ensure ExtractZip rejects it.
func CreateTestZipWithTraversal(path string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	zipw := zip.NewWriter(file)
	defer zipw.Close()

	f, err := zipw.Create("../../../etc/malicious.txt")
	Expect(err).NotTo(HaveOccurred())

	_, err = f.Write([]byte("malicious"))
	Expect(err).NotTo(HaveOccurred())
}

// CreateTestZipWithDirs creates a zip archive containing directories and
// files so zip extraction can be validated against nested structures.
func CreateTestZipWithDirs(path string) {
	file, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())

	defer file.Close()

	zipw := zip.NewWriter(file)
	defer zipw.Close()

	header := &zip.FileHeader{
		Name:   "mydir/",
		Method: zip.Store,
	}
	header.SetMode(CommonDirectoryPermission | os.ModeDir)

	_, err = zipw.CreateHeader(header)
	Expect(err).NotTo(HaveOccurred())

	fileHeader := &zip.FileHeader{
		Name:   "mydir/file.txt",
		Method: zip.Store,
	}
	fileHeader.SetMode(TarFilePermission)

	f, err := zipw.CreateHeader(fileHeader)
	Expect(err).NotTo(HaveOccurred())

	_, err = f.Write([]byte("file in dir"))
	Expect(err).NotTo(HaveOccurred())
}
