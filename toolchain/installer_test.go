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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CompilerInstaller", func() {
	var (
		server    *httptest.Server
		installer *CompilerInstaller
		layout    *InstallLayout
	)

	BeforeEach(func() {
		installDir := GinkgoT().TempDir()
		layout = NewInstallLayout(installDir)
		installer = NewCompilerInstaller(layout)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing.tar.xz" {
				w.WriteHeader(http.StatusNotFound)

				return
			}

			archivePath := filepath.Join(GinkgoT().TempDir(), "zig-x86_64-linux-0.13.0.tar.xz")
			CreateTestTarXz(archivePath, map[string]string{
				"zig-x86_64-linux-0.13.0/zig": "#!/bin/sh\necho fake zig\n",
				"zig-x86_64-linux-0.13.0/lib/std/std.zig": "pub const version = \"0.13.0\";",
			})

			data, err := os.ReadFile(archivePath)
			Expect(err).NotTo(HaveOccurred())

			_, _ = w.Write(data) //nolint:errcheck
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("installs a compiler id from an archive url", func() {
		url := server.URL + "/zig-x86_64-linux-0.13.0.tar.xz"

		err := installer.Install(context.Background(), "zig-0.13.0", url)
		Expect(err).NotTo(HaveOccurred())

		Expect(layout.CompilerBin("zig-0.13.0")).To(BeAnExistingFile())
		Expect(Exists(layout.InstallingDir("zig-0.13.0"))).To(BeFalse())
	})

	It("is idempotent when the compiler dir already exists", func() {
		compilerDir := layout.CompilerDir("zig-0.13.0")
		Expect(os.MkdirAll(compilerDir, CommonDirectoryPermission)).To(Succeed())

		url := server.URL + "/zig-x86_64-linux-0.13.0.tar.xz"

		err := installer.Install(context.Background(), "zig-0.13.0", url)
		Expect(err).NotTo(HaveOccurred())
	})

	It("cleans up the staging directory on a download failure", func() {
		err := installer.Install(context.Background(), "zig-9.9.9", server.URL+"/missing.tar.xz")
		Expect(err).To(HaveOccurred())
		Expect(Exists(layout.InstallingDir("zig-9.9.9"))).To(BeFalse())
	})

	It("rejects urls with an unrecognized archive extension", func() {
		err := installer.Install(context.Background(), "zig-0.13.0", server.URL+"/zig-x86_64-linux-0.13.0.tar.gz")
		Expect(err).To(MatchError(ErrUnknownArchiveExtension))
	})
})

var _ = Describe("CopyDir", func() {
	It("recursively copies files, directories, and symlinks", func() {
		src := GinkgoT().TempDir()
		dst := filepath.Join(GinkgoT().TempDir(), "copied")

		Expect(os.MkdirAll(filepath.Join(src, "nested"), CommonDirectoryPermission)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "top.txt"), []byte("top"), CommonFilePermission)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(src, "nested", "leaf.txt"), []byte("leaf"), CommonFilePermission)).To(Succeed())
		Expect(os.Symlink("leaf.txt", filepath.Join(src, "nested", "link.txt"))).To(Succeed())

		Expect(CopyDir(src, dst)).To(Succeed())

		Expect(filepath.Join(dst, "top.txt")).To(BeAnExistingFile())

		leaf, err := os.ReadFile(filepath.Join(dst, "nested", "leaf.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(leaf)).To(Equal("leaf"))

		target, err := os.Readlink(filepath.Join(dst, "nested", "link.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(target).To(Equal("leaf.txt"))
	})

	It("returns an error when src does not exist", func() {
		err := CopyDir(filepath.Join(GinkgoT().TempDir(), "missing"), GinkgoT().TempDir())
		Expect(err).To(HaveOccurred())
	})
})
