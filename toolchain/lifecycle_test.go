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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lifecycle", func() {
	var (
		installDir string
		layout     *InstallLayout
		lifecycle  *Lifecycle
	)

	BeforeEach(func() {
		installDir = GinkgoT().TempDir()
		layout = NewInstallLayout(installDir)
		lifecycle = NewLifecycle(layout)
	})

	makeInstall := func(id string) {
		Expect(os.MkdirAll(layout.CompilerDir(id), CommonDirectoryPermission)).To(Succeed())
	}

	Describe("List", func() {
		It("returns installs sorted ascending, annotating kept ones", func() {
			makeInstall("zig-0.13.0")
			makeInstall("zig-0.12.0")
			Expect(lifecycle.Keep("zig-0.12.0")).To(Succeed())

			entries, err := lifecycle.List()
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ID).To(Equal("zig-0.12.0"))
			Expect(entries[0].Kept).To(BeTrue())
			Expect(entries[1].ID).To(Equal("zig-0.13.0"))
			Expect(entries[1].Kept).To(BeFalse())
		})
	})

	Describe("Keep", func() {
		It("is idempotent", func() {
			makeInstall("zig-0.13.0")
			Expect(lifecycle.Keep("zig-0.13.0")).To(Succeed())
			Expect(lifecycle.Keep("zig-0.13.0")).To(Succeed())
			Expect(layout.HasKeepMarker("zig-0.13.0")).To(BeTrue())
		})

		It("errors for a missing install", func() {
			err := lifecycle.Keep("zig-9.9.9")
			Expect(err).To(MatchError(ErrInstallNotFound))
		})
	})

	Describe("Clean", func() {
		It("removes an install tree", func() {
			makeInstall("zig-0.13.0")
			Expect(lifecycle.Clean("zig-0.13.0")).To(Succeed())
			Expect(Exists(layout.CompilerDir("zig-0.13.0"))).To(BeFalse())
		})

		It("is a no-op for a missing install", func() {
			Expect(lifecycle.Clean("zig-9.9.9")).To(Succeed())
		})
	})

	Describe("CleanOutdated", func() {
		It("keeps the latest, the latest stable, and .keep-marked installs, and never touches zls-repo", func() {
			makeInstall("zig-0.11.0")
			makeInstall("zig-0.12.0")
			makeInstall("zig-0.13.0")
			makeInstall("zig-0.14.0-dev.1+aaa")
			Expect(lifecycle.Keep("zig-0.11.0")).To(Succeed())
			Expect(os.MkdirAll(layout.ZlsRepoDir(), CommonDirectoryPermission)).To(Succeed())

			removed, err := lifecycle.CleanOutdated()
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(ConsistOf("zig-0.12.0"))

			Expect(Exists(layout.CompilerDir("zig-0.11.0"))).To(BeTrue(), "kept marker survives")
			Expect(Exists(layout.CompilerDir("zig-0.13.0"))).To(BeTrue(), "latest stable survives")
			Expect(Exists(layout.CompilerDir("zig-0.14.0-dev.1+aaa"))).To(BeTrue(), "overall latest survives")
			Expect(Exists(layout.ZlsRepoDir())).To(BeTrue(), "zls-repo is never touched")
		})
	})

	Describe("Run", func() {
		BeforeEach(func() {
			mockExec(suiteT, func(string) (string, error) { return "/bin/true", nil })
		})

		It("propagates the child's exit code", func() {
			makeInstall("zig-0.13.0")
			Expect(os.WriteFile(layout.CompilerBin("zig-0.13.0"), []byte("#!/bin/sh\nexit 0\n"), CommonExecutablePermission)).To(Succeed())

			os.Setenv("ZIGUP_MOCK_EXIT", "0")
			defer os.Unsetenv("ZIGUP_MOCK_EXIT")

			code, err := lifecycle.Run(context.Background(), "zig-0.13.0", []string{"version"})
			Expect(err).NotTo(HaveOccurred())
			Expect(code).To(Equal(0))
		})

		It("errors for a missing install", func() {
			_, err := lifecycle.Run(context.Background(), "zig-9.9.9", nil)
			Expect(err).To(MatchError(ErrInstallNotFound))
		})
	})
})

var _ = Describe("InstallLayout paths used by Lifecycle", func() {
	It("KeepMarker sits inside the compiler dir", func() {
		layout := NewInstallLayout("/tmp/zigup-installs")
		Expect(layout.KeepMarker("zig-0.13.0")).To(Equal(filepath.Join("/tmp/zigup-installs", "zig-0.13.0", ".keep")))
	})
})
