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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadConfig", func() {
	It("returns platform-derived defaults when zigup.conf is absent", func() {
		configDir := GinkgoT().TempDir()
		dataDir := GinkgoT().TempDir()

		cfg, err := LoadConfig(configDir, dataDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.InstallDir).To(Equal(filepath.Join(dataDir, "installs")))
	})

	It("layers zigup.conf values over the defaults", func() {
		configDir := GinkgoT().TempDir()
		dataDir := GinkgoT().TempDir()

		content := "install_dir=/custom/installs\nzig_symlink=/custom/zig\n"
		Expect(os.WriteFile(filepath.Join(configDir, "zigup.conf"), []byte(content), CommonFilePermission)).To(Succeed())

		cfg, err := LoadConfig(configDir, dataDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.InstallDir).To(Equal("/custom/installs"))
		Expect(cfg.ZigLinkPath).To(Equal("/custom/zig"))
		Expect(cfg.ZlsLinkPath).To(Equal(filepath.Join(dataDir, "zls"+ExeSuffix())))
	})

	It("rejects an unknown config key", func() {
		configDir := GinkgoT().TempDir()
		dataDir := GinkgoT().TempDir()

		Expect(os.WriteFile(filepath.Join(configDir, "zigup.conf"), []byte("bogus_key=x\n"), CommonFilePermission)).To(Succeed())

		_, err := LoadConfig(configDir, dataDir)
		Expect(err).To(MatchError(ErrUnknownConfigKey))
	})

	It("ignores blank lines and comments", func() {
		configDir := GinkgoT().TempDir()
		dataDir := GinkgoT().TempDir()

		content := "# a comment\n\ninstall_dir=/x\n"
		Expect(os.WriteFile(filepath.Join(configDir, "zigup.conf"), []byte(content), CommonFilePermission)).To(Succeed())

		cfg, err := LoadConfig(configDir, dataDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.InstallDir).To(Equal("/x"))
	})
})

var _ = Describe("WriteConfigValue", func() {
	It("round-trips a value written and then read back", func() {
		configDir := GinkgoT().TempDir()
		dataDir := GinkgoT().TempDir()

		Expect(WriteConfigValue(configDir, "install_dir", "/written/installs")).To(Succeed())

		cfg, err := LoadConfig(configDir, dataDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.InstallDir).To(Equal("/written/installs"))
	})

	It("preserves previously written keys when adding a new one", func() {
		configDir := GinkgoT().TempDir()
		dataDir := GinkgoT().TempDir()

		Expect(WriteConfigValue(configDir, "install_dir", "/a")).To(Succeed())
		Expect(WriteConfigValue(configDir, "zig_symlink", "/b")).To(Succeed())

		cfg, err := LoadConfig(configDir, dataDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.InstallDir).To(Equal("/a"))
		Expect(cfg.ZigLinkPath).To(Equal("/b"))
	})

	It("rejects an unknown key", func() {
		configDir := GinkgoT().TempDir()

		err := WriteConfigValue(configDir, "bogus", "x")
		Expect(err).To(MatchError(ErrUnknownConfigKey))
	})
})
