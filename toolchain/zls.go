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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const zlsCloneURL = "https://github.com/zigtools/zls.git"

// ZlsProvisioner obtains a ZLS build matching an installed compiler, per
// spec.md §4.7: clone/fetch a local repo mirror, check out a resolved
// commit, build with the just-installed compiler, and copy the artifact.
type ZlsProvisioner struct {
	Layout   *InstallLayout
	Prompter Prompter
}

// NewZlsProvisioner returns a ZlsProvisioner bound to layout, prompting
// through prompter.
func NewZlsProvisioner(layout *InstallLayout, prompter Prompter) *ZlsProvisioner {
	return &ZlsProvisioner{Layout: layout, Prompter: prompter}
}

// Provision implements install_zls(compiler_path, version): compilerID
// names the just-installed compiler, spec is the user's original version
// spec (consulted for the master-branch shortcut). An existing zls is kept
// as-is for a non-prerelease compiler version; for a prerelease the user is
// asked whether to rebuild it.
func (z *ZlsProvisioner) Provision(ctx context.Context, compilerID string, spec VersionSpec) error {
	zlsBin := z.Layout.ZlsBin(compilerID)

	if Exists(zlsBin) {
		if _, stable := HighestSemver([]string{compilerID}, true); stable {
			return nil
		}

		if !z.Prompter.Confirm("zls already built for "+compilerID+", rebuild?", false) {
			return nil
		}
	}

	repoDir := z.Layout.ZlsRepoDir()

	repo, err := z.ensureRepo(ctx, repoDir)
	if err != nil {
		return err
	}

	// The commit lookup tries the resolved compiler version (not an alias
	// such as "master") as a ref name first.
	hash, err := z.resolveCommit(repo, VersionSpec{Raw: stripZigPrefix(compilerID), Class: spec.Class})
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFailedCheckout, err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return fmt.Errorf("%w: %s", ErrFailedCheckout, err)
	}

	compilerBin := z.Layout.CompilerBin(compilerID)

	code, err := RunChild(ctx, repoDir, compilerBin, "build", "--release=safe")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFailedCompile, err)
	}

	if code != 0 {
		return fmt.Errorf("%w: zig build exited %d", ErrFailedCompile, code)
	}

	builtBin := filepath.Join(repoDir, "zig-out", "bin", "zls"+ExeSuffix())
	if err := CopyFile(builtBin, zlsBin); err != nil {
		return fmt.Errorf("copying built zls artifact: %w", err)
	}

	return os.Chmod(zlsBin, CommonExecutablePermission)
}

func (z *ZlsProvisioner) ensureRepo(ctx context.Context, repoDir string) (*git.Repository, error) {
	// go-git resolves transports by URL scheme through a package-level
	// registry rather than a per-call option, so the cert-prompting client
	// is installed for "https" before every clone/fetch.
	client.InstallProtocol("https", githttp.NewClient(newCertCallbackClient(z.Prompter)))

	if Exists(repoDir) {
		repo, err := git.PlainOpen(repoDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (try deleting %s)", ErrFailedClone, err, repoDir)
		}

		if z.Prompter.Confirm("fetch zls origin?", true) {
			err := repo.FetchContext(ctx, &git.FetchOptions{
				RemoteName: "origin",
				Progress:   os.Stderr,
			})
			if err != nil && err != git.NoErrAlreadyUpToDate {
				return nil, fmt.Errorf("%w: %s (try deleting %s)", ErrFailedFetch, err, repoDir)
			}
		}

		return repo, nil
	}

	repo, err := git.PlainCloneContext(ctx, repoDir, false, &git.CloneOptions{
		URL:      zlsCloneURL,
		Progress: os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFailedClone, err)
	}

	return repo, nil
}

// resolveCommit implements resolve_zls_commit(id): dwim resolution of the
// spec's raw version first, an origin/master shortcut for ClassMaster
// specs, then an interactive re-prompt loop.
func (z *ZlsProvisioner) resolveCommit(repo *git.Repository, spec VersionSpec) (*plumbing.Hash, error) {
	if hash, err := repo.ResolveRevision(plumbing.Revision(spec.Raw)); err == nil {
		return hash, nil
	}

	if spec.Class == ClassMaster && z.Prompter.Confirm("use origin/master for zls?", true) {
		if hash, err := repo.ResolveRevision(plumbing.Revision("origin/master")); err == nil {
			return hash, nil
		}
	}

	for {
		answer := z.Prompter.Line("enter a zls version, branch, tag, or commit to build against:")
		if answer == "" {
			continue
		}

		hash, err := repo.ResolveRevision(plumbing.Revision(answer))
		if err == nil {
			return hash, nil
		}
	}
}

// newCertCallbackClient returns an HTTP client for go-git transports that
// performs its own certificate verification so an invalid (but
// user-accepted) chain does not abort the clone/fetch, per spec.md §4.7's
// certificate callback. Installed into go-git's https transport via
// client.InstallProtocol, combined with stdlib crypto/tls's
// VerifyPeerCertificate hook.
func newCertCallbackClient(prompter Prompter) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // verification is performed manually below
				VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
					return verifyCertificateChain(rawCerts, prompter)
				},
			},
		},
	}
}

func verifyCertificateChain(rawCerts [][]byte, prompter Prompter) error {
	certs := make([]*x509.Certificate, 0, len(rawCerts))

	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return fmt.Errorf("parsing presented certificate: %w", err)
		}

		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return fmt.Errorf("no certificate presented")
	}

	leaf := certs[0]

	intermediates := x509.NewCertPool()
	for _, c := range certs[1:] {
		intermediates.AddCert(c)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{Intermediates: intermediates}); err == nil {
		return nil
	}

	Stdlog.Warnf("certificate for %s could not be validated", leaf.Subject.CommonName)

	for _, line := range []string{
		fmt.Sprintf("  subject: %s", leaf.Subject),
		fmt.Sprintf("  issuer: %s", leaf.Issuer),
		fmt.Sprintf("  not before: %s", leaf.NotBefore),
		fmt.Sprintf("  not after: %s", leaf.NotAfter),
	} {
		fmt.Fprintln(os.Stderr, line)
	}

	proceed, err := prompter.MustConfirm("continue despite an unverifiable certificate?")
	if err != nil {
		return fmt.Errorf("certificate rejected: %w", err)
	}

	if proceed {
		return nil
	}

	return fmt.Errorf("certificate rejected")
}
