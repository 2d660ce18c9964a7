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
	"net/http"
	"net/url"
	"strings"
)

// Download issues a single GET for url and streams the response body into w.
// Keep-alive is disabled since each invocation performs at most one request
// per process. Non-2xx statuses and every failure class are reported as
// distinct wrapped errors so callers (and tests) can discriminate them.
func Download(ctx context.Context, rawURL string, w io.Writer) error {
	if _, err := url.Parse(rawURL); err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadParseURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadParseURL, err)
	}

	req.Close = true

	resp, err := HTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDownloadConnect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d for %s", ErrDownloadFailed, resp.StatusCode, rawURL)
	}

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("%w: %s", ErrDownloadWrite, writeErr)
			}
		}

		if readErr == io.EOF {
			return nil
		}

		if readErr != nil {
			return fmt.Errorf("%w: %s", ErrDownloadTransfer, readErr)
		}
	}
}

// DownloadToString downloads rawURL and returns its body as a string.
func DownloadToString(ctx context.Context, rawURL string) (string, error) {
	var sb strings.Builder

	if err := Download(ctx, rawURL, &sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}
