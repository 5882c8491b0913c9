// SPDX-License-Identifier: AGPL-3.0-or-later

package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// httpGetImpl downloads uri to localPath via a plain GET. UriAsset has
// no caching or authentication story in the spec, so this stays a thin
// net/http wrapper rather than reaching for a heavier HTTP client — the
// same stdlib-only call the teacher's own outbound webhook code makes.
func httpGetImpl(ctx context.Context, uri, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", uri, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetching %s: status %s", uri, resp.Status)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", localPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", localPath, err)
	}
	return nil
}
