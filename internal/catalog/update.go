package catalog

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	version "github.com/mcuadros/go-version"
	"github.com/pkg/errors"
)

// RemoteURL is where --update fetches the published catalog from.
const RemoteURL = "https://raw.githubusercontent.com/dedsec1121fk/footprint/master/websites.json"

// Doer lets us accept *http.Client or a test double.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UpdateFromRemote downloads the published catalog and replaces the local
// file when the remote "$version" compares newer than the local one.
// Returns true when the file was replaced.
func UpdateFromRemote(ctx context.Context, client Doer, userAgent, remoteURL, destPath string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return false, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "fetch remote catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.Errorf("fetch remote catalog: %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return false, errors.Wrap(err, "read remote catalog")
	}

	// Validate before touching disk; a half-broken remote file must not
	// replace a working local one.
	remote, err := Parse(raw)
	if err != nil {
		return false, errors.Wrap(err, "remote catalog invalid")
	}

	if local, err := Load(destPath); err == nil {
		if !newer(remote.Version, local.Version) {
			return false, nil
		}
	}

	if dir := filepath.Dir(destPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}

	tmp := destPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return false, err
	}
	return true, nil
}

// newer reports whether remote should replace local. An unversioned local
// file is always replaceable; an unversioned remote never wins over a
// versioned local.
func newer(remote, local string) bool {
	if local == "" {
		return true
	}
	if remote == "" {
		return false
	}
	return version.CompareSimple(remote, local) > 0
}
