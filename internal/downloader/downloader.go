// Package downloader fetches remote inputs (.gpf files or YAML problems) so
// the CLI can take a URL wherever it takes a path.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// IsURL reports whether in names an http or https resource.
func IsURL(in string) bool {
	return strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://")
}

// Download copies url to out. A partial file is removed on failure.
func Download(ctx context.Context, url, out string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloader: %s: http error: %s", url, resp.Status)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, resp.Body); err == nil {
		err = f.Close()
	} else {
		f.Close()
	}
	if err != nil {
		os.Remove(out)
	}
	return err
}

// Local returns a local path for in, downloading it into a temporary file
// when in is a URL. cleanup removes anything Local created.
func Local(ctx context.Context, in string) (path string, cleanup func(), err error) {
	if !IsURL(in) {
		return in, func() {}, nil
	}
	f, err := os.CreateTemp("", "gpstream-*.gpf")
	if err != nil {
		return "", nil, err
	}
	path = f.Name()
	f.Close()
	if err := Download(ctx, in, path); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}
