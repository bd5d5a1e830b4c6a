package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPassesPathsThrough(t *testing.T) {
	path, cleanup, err := Local(context.Background(), "testdata/p.gpf")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "testdata/p.gpf", path)
}

func TestLocalDownloadsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p.gpf" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	path, cleanup, err := Local(context.Background(), srv.URL+"/p.gpf")
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	out := filepath.Join(t.TempDir(), "missing.gpf")
	err = Download(context.Background(), srv.URL+"/missing.gpf", out)
	assert.ErrorContains(t, err, "404")
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "failed download must not leave a file")
}
