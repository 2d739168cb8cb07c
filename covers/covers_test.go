package covers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"vinylcat/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diskFetcher(t *testing.T) (*Fetcher, string) {
	t.Helper()
	dir := t.TempDir()
	store := storage.NewDiskStorage(&storage.Bucket{
		Name:        "covers",
		StorageType: storage.StorageTypeFile,
		Path:        dir,
	})
	return NewFetcher(store, "vinylcat-test/1.0 +test@example.com"), dir
}

func TestDownloadStoresImage(t *testing.T) {
	payload := []byte("\xff\xd8\xff fake jpeg bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vinylcat-test/1.0 +test@example.com", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher, dir := diskFetcher(t)
	filename := fetcher.Download(context.Background(), server.URL+"/front.jpg", "1477251")
	require.Equal(t, "1477251.jpg", filename)

	stored, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestDownloadAbsorbsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher, _ := diskFetcher(t)
	assert.Empty(t, fetcher.Download(context.Background(), server.URL+"/front.jpg", "1477251"))
}

func TestDownloadAbsorbsDeadHost(t *testing.T) {
	fetcher, _ := diskFetcher(t)
	assert.Empty(t, fetcher.Download(context.Background(), "http://127.0.0.1:1/front.jpg", "1477251"))
}

func TestDownloadRequiresURLAndKey(t *testing.T) {
	fetcher, _ := diskFetcher(t)
	assert.Empty(t, fetcher.Download(context.Background(), "", "1477251"))
	assert.Empty(t, fetcher.Download(context.Background(), "http://example.com/x.jpg", ""))
}

func TestRemove(t *testing.T) {
	fetcher, dir := diskFetcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1477251.jpg"), []byte("x"), 0644))

	fetcher.Remove("1477251.jpg")
	_, err := os.Stat(filepath.Join(dir, "1477251.jpg"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a cover that is already gone is not an error.
	fetcher.Remove("1477251.jpg")
	fetcher.Remove("")
}

func TestServe(t *testing.T) {
	fetcher, dir := diskFetcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1477251.jpg"), []byte("jpeg bytes"), 0644))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/cover/1477251.jpg", nil)
	fetcher.Serve("1477251.jpg", request, recorder)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "jpeg bytes", recorder.Body.String())
}
