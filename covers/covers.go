// Package covers fetches and stores release cover images. Everything here
// is best-effort by contract: a failed download or a missing file at delete
// time is logged and absorbed, never propagated to the ingestion pipeline.
package covers

import (
	"context"
	"net/http"
	"os"
	"time"
	"vinylcat/storage"

	"errors"

	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("covers")

type Fetcher struct {
	client    *http.Client
	store     storage.StorageAPI
	userAgent string
}

// NewFetcher builds a fetcher storing into the given bucket. The timeout
// bounds the whole download; redirects are followed (image hosts love them).
func NewFetcher(store storage.StorageAPI, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		store:     store,
		userAgent: userAgent,
	}
}

// Download streams the image at url into "<key>.jpg" inside the cover
// bucket and returns the stored filename, or "" on any transport error.
func (f *Fetcher) Download(ctx context.Context, url, key string) string {
	if url == "" || key == "" {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Warn("bad cover url", "url", url, "err", err)
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Warn("cover download failed", "url", url, "err", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("cover download failed", "url", url, "status", resp.StatusCode)
		return ""
	}

	filename := key + ".jpg"
	if _, err := f.store.Save(filename, resp.Body); err != nil {
		logger.Warn("could not store cover", "file", filename, "err", err)
		return ""
	}
	// For S3 buckets Save only staged a local copy; push it out and drop
	// the staging file. No-ops on disk buckets.
	if err := f.store.UpdateFile(filename, "image/jpeg"); err != nil {
		logger.Warn("could not upload cover", "file", filename, "err", err)
		f.store.ReleaseLocalFile(filename)
		return ""
	}
	f.store.ReleaseLocalFile(filename)
	return filename
}

// Remove deletes a stored cover file. Missing files are logged only - the
// release is already gone and that is what matters.
func (f *Fetcher) Remove(filename string) {
	if filename == "" {
		return
	}
	f.store.DeleteRemoteFile(filename)
	if err := f.store.Delete(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("cover file already gone", "file", filename)
			return
		}
		logger.Warn("could not delete cover file", "file", filename, "err", err)
	}
}

// Serve streams a stored cover over HTTP, pulling remote copies local first.
func (f *Fetcher) Serve(filename string, r *http.Request, w http.ResponseWriter) {
	if err := f.store.EnsureLocalFile(filename); err != nil {
		logger.Warn("could not localize cover", "file", filename, "err", err)
		http.NotFound(w, r)
		return
	}
	f.store.Serve(filename, r, w)
}
