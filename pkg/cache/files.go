// Package cache keeps local copies of attachment files.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/contentcrush/crush/pkg/model"
)

// ErrNoURL is returned for attachments without a file_url.
var ErrNoURL = errors.New("attachment has no file URL")

// Files downloads attachments into a directory and serves later requests from
// there. Concurrent requests for the same attachment share one download.
type Files struct {
	dir    string
	client *http.Client
	logger *zap.Logger
	group  singleflight.Group
}

// New returns a cache rooted at dir. A nil client uses http.DefaultClient.
func New(dir string, client *http.Client, logger *zap.Logger) *Files {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{dir: dir, client: client, logger: logger}
}

// Dir returns the cache directory.
func (f *Files) Dir() string {
	return f.dir
}

// PathFor returns where a's file is (or would be) cached.
func (f *Files) PathFor(a *model.Attachment) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d-%s", a.ID, sanitize(a.FileName)))
}

// Fetch returns the local path of a's file, downloading it when it is not
// cached yet. hit reports whether the file was already present.
func (f *Files) Fetch(ctx context.Context, a *model.Attachment) (path string, hit bool, err error) {
	path = f.PathFor(a)
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}
	if a.FileURL == "" {
		return "", false, fmt.Errorf("attachment %d: %w", a.ID, ErrNoURL)
	}

	_, err, _ = f.group.Do(path, func() (any, error) {
		// Another caller may have finished while we waited.
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		return nil, f.download(ctx, a.FileURL, path)
	})
	if err != nil {
		return "", false, fmt.Errorf("fetching %s: %w", a.FileName, err)
	}
	f.logger.Debug("cached attachment", zap.Int64("id", a.ID), zap.String("path", path))
	return path, false, nil
}

// Remove deletes the cached copy of a, if any.
func (f *Files) Remove(a *model.Attachment) error {
	err := os.Remove(f.PathFor(a))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *Files) download(ctx context.Context, rawURL, dest string) error {
	body, err := f.open(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(dest, body)
}

func (f *Files) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: %s", rawURL, resp.Status)
		}
		return resp.Body, nil
	case "file", "":
		return os.Open(u.Path)
	}
	return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
}

// sanitize keeps a file name safe to use as a single path element.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
