package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/contentcrush/crush/pkg/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T) *http.Client {
	tr := &http.Transport{DisableKeepAlives: true}
	t.Cleanup(tr.CloseIdleConnections)
	return &http.Client{Transport: tr, Timeout: 5 * time.Second}
}

func TestFetchDownloadsThenHits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	files := New(t.TempDir(), newTestClient(t), nil)
	a := &model.Attachment{ID: 7, FileName: "logo.png", FileURL: srv.URL + "/logo.png"}

	path, hit, err := files.Fetch(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, filepath.Join(files.Dir(), "7-logo.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))

	_, hit, err = files.Fetch(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchDeduplicatesConcurrentDownloads(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	files := New(t.TempDir(), newTestClient(t), nil)
	a := &model.Attachment{ID: 1, FileName: "big.zip", FileURL: srv.URL}

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := files.Fetch(context.Background(), a)
			errs <- err
		}()
	}

	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	files := New(t.TempDir(), newTestClient(t), nil)
	a := &model.Attachment{ID: 2, FileName: "x.pdf", FileURL: srv.URL}

	_, _, err := files.Fetch(context.Background(), a)
	assert.ErrorContains(t, err, "404")

	_, statErr := os.Stat(files.PathFor(a))
	assert.True(t, os.IsNotExist(statErr), "failed download must not leave a file")
}

func TestFetchNoURL(t *testing.T) {
	files := New(t.TempDir(), nil, nil)

	_, _, err := files.Fetch(context.Background(), &model.Attachment{ID: 3, FileName: "a.txt"})
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestFetchLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b\n"), 0o644))

	files := New(t.TempDir(), nil, nil)
	a := &model.Attachment{ID: 4, FileName: "report.csv", FileURL: "file://" + src}

	path, _, err := files.Fetch(context.Background(), a)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	require.NoError(t, files.Remove(a))
	require.NoError(t, files.Remove(a), "removing twice is fine")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPathForSanitizes(t *testing.T) {
	files := New("/cache", nil, nil)

	tests := map[string]string{
		"../../etc/passwd": "9-passwd",
		`dir\evil.exe`:     "9-evil.exe",
		"":                 "9-file",
	}
	for name, want := range tests {
		got := files.PathFor(&model.Attachment{ID: 9, FileName: name})
		assert.Equal(t, filepath.Join("/cache", want), got, name)
	}
}
