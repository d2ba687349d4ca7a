package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/contentcrush/crush/pkg/model"
)

func TestFileOperationString(t *testing.T) {
	tests := map[FileOperation]string{
		FileOpView:         "view",
		FileOpDownload:     "download",
		FileOpFavorite:     "favorite",
		FileOpDelete:       "delete",
		FileOpShare:        "share",
		FileOperation(999): "unknown",
	}
	for op, want := range tests {
		if got := op.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(op), got, want)
		}
	}
}

func TestShareLink(t *testing.T) {
	tests := []struct {
		name string
		a    model.Attachment
		want string
	}{
		{
			name: "local file",
			a:    model.Attachment{ID: 7},
			want: "crush://share/tok?file=7",
		},
		{
			name: "remote file",
			a:    model.Attachment{ID: 7, FileURL: "https://cdn.example.com/a.pdf?v=2"},
			want: "https://cdn.example.com/a.pdf?share=tok&v=2",
		},
		{
			name: "file url",
			a:    model.Attachment{ID: 8, FileURL: "file:///tmp/a.pdf"},
			want: "crush://share/tok?file=8",
		},
		{
			name: "relative path",
			a:    model.Attachment{ID: 9, FileURL: "uploads/a.pdf"},
			want: "crush://share/tok?file=9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShareLink(&tt.a, "tok"); got != tt.want {
				t.Errorf("ShareLink = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTextual(t *testing.T) {
	for mime, want := range map[string]bool{
		"text/plain":       true,
		"TEXT/Markdown":    true,
		"application/json": true,
		"application/yaml": true,
		"image/png":        false,
		"application/pdf":  false,
		"":                 false,
	} {
		if got := isTextual(mime); got != want {
			t.Errorf("isTextual(%q) = %v, want %v", mime, got, want)
		}
	}
}

func TestReadPreviewTruncates(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.txt")
	if err := os.WriteFile(short, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := readPreview(short); err != nil || got != "hello" {
		t.Errorf("readPreview = %q, %v", got, err)
	}

	// A three-byte rune straddles the limit.
	long := filepath.Join(dir, "long.txt")
	body := strings.Repeat("a", maxPreviewBytes-1) + "€tail"
	if err := os.WriteFile(long, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := readPreview(long)
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(got) {
		t.Error("preview should be valid UTF-8")
	}
	if len(got) != maxPreviewBytes-1 {
		t.Errorf("len = %d, want %d", len(got), maxPreviewBytes-1)
	}

	if _, err := readPreview(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestFileActionsWithoutCache(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	actions := NewFileActions(&memSource{d: testDataset()}, nil, zap.New(core))

	a := &model.Attachment{ID: 1, FileName: "a.txt", FileType: "text/plain"}
	res, ok := actions.View(a)().(FileResultMsg)
	if !ok {
		t.Fatal("View should produce a FileResultMsg")
	}
	if res.Err == nil || !strings.Contains(res.Err.Error(), "no file cache configured") {
		t.Errorf("err = %v", res.Err)
	}
	if !strings.HasPrefix(res.Err.Error(), "view a.txt:") {
		t.Errorf("error should name the operation and file: %v", res.Err)
	}
	if logs.FilterMessage("file action failed").Len() != 1 {
		t.Error("failure should be logged once")
	}
}

func TestFileActionsDeleteIgnoresCacheErrors(t *testing.T) {
	src := &memSource{d: testDataset()}
	files := &memFiles{dir: t.TempDir(), removeErr: errors.New("busy")}
	core, logs := observer.New(zap.WarnLevel)
	actions := NewFileActions(src, files, zap.New(core))

	a := src.d.Attachments[0]
	res := actions.Delete(&a)().(FileResultMsg)
	if res.Err != nil {
		t.Fatalf("delete should succeed despite the cache error: %v", res.Err)
	}
	if logs.FilterMessage("removing cached copy").Len() != 1 {
		t.Error("cache error should be logged as a warning")
	}
	for _, att := range src.d.Attachments {
		if att.ID == a.ID {
			t.Error("attachment should be gone from the source")
		}
	}
}

func TestActionQueue(t *testing.T) {
	var q actionQueue
	q.push(nil)
	if len(q.drain()) != 0 {
		t.Error("nil commands should be dropped")
	}
	q.push(NewFileActions(nil, nil, nil).Download(&model.Attachment{}))
	if got := len(q.drain()); got != 1 {
		t.Errorf("drain = %d commands, want 1", got)
	}
	if len(q.drain()) != 0 {
		t.Error("drain should empty the queue")
	}
}
