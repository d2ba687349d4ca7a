package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contentcrush/crush/pkg/model"
)

// ErrReadOnly is reported when a write action targets a source that cannot
// change attachments, such as a snapshot file.
var ErrReadOnly = errors.New("data source is read-only")

// DataSource loads the collections the browser shows.
type DataSource interface {
	LoadDataset(ctx context.Context) (*model.Dataset, error)
}

// FileWriter is implemented by sources that can change attachments.
type FileWriter interface {
	SetFavorite(ctx context.Context, id int64, favorite bool) error
	DeleteAttachment(ctx context.Context, id int64) error
}

// FileFetcher materializes attachments on local disk.
type FileFetcher interface {
	Fetch(ctx context.Context, a *model.Attachment) (path string, hit bool, err error)
	Remove(a *model.Attachment) error
}

// FileOperation identifies which file action produced a FileResultMsg.
type FileOperation int

const (
	FileOpView FileOperation = iota
	FileOpDownload
	FileOpFavorite
	FileOpDelete
	FileOpShare
)

func (op FileOperation) String() string {
	switch op {
	case FileOpView:
		return "view"
	case FileOpDownload:
		return "download"
	case FileOpFavorite:
		return "favorite"
	case FileOpDelete:
		return "delete"
	case FileOpShare:
		return "share"
	}
	return "unknown"
}

// FileResultMsg is returned after a file action completes.
type FileResultMsg struct {
	Operation  FileOperation
	Attachment model.Attachment
	Path       string // Local copy, for view and download
	Hit        bool   // Path was already cached
	Preview    string // Text content, for view of textual files
	Link       string // Share link
	Favorite   bool   // New favorite state
	Err        error
}

// maxPreviewBytes caps how much of a textual file the detail pane shows.
const maxPreviewBytes = 16 << 10

// FileActions runs file operations off the UI goroutine. Each method returns
// a tea.Cmd producing a FileResultMsg.
type FileActions struct {
	source    DataSource
	files     FileFetcher
	logger    *zap.Logger
	timeout   time.Duration
	clipboard func(string) error
	newToken  func() string
}

// NewFileActions wires the actions to a data source and file cache. files
// may be nil, in which case view and download report an error.
func NewFileActions(source DataSource, files FileFetcher, logger *zap.Logger) *FileActions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileActions{
		source:    source,
		files:     files,
		logger:    logger,
		timeout:   30 * time.Second,
		clipboard: clipboard.WriteAll,
		newToken:  uuid.NewString,
	}
}

// SetClipboard replaces the function used to copy share links.
func (f *FileActions) SetClipboard(fn func(string) error) {
	f.clipboard = fn
}

// View fetches a and, for textual files, reads a preview.
func (f *FileActions) View(a *model.Attachment) tea.Cmd {
	att := *a
	return f.run(FileOpView, att, func(ctx context.Context, res *FileResultMsg) error {
		path, hit, err := f.fetch(ctx, &att)
		if err != nil {
			return err
		}
		res.Path, res.Hit = path, hit
		if isTextual(att.FileType) {
			preview, err := readPreview(path)
			if err != nil {
				return fmt.Errorf("reading preview: %w", err)
			}
			res.Preview = preview
		}
		return nil
	})
}

// Download fetches a into the local cache.
func (f *FileActions) Download(a *model.Attachment) tea.Cmd {
	att := *a
	return f.run(FileOpDownload, att, func(ctx context.Context, res *FileResultMsg) error {
		path, hit, err := f.fetch(ctx, &att)
		res.Path, res.Hit = path, hit
		return err
	})
}

// ToggleFavorite flips the favorite flag of a in the data source.
func (f *FileActions) ToggleFavorite(a *model.Attachment) tea.Cmd {
	att := *a
	return f.run(FileOpFavorite, att, func(ctx context.Context, res *FileResultMsg) error {
		w, ok := f.source.(FileWriter)
		if !ok {
			return ErrReadOnly
		}
		res.Favorite = !att.IsFavorite
		return w.SetFavorite(ctx, att.ID, res.Favorite)
	})
}

// Delete removes a from the data source and drops its cached copy.
func (f *FileActions) Delete(a *model.Attachment) tea.Cmd {
	att := *a
	return f.run(FileOpDelete, att, func(ctx context.Context, res *FileResultMsg) error {
		w, ok := f.source.(FileWriter)
		if !ok {
			return ErrReadOnly
		}
		if err := w.DeleteAttachment(ctx, att.ID); err != nil {
			return err
		}
		if f.files != nil {
			if err := f.files.Remove(&att); err != nil {
				f.logger.Warn("removing cached copy", zap.Int64("id", att.ID), zap.Error(err))
			}
		}
		return nil
	})
}

// Share builds a share link for a and copies it to the clipboard. The link
// is reported even when the clipboard is unavailable.
func (f *FileActions) Share(a *model.Attachment) tea.Cmd {
	att := *a
	return f.run(FileOpShare, att, func(_ context.Context, res *FileResultMsg) error {
		res.Link = ShareLink(&att, f.newToken())
		if err := f.clipboard(res.Link); err != nil {
			return fmt.Errorf("copying link: %w", err)
		}
		return nil
	})
}

func (f *FileActions) fetch(ctx context.Context, a *model.Attachment) (string, bool, error) {
	if f.files == nil {
		return "", false, errors.New("no file cache configured")
	}
	return f.files.Fetch(ctx, a)
}

// run wraps op in a tea.Cmd with a timeout and logging.
func (f *FileActions) run(op FileOperation, a model.Attachment, fn func(context.Context, *FileResultMsg) error) tea.Cmd {
	logger, timeout := f.logger, f.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res := FileResultMsg{Operation: op, Attachment: a}
		if err := fn(ctx, &res); err != nil {
			res.Err = fmt.Errorf("%s %s: %w", op, a.FileName, err)
			logger.Warn("file action failed", zap.Stringer("op", op), zap.Int64("id", a.ID), zap.Error(err))
			return res
		}
		logger.Info("file action", zap.Stringer("op", op), zap.Int64("id", a.ID))
		return res
	}
}

// ShareLink returns a shareable link for a. Files with a URL get the token
// as a query parameter; local-only files get a crush:// link.
func ShareLink(a *model.Attachment, token string) string {
	if a.FileURL != "" {
		if u, err := url.Parse(a.FileURL); err == nil && u.Scheme != "" && u.Scheme != "file" {
			q := u.Query()
			q.Set("share", token)
			u.RawQuery = q.Encode()
			return u.String()
		}
	}
	return fmt.Sprintf("crush://share/%s?file=%d", token, a.ID)
}

func isTextual(mime string) bool {
	mime = strings.ToLower(mime)
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/json", "application/xml", "application/yaml", "application/x-yaml", "application/toml":
		return true
	}
	return false
}

func readPreview(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	buf, err := io.ReadAll(io.LimitReader(file, maxPreviewBytes))
	if err != nil {
		return "", err
	}
	// Trim a rune split by the limit.
	for i := 0; i < utf8.UTFMax-1 && len(buf) > 0 && !utf8.Valid(buf); i++ {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}

// actionQueue collects commands produced by tree callbacks during one
// Update so the model can batch them.
type actionQueue struct {
	cmds []tea.Cmd
}

func (q *actionQueue) push(cmd tea.Cmd) {
	if cmd != nil {
		q.cmds = append(q.cmds, cmd)
	}
}

func (q *actionQueue) drain() []tea.Cmd {
	cmds := q.cmds
	q.cmds = nil
	return cmds
}
