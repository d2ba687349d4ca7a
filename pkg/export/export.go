package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/loader"
	"github.com/contentcrush/crush/pkg/model"
)

// ErrUnknownFormat is returned for export formats crush does not produce.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export target.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatJSONC    Format = "jsonc"
	FormatYAML     Format = "yaml"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
)

// Formats lists every supported export format.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatJSONC, FormatYAML, FormatSVG, FormatPNG}

// ParseFormat accepts a format name or common alias ("markdown", "yml").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "jsonc":
		return FormatJSONC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Options configure Render.
type Options struct {
	Title string
	Now   time.Time
	Dates format.DateOptions
}

// Render produces the export of d in format f. Snapshot formats carry the
// raw dataset; the report and charts are built from its hierarchy.
func Render(d *model.Dataset, f Format, opts Options) ([]byte, error) {
	switch f {
	case FormatJSON:
		return loader.Encode(d, loader.FormatJSON)
	case FormatJSONC:
		return loader.Encode(d, loader.FormatJSONC)
	case FormatYAML:
		return loader.Encode(d, loader.FormatYAML)
	}

	forest := hierarchy.BuildDataset(d)
	switch f {
	case FormatMarkdown:
		md := GenerateMarkdown(forest, MarkdownOptions{Title: opts.Title, Now: opts.Now, Dates: opts.Dates})
		return []byte(md), nil
	case FormatSVG, FormatPNG:
		title := opts.Title
		if title == "" {
			title = "Storage by client"
		}
		stats := analysis.Compute(forest)
		var buf bytes.Buffer
		var err error
		if f == FormatSVG {
			err = WriteSVG(&buf, stats, title)
		} else {
			err = WritePNG(&buf, stats, title)
		}
		if err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteFile renders d and writes it to path atomically, creating parent
// directories as needed.
func WriteFile(path string, d *model.Dataset, f Format, opts Options) error {
	data, err := Render(d, f, opts)
	if err != nil {
		return fmt.Errorf("rendering %s export: %w", f, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
