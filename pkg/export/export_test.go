package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/loader"
	"github.com/contentcrush/crush/pkg/model"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testDataset() *model.Dataset {
	up := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	return &model.Dataset{
		Clients:  []model.Client{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex | Corp"}},
		Projects: []model.Project{{ID: 10, Name: "Website", ClientID: model.Ref(1)}},
		Tasks:    []model.Task{{ID: 100, Title: "Design", ProjectID: model.Ref(10)}},
		Attachments: []model.Attachment{
			{ID: 1000, Type: model.EntityTask, EntityID: 100, FileName: "logo.png", FileType: "image/png", FileSize: 2048, UploadedAt: up, IsFavorite: true},
			{ID: 1001, Type: model.EntityClient, EntityID: 2, FileName: "contract.pdf", FileType: "application/pdf", FileSize: 5000, UploadedAt: up},
		},
	}
}

func TestGenerateMarkdown(t *testing.T) {
	forest := hierarchy.BuildDataset(testDataset())
	md := GenerateMarkdown(forest, MarkdownOptions{Title: "Report", Now: fixedNow})

	for _, want := range []string{
		"# Report",
		"- **Clients**: 2",
		"- **Files**: 2 (7.0 kB)",
		"- **Favorites**: 1",
		"| Globex \\| Corp | 0 | 0 | 1 | 5.0 kB |",
		"## Acme",
		"- **Website** _(project)_",
		"  - **Design** _(task)_",
		"    - `logo.png` (2.0 kB, 2024-01-05) ★",
		"- `contract.pdf` (5.0 kB, 2024-01-05)",
	} {
		assert.Contains(t, md, want)
	}
	// Globex stores more and is listed first in the table.
	assert.Less(t, strings.Index(md, "| Globex"), strings.Index(md, "| Acme"))
}

func TestGenerateMarkdownEmpty(t *testing.T) {
	md := GenerateMarkdown(nil, MarkdownOptions{Now: fixedNow})
	assert.Contains(t, md, "# Content Crush Files")
	assert.Contains(t, md, "_No clients to display._")
	assert.NotContains(t, md, "Storage by Client")
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"md":       FormatMarkdown,
		"Markdown": FormatMarkdown,
		".json":    FormatJSON,
		"jsonc":    FormatJSONC,
		"yml":      FormatYAML,
		"svg":      FormatSVG,
		"PNG":      FormatPNG,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := FormatFromPath("out/chart.svg")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)
}

func TestRenderSVG(t *testing.T) {
	data, err := Render(testDataset(), FormatSVG, Options{})
	require.NoError(t, err)

	svg := string(data)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(svg), "<?xml"))
	assert.Contains(t, svg, "Storage by client")
	assert.Contains(t, svg, "Globex | Corp")
	assert.Contains(t, svg, "5.0 kB")
	assert.Contains(t, svg, "</svg>")
}

func TestRenderPNG(t *testing.T) {
	data, err := Render(testDataset(), FormatPNG, Options{Title: "Usage"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, chartWidth, img.Bounds().Dx())
}

func TestRenderSnapshotRoundTrips(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatJSONC, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Render(testDataset(), f, Options{})
			require.NoError(t, err)

			got, err := loader.Decode(data, loader.Format(f))
			require.NoError(t, err)
			assert.Len(t, got.Attachments, 2)
			assert.Equal(t, "Globex | Corp", got.Clients[1].Name)
		})
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(testDataset(), Format("pdf"), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.md")
	require.NoError(t, WriteFile(path, testDataset(), FormatMarkdown, Options{Now: fixedNow}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Acme")
}

func TestLayoutStorageChart(t *testing.T) {
	stats := analysis.Compute(hierarchy.BuildDataset(testDataset()))
	l := layoutStorageChart(stats, "t")

	require.Len(t, l.Bars, 2)
	assert.Equal(t, l.TrackW, l.Bars[0].Width, "largest client fills the track")
	assert.Equal(t, int(float64(l.TrackW)*2048/5000), l.Bars[1].Width)
	assert.Less(t, l.Bars[0].Y, l.Bars[1].Y)

	empty := layoutStorageChart(analysis.Stats{}, "t")
	assert.Empty(t, empty.Bars)
	assert.Positive(t, empty.Height)
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", truncateLabel("short", 10))
	assert.Equal(t, "abcd…", truncateLabel("abcdefgh", 5))
}
