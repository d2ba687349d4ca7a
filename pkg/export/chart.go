package export

import (
	"fmt"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/format"
)

// Chart geometry, in pixels.
const (
	chartWidth   = 640
	chartMargin  = 20
	chartTitleH  = 30
	chartLabelW  = 160
	chartValueW  = 80
	chartBarH    = 22
	chartBarGap  = 8
	chartMaxBars = 12
)

var (
	chartBackground = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	chartBar        = color.RGBA{0x7D, 0x56, 0xF4, 0xFF}
	chartText       = color.RGBA{0x33, 0x33, 0x33, 0xFF}
	chartTrack      = color.RGBA{0xEE, 0xEE, 0xEE, 0xFF}
)

// bar is one laid-out row of the storage chart.
type bar struct {
	Label string
	Value string
	Y     int
	Width int // Filled length, 0..track width
}

// chartLayout is the resolved geometry shared by the SVG and PNG renderers.
type chartLayout struct {
	Title  string
	Width  int
	Height int
	TrackX int
	TrackW int
	Bars   []bar
}

// layoutStorageChart places one bar per client, largest first, scaled to the
// largest client. At most chartMaxBars clients are drawn.
func layoutStorageChart(stats analysis.Stats, title string) chartLayout {
	clients := stats.Clients
	if len(clients) > chartMaxBars {
		clients = clients[:chartMaxBars]
	}

	l := chartLayout{
		Title:  title,
		Width:  chartWidth,
		TrackX: chartMargin + chartLabelW,
		TrackW: chartWidth - 2*chartMargin - chartLabelW - chartValueW,
	}
	rows := len(clients)
	if rows == 0 {
		rows = 1
	}
	l.Height = chartMargin*2 + chartTitleH + rows*(chartBarH+chartBarGap)

	var largest int64
	for _, c := range clients {
		if c.Bytes > largest {
			largest = c.Bytes
		}
	}

	y := chartMargin + chartTitleH
	for _, c := range clients {
		w := 0
		if largest > 0 {
			w = int(float64(l.TrackW) * float64(c.Bytes) / float64(largest))
		}
		l.Bars = append(l.Bars, bar{
			Label: truncateLabel(c.Name, 22),
			Value: format.FileSize(c.Bytes),
			Y:     y,
			Width: w,
		})
		y += chartBarH + chartBarGap
	}
	return l
}

func truncateLabel(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// WriteSVG renders the storage-per-client bar chart as SVG.
func WriteSVG(w io.Writer, stats analysis.Stats, title string) error {
	l := layoutStorageChart(stats, title)
	text := "font-family:sans-serif;font-size:12px;fill:" + hexColor(chartText)

	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Title(l.Title)
	canvas.Rect(0, 0, l.Width, l.Height, "fill:"+hexColor(chartBackground))
	canvas.Text(chartMargin, chartMargin+14, l.Title, "font-family:sans-serif;font-size:16px;font-weight:bold;fill:"+hexColor(chartText))

	if len(l.Bars) == 0 {
		canvas.Text(chartMargin, chartMargin+chartTitleH+14, "No clients to display.", text)
	}
	for _, b := range l.Bars {
		canvas.Text(chartMargin, b.Y+15, b.Label, text)
		canvas.Rect(l.TrackX, b.Y, l.TrackW, chartBarH, "fill:"+hexColor(chartTrack))
		if b.Width > 0 {
			canvas.Rect(l.TrackX, b.Y, b.Width, chartBarH, "fill:"+hexColor(chartBar))
		}
		canvas.Text(l.TrackX+l.TrackW+8, b.Y+15, b.Value, text)
	}
	canvas.End()
	return nil
}

// WritePNG renders the storage-per-client bar chart as PNG.
func WritePNG(w io.Writer, stats analysis.Stats, title string) error {
	l := layoutStorageChart(stats, title)

	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(chartBackground)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(chartText)
	dc.DrawString(l.Title, chartMargin, chartMargin+14)

	if len(l.Bars) == 0 {
		dc.DrawString("No clients to display.", chartMargin, float64(chartMargin+chartTitleH+14))
	}
	for _, b := range l.Bars {
		y := float64(b.Y)
		dc.SetColor(chartText)
		dc.DrawString(b.Label, chartMargin, y+15)

		dc.SetColor(chartTrack)
		dc.DrawRectangle(float64(l.TrackX), y, float64(l.TrackW), chartBarH)
		dc.Fill()

		if b.Width > 0 {
			dc.SetColor(chartBar)
			dc.DrawRectangle(float64(l.TrackX), y, float64(b.Width), chartBarH)
			dc.Fill()
		}

		dc.SetColor(chartText)
		dc.DrawString(b.Value, float64(l.TrackX+l.TrackW+8), y+15)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}
