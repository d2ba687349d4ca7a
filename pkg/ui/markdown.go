package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// MarkdownRenderer wraps glamour for the detail pane. It rebuilds the
// underlying renderer only when the width or style changes.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string // glamour standard style; "" means auto
	theme    *Theme
	useTheme bool
}

// NewMarkdownRenderer returns a renderer that picks a light or dark style
// from the terminal.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width}
	mr.rebuild()
	return mr
}

// NewMarkdownRendererWithStyle uses a named glamour style ("dark", "light",
// "notty", ...).
func NewMarkdownRendererWithStyle(width int, style string) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width, style: style}
	mr.rebuild()
	return mr
}

// NewMarkdownRendererWithTheme derives the markdown colors from theme.
func NewMarkdownRendererWithTheme(width int, theme Theme) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width, theme: &theme, useTheme: true}
	mr.rebuild()
	return mr
}

func (mr *MarkdownRenderer) rebuild() {
	var styleOpt glamour.TermRendererOption
	switch {
	case mr.useTheme && mr.theme != nil:
		styleOpt = glamour.WithStyles(buildStyleFromTheme(*mr.theme, mr.IsDarkMode()))
	case mr.style != "":
		styleOpt = glamour.WithStandardStyle(mr.style)
	default:
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(mr.width))
	if err != nil {
		r = nil
	}
	mr.renderer = r
}

// Render renders md. With no renderer the markdown is returned unchanged.
func (mr *MarkdownRenderer) Render(md string) (string, error) {
	if mr.renderer == nil {
		return md, nil
	}
	return mr.renderer.Render(md)
}

// SetWidth changes the wrap width. Non-positive widths are ignored.
func (mr *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 || width == mr.width {
		return
	}
	mr.width = width
	mr.rebuild()
}

// SetWidthWithTheme changes the width and switches to theme colors.
func (mr *MarkdownRenderer) SetWidthWithTheme(width int, theme Theme) {
	if width > 0 {
		mr.width = width
	}
	mr.theme = &theme
	mr.useTheme = true
	mr.rebuild()
}

// IsDarkMode reports whether the terminal background is dark.
func (mr *MarkdownRenderer) IsDarkMode() bool {
	if mr.theme != nil && mr.theme.Renderer != nil {
		return mr.theme.Renderer.HasDarkBackground()
	}
	return lipgloss.HasDarkBackground()
}

func extractHex(c lipgloss.AdaptiveColor, dark bool) string {
	if dark {
		return c.Dark
	}
	return c.Light
}

func strPtr(s string) *string { return &s }

// buildStyleFromTheme starts from glamour's light or dark style and swaps in
// the theme's accent colors.
func buildStyleFromTheme(theme Theme, dark bool) ansi.StyleConfig {
	cfg := styles.LightStyleConfig
	doc := "#000000"
	if dark {
		cfg = styles.DarkStyleConfig
		doc = "#f8f8f2"
	}
	if theme.HighContrast && dark {
		doc = "#ffffff"
	}

	cfg.Document.Color = strPtr(doc)
	cfg.Heading.Color = strPtr(extractHex(theme.Primary, dark))
	cfg.H1.Color = strPtr(extractHex(theme.Primary, dark))
	cfg.H1.BackgroundColor = nil
	cfg.Link.Color = strPtr(extractHex(theme.Highlight, dark))
	cfg.LinkText.Color = strPtr(extractHex(theme.Highlight, dark))
	cfg.BlockQuote.Color = strPtr(extractHex(theme.Subtext, dark))
	cfg.Code.Color = strPtr(extractHex(theme.Secondary, dark))
	return cfg
}
