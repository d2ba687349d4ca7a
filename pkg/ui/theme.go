package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/contentcrush/crush/pkg/hierarchy"
)

// Theme holds the colors and shared styles used by every view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor

	// Semantic colors
	Success lipgloss.AdaptiveColor
	Warning lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor

	// Favorite star
	Favorite lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Checked  lipgloss.Style
	Title    lipgloss.Style
	Footer   lipgloss.Style

	// HighContrast is set by HighContrastTheme; views use it to drop dim text.
	HighContrast bool
}

// DefaultTheme returns the standard palette bound to r. A nil renderer uses
// the lipgloss default renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#101F38", Dark: "#8BC34A"},
		Secondary: lipgloss.AdaptiveColor{Light: "#5A6B85", Dark: "#9FB3C8"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A94A6", Dark: "#5C6A80"},
		Highlight: lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A0AEC0"},
		Border:    lipgloss.AdaptiveColor{Light: "#DCE0E5", Dark: "#2A3850"},
		Success:   lipgloss.AdaptiveColor{Light: "#558B2F", Dark: "#8BC34A"},
		Warning:   lipgloss.AdaptiveColor{Light: "#F57F17", Dark: "#FFC107"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E53935"},
		Info:      lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#2196F3"},
		Favorite:  lipgloss.AdaptiveColor{Light: "#F9A825", Dark: "#FFD54F"},
	}
	t.buildStyles()
	return t
}

// HighContrastTheme is the accessibility palette: pure black and white with
// saturated accents and bold selection.
func HighContrastTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	fg := lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	t := Theme{
		Renderer:     r,
		Primary:      fg,
		Secondary:    fg,
		Muted:        fg,
		Highlight:    lipgloss.AdaptiveColor{Light: "#0000CC", Dark: "#00FFFF"},
		Subtext:      fg,
		Border:       fg,
		Success:      lipgloss.AdaptiveColor{Light: "#006600", Dark: "#00FF00"},
		Warning:      lipgloss.AdaptiveColor{Light: "#996600", Dark: "#FFFF00"},
		Danger:       lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
		Info:         lipgloss.AdaptiveColor{Light: "#0000CC", Dark: "#00FFFF"},
		Favorite:     lipgloss.AdaptiveColor{Light: "#996600", Dark: "#FFFF00"},
		HighContrast: true,
	}
	t.buildStyles()
	t.Selected = t.Selected.Bold(true).Underline(true)
	return t
}

func (t *Theme) buildStyles() {
	r := t.Renderer
	t.Base = r.NewStyle()
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E3F2FD", Dark: "#1E2A3D"}).
		Bold(true)
	t.Checked = r.NewStyle().Foreground(t.Highlight).Bold(true)
	t.Title = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.Footer = r.NewStyle().Foreground(t.Subtext)
}

// GetKindIcon returns the icon and color for a client, project or task node.
func (t Theme) GetKindIcon(kind hierarchy.NodeKind) (string, lipgloss.AdaptiveColor) {
	switch kind {
	case hierarchy.KindClient:
		return "🏢", t.Primary
	case hierarchy.KindProject:
		return "📁", t.Highlight
	case hierarchy.KindTask:
		return "📋", t.Secondary
	default:
		return "📄", t.Muted
	}
}

// GetCategoryIcon returns the icon and color for a file category.
func (t Theme) GetCategoryIcon(c hierarchy.FileCategory) (string, lipgloss.AdaptiveColor) {
	switch c {
	case hierarchy.CategoryImage:
		return "🖼", t.Info
	case hierarchy.CategoryDocument:
		return "📕", t.Danger
	case hierarchy.CategorySpreadsheet:
		return "📊", t.Success
	case hierarchy.CategoryArchive:
		return "🗜", t.Warning
	case hierarchy.CategoryAudio:
		return "🎵", t.Highlight
	case hierarchy.CategoryVideo:
		return "🎬", t.Highlight
	default:
		return "📄", t.Muted
	}
}

// NodeIcon resolves the icon for any node: files by category, the rest by kind.
func (t Theme) NodeIcon(node *hierarchy.TreeNode) (string, lipgloss.AdaptiveColor) {
	if node.IsFile() && node.File != nil {
		return t.GetCategoryIcon(node.File.Category)
	}
	return t.GetKindIcon(node.Kind)
}
