package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Context identifies which part of the browser has focus, for help content.
type Context int

const (
	ContextTree Context = iota
	ContextDetail
	ContextSearch
)

// ContextHelpContent contains compact help content for each context.
// Content should fit on one screen (~20 lines) without scrolling.
var ContextHelpContent = map[Context]string{
	ContextTree:   contextHelpTree,
	ContextDetail: contextHelpDetail,
	ContextSearch: contextHelpSearch,
}

// GetContextHelp returns the help content for a given context.
// Falls back to generic help if the context has no specific content.
func GetContextHelp(ctx Context) string {
	if content, ok := ContextHelpContent[ctx]; ok {
		return content
	}
	return contextHelpGeneric
}

// RenderContextHelp renders the context-specific help modal.
func RenderContextHelp(ctx Context, theme Theme, width, height int) string {
	content := GetContextHelp(ctx)

	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)

	contentStyle := r.NewStyle().
		Foreground(theme.Subtext)

	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(content))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Esc or ? to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	modal := modalStyle.Render(b.String())
	if width > 0 && height > 0 {
		return r.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
	}
	return modal
}

const contextHelpTree = `## File Tree

**Navigation**
  j/k       Move up/down
  h/l       Collapse / expand
  p         Jump to parent
  g/G       Jump to top/bottom
  PgUp/Dn   Page

**Tree**
  Enter     Expand or collapse
  Space     Select / unselect
  u         Clear selection
  E/C       Expand / collapse all
  /  n      Search, next match
  c         Filter clients
  1-9       Jump to client

**Files**
  v d       View, download
  f s       Favorite, share link
  x x       Delete (press twice)`

const contextHelpDetail = `## Detail Pane

**Navigation**
  j/k       Scroll
  PgUp/Dn   Page
  Tab/Esc   Back to tree

Files show size, type, upload date and a
preview for text files. Clients, projects and
tasks show their comment threads.`

const contextHelpSearch = `## Search

  Type      Match node names (case-insensitive)
  Enter     Jump to the first match
  Esc       Cancel
  n         Next match after closing`

const contextHelpGeneric = `## Quick Reference

  ?         Toggle this help
  Tab       Switch focus
  r         Reload data
  q         Quit`
