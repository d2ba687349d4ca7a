package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/format"
)

// maxClientSlots is the number of clients reachable with the digit keys.
const maxClientSlots = 9

// ClientEntry holds display data for one client in the picker.
type ClientEntry struct {
	NodeID string
	Name   string
	Slot   int // 0 = no quick-jump key, 1-9 = key
	Files  int
	Bytes  int64
}

// SwitchClientMsg is sent when the user picks a client to jump to.
type SwitchClientMsg struct {
	NodeID string
}

// ClientPickerModel is the header strip above the tree. It lists clients as
// chips and supports jumping by digit key or by fuzzy filter.
type ClientPickerModel struct {
	entries     []ClientEntry
	filtered    []int // indices into entries
	cursor      int   // only used during filter mode
	active      string
	width       int
	filterInput textinput.Model
	filtering   bool
	theme       Theme
}

// NewClientPicker creates an empty picker.
func NewClientPicker(theme Theme) ClientPickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter clients..."
	ti.Prompt = "client: "
	ti.CharLimit = 50
	ti.Width = 30

	return ClientPickerModel{
		filterInput: ti,
		theme:       theme,
	}
}

// EntriesFromStats builds picker entries in storage order; the first nine
// clients get quick-jump slots.
func EntriesFromStats(stats analysis.Stats) []ClientEntry {
	entries := make([]ClientEntry, 0, len(stats.Clients))
	for i, c := range stats.Clients {
		e := ClientEntry{NodeID: c.NodeID, Name: c.Name, Files: c.Files, Bytes: c.Bytes}
		if i < maxClientSlots {
			e.Slot = i + 1
		}
		entries = append(entries, e)
	}
	return entries
}

// SetEntries replaces the client list and reapplies the current filter.
func (m *ClientPickerModel) SetEntries(entries []ClientEntry) {
	m.entries = entries
	m.applyFilter()
}

// SetActive marks the client whose subtree holds the tree cursor.
func (m *ClientPickerModel) SetActive(nodeID string) {
	m.active = nodeID
}

// SetWidth updates the picker width.
func (m *ClientPickerModel) SetWidth(w int) {
	m.width = w
}

// Open enters filter mode.
func (m *ClientPickerModel) Open() tea.Cmd {
	m.filtering = true
	m.cursor = 0
	m.filterInput.SetValue("")
	m.applyFilter()
	return m.filterInput.Focus()
}

// Jump returns a command switching to the client in slot n, or nil when the
// slot is empty.
func (m ClientPickerModel) Jump(n int) tea.Cmd {
	for _, entry := range m.entries {
		if entry.Slot == n {
			id := entry.NodeID
			return func() tea.Msg { return SwitchClientMsg{NodeID: id} }
		}
	}
	return nil
}

// Update handles keys while filtering.
func (m ClientPickerModel) Update(msg tea.Msg) (ClientPickerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.filtering {
		return m, nil
	}
	switch key.String() {
	case "esc":
		m.close()
		return m, nil
	case "enter":
		m.close()
		if entry := m.SelectedEntry(); entry != nil {
			id := entry.NodeID
			return m, func() tea.Msg { return SwitchClientMsg{NodeID: id} }
		}
		return m, nil
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *ClientPickerModel) close() {
	m.filtering = false
	m.filterInput.Blur()
}

// applyFilter ranks entries against the filter text. An empty filter keeps
// storage order.
func (m *ClientPickerModel) applyFilter() {
	query := strings.TrimSpace(m.filterInput.Value())
	m.filtered = m.filtered[:0]
	if query == "" {
		for i := range m.entries {
			m.filtered = append(m.filtered, i)
		}
	} else {
		names := make([]string, len(m.entries))
		for i, e := range m.entries {
			names[i] = e.Name
		}
		for _, match := range fuzzy.Find(query, names) {
			m.filtered = append(m.filtered, match.Index)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// View renders the header: a title bar and, while filtering, the filter
// input plus one line per match. Otherwise the chips share one line.
func (m *ClientPickerModel) View() string {
	w := m.width
	if w == 0 {
		w = 80
	}
	if !m.filtering {
		return m.renderChipLine(w)
	}

	t := m.theme
	sections := []string{
		m.renderTitleBar(w),
		t.Renderer.NewStyle().Foreground(t.Primary).Render("  " + m.filterInput.View()),
	}
	if len(m.filtered) == 0 {
		sections = append(sections, t.Renderer.NewStyle().
			Foreground(t.Secondary).
			Italic(true).
			Render("  No matching clients"))
	}
	for i, idx := range m.filtered {
		line := m.entryText(m.entries[idx])
		if i == m.cursor {
			line = t.Selected.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		sections = append(sections, line)
	}
	return strings.Join(sections, "\n")
}

// Height returns the number of lines View uses.
func (m *ClientPickerModel) Height() int {
	if !m.filtering {
		return 1
	}
	return 2 + max(1, len(m.filtered))
}

// renderChipLine flows client chips on one line, truncating at w.
func (m *ClientPickerModel) renderChipLine(w int) string {
	t := m.theme
	keyStyle := t.Renderer.NewStyle().Foreground(t.Info).Bold(true)
	descStyle := t.Renderer.NewStyle().Foreground(t.Subtext)

	if len(m.entries) == 0 {
		return descStyle.Render(" no clients")
	}

	var b strings.Builder
	used := 0
	lead := " " + keyStyle.Render("<c>") + " " + descStyle.Render("Clients") + " "
	b.WriteString(lead)
	used += runewidth.StringWidth(" <c> Clients ")

	for _, entry := range m.entries {
		text := m.chipText(entry)
		cw := runewidth.StringWidth(text) + 2
		if used+cw > w {
			b.WriteString(descStyle.Render(" …"))
			break
		}
		b.WriteString("  ")
		b.WriteString(m.renderChip(entry, text))
		used += cw
	}
	return b.String()
}

// renderTitleBar renders "clients(filter)[count]" centered between rules.
func (m *ClientPickerModel) renderTitleBar(w int) string {
	t := m.theme

	label := "clients"
	if v := m.filterInput.Value(); v != "" {
		label = fmt.Sprintf("clients(%s)", v)
	}
	count := fmt.Sprintf("[%d]", len(m.filtered))
	title := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(label) +
		t.Renderer.NewStyle().Foreground(t.Info).Render(count)

	titleLen := runewidth.StringWidth(label) + len(count)
	leftPad := max(1, (w-titleLen-4)/2)
	rightPad := max(1, w-titleLen-4-leftPad)

	sep := t.Renderer.NewStyle().Foreground(t.Border)
	return sep.Render(strings.Repeat("─", leftPad)) + " " + title + " " + sep.Render(strings.Repeat("─", rightPad))
}

func (m *ClientPickerModel) chipText(entry ClientEntry) string {
	slot := " "
	if entry.Slot > 0 {
		slot = fmt.Sprintf("%d", entry.Slot)
	}
	return fmt.Sprintf("%s %s(%d)", slot, entry.Name, entry.Files)
}

func (m *ClientPickerModel) renderChip(entry ClientEntry, text string) string {
	t := m.theme
	if entry.NodeID == m.active {
		return t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(text)
	}
	return t.Renderer.NewStyle().Foreground(t.Base.GetForeground()).Render(text)
}

func (m *ClientPickerModel) entryText(entry ClientEntry) string {
	slot := "   "
	if entry.Slot > 0 {
		slot = fmt.Sprintf("[%d]", entry.Slot)
	}
	return fmt.Sprintf("%s %s  %d files, %s", slot, entry.Name, entry.Files, format.FileSize(entry.Bytes))
}

// Filtering reports whether the picker is in filter mode.
func (m *ClientPickerModel) Filtering() bool {
	return m.filtering
}

// Cursor returns the highlighted match index.
func (m *ClientPickerModel) Cursor() int {
	return m.cursor
}

// FilteredCount returns the number of entries matching the filter.
func (m *ClientPickerModel) FilteredCount() int {
	return len(m.filtered)
}

// SelectedEntry returns the highlighted entry, or nil.
func (m *ClientPickerModel) SelectedEntry() *ClientEntry {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	entry := m.entries[m.filtered[m.cursor]]
	return &entry
}
