package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the browser's key bindings. It implements help.KeyMap.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Top         key.Binding
	Bottom      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Parent      key.Binding
	Toggle      key.Binding
	Select      key.Binding
	ClearSelect key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Search      key.Binding
	NextMatch   key.Binding
	Clients     key.Binding
	JumpClient  key.Binding
	View        key.Binding
	Download    key.Binding
	Favorite    key.Binding
	Share       key.Binding
	Delete      key.Binding
	Reload      key.Binding
	Focus       key.Binding
	Help        key.Binding
	Back        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "collapse")),
		Right:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "expand")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Parent:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parent")),
		Toggle:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle")),
		Select:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		ClearSelect: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "clear selection")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextMatch:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
		Clients:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clients")),
		JumpClient:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "jump to client")),
		View:        key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
		Download:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		Favorite:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Share:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
		Delete:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x x", "delete")),
		Reload:      key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Select, k.View, k.Favorite, k.Search, k.Help, k.Quit}
}

// FullHelp is shown by the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Parent},
		{k.Toggle, k.Select, k.ClearSelect, k.ExpandAll, k.CollapseAll, k.Search, k.NextMatch, k.Clients, k.JumpClient},
		{k.View, k.Download, k.Favorite, k.Share, k.Delete},
		{k.Reload, k.Focus, k.Help, k.Back, k.Quit},
	}
}
