package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/contentcrush/crush/pkg/analysis"
	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/model"
)

const (
	// SplitViewThreshold is the width above which tree and detail are shown
	// side by side.
	SplitViewThreshold = 100

	footerHeight = 2
	headerHeight = 1
	loadTimeout  = 30 * time.Second
)

type focus int

const (
	focusTree focus = iota
	focusDetail
	focusSearch
)

// DatasetMsg carries a freshly loaded dataset, or the error that prevented
// loading it.
type DatasetMsg struct {
	Dataset     *model.Dataset
	Err         error
	FromWatcher bool // Posted by the BackgroundWorker after a file change
}

// Options configure NewModel.
type Options struct {
	Source   DataSource
	Files    FileFetcher
	Logger   *zap.Logger
	Renderer *lipgloss.Renderer

	HighContrast  bool
	ReducedMotion bool
	Dates         format.DateOptions

	ToastDuration time.Duration
	MaxToasts     int

	PersistTreeState bool
	StateDir         string

	// MarkdownStyle is a glamour standard style name; empty derives the
	// markdown colors from the theme.
	MarkdownStyle string
	Clipboard     func(string) error
	Now           func() time.Time
}

// Model is the file browser: a tree of clients, projects, tasks and files
// with a detail pane and a status footer.
type Model struct {
	source   DataSource
	actions  *FileActions
	queue    *actionQueue
	logger   *zap.Logger
	theme    Theme
	keys     KeyMap
	help     help.Model
	tree     TreeModel
	clients  ClientPickerModel
	detail   viewport.Model
	markdown *MarkdownRenderer
	search   textinput.Model
	spinner  spinner.Model
	notifier *Notifier

	dataset       *model.Dataset
	stats         analysis.Stats
	dates         format.DateOptions
	now           func() time.Time
	reducedMotion bool
	markdownStyle string

	focused     focus
	showHelp    bool
	isSplitView bool
	loading     bool
	ready       bool
	width       int
	height      int

	lastQuery     string
	pendingDelete string         // File node awaiting a second delete key
	preview       *FileResultMsg // Last view result, shown while its node is current
}

// NewModel builds the browser. Tree callbacks are wired to FileActions;
// each action's command is queued and returned from the Update that
// triggered it.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := DefaultTheme(opts.Renderer)
	if opts.HighContrast {
		theme = HighContrastTheme(opts.Renderer)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	actions := NewFileActions(opts.Source, opts.Files, logger.Named("actions"))
	if opts.Clipboard != nil {
		actions.SetClipboard(opts.Clipboard)
	}
	queue := &actionQueue{}

	tree := NewTreeModel(theme)
	tree.SetLogger(logger.Named("tree"))
	tree.SetDateOptions(opts.Dates)
	if opts.PersistTreeState {
		tree.EnablePersistence(opts.StateDir)
	}
	tree.SetCallbacks(TreeCallbacks{
		OnSelect: func(node *hierarchy.TreeNode) {
			logger.Debug("selection toggled", zap.String("id", node.ID))
		},
		OnViewFile:       func(a *model.Attachment) { queue.push(actions.View(a)) },
		OnDownloadFile:   func(a *model.Attachment) { queue.push(actions.Download(a)) },
		OnToggleFavorite: func(a *model.Attachment) { queue.push(actions.ToggleFavorite(a)) },
		OnShareFile:      func(a *model.Attachment) { queue.push(actions.Share(a)) },
		OnDeleteFile:     func(a *model.Attachment) { queue.push(actions.Delete(a)) },
	})

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search names"
	search.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	return Model{
		source:        opts.Source,
		actions:       actions,
		queue:         queue,
		logger:        logger,
		theme:         theme,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		tree:          tree,
		clients:       NewClientPicker(theme),
		detail:        viewport.New(0, 0),
		search:        search,
		spinner:       sp,
		notifier:      NewNotifier(opts.MaxToasts, opts.ToastDuration),
		dates:         opts.Dates,
		now:           now,
		reducedMotion: opts.ReducedMotion,
		markdownStyle: opts.MarkdownStyle,
		loading:       opts.Source != nil,
	}
}

// Init starts the first load.
func (m Model) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	return tea.Batch(loadCmd(m.source), m.spinnerTick())
}

func loadCmd(src DataSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		d, err := src.LoadDataset(ctx)
		return DatasetMsg{Dataset: d, Err: err}
	}
}

func (m Model) spinnerTick() tea.Cmd {
	if m.reducedMotion {
		return nil
	}
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case DatasetMsg:
		m.loading = false
		if msg.Err != nil {
			m.logger.Error("loading dataset", zap.Error(msg.Err))
			cmds = append(cmds, m.notifier.Error("Load failed: "+msg.Err.Error()))
			break
		}
		m.SetDataset(msg.Dataset)
		if msg.FromWatcher {
			cmds = append(cmds, m.notifier.Info("Reloaded after change on disk"))
		}

	case FileResultMsg:
		cmds = append(cmds, m.handleFileResult(msg))

	case SwitchClientMsg:
		m.focused = focusTree
		if m.tree.Reveal(msg.NodeID) {
			m.refreshDetail()
		}

	case toastExpiredMsg:
		m.notifier.Update(msg)

	case spinner.TickMsg:
		if m.loading && !m.reducedMotion {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg)...)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) []tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return []tea.Cmd{tea.Quit}
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.showHelp = false
		}
		return nil
	}

	if m.clients.Filtering() {
		var cmd tea.Cmd
		m.clients, cmd = m.clients.Update(msg)
		return []tea.Cmd{cmd}
	}

	switch m.focused {
	case focusSearch:
		return m.updateSearch(msg)
	case focusDetail:
		return m.updateDetail(msg)
	}

	var cmds []tea.Cmd
	if !key.Matches(msg, m.keys.Delete) {
		m.pendingDelete = ""
	}
	before := m.tree.GetCursorID()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return []tea.Cmd{tea.Quit}
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.Left):
		m.tree.CollapseOrJumpToParent()
	case key.Matches(msg, m.keys.Right):
		m.tree.ExpandOrMoveToChild()
	case key.Matches(msg, m.keys.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.JumpToBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.tree.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.tree.PageDown()
	case key.Matches(msg, m.keys.Parent):
		m.tree.JumpToParent()
	case key.Matches(msg, m.keys.Toggle):
		m.tree.ToggleExpandSelected()
	case key.Matches(msg, m.keys.Select):
		m.tree.SelectCurrent()
	case key.Matches(msg, m.keys.ClearSelect):
		m.tree.ClearSelection()
	case key.Matches(msg, m.keys.ExpandAll):
		m.tree.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.tree.CollapseAll()
	case key.Matches(msg, m.keys.Search):
		m.focused = focusSearch
		m.search.SetValue("")
		cmds = append(cmds, m.search.Focus())
	case key.Matches(msg, m.keys.NextMatch):
		if m.lastQuery != "" {
			cmds = append(cmds, m.findNext(m.lastQuery))
		}
	case key.Matches(msg, m.keys.Clients):
		cmds = append(cmds, m.clients.Open())
	case key.Matches(msg, m.keys.JumpClient):
		cmds = append(cmds, m.clients.Jump(int(msg.Runes[0]-'0')))
	case key.Matches(msg, m.keys.View):
		m.tree.ViewFile()
	case key.Matches(msg, m.keys.Download):
		m.tree.DownloadFile()
	case key.Matches(msg, m.keys.Favorite):
		m.tree.ToggleFavorite()
	case key.Matches(msg, m.keys.Share):
		m.tree.ShareFile()
	case key.Matches(msg, m.keys.Delete):
		cmds = append(cmds, m.confirmDelete())
	case key.Matches(msg, m.keys.Reload):
		if m.source != nil {
			m.loading = true
			cmds = append(cmds, loadCmd(m.source), m.spinnerTick())
		}
	case key.Matches(msg, m.keys.Focus):
		m.focused = focusDetail
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}

	cmds = append(cmds, m.queue.drain()...)
	if m.tree.GetCursorID() != before {
		m.refreshDetail()
	}
	return cmds
}

func (m *Model) updateDetail(msg tea.KeyMsg) []tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Focus, m.keys.Back):
		m.focused = focusTree
		return nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.Quit):
		return []tea.Cmd{tea.Quit}
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return []tea.Cmd{cmd}
}

func (m *Model) updateSearch(msg tea.KeyMsg) []tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		m.focused = focusTree
		return nil
	case tea.KeyEnter:
		query := strings.TrimSpace(m.search.Value())
		m.search.Blur()
		m.focused = focusTree
		if query == "" {
			return nil
		}
		m.lastQuery = query
		return []tea.Cmd{m.findNext(query)}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return []tea.Cmd{cmd}
}

// findNext reveals the first node after the cursor, in depth-first order,
// whose name contains query. The search wraps around.
func (m *Model) findNext(query string) tea.Cmd {
	q := strings.ToLower(query)
	cursorID := m.tree.GetCursorID()

	var first, next string
	passed := cursorID == ""
	hierarchy.Walk(m.tree.Roots(), func(node *hierarchy.TreeNode, _ int) bool {
		if node.ID == cursorID {
			passed = true
			return true
		}
		if !strings.Contains(strings.ToLower(node.Name), q) {
			return true
		}
		if first == "" {
			first = node.ID
		}
		if passed && next == "" {
			next = node.ID
		}
		return next == ""
	})
	if next == "" {
		next = first
	}
	if next == "" {
		if node := m.tree.CurrentNode(); node != nil && strings.Contains(strings.ToLower(node.Name), q) {
			return nil
		}
		return m.notifier.Push(ToastWarning, fmt.Sprintf("No match for %q", query))
	}
	m.tree.Reveal(next)
	m.refreshDetail()
	return nil
}

// confirmDelete arms deletion on the first key press and runs it on the
// second press over the same file.
func (m *Model) confirmDelete() tea.Cmd {
	node := m.tree.CurrentNode()
	if !node.IsFile() {
		return nil
	}
	if m.pendingDelete == node.ID {
		m.pendingDelete = ""
		m.tree.DeleteFile()
		return nil
	}
	m.pendingDelete = node.ID
	return m.notifier.Push(ToastWarning, fmt.Sprintf("Press x again to delete %s", node.Name))
}

func (m *Model) handleFileResult(msg FileResultMsg) tea.Cmd {
	name := msg.Attachment.FileName
	if msg.Err != nil {
		if msg.Operation == FileOpShare && msg.Link != "" {
			return m.notifier.Push(ToastWarning, "Clipboard unavailable, share link: "+msg.Link)
		}
		return m.notifier.Error(msg.Err.Error())
	}

	switch msg.Operation {
	case FileOpView:
		m.preview = &msg
		m.refreshDetail()
		if !m.isSplitView {
			m.focused = focusDetail
		}
		return m.notifier.Success("Opened " + name + cachedSuffix(msg.Hit))
	case FileOpDownload:
		return m.notifier.Success(fmt.Sprintf("Downloaded %s to %s%s", name, msg.Path, cachedSuffix(msg.Hit)))
	case FileOpFavorite:
		text := "Removed " + name + " from favorites"
		if msg.Favorite {
			text = "Added " + name + " to favorites"
		}
		return tea.Batch(m.notifier.Success(text), loadCmd(m.source))
	case FileOpDelete:
		return tea.Batch(m.notifier.Success("Deleted "+name), loadCmd(m.source))
	case FileOpShare:
		return m.notifier.Success("Share link copied to clipboard")
	}
	return nil
}

func cachedSuffix(hit bool) string {
	if hit {
		return " (cached)"
	}
	return ""
}

// SetDataset rebuilds the forest from d, keeping expand and selection
// state by node id. Rows the builder dropped are logged as warnings.
func (m *Model) SetDataset(d *model.Dataset) {
	if d == nil {
		d = &model.Dataset{}
	}
	forest, diags := hierarchy.BuildWithDiagnostics(d.Clients, d.Projects, d.Tasks, d.Attachments)
	for _, diag := range diags {
		m.logger.Warn("row omitted from tree",
			zap.String("kind", string(diag.Kind)),
			zap.String("node", diag.NodeID),
			zap.String("ref", diag.Ref))
	}

	m.dataset = d
	m.tree.Build(forest)
	m.stats = analysis.Compute(forest)
	m.clients.SetEntries(EntriesFromStats(m.stats))
	m.refreshDetail()
}

// refreshDetail re-renders the detail pane for the node under the cursor.
func (m *Model) refreshDetail() {
	if root := m.tree.CurrentRoot(); root != nil {
		m.clients.SetActive(root.ID)
	}
	node := m.tree.CurrentNode()
	var md string
	if m.preview != nil && node != nil && node.ID == hierarchy.FileNodeID(m.preview.Attachment.ID, m.preview.Attachment.Type) {
		md = previewMarkdown(node, *m.preview, m.dates, m.now())
	} else {
		m.preview = nil
		md = detailMarkdown(node, m.dataset, m.dates, m.now())
	}
	m.detail.SetContent(m.renderMarkdown(md))
	m.detail.GotoTop()
}

func (m *Model) renderMarkdown(md string) string {
	if m.markdown == nil {
		return md
	}
	out, err := m.markdown.Render(md)
	if err != nil {
		m.logger.Debug("rendering markdown", zap.Error(err))
		return md
	}
	return out
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.ready = true
	m.isSplitView = width > SplitViewThreshold

	bodyHeight := height - footerHeight - headerHeight
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	detailWidth := width
	if m.isSplitView {
		treeWidth := width * 2 / 5
		detailWidth = width - treeWidth - 4
		// Panels carry a one-cell border on each side.
		m.tree.SetSize(treeWidth-2, bodyHeight-2)
		m.detail.Width = detailWidth
		m.detail.Height = bodyHeight - 2
	} else {
		m.tree.SetSize(width, bodyHeight)
		m.detail.Width = width
		m.detail.Height = bodyHeight
	}
	m.help.Width = width
	m.clients.SetWidth(width)

	wrap := max(detailWidth-2, 20)
	switch {
	case m.markdown != nil:
		m.markdown.SetWidth(wrap)
	case m.markdownStyle != "":
		m.markdown = NewMarkdownRendererWithStyle(wrap, m.markdownStyle)
	default:
		m.markdown = NewMarkdownRendererWithTheme(wrap, m.theme)
	}
	m.refreshDetail()
}

// View renders the browser.
func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	if m.showHelp {
		return RenderContextHelp(m.context(), m.theme, m.width, m.height)
	}
	if m.clients.Filtering() {
		return lipgloss.JoinVertical(lipgloss.Left, m.clients.View(), m.renderFooter())
	}

	var body string
	switch {
	case m.isSplitView:
		r := m.theme.Renderer
		panel := r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(m.theme.Border)
		active := panel.BorderForeground(m.theme.Primary)

		treeStyle, detailStyle := active, panel
		if m.focused == focusDetail {
			treeStyle, detailStyle = panel, active
		}
		left := treeStyle.Width(m.tree.width).Height(m.tree.height).Render(m.tree.View())
		right := detailStyle.Width(m.detail.Width).Height(m.detail.Height).Render(m.detail.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	case m.focused == focusDetail:
		body = m.detail.View()
	default:
		body = m.tree.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.clients.View(), body, m.renderFooter())
}

func (m Model) context() Context {
	switch m.focused {
	case focusDetail:
		return ContextDetail
	case focusSearch:
		return ContextSearch
	}
	return ContextTree
}

// renderFooter is two lines: status (or the search prompt) and toasts (or
// key help).
func (m Model) renderFooter() string {
	var status string
	switch {
	case m.focused == focusSearch:
		status = m.search.View()
	case m.loading && m.reducedMotion:
		status = m.theme.Footer.Render("Loading…")
	case m.loading:
		status = m.spinner.View() + m.theme.Footer.Render(" Loading…")
	default:
		status = m.theme.Footer.Render(m.statusLine())
	}

	second := m.notifier.View(m.theme)
	if second == "" {
		second = m.help.View(m.keys)
	}
	return status + "\n" + second
}

// statusLine summarizes the dataset for the footer.
func (m Model) statusLine() string {
	c := m.stats.Counts
	parts := []string{
		fmt.Sprintf("%d clients", c.Clients),
		fmt.Sprintf("%d projects", c.Projects),
		fmt.Sprintf("%d tasks", c.Tasks),
		fmt.Sprintf("%d files (%s)", c.Files, format.FileSize(c.Bytes)),
	}
	if c.Files > 0 {
		parts = append(parts, "avg "+format.FileSize(int64(m.stats.MeanFileSize)))
	}
	parts = append(parts, fmt.Sprintf("★ %d", c.Favorites))
	if n := len(m.tree.Selection()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	return strings.Join(parts, " · ")
}

// Tree exposes the tree view state.
func (m *Model) Tree() *TreeModel {
	return &m.tree
}

// Dataset returns the dataset currently shown.
func (m Model) Dataset() *model.Dataset {
	return m.dataset
}

// Stats returns statistics over the current forest.
func (m Model) Stats() analysis.Stats {
	return m.stats
}

// Toasts returns the visible notifications.
func (m Model) Toasts() []Toast {
	return m.notifier.Toasts()
}
