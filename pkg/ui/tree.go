// tree.go - Hierarchical file browser: clients → projects → tasks → files
package ui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"github.com/mattn/go-runewidth"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/hierarchy"
	"github.com/contentcrush/crush/pkg/model"
)

// TreeState is the persisted expand state of the tree view, saved to
// <state dir>/tree-state.json when persistence is enabled.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "client-1": true,
//	    "project-10": true
//	  }
//	}
//
// Nodes are collapsed unless listed. Unknown ids are ignored on load, and a
// corrupted or missing file means nothing is expanded.
type TreeState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// treeStateFileName is the filename for persisted tree state
const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file inside stateDir.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		stateDir = "."
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// fileActions is the affordance shown after every file row.
const fileActions = "[v]iew [d]ownload [f]av [s]hare [x]delete"

// TreeCallbacks are invoked by the tree in response to user actions. Any of
// them may be nil. File callbacks receive the attachment the node was built
// from.
type TreeCallbacks struct {
	OnSelect         func(node *hierarchy.TreeNode)
	OnToggleFavorite func(a *model.Attachment)
	OnViewFile       func(a *model.Attachment)
	OnDownloadFile   func(a *model.Attachment)
	OnDeleteFile     func(a *model.Attachment)
	OnShareFile      func(a *model.Attachment)
}

// treeRow is one visible line of the tree.
type treeRow struct {
	node   *hierarchy.TreeNode
	depth  int
	parent *treeRow
	last   bool // last among its siblings
}

// TreeModel renders a hierarchy forest and owns its view state: which nodes
// are expanded, which are selected, and where the cursor is.
type TreeModel struct {
	roots    []*hierarchy.TreeNode
	flatList []*treeRow // visible rows for navigation
	cursor   int
	theme    Theme
	width    int
	height   int

	// Index of first visible row
	viewportOffset int

	expanded map[string]bool       // node id -> expanded; absent means collapsed
	selected []*hierarchy.TreeNode // ordered, unique by id

	callbacks TreeCallbacks
	dates     format.DateOptions
	logger    *zap.Logger

	built bool

	// Persistence
	persist  bool
	stateDir string
	loaded   bool
}

// NewTreeModel creates an empty tree model
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{
		theme:    theme,
		expanded: make(map[string]bool),
		logger:   zap.NewNop(),
	}
}

// SetCallbacks replaces the action callbacks.
func (t *TreeModel) SetCallbacks(cb TreeCallbacks) {
	t.callbacks = cb
}

// SetLogger sets the logger used for persistence warnings.
func (t *TreeModel) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	t.logger = l
}

// SetDateOptions controls how upload dates are rendered.
func (t *TreeModel) SetDateOptions(opts format.DateOptions) {
	t.dates = opts
}

// SetTheme swaps the theme, e.g. when accessibility preferences change.
func (t *TreeModel) SetTheme(theme Theme) {
	t.theme = theme
}

// EnablePersistence turns on saving expanded ids to stateDir. It must be
// called before the first Build for saved state to be restored.
func (t *TreeModel) EnablePersistence(stateDir string) {
	t.persist = true
	t.stateDir = stateDir
}

// SetSize updates the available dimensions for the tree view
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// Build replaces the forest. Expanded and selected state is keyed by node
// id, so it survives a rebuild as long as ids are stable. Selected nodes
// whose ids are gone are dropped; the rest are re-pointed at the new nodes.
func (t *TreeModel) Build(forest []*hierarchy.TreeNode) {
	cursorID := t.GetCursorID()

	t.roots = forest
	if t.expanded == nil {
		t.expanded = make(map[string]bool)
	}

	if len(t.selected) > 0 {
		index := hierarchy.Index(forest)
		kept := t.selected[:0:0]
		for _, s := range t.selected {
			if n, ok := index[s.ID]; ok {
				kept = append(kept, n)
			}
		}
		if dropped := len(t.selected) - len(kept); dropped > 0 {
			t.logger.Debug("pruned vanished selections", zap.Int("count", dropped))
		}
		t.selected = kept
	}

	if t.persist && !t.loaded {
		t.loadState()
		t.loaded = true
	}

	t.rebuildFlatList()
	if cursorID == "" || !t.SelectByID(cursorID) {
		t.cursor = 0
		t.viewportOffset = 0
	}
	t.built = true
}

// View renders the visible part of the tree.
func (t *TreeModel) View() string {
	if !t.built || len(t.flatList) == 0 {
		return t.renderEmptyState()
	}

	var sb strings.Builder

	start, end := t.visibleRange()
	for i := start; i < end; i++ {
		row := t.flatList[i]
		isCursor := i == t.cursor
		line := t.renderRow(row)
		if isCursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderEmptyState renders the view when there are no clients.
func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer

	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(t.theme.Title.Render("Files"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No clients to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Add one with:"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("  crush add client"))

	return sb.String()
}

func (t *TreeModel) renderRow(row *treeRow) string {
	return t.renderNodeWithPrefix(row.node, t.buildTreePrefix(row), true)
}

// renderNode renders a single node at depth with plain indentation. The
// browser view uses branch characters instead; see renderRow.
func (t *TreeModel) renderNode(node *hierarchy.TreeNode, depth int) string {
	return t.renderNodeWithPrefix(node, strings.Repeat("  ", depth), true)
}

// RenderAll renders every node of the forest, ignoring expand state, one
// line per node. Used for non-interactive output, so rows carry no key
// hints or collapsed counts.
func (t *TreeModel) RenderAll() string {
	if len(t.roots) == 0 {
		return t.renderEmptyState() + "\n"
	}
	var sb strings.Builder
	hierarchy.Walk(t.roots, func(node *hierarchy.TreeNode, depth int) bool {
		sb.WriteString(t.renderNodeWithPrefix(node, strings.Repeat("  ", depth), false))
		sb.WriteString("\n")
		return true
	})
	return sb.String()
}

// renderNodeWithPrefix renders one row. Interactive rows add the file
// action hints and the child count of collapsed nodes.
func (t *TreeModel) renderNodeWithPrefix(node *hierarchy.TreeNode, prefix string, interactive bool) string {
	if node == nil {
		return ""
	}

	r := t.theme.Renderer
	var sb strings.Builder

	sb.WriteString(prefix)

	// Expand/collapse indicator
	indicatorStyle := r.NewStyle().Foreground(t.theme.Secondary)
	sb.WriteString(indicatorStyle.Render(t.getExpandIndicator(node)))
	sb.WriteString(" ")

	// Selection mark
	if t.IsSelected(node.ID) {
		sb.WriteString(t.theme.Checked.Render("✓"))
	} else {
		sb.WriteString(" ")
	}
	sb.WriteString(" ")

	icon, iconColor := t.theme.NodeIcon(node)
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	var meta string
	if node.IsFile() && node.File != nil {
		meta = fmt.Sprintf("%s · %s", format.FileSize(node.File.FileSize), format.Date(node.File.UploadDate, t.dates))
	}

	// Name gets what is left after the prefix, markers, metadata and actions.
	maxNameLen := t.width - lipgloss.Width(prefix) - 8
	if node.IsFile() {
		maxNameLen -= runewidth.StringWidth(meta) + 3
		if interactive {
			maxNameLen -= len(fileActions) + 2
		}
	}
	if maxNameLen < 20 {
		maxNameLen = 20
	}
	sb.WriteString(t.truncateTitle(node.Name, maxNameLen))

	if node.IsFile() && node.File != nil {
		metaStyle := r.NewStyle().Foreground(t.theme.Subtext)
		sb.WriteString(" ")
		sb.WriteString(metaStyle.Render(meta))
		if node.File.IsFavorite {
			sb.WriteString(" ")
			sb.WriteString(r.NewStyle().Foreground(t.theme.Favorite).Render("★"))
		}
		if interactive {
			sb.WriteString("  ")
			sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(fileActions))
		}
	} else if n := len(node.Children); interactive && n > 0 && !t.IsExpanded(node.ID) {
		countStyle := r.NewStyle().Foreground(t.theme.Muted)
		sb.WriteString(countStyle.Render(fmt.Sprintf(" (%d)", n)))
	}

	return sb.String()
}

// buildTreePrefix builds the indentation and branch characters for a row.
func (t *TreeModel) buildTreePrefix(row *treeRow) string {
	if row.depth == 0 {
		return "" // Root nodes have no prefix
	}

	treeStyle := t.theme.Renderer.NewStyle().Foreground(t.theme.Muted)

	ancestors := t.getAncestors(row)

	var prefixParts []string
	// Skip the root: roots carry no branch column.
	for i := 1; i < len(ancestors)-1; i++ {
		if ancestors[i].last {
			prefixParts = append(prefixParts, "    ")
		} else {
			prefixParts = append(prefixParts, "│   ")
		}
	}

	if row.last {
		prefixParts = append(prefixParts, "└── ")
	} else {
		prefixParts = append(prefixParts, "├── ")
	}

	return treeStyle.Render(strings.Join(prefixParts, ""))
}

// getAncestors returns the ancestors of a row from root to parent, with the
// row itself at the end.
func (t *TreeModel) getAncestors(row *treeRow) []*treeRow {
	var ancestors []*treeRow
	for current := row.parent; current != nil; current = current.parent {
		ancestors = append([]*treeRow{current}, ancestors...)
	}
	return append(ancestors, row)
}

// getExpandIndicator returns the expand/collapse indicator for a node.
func (t *TreeModel) getExpandIndicator(node *hierarchy.TreeNode) string {
	if !node.HasChildren() {
		return "•" // Leaf node
	}
	if t.expanded[node.ID] {
		return "▾" // Expanded
	}
	return "▸" // Collapsed
}

// truncateTitle truncates a title to the given display width with ellipsis.
func (t *TreeModel) truncateTitle(title string, maxLen int) string {
	if maxLen <= 3 {
		return "..."
	}
	return runewidth.Truncate(title, maxLen, "…")
}

// IsExpanded reports whether the node with id is expanded.
func (t *TreeModel) IsExpanded(id string) bool {
	return t.expanded[id]
}

// IsSelected reports whether the node with id is in the selection.
func (t *TreeModel) IsSelected(id string) bool {
	for _, s := range t.selected {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Selection returns the selected nodes in the order they were selected.
func (t *TreeModel) Selection() []*hierarchy.TreeNode {
	out := make([]*hierarchy.TreeNode, len(t.selected))
	copy(out, t.selected)
	return out
}

// ClearSelection empties the selection without invoking callbacks.
func (t *TreeModel) ClearSelection() {
	t.selected = nil
}

// Select toggles node's membership in the selection, always notifies
// OnSelect, and returns the resulting selection.
func (t *TreeModel) Select(node *hierarchy.TreeNode) []*hierarchy.TreeNode {
	if node == nil {
		return t.Selection()
	}

	removed := false
	for i, s := range t.selected {
		if s.ID == node.ID {
			t.selected = append(t.selected[:i:i], t.selected[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		t.selected = append(t.selected, node)
	}

	if t.callbacks.OnSelect != nil {
		t.callbacks.OnSelect(node)
	}
	return t.Selection()
}

// SelectCurrent toggles the selection of the node under the cursor.
func (t *TreeModel) SelectCurrent() []*hierarchy.TreeNode {
	return t.Select(t.CurrentNode())
}

// ToggleExpand flips node between expanded and collapsed. Nodes without
// children are left alone.
func (t *TreeModel) ToggleExpand(node *hierarchy.TreeNode) {
	if !node.HasChildren() {
		return
	}
	t.setExpanded(node.ID, !t.expanded[node.ID])
	t.rebuildFlatList()
	t.saveState()
}

// ToggleExpandSelected toggles the node under the cursor.
func (t *TreeModel) ToggleExpandSelected() {
	t.ToggleExpand(t.CurrentNode())
}

func (t *TreeModel) setExpanded(id string, expanded bool) {
	if expanded {
		t.expanded[id] = true
	} else {
		delete(t.expanded, id)
	}
}

// ExpandAll expands all nodes in the tree.
func (t *TreeModel) ExpandAll() {
	hierarchy.Walk(t.roots, func(node *hierarchy.TreeNode, _ int) bool {
		if node.HasChildren() {
			t.expanded[node.ID] = true
		}
		return true
	})
	t.rebuildFlatList()
	t.saveState()
}

// CollapseAll collapses all nodes in the tree.
func (t *TreeModel) CollapseAll() {
	t.expanded = make(map[string]bool)
	t.rebuildFlatList()
	t.saveState()
}

// CurrentNode returns the node under the cursor, or nil if the tree is empty.
func (t *TreeModel) CurrentNode() *hierarchy.TreeNode {
	if row := t.currentRow(); row != nil {
		return row.node
	}
	return nil
}

func (t *TreeModel) currentRow() *treeRow {
	if t.cursor >= 0 && t.cursor < len(t.flatList) {
		return t.flatList[t.cursor]
	}
	return nil
}

// GetCursorID returns the id of the node under the cursor, or empty string.
func (t *TreeModel) GetCursorID() string {
	if node := t.CurrentNode(); node != nil {
		return node.ID
	}
	return ""
}

// currentAttachment returns the attachment under the cursor, if the cursor
// is on a file.
func (t *TreeModel) currentAttachment() (*model.Attachment, bool) {
	node := t.CurrentNode()
	if node == nil {
		return nil, false
	}
	return node.Attachment()
}

func (t *TreeModel) dispatchFile(fn func(*model.Attachment)) bool {
	a, ok := t.currentAttachment()
	if !ok || fn == nil {
		return false
	}
	fn(a)
	return true
}

// ViewFile invokes OnViewFile for the file under the cursor. It reports
// whether a callback ran.
func (t *TreeModel) ViewFile() bool { return t.dispatchFile(t.callbacks.OnViewFile) }

// DownloadFile invokes OnDownloadFile for the file under the cursor.
func (t *TreeModel) DownloadFile() bool { return t.dispatchFile(t.callbacks.OnDownloadFile) }

// ToggleFavorite invokes OnToggleFavorite for the file under the cursor.
func (t *TreeModel) ToggleFavorite() bool { return t.dispatchFile(t.callbacks.OnToggleFavorite) }

// ShareFile invokes OnShareFile for the file under the cursor.
func (t *TreeModel) ShareFile() bool { return t.dispatchFile(t.callbacks.OnShareFile) }

// DeleteFile invokes OnDeleteFile for the file under the cursor.
func (t *TreeModel) DeleteFile() bool { return t.dispatchFile(t.callbacks.OnDeleteFile) }

// MoveDown moves the cursor down in the flat list.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.flatList)-1 {
		t.cursor++
	}
	t.ensureCursorVisible()
}

// MoveUp moves the cursor up in the flat list.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.ensureCursorVisible()
}

// JumpToTop moves cursor to the first node.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves cursor to the last node.
func (t *TreeModel) JumpToBottom() {
	if len(t.flatList) > 0 {
		t.cursor = len(t.flatList) - 1
	}
	t.ensureCursorVisible()
}

// JumpToParent moves cursor to the parent of the current node.
// If already at a root node, does nothing.
func (t *TreeModel) JumpToParent() {
	row := t.currentRow()
	if row == nil || row.parent == nil {
		return
	}
	for i, r := range t.flatList {
		if r == row.parent {
			t.cursor = i
			t.ensureCursorVisible()
			return
		}
	}
}

// ExpandOrMoveToChild handles the → / l key:
// - collapsed with children: expand
// - expanded: move to first child
// - leaf: nothing
func (t *TreeModel) ExpandOrMoveToChild() {
	node := t.CurrentNode()
	if !node.HasChildren() {
		return
	}

	if !t.expanded[node.ID] {
		t.expanded[node.ID] = true
		t.rebuildFlatList()
		t.saveState()
		return
	}

	// First child is the row right after the current one.
	if t.cursor+1 < len(t.flatList) {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// CollapseOrJumpToParent handles the ← / h key:
// - expanded: collapse
// - collapsed or leaf: jump to parent
func (t *TreeModel) CollapseOrJumpToParent() {
	node := t.CurrentNode()
	if node == nil {
		return
	}

	if node.HasChildren() && t.expanded[node.ID] {
		delete(t.expanded, node.ID)
		t.rebuildFlatList()
		t.saveState()
	} else {
		t.JumpToParent()
	}
}

// PageDown moves cursor down by half a viewport.
func (t *TreeModel) PageDown() {
	t.cursor += t.pageSize()
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageUp moves cursor up by half a viewport.
func (t *TreeModel) PageUp() {
	t.cursor -= t.pageSize()
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

func (t *TreeModel) pageSize() int {
	pageSize := t.height / 2
	if pageSize < 1 {
		pageSize = 5
	}
	return pageSize
}

func (t *TreeModel) visibleCount() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

// visibleRange returns the [start, end) indices of rows to render.
func (t *TreeModel) visibleRange() (start, end int) {
	if len(t.flatList) == 0 {
		return 0, 0
	}

	visibleCount := t.visibleCount()

	start = t.viewportOffset
	end = start + visibleCount

	if end > len(t.flatList) {
		end = len(t.flatList)
		start = end - visibleCount
		if start < 0 {
			start = 0
		}
	}
	if start < 0 {
		start = 0
	}
	return start, end
}

// ensureCursorVisible scrolls the viewport so the cursor row is rendered.
func (t *TreeModel) ensureCursorVisible() {
	visibleCount := t.visibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+visibleCount {
		t.viewportOffset = t.cursor - visibleCount + 1
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}

// SelectByID moves the cursor to the visible node with the given id.
// Returns true if found.
func (t *TreeModel) SelectByID(id string) bool {
	for i, row := range t.flatList {
		if row.node.ID == id {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// Reveal expands every ancestor of the node with id and moves the cursor
// onto it. Returns false if no such node exists.
func (t *TreeModel) Reveal(id string) bool {
	path := pathTo(t.roots, id)
	if len(path) == 0 {
		return false
	}
	for _, ancestor := range path[:len(path)-1] {
		t.expanded[ancestor.ID] = true
	}
	t.rebuildFlatList()
	t.saveState()
	return t.SelectByID(id)
}

// pathTo returns the nodes from a root down to the node with id, inclusive.
func pathTo(nodes []*hierarchy.TreeNode, id string) []*hierarchy.TreeNode {
	for _, n := range nodes {
		if n.ID == id {
			return []*hierarchy.TreeNode{n}
		}
		if rest := pathTo(n.Children, id); rest != nil {
			return append([]*hierarchy.TreeNode{n}, rest...)
		}
	}
	return nil
}

// rebuildFlatList rebuilds the flattened list of visible rows.
func (t *TreeModel) rebuildFlatList() {
	t.flatList = t.flatList[:0]
	for i, root := range t.roots {
		t.appendVisible(root, 0, nil, i == len(t.roots)-1)
	}
	if t.cursor >= len(t.flatList) {
		t.cursor = len(t.flatList) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// appendVisible adds a node and its visible descendants to flatList.
func (t *TreeModel) appendVisible(node *hierarchy.TreeNode, depth int, parent *treeRow, last bool) {
	if node == nil {
		return
	}
	row := &treeRow{node: node, depth: depth, parent: parent, last: last}
	t.flatList = append(t.flatList, row)
	if t.expanded[node.ID] {
		for i, child := range node.Children {
			t.appendVisible(child, depth+1, row, i == len(node.Children)-1)
		}
	}
}

// saveState persists the expanded ids when persistence is enabled. Errors
// are logged and never interrupt the user.
func (t *TreeModel) saveState() {
	if !t.persist {
		return
	}

	state := &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool, len(t.expanded)),
	}
	for id, open := range t.expanded {
		if open {
			state.Expanded[id] = true
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.logger.Warn("failed to marshal tree state", zap.Error(err))
		return
	}

	path := TreeStatePath(t.stateDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.logger.Warn("failed to create state directory", zap.String("path", path), zap.Error(err))
		return
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		t.logger.Warn("failed to write tree state", zap.String("path", path), zap.Error(err))
	}
}

// loadState restores expanded ids from disk. A missing or corrupted file
// leaves everything collapsed.
func (t *TreeModel) loadState() {
	path := TreeStatePath(t.stateDir)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		t.logger.Warn("invalid tree state file, using defaults", zap.String("path", path), zap.Error(err))
		return
	}
	for id, open := range state.Expanded {
		if open {
			t.expanded[id] = true
		}
	}
}

// Roots returns the forest currently shown.
func (t *TreeModel) Roots() []*hierarchy.TreeNode {
	return t.roots
}

// IsBuilt returns whether the tree has been built.
func (t *TreeModel) IsBuilt() bool {
	return t.built
}

// NodeCount returns the number of visible rows.
func (t *TreeModel) NodeCount() int {
	return len(t.flatList)
}

// RootCount returns the number of root nodes.
func (t *TreeModel) RootCount() int {
	return len(t.roots)
}

// CurrentRoot returns the root whose subtree holds the cursor, or nil.
func (t *TreeModel) CurrentRoot() *hierarchy.TreeNode {
	row := t.currentRow()
	if row == nil {
		return nil
	}
	for row.parent != nil {
		row = row.parent
	}
	return row.node
}
