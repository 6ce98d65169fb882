// Package sidebar is the terminal UI over the tree core: a flattened,
// scrollable rendering of the active tree with cursor movement, view
// switching across the four tree flavors, and git status decoration.
package sidebar

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"

	"github.com/arbordev/arbor/internal/fsprobe"
	"github.com/arbordev/arbor/internal/git"
	"github.com/arbordev/arbor/internal/runner"
	"github.com/arbordev/arbor/internal/state"
	"github.com/arbordev/arbor/internal/tree"
)

const commandTimeout = 10 * time.Second

// errNoRepository is reported when the git view is requested outside a
// repository.
var errNoRepository = errors.New("not inside a git repository")

// Messages
type (
	// TreeBuiltMsg delivers an asynchronously built tree for a view.
	TreeBuiltMsg struct {
		View state.View
		Tree *tree.Tree
		Leaf *tree.Node
		Err  error
	}

	// RefreshedMsg reports a completed tree-wide refresh. Ran is false
	// when the refresh was dropped because one was already in flight.
	RefreshedMsg struct {
		Ran bool
		Err error
	}

	// GitRefreshedMsg reports a completed git status refresh.
	GitRefreshedMsg struct {
		Repo *git.Repository
		Err  error
	}

	// SelectMsg is emitted when the user opens a file.
	SelectMsg struct {
		Path     string
		BufferID int
	}

	// YankedMsg reports the result of copying a path to the clipboard.
	YankedMsg struct {
		Path string
		Err  error
	}

	// FsEventMsg is a debounced filesystem change forwarded by the host.
	FsEventMsg struct {
		Path string
	}
)

// Model is the sidebar component.
type Model struct {
	workDir string
	run     runner.Runner
	reg     *git.Registry
	log     *zap.Logger

	trees  map[state.View]*tree.Tree
	active state.View

	visible []*tree.Node
	cursor  int
	offset  int

	showHidden    bool
	compactIndent bool

	repo       *git.Repository
	refreshing bool
	status     string // transient status line

	searching   bool
	searchInput textinput.Model

	width   int
	height  int
	focused bool

	keys   KeyMap
	styles Styles
}

// New creates a sidebar rooted at workDir, restoring persisted options
// from st. The filesystem tree is built synchronously; the other views
// are built on demand.
func New(workDir string, run runner.Runner, reg *git.Registry, log *zap.Logger, st state.State) (Model, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Search pattern..."
	ti.CharLimit = 200

	m := Model{
		workDir:       workDir,
		run:           run,
		reg:           reg,
		log:           log,
		trees:         make(map[state.View]*tree.Tree),
		active:        state.ViewFilesystem,
		showHidden:    st.ShowHidden,
		compactIndent: st.CompactIndent,
		searchInput:   ti,
		focused:       true,
		keys:          DefaultKeyMap(),
		styles:        DefaultStyles(),
	}

	fs, err := tree.NewFilesystem(workDir)
	if err != nil {
		return m, err
	}
	m.trees[state.ViewFilesystem] = fs
	m.rebuildVisible()
	return m, nil
}

// Init discovers the enclosing git repository.
func (m Model) Init() tea.Cmd {
	return m.discoverCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case TreeBuiltMsg:
		return m.handleTreeBuilt(msg)

	case RefreshedMsg:
		m.refreshing = false
		if msg.Err != nil {
			m.status = "refresh failed: " + msg.Err.Error()
		} else if !msg.Ran {
			m.status = "refresh already running"
		} else {
			m.status = ""
		}
		m.rebuildVisible()
		return m, nil

	case GitRefreshedMsg:
		return m.handleGitRefreshed(msg)

	case YankedMsg:
		if msg.Err != nil {
			m.status = "yank failed: " + msg.Err.Error()
		} else {
			m.status = "yanked " + msg.Path
		}
		return m, nil

	case FsEventMsg:
		return m.handleFsEvent(msg)

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveCursor(-3)
		case tea.MouseButtonWheelDown:
			m.moveCursor(3)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.persist()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.viewportHeight() / 2)

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.viewportHeight() / 2)

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.offset = 0

	case key.Matches(msg, m.keys.End):
		if len(m.visible) > 0 {
			m.cursor = len(m.visible) - 1
			m.ensureVisible()
		}

	case key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Right):
		return m.handleSelect()

	case key.Matches(msg, m.keys.Left):
		m.handleBack()

	case key.Matches(msg, m.keys.ExpandAll):
		if n := m.selected(); n != nil && n.IsDir() {
			if _, err := n.Expand(tree.ExpandOptions{All: true}); err != nil {
				m.status = err.Error()
			}
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.CollapseAll):
		if t := m.activeTree(); t != nil {
			t.Root.Collapse(true, true)
			m.cursor = 0
			m.offset = 0
			m.rebuildVisible()
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.refreshCmd(), m.gitRefreshCmd())

	case key.Matches(msg, m.keys.ToggleHidden):
		m.showHidden = !m.showHidden
		m.rebuildVisible()

	case key.Matches(msg, m.keys.CompactIndent):
		m.compactIndent = !m.compactIndent

	case key.Matches(msg, m.keys.Yank):
		if n := m.selected(); n != nil {
			return m, yankCmd(n.Path)
		}

	case key.Matches(msg, m.keys.MarkCopy):
		if n := m.selected(); n != nil {
			n.SetClipboard(tree.ClipCopy)
		}

	case key.Matches(msg, m.keys.MarkCut):
		if n := m.selected(); n != nil {
			n.SetClipboard(tree.ClipCut)
		}

	case key.Matches(msg, m.keys.ClearMarks):
		if t := m.activeTree(); t != nil {
			t.Root.SetClipboard(tree.ClipNone)
		}
		m.status = ""

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.ViewFiles):
		m.switchView(state.ViewFilesystem)

	case key.Matches(msg, m.keys.ViewSearch):
		if m.trees[state.ViewSearch] != nil {
			m.switchView(state.ViewSearch)
		} else {
			m.searching = true
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.ViewBuffers):
		if m.trees[state.ViewBuffers] != nil {
			m.switchView(state.ViewBuffers)
		} else {
			m.status = "no buffers"
		}

	case key.Matches(msg, m.keys.ViewGit):
		return m, m.gitTreeCmd()
	}

	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		pattern := m.searchInput.Value()
		if pattern == "" {
			return m, nil
		}
		m.status = "searching for " + pattern
		return m, m.searchCmd(pattern)

	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleSelect() (Model, tea.Cmd) {
	n := m.selected()
	if n == nil {
		return m, nil
	}

	if n.IsDir() {
		if n.Expanded {
			n.Collapse(false, false)
		} else if _, err := n.Expand(tree.ExpandOptions{}); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.rebuildVisible()
		return m, nil
	}

	path, id := n.Path, n.BufferID
	return m, func() tea.Msg {
		return SelectMsg{Path: path, BufferID: id}
	}
}

func (m *Model) handleBack() {
	n := m.selected()
	if n == nil {
		return
	}

	if n.IsDir() && n.Expanded && n.Parent != nil {
		n.Collapse(false, false)
		m.rebuildVisible()
		return
	}

	if n.Parent == nil {
		return
	}
	for i, v := range m.visible {
		if v == n.Parent {
			m.cursor = i
			m.ensureVisible()
			return
		}
	}
}

func (m Model) handleTreeBuilt(msg TreeBuiltMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = "build failed: " + msg.Err.Error()
		return m, nil
	}

	if m.repo != nil && msg.Tree.Flavor != tree.FlavorGitStatus {
		msg.Tree.SetRepository(m.repo)
	}
	m.trees[msg.View] = msg.Tree
	m.switchView(msg.View)
	if msg.Leaf != nil {
		m.moveCursorTo(msg.Leaf)
	}
	m.status = ""
	return m, nil
}

func (m Model) handleGitRefreshed(msg GitRefreshedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = "git: " + msg.Err.Error()
		return m, nil
	}
	if msg.Repo == nil {
		return m, nil
	}

	m.repo = msg.Repo
	for view, t := range m.trees {
		if view != state.ViewGitStatus {
			t.SetRepository(msg.Repo)
		}
	}

	// The git-status view mirrors the cache, so rebuild it if present.
	if m.trees[state.ViewGitStatus] != nil {
		t, leaf, err := tree.BuildGitStatus(msg.Repo)
		if err == nil {
			m.trees[state.ViewGitStatus] = t
			if m.active == state.ViewGitStatus {
				m.rebuildVisible()
				if leaf != nil {
					m.moveCursorTo(leaf)
				}
			}
		}
	}
	return m, nil
}

func (m Model) handleFsEvent(msg FsEventMsg) (Model, tea.Cmd) {
	fs := m.trees[state.ViewFilesystem]
	if fs != nil {
		if err := fs.RefreshPath(msg.Path); err != nil {
			m.log.Debug("targeted refresh failed",
				zap.String("path", msg.Path), zap.Error(err))
		}
		if m.active == state.ViewFilesystem {
			m.rebuildVisible()
		}
	}
	return m, m.gitRefreshCmd()
}

// Commands

func (m Model) discoverCmd() tea.Cmd {
	reg, dir := m.reg, m.workDir
	if reg == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		repo := reg.Discover(ctx, dir)
		if repo == nil {
			return GitRefreshedMsg{}
		}
		err := reg.Refresh(ctx, repo, true)
		return GitRefreshedMsg{Repo: repo, Err: err}
	}
}

func (m Model) gitRefreshCmd() tea.Cmd {
	reg, repo := m.reg, m.repo
	if reg == nil || repo == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		err := reg.Refresh(ctx, repo, false)
		return GitRefreshedMsg{Repo: repo, Err: err}
	}
}

func (m *Model) refreshCmd() tea.Cmd {
	t := m.activeTree()
	if t == nil {
		return nil
	}
	m.refreshing = true
	return func() tea.Msg {
		ran, err := t.Refresh()
		return RefreshedMsg{Ran: ran, Err: err}
	}
}

func (m Model) searchCmd(pattern string) tea.Cmd {
	run, dir := m.run, m.workDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		t, leaf, err := tree.BuildSearch(ctx, run, dir, tree.DefaultSearchCommand(pattern))
		return TreeBuiltMsg{View: state.ViewSearch, Tree: t, Leaf: leaf, Err: err}
	}
}

func (m Model) gitTreeCmd() tea.Cmd {
	repo := m.repo
	if repo == nil {
		return func() tea.Msg {
			return TreeBuiltMsg{View: state.ViewGitStatus, Err: errNoRepository}
		}
	}
	reg := m.reg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		if err := reg.Refresh(ctx, repo, false); err != nil {
			return TreeBuiltMsg{View: state.ViewGitStatus, Err: err}
		}
		t, leaf, err := tree.BuildGitStatus(repo)
		return TreeBuiltMsg{View: state.ViewGitStatus, Tree: t, Leaf: leaf, Err: err}
	}
}

func yankCmd(path string) tea.Cmd {
	return func() tea.Msg {
		return YankedMsg{Path: path, Err: clipboard.WriteAll(path)}
	}
}

// SetBuffers rebuilds the buffer view from the host's open buffers.
func (m *Model) SetBuffers(buffers []tree.Buffer) error {
	t, _, err := tree.BuildBuffers(m.workDir, buffers)
	if err != nil {
		return err
	}
	if m.repo != nil {
		t.SetRepository(m.repo)
	}
	m.trees[state.ViewBuffers] = t
	if m.active == state.ViewBuffers {
		m.rebuildVisible()
	}
	return nil
}

// View state

func (m *Model) switchView(v state.View) {
	if m.trees[v] == nil {
		return
	}
	m.active = v
	m.cursor = 0
	m.offset = 0
	m.rebuildVisible()
}

// ActiveView returns the view currently displayed.
func (m Model) ActiveView() state.View {
	return m.active
}

func (m Model) activeTree() *tree.Tree {
	return m.trees[m.active]
}

func (m Model) selected() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

// SelectedPath returns the path under the cursor.
func (m Model) SelectedPath() string {
	if n := m.selected(); n != nil {
		return n.Path
	}
	return ""
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) moveCursorTo(n *tree.Node) {
	for i, v := range m.visible {
		if v == n {
			m.cursor = i
			m.ensureVisible()
			return
		}
	}
}

func (m *Model) ensureVisible() {
	h := m.viewportHeight()
	if h <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

// viewportHeight is the row count available for tree lines: total
// height minus the title and status lines.
func (m Model) viewportHeight() int {
	return m.height - 2
}

// rebuildVisible flattens the active tree into the display order:
// pre-order over expanded directories, hidden entries filtered unless
// enabled. Sparse flavors always show everything they contain.
func (m *Model) rebuildVisible() {
	m.visible = m.visible[:0]

	t := m.activeTree()
	if t == nil || t.Root == nil {
		m.cursor = 0
		m.offset = 0
		return
	}

	var flatten func(n *tree.Node)
	flatten = func(n *tree.Node) {
		m.visible = append(m.visible, n)
		if !n.IsDir() || !n.Expanded {
			return
		}
		for child := range n.IterateChildren(false, nil) {
			if m.hiddenFiltered(child) {
				continue
			}
			flatten(child)
		}
	}
	flatten(t.Root)

	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

// hiddenFiltered reports whether a node is dropped from display. Only
// the filesystem flavor filters dotfiles; sparse trees hold paths the
// user asked for.
func (m Model) hiddenFiltered(n *tree.Node) bool {
	return !m.showHidden && n.Flavor == tree.FlavorFilesystem && n.IsHidden()
}

func (m *Model) persist() {
	st := state.State{
		ShowHidden:    m.showHidden,
		CompactIndent: m.compactIndent,
		LastView:      m.active,
	}
	if m.reg != nil {
		st.DotfilesRepo = m.repo != nil && m.repo.Dotfiles
	}
	if err := state.Save(st); err != nil {
		m.log.Warn("state save failed", zap.Error(err))
	}
}

// WatchedDirs returns the expanded, scanned directories of the
// filesystem tree. The host keeps its watcher in sync with this set
// since inotify-style watches are not recursive.
func (m Model) WatchedDirs() []string {
	fs := m.trees[state.ViewFilesystem]
	if fs == nil || fs.Root == nil {
		return nil
	}
	var dirs []string
	fs.Root.Walk(func(n *tree.Node) bool {
		if n.IsDir() && n.Scanned && n.Expanded {
			dirs = append(dirs, n.Path)
		}
		return true
	})
	return dirs
}

// Focus gives focus to the sidebar.
func (m *Model) Focus() { m.focused = true }

// Blur removes focus from the sidebar.
func (m *Model) Blur() { m.focused = false }

// Rendering

// View renders the sidebar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderTitle())

	h := m.viewportHeight()
	for i := m.offset; i < len(m.visible) && len(lines)-1 < h; i++ {
		lines = append(lines, m.renderNode(m.visible[i], i == m.cursor))
	}
	for len(lines)-1 < h {
		lines = append(lines, "")
	}

	lines = append(lines, m.renderStatusLine())
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderTitle() string {
	title := string(m.active)
	if m.repo != nil {
		title += "  " + m.styles.Muted.Render(
			strconv.Itoa(m.repo.ChangeCount())+" changed")
	}
	return m.styles.Title.Render(title)
}

func (m Model) renderStatusLine() string {
	if m.searching {
		return m.styles.Prompt.Render("/") + m.searchInput.View()
	}
	if m.status != "" {
		return m.styles.Muted.Render(m.status)
	}
	return ""
}

func (m Model) renderNode(n *tree.Node, selected bool) string {
	indentStr := "    "
	if m.compactIndent {
		indentStr = "  "
	}
	line := strings.Repeat(indentStr, m.depthOf(n))

	if n.IsDir() {
		switch {
		case n.Expanded:
			line += "▾ "
		case n.Empty:
			line += "· "
		default:
			line += "▸ "
		}
	} else {
		line += "  "
	}

	name := n.Name
	if n.IsDir() {
		name += "/"
	}
	if n.Kind.IsSymlink() && n.Target != "" {
		name += " → " + n.Target
	}
	line += name

	switch n.Clip {
	case tree.ClipCopy:
		line += " " + m.styles.Copy.Render("(c)")
	case tree.ClipCut:
		line += " " + m.styles.Cut.Render("(x)")
	}
	if n.Modified {
		line += " " + m.styles.Modified.Render("+")
	}
	if n.Orphaned {
		line += " " + m.styles.Orphan.Render("!")
	}
	// Probing every row would stat the world; only the cursor row is
	// checked for write access.
	if selected && n.Flavor == tree.FlavorFilesystem && !fsprobe.Writable(n.Path) {
		line += " " + m.styles.Muted.Render("[ro]")
	}

	indicator := m.gitIndicator(n)

	avail := m.width - lipgloss.Width(indicator) - 1
	if avail > 0 && lipgloss.Width(line) > avail {
		line = truncate(line, avail)
	}

	var style lipgloss.Style
	switch {
	case selected:
		style = m.styles.Selected
	case n.IsDir():
		style = m.styles.Dir
	default:
		style = m.styles.File
	}

	out := style.Render(line)
	if indicator != "" {
		out += " " + indicator
	}
	return out
}

func (m Model) gitIndicator(n *tree.Node) string {
	if n.Repo == nil {
		return ""
	}
	if code, ok := n.Repo.StatusOf(n.Path); ok {
		return m.styles.statusGlyph(code)
	}
	if n.Repo.IsIgnored(n.Path, n.IsDir()) {
		return m.styles.Ignored.Render("!")
	}
	return ""
}

func (m Model) depthOf(n *tree.Node) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

// truncate cuts s to at most width display cells, not runes, so wide
// glyphs (arrows, CJK names) cannot overflow the column.
func truncate(s string, width int) string {
	if width <= 1 {
		return "…"
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
