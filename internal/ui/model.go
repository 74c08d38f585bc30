package ui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/books"
	"github.com/five82/shelf/internal/logger"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/state"
)

// Session is the search state the UI renders and drives.
type Session interface {
	Start(ctx context.Context) state.Snapshot
	StartSearch(ctx context.Context, query string) state.Snapshot
	Retry(ctx context.Context) state.Snapshot
	ClearSearch(ctx context.Context) state.Snapshot
	SetQuery(query string) state.Snapshot
	SelectBook(book books.Book) state.Snapshot
	GoBack() state.Snapshot
	EnrichDetail(ctx context.Context) state.Snapshot
	Snapshot() state.Snapshot
	Subscribe() (<-chan state.Snapshot, func())
}

var _ Session = (*state.Machine)(nil)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   Session
	ThemeName string
	PrefsPath string
	Enrich    bool // look up the full record when a book is opened
	Log       *logrus.Entry
}

type focus int

const (
	focusResults focus = iota
	focusSearch
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx         context.Context
	session     Session
	updates     <-chan state.Snapshot
	unsubscribe func()
	prefsPath   string
	enrich      bool
	log         *logrus.Entry

	// UI state
	keys     keyMap
	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool
	focus    focus

	// Data state
	snap state.Snapshot

	// Results grid
	cursor int
	offset int // first visible row

	// Components
	input   textinput.Model
	spinner spinner.Model
	detail  viewport.Model
	help    help.Model

	detailKey detailKey
}

// detailKey identifies what the detail viewport currently shows.
type detailKey struct {
	id      string
	version uint64
	width   int
}

// New creates a new Bubble Tea model. It subscribes to the session
// immediately; the subscription ends when the program exits.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}

	input := textinput.New()
	input.Placeholder = "Search books"
	input.Prompt = "/ "
	input.CharLimit = 256

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:       ctx,
		session:   opts.Session,
		prefsPath: opts.PrefsPath,
		enrich:    opts.Enrich,
		log:       log,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		input:     input,
		spinner:   spin,
		detail:    viewport.New(0, 0),
		help:      help.New(),
		snap:      state.Snapshot{State: state.State{Kind: state.KindLoading}},
	}
	if m.session != nil {
		m.updates, m.unsubscribe = m.session.Subscribe()
	}
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, waitForSnapshot(m.updates)}
	if m.session != nil {
		cmds = append(cmds, m.do(m.session.Start))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case updateMsg:
		m.apply(state.Snapshot(msg))
		return m, waitForSnapshot(m.updates)

	case snapshotMsg:
		m.apply(state.Snapshot(msg))
		return m, nil

	case updatesClosedMsg:
		m.updates = nil
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.focus == focusSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		m.focus = focusSearch
		m.input.SetValue(m.snap.Input)
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Clear):
		m.input.SetValue("")
		if m.session == nil {
			return m, nil
		}
		return m, m.do(m.session.ClearSearch)

	case key.Matches(msg, m.keys.Recent):
		idx := int(msg.String()[0] - '1')
		if idx >= len(m.snap.Recent) {
			return m, nil
		}
		return m, m.search(m.snap.Recent[idx])
	}

	switch m.snap.Kind {
	case state.KindList:
		return m.handleResultsKey(msg)
	case state.KindDetail:
		return m.handleDetailKey(msg)
	case state.KindError, state.KindEmpty:
		if key.Matches(msg, m.keys.Retry) && m.session != nil {
			return m, m.do(m.session.Retry)
		}
	}
	return m, nil
}

// handleSearchKey routes keys to the search bar while it has focus.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		m.focus = focusResults
		m.input.Blur()
		return m, m.search(m.input.Value())

	case key.Matches(msg, m.keys.Cancel):
		m.focus = focusResults
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.session != nil && m.input.Value() != m.snap.Input {
		m.apply(m.session.SetQuery(m.input.Value()))
	}
	return m, cmd
}

// handleResultsKey moves the grid cursor and opens books.
func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.snap.Books)
	if n == 0 {
		return m, nil
	}
	cols := m.columns()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor-cols >= 0 {
			m.cursor -= cols
		}
	case key.Matches(msg, m.keys.Down):
		switch {
		case m.cursor+cols < n:
			m.cursor += cols
		case m.cursor/cols < (n-1)/cols:
			m.cursor = n - 1
		}
	case key.Matches(msg, m.keys.Left):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Right):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = n - 1
	case key.Matches(msg, m.keys.Open):
		if m.session == nil {
			return m, nil
		}
		m.apply(m.session.SelectBook(m.snap.Books[m.cursor]))
		if m.enrich {
			return m, m.do(m.session.EnrichDetail)
		}
		return m, nil
	}
	m.scrollToCursor()
	return m, nil
}

// handleDetailKey scrolls the detail view or returns to the results.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		if m.session == nil {
			return m, nil
		}
		m.apply(m.session.GoBack())
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

// apply adopts snap unless a newer one was already applied.
func (m *Model) apply(snap state.Snapshot) {
	if snap.Version < m.snap.Version {
		return
	}
	prev := m.snap.Kind
	m.snap = snap

	if m.focus != focusSearch {
		m.input.SetValue(snap.Input)
	}

	switch snap.Kind {
	case state.KindList:
		// A fresh list starts at the top; coming back from detail keeps
		// the selection.
		if prev != state.KindList && prev != state.KindDetail {
			m.cursor, m.offset = 0, 0
		}
		if m.cursor >= len(snap.Books) {
			m.cursor = max(0, len(snap.Books)-1)
		}
		m.scrollToCursor()
	case state.KindDetail:
		m.refreshDetail()
	}
}

func (m *Model) resize() {
	m.input.Width = max(10, m.width-6)
	m.help.Width = m.width
	m.detail.Width = m.width
	m.detail.Height = max(1, m.height-2)
	m.scrollToCursor()
	if m.snap.Kind == state.KindDetail {
		m.refreshDetail()
	}
}

func (m *Model) refreshDetail() {
	k := detailKey{id: m.snap.Book.ID, version: m.snap.Version, width: m.detail.Width}
	if k == m.detailKey {
		return
	}
	newBook := k.id != m.detailKey.id
	m.detailKey = k
	m.detail.SetContent(m.renderDetailBody(m.snap.Book, m.detail.Width))
	if newBook {
		m.detail.GotoTop()
	}
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.spinner.Style = styles.AccentText
	m.input.PromptStyle = styles.AccentText
	m.input.TextStyle = styles.Text
	m.input.PlaceholderStyle = styles.FaintText
	m.help.Styles.ShortKey = styles.WarningText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	// Rebuild detail content with the new colors.
	m.detailKey = detailKey{}
	if m.snap.Kind == state.KindDetail {
		m.refreshDetail()
	}
}

// savePrefs stores the theme and recent searches. Failures are logged only.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name}
	if m.session != nil {
		p.Recent = m.session.Snapshot().Recent
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.WithError(err).Warn("save preferences failed")
	}
}

// search runs query on a background goroutine.
func (m Model) search(query string) tea.Cmd {
	session := m.session
	if session == nil {
		return nil
	}
	return m.do(func(ctx context.Context) state.Snapshot {
		return session.StartSearch(ctx, query)
	})
}

// Messages

// snapshotMsg carries the snapshot returned by a session operation.
type snapshotMsg state.Snapshot

// updateMsg carries a snapshot pushed through the subscription.
type updateMsg state.Snapshot

type updatesClosedMsg struct{}

// Commands

func (m Model) do(op func(context.Context) state.Snapshot) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return snapshotMsg(op(ctx))
	}
}

func waitForSnapshot(ch <-chan state.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(snap)
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()

	if fm, ok := final.(Model); ok {
		fm.savePrefs()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
