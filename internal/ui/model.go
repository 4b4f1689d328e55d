package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"lookahead/internal/config"
	"lookahead/internal/domain"
	"lookahead/internal/eventbus"
	"lookahead/internal/ui/logic"
	"lookahead/internal/ui/views"
)

// ReadyMarker is printed once the UI is up when running end-to-end tests
const ReadyMarker = "__READY__"

// Searcher receives search box values and page requests
type Searcher interface {
	SetText(text string)
	SetSelection(l domain.Lookup)
	NextPage()
}

// Options tweak how the model runs
type Options struct {
	E2E bool // print ReadyMarker on start
}

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	config *config.Config
	search Searcher

	width   int
	height  int
	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	results  domain.Results
	loading  bool
	awaiting bool // an edit was sent and its session has not reported yet
	nav      *logic.Navigator
	selected *domain.Lookup
	notice   *ErrorMsg
	e2e      bool

	renderer *views.Renderer
	pager    *PagerOps
}

// NewModel creates a new UI model. The search box starts out holding the
// configured selection, which does not trigger a search by itself.
func NewModel(bus eventbus.EventBus, cfg *config.Config, search Searcher, opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "type to search"
	ti.Prompt = ""
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		bus:      bus,
		config:   cfg,
		search:   search,
		input:    ti,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		loading:  true, // the initial empty search is on its way
		awaiting: true,
		nav:      logic.NewNavigator(),
		e2e:      opts.E2E,
		renderer: views.NewRenderer(cfg.UISettings.ShowIDs),
		pager:    NewPagerOps(),
	}

	if cfg.Selection.Name != "" {
		initial := cfg.Selection
		m.selected = &initial
		m.input.SetValue(domain.Display(&initial))
		m.input.CursorEnd()
	}
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.pager.SetProgram(p)
}

// Selected returns the last selected record, if any
func (m *Model) Selected() *domain.Lookup {
	return m.selected
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.e2e {
		cmds = append(cmds, tea.Println(ReadyMarker))
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 14
		m.syncNavigator()
		return m, nil

	case ResultsMsg:
		m.applyResults(msg.Results)
		return m, nil

	case ErrorMsg:
		m.notice = &msg
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pagerMsg:
		if msg.err != nil {
			log.WithError(msg.err).Error("Pager failed")
			m.publish(domain.ErrorEvent{Message: "pager failed", Err: msg.err})
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			return m, m.scroll(1)
		case tea.MouseButtonWheelUp:
			return m, m.scroll(-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		return m.moveCursor(-m.visibleRows())
	case key.Matches(msg, m.keys.PageDown):
		return m.moveCursor(m.visibleRows())
	case key.Matches(msg, m.keys.Select):
		m.selectCurrent()
		return nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Pager):
		return m.openPager()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		return tea.Batch(cmd, m.edited(after))
	}
	return cmd
}

// edited forwards typed text to the pipeline
func (m *Model) edited(text string) tea.Cmd {
	m.selected = nil
	m.notice = nil
	m.awaiting = true
	m.search.SetText(text)
	return m.startLoading()
}

// applyResults replaces the list with a snapshot. A new session resets the
// window to the top.
func (m *Model) applyResults(r domain.Results) {
	if r.SessionID != m.results.SessionID {
		m.nav.Reset()
		m.awaiting = false
	}
	m.results = r
	m.loading = m.awaiting
	m.syncNavigator()
}

// statusErr prefers the failure of the shown snapshot over a bus notice. A
// notice tied to another session is stale.
func (m *Model) statusErr() error {
	if m.results.Err != nil {
		return m.results.Err
	}
	if m.notice == nil {
		return nil
	}
	if m.notice.SessionID != "" && m.notice.SessionID != m.results.SessionID {
		return nil
	}
	return m.notice
}

func (m *Model) syncNavigator() {
	m.nav.UpdateState(len(m.results.Lookups), m.visibleRows())
}

// moveCursor moves the cursor and keeps it in the visible window
func (m *Model) moveCursor(delta int) tea.Cmd {
	if len(m.results.Lookups) == 0 {
		return nil
	}
	m.nav.MoveSelection(delta)
	if delta > 0 {
		return m.checkScrollThreshold()
	}
	return nil
}

// scroll moves the window, dragging the cursor along when it leaves the view
func (m *Model) scroll(delta int) tea.Cmd {
	if len(m.results.Lookups) == 0 {
		return nil
	}
	m.nav.ScrollViewport(delta)
	if delta > 0 {
		return m.checkScrollThreshold()
	}
	return nil
}

// checkScrollThreshold asks for the next page once the bottom of the window
// reaches the configured fraction of the loaded list. It fires on every
// scroll past the threshold; the pipeline drops duplicates.
func (m *Model) checkScrollThreshold() tea.Cmd {
	if m.results.Done || m.results.Err != nil {
		return nil
	}
	if !m.nav.ReachedThreshold(m.config.Search.ScrollThreshold) {
		return nil
	}
	m.search.NextPage()
	return m.startLoading()
}

func (m *Model) startLoading() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	return m.spinner.Tick
}

// selectCurrent puts the record under the cursor into the search box
func (m *Model) selectCurrent() {
	cursor := m.nav.GetSelectedIndex()
	if cursor >= len(m.results.Lookups) {
		return
	}
	l := m.results.Lookups[cursor]
	m.selected = &l
	m.awaiting = false
	m.loading = false
	m.input.SetValue(domain.Display(&l))
	m.input.CursorEnd()
	m.search.SetSelection(l)

	log.WithFields(log.Fields{"id": l.ID, "name": l.Name}).Info("Lookup selected")
	m.publish(domain.LookupSelectedEvent{Lookup: l})
}

func (m *Model) openPager() tea.Cmd {
	content := PagerContent(m.results)
	return func() tea.Msg {
		return pagerMsg{err: m.pager.Show(content)}
	}
}

func (m *Model) visibleRows() int {
	rows := m.config.UISettings.VisibleRows
	// title, search box, indicators, status and help take about 12 lines
	if m.height > 0 && rows > m.height-12 {
		rows = m.height - 12
	}
	return max(rows, 1)
}

func (m *Model) publish(e eventbus.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

// View renders the model
func (m *Model) View() string {
	return m.renderer.Render(views.ViewState{
		Width:       m.width,
		Height:      m.height,
		Input:       m.input.View(),
		Term:        m.results.Term,
		Lookups:     m.results.Lookups,
		Cursor:      m.nav.GetSelectedIndex(),
		Offset:      m.nav.GetViewportOffset(),
		VisibleRows: m.nav.GetViewportHeight(),
		Loading:     m.loading,
		Spinner:     m.spinner.View(),
		Done:        m.results.Done,
		Err:         m.statusErr(),
		Selected:    m.selected,
		Help:        m.help.View(m.keys),
	})
}
