package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlistify/internal/models"
	"github.com/desertthunder/setlistify/internal/session"
	"github.com/desertthunder/setlistify/internal/shared"
	"github.com/desertthunder/setlistify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	LookupView
	SetlistView
	ConnectView
	ConfirmView
	BuildView
	ResultView
)

// ConnectFunc runs the Spotify authorization flow for the current session and blocks until it finishes.
type ConnectFunc func(ctx context.Context) error

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	engine    *tasks.PlaylistEngine
	auth      *session.AuthProvider
	session   *session.Session
	connect   ConnectFunc
	connected bool
	width     int
	height    int

	search  textinput.Model
	name    textinput.Model
	songs   list.Model
	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap

	lookup       *tasks.LookupResult
	progressChan chan tasks.ProgressUpdate
	doneChan     chan buildPayload
	progress     tasks.ProgressUpdate
	result       *tasks.BuildResult
	buildErr     error
	warning      string
	err          error
}

// NewModel creates a new TUI model for sess.
func NewModel(ctx context.Context, engine *tasks.PlaylistEngine, auth *session.AuthProvider, sess *session.Session, connect ConnectFunc) *Model {
	search := textinput.New()
	search.Placeholder = "Radiohead"
	search.CharLimit = 128
	search.Width = 40
	search.Focus()

	name := textinput.New()
	name.CharLimit = 100
	name.Width = 60

	songs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songs.SetFilteringEnabled(false)
	songs.SetShowHelp(false)

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.label

	return &Model{
		ctx:       ctx,
		view:      SearchView,
		engine:    engine,
		auth:      auth,
		session:   sess,
		connect:   connect,
		connected: auth.Connected(ctx, sess.ID),
		search:    search,
		name:      name,
		songs:     songs,
		spinner:   spin,
		bar:       progress.New(progress.WithDefaultGradient()),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the cursor blinking in the search input.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songs.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = min(msg.Width-4, 60)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || m.err != nil {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case SetlistView:
			return m.handleSetlistKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLookupDone:
		p := msg.data.(lookupPayload)
		return m.lookupDone(p.query, p.result, p.err)

	case MsgConnectDone:
		err, _ := msg.data.(error)
		return m.connectDone(err)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.doneChan)

	case MsgBuildDone:
		p := msg.data.(buildPayload)
		m.result = p.result
		m.buildErr = p.err
		m.progressChan, m.doneChan = nil, nil
		m.view = ResultView
		if tasks.IsFatal(p.err) {
			m.err = p.err
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress any key to quit", m.err))
	}

	var body string
	switch m.view {
	case SearchView:
		body = m.renderSearch()
	case LookupView:
		body = fmt.Sprintf("%s Looking up %s...", m.spinner.View(), m.search.Value())
	case SetlistView:
		body = m.renderSetlist()
	case ConnectView:
		body = fmt.Sprintf("%s Waiting for Spotify authorization in your browser...", m.spinner.View())
	case ConfirmView:
		body = m.renderConfirm()
	case BuildView:
		body = m.renderBuild()
	case ResultView:
		body = m.renderResult()
	}

	return fmt.Sprintf("%s\n%s", m.renderHeader(), body)
}

func (m *Model) busy() bool {
	return m.view == LookupView || m.view == ConnectView || m.view == BuildView
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		query := strings.TrimSpace(m.search.Value())
		if query == "" {
			return m, nil
		}
		m.warning = ""
		m.view = LookupView
		return m, tea.Batch(m.spinner.Tick, m.lookupCmd(query))
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleSetlistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m.newSearch()
	case key.Matches(msg, m.keys.disconnect):
		return m.disconnect()
	case key.Matches(msg, m.keys.build):
		if !m.connected {
			return m.startConnect()
		}
		return m.confirm()
	}

	var cmd tea.Cmd
	m.songs, cmd = m.songs.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.name.Blur()
		m.view = SetlistView
		return m, nil
	case key.Matches(msg, m.keys.create):
		if strings.TrimSpace(m.name.Value()) == "" {
			m.warning = "Playlist name cannot be empty"
			return m, nil
		}
		return m.startBuild()
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		return m.newSearch()
	case key.Matches(msg, m.keys.disconnect):
		return m.disconnect()
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		m.search, cmd = m.search.Update(msg)
	case ConfirmView:
		m.name, cmd = m.name.Update(msg)
	case SetlistView:
		m.songs, cmd = m.songs.Update(msg)
	}
	return m, cmd
}

func (m *Model) lookupCmd(query string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.Lookup(m.ctx, query, nil)
		return lookupDoneMsg(query, result, err)
	}
}

func (m *Model) lookupDone(query string, result *tasks.LookupResult, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		if tasks.IsFatal(err) {
			m.err = err
			return m, nil
		}
		m.warning = lookupWarning(query, result, err)
		m.view = SearchView
		return m, nil
	}

	m.session.Select(query, result.Artist, result.Setlist)
	m.showSetlist(result)
	return m, nil
}

func lookupWarning(query string, result *tasks.LookupResult, err error) string {
	switch {
	case errors.Is(err, shared.ErrArtistNotFound):
		return fmt.Sprintf("No artist named %q on setlist.fm", query)
	case errors.Is(err, shared.ErrSetlistNotFound) && result != nil && result.Artist != nil:
		return fmt.Sprintf("No setlist with songs from the last 12 months for %s", result.Artist.Name)
	default:
		return fmt.Sprintf("Lookup failed: %v", err)
	}
}

func (m *Model) showSetlist(result *tasks.LookupResult) {
	m.lookup = result
	m.songs.SetItems(setlistItems(*result.Setlist, result.Artist.Name))
	m.songs.Title = fmt.Sprintf("%s: %s", result.Artist.Name, result.Setlist.Summary())
	m.songs.ResetSelected()
	m.view = SetlistView
}

func (m *Model) newSearch() (tea.Model, tea.Cmd) {
	m.session.Clear()
	m.lookup = nil
	m.result = nil
	m.buildErr = nil
	m.warning = ""
	m.search.SetValue("")
	m.view = SearchView
	return m, m.search.Focus()
}

// startConnect suspends the selection and runs the authorization flow.
func (m *Model) startConnect() (tea.Model, tea.Cmd) {
	m.session.SuspendCurrent()
	m.warning = ""
	m.view = ConnectView

	connect := m.connect
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		if connect == nil {
			return connectDoneMsg(fmt.Errorf("%w: no authorization flow configured", shared.ErrNotAuthenticated))
		}
		return connectDoneMsg(connect(m.ctx))
	})
}

// connectDone resumes the suspended selection. A successful connect continues straight to the confirm view.
func (m *Model) connectDone(err error) (tea.Model, tea.Cmd) {
	c := m.session.Resume()
	if err == nil {
		m.connected = true
	} else {
		m.warning = fmt.Sprintf("Could not connect Spotify: %v", err)
	}

	if c == nil || c.Artist == nil || c.Setlist == nil {
		m.view = SearchView
		return m, m.search.Focus()
	}

	m.search.SetValue(c.Query)
	m.showSetlist(&tasks.LookupResult{Artist: c.Artist, Setlist: c.Setlist})
	if err != nil {
		return m, nil
	}
	return m.confirm()
}

func (m *Model) disconnect() (tea.Model, tea.Cmd) {
	if err := m.auth.Disconnect(m.ctx, m.session.ID); err != nil {
		m.warning = fmt.Sprintf("Disconnect failed: %v", err)
		return m, nil
	}
	m.connected = false
	_, cmd := m.newSearch()
	m.warning = "Disconnected from Spotify"
	return m, cmd
}

func (m *Model) confirm() (tea.Model, tea.Cmd) {
	m.name.SetValue(models.DefaultPlaylistName(m.lookup.Artist.Name, *m.lookup.Setlist))
	m.name.CursorEnd()
	m.warning = ""
	m.view = ConfirmView
	return m, m.name.Focus()
}

func (m *Model) startBuild() (tea.Model, tea.Cmd) {
	catalog, err := m.auth.Catalog(m.ctx, m.session.ID)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		m.connected = false
		return m.startConnect()
	}
	if err != nil {
		m.warning = fmt.Sprintf("Could not load Spotify session: %v", err)
		return m, nil
	}

	req := tasks.BuildRequest{
		SessionID: m.session.ID,
		Artist:    m.lookup.Artist.Name,
		Setlist:   m.lookup.Setlist,
		Name:      strings.TrimSpace(m.name.Value()),
		Songs:     m.lookup.Songs(),
	}

	progressChan := make(chan tasks.ProgressUpdate, 50)
	doneChan := make(chan buildPayload, 1)
	m.progressChan, m.doneChan = progressChan, doneChan

	go func() {
		result, err := m.engine.Build(m.ctx, catalog, req, progressChan)
		doneChan <- buildPayload{result, err}
		close(progressChan)
	}()

	m.name.Blur()
	m.progress = tasks.ProgressUpdate{Total: len(req.Songs), Message: "Starting..."}
	m.view = BuildView
	return m, tea.Batch(m.spinner.Tick, waitForProgress(progressChan, doneChan))
}

// waitForProgress relays one update, or the build outcome once progress is closed.
func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan buildPayload) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			out := <-done
			return buildDoneMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderHeader() string {
	status := styles.help.Render("○ Spotify not connected")
	if m.connected {
		status = styles.ok.Render("● Spotify connected")
	}
	return fmt.Sprintf("%s  %s\n", styles.title.Render("setlistify"), status)
}

func (m *Model) renderWarning() string {
	if m.warning == "" {
		return ""
	}
	return "\n" + styles.warn.Render(m.warning) + "\n"
}

func (m *Model) renderSearch() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.search, withHelp(m.keys.back, "quit")})
	return fmt.Sprintf("Artist\n%s\n%s\n%s", m.search.View(), m.renderWarning(), helpView)
}

func (m *Model) renderSetlist() string {
	build := m.keys.build
	if !m.connected {
		build = withHelp(build, "connect spotify & create playlist")
	}
	helpKeys := []key.Binding{build, m.keys.back, m.keys.quit}
	if m.connected {
		helpKeys = append(helpKeys, m.keys.disconnect)
	}
	return fmt.Sprintf("%s%s\n%s", m.songs.View(), m.renderWarning(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Create Spotify playlist")
	info := fmt.Sprintf("%d songs from %s\n", len(m.lookup.Songs()), m.lookup.Setlist.Summary())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.create, m.keys.back})
	return fmt.Sprintf("%s\n%s\nName\n%s\n%s\n%s", title, info, m.name.View(), m.renderWarning(), helpView)
}

func (m *Model) renderBuild() string {
	title := styles.title.Render("Building playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.AddTracks:
		phase = "Adding tracks..."
	default:
		phase = "Processing..."
	}

	var pct float64
	if m.progress.Phase == tasks.SearchTracks && m.progress.Total > 0 {
		pct = float64(m.progress.Step) / float64(m.progress.Total)
	} else if m.progress.Phase == tasks.AddTracks {
		pct = 1
	}

	return fmt.Sprintf("%s\n%s %s\n%s\n%s", title, m.spinner.View(), phase, m.bar.ViewAs(pct), m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.disconnect, m.keys.quit})

	if m.buildErr != nil {
		msg := styles.err.Render(fmt.Sprintf("Build failed: %v", m.buildErr))
		if errors.Is(m.buildErr, shared.ErrTokenExpired) || errors.Is(m.buildErr, shared.ErrNotAuthenticated) {
			msg += "\n" + styles.warn.Render("Your Spotify session expired. Press d to disconnect, then connect again.")
		}
		if m.result != nil && m.result.Playlist != nil {
			msg += fmt.Sprintf("\n\nA partial playlist was created: %s", m.result.Playlist.URL())
		}
		return fmt.Sprintf("%s\n%s\n\n%s", msg, m.renderWarning(), helpView)
	}

	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Playlist created!")
	summary := m.result.Summary()
	if len(m.result.NotFound) > 0 {
		summary = strings.Replace(summary, "Could not find:", styles.warn.Render("Could not find:"), 1)
	}
	return fmt.Sprintf("%s\n\n%s%s\n%s", title, summary, m.renderWarning(), helpView)
}

func withHelp(b key.Binding, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(b.Keys()...), key.WithHelp(b.Help().Key, desc))
}
