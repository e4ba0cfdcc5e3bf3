package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MovieListView ViewState = iota
	DetailView
)

// Client is the part of the API client the TUI uses.
type Client interface {
	GetPopularMovies(ctx context.Context, page int) models.MoviePage
	GetMovieDetails(ctx context.Context, movieID int) (*models.Movie, error)
	ToggleWatchlist(ctx context.Context, movieID int) (*services.ActionResult, error)
	ImageURL(path string) string
}

// Session is the read side of [session.Manager] plus the 401 rule.
type Session interface {
	State() session.State
	User() *models.User
	Observe(ctx context.Context, err error) bool
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	client   Client
	session  Session
	width    int
	height   int
	list     list.Model
	page     models.MoviePage
	loading  bool
	selected *models.Movie
	state    session.State
	user     *models.User
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, client Client, sess Session) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Popular Movies"
	l.SetShowHelp(false)

	return &Model{
		ctx:     ctx,
		view:    MovieListView,
		client:  client,
		session: sess,
		list:    l,
		page:    models.EmptyMoviePage(),
		state:   sess.State(),
		user:    sess.User(),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init fetches the first page of popular movies.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.fetchPage(1)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch m.view {
		case MovieListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageFetched:
		m.loading = false
		m.page = msg.data.(models.MoviePage)
		cmd := m.list.SetItems(movieItems(m.page.Movies))
		m.list.Title = fmt.Sprintf("Popular Movies • page %d/%d", m.page.CurrentPage, m.page.TotalPages)
		m.list.Select(0)
		return m, cmd

	case MsgDetailsFetched:
		m.loading = false
		res := msg.data.(detailsResult)
		if res.err != nil {
			m.err = res.err
			m.session.Observe(m.ctx, res.err)
			return m, nil
		}
		m.err = nil
		m.selected = res.movie
		m.view = DetailView
		return m, nil

	case MsgWatchlistToggled:
		res := msg.data.(toggleResult)
		if res.err != nil {
			m.err = res.err
			m.status = ""
			m.session.Observe(m.ctx, res.err)
			return m, nil
		}
		m.err = nil
		m.status = toggleStatus(res.movieID, res.result)
		return m, nil

	case MsgSessionChanged:
		ev := msg.data.(session.Event)
		m.state = ev.State
		m.user = ev.User
		if ev.Landing {
			m.view = MovieListView
			m.selected = nil
		}
		if ev.State == session.StateAnonymous && ev.Reason != "" {
			m.status = "Signed out: " + ev.Reason
		}
		return m, nil
	}
	return m, nil
}

func toggleStatus(movieID int, res *services.ActionResult) string {
	switch {
	case res == nil:
		return fmt.Sprintf("Watchlist updated for movie %d", movieID)
	case res.InWatchlist != nil && *res.InWatchlist:
		return fmt.Sprintf("Added movie %d to your watchlist", movieID)
	case res.InWatchlist != nil:
		return fmt.Sprintf("Removed movie %d from your watchlist", movieID)
	case res.Message != "":
		return res.Message
	default:
		return fmt.Sprintf("Watchlist updated for movie %d", movieID)
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		if !m.loading && m.page.CurrentPage < m.page.TotalPages {
			m.loading = true
			return m, m.fetchPage(m.page.CurrentPage + 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if !m.loading && m.page.CurrentPage > 1 {
			m.loading = true
			return m, m.fetchPage(m.page.CurrentPage - 1)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(movieItem); ok {
			m.loading = true
			return m, m.fetchDetails(item.movie.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.list.SelectedItem().(movieItem); ok {
			return m, m.toggleWatchlist(item.movie.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MovieListView
		m.selected = nil
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.selected != nil {
			return m, m.toggleWatchlist(m.selected.ID)
		}
	}
	return m, nil
}

func (m *Model) fetchPage(page int) tea.Cmd {
	return func() tea.Msg {
		return pageFetchedMsg(m.client.GetPopularMovies(m.ctx, page))
	}
}

func (m *Model) fetchDetails(id int) tea.Cmd {
	return func() tea.Msg {
		movie, err := m.client.GetMovieDetails(m.ctx, id)
		return detailsFetchedMsg(movie, err)
	}
}

func (m *Model) toggleWatchlist(id int) tea.Cmd {
	if m.state == session.StateAnonymous {
		m.status = "Sign in with `cinex auth login` to use your watchlist"
		return nil
	}
	return func() tea.Msg {
		res, err := m.client.ToggleWatchlist(m.ctx, id)
		return watchlistToggledMsg(id, res, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.view {
	case MovieListView:
		b.WriteString(m.renderList())
	case DetailView:
		b.WriteString(m.renderDetail())
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\n%s", styles.err.Render("Error: "+services.MessageOf(m.err)))
	} else if m.status != "" {
		fmt.Fprintf(&b, "\n%s", styles.ok.Render(m.status))
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	who := "not signed in"
	if m.user != nil {
		who = m.user.Username
	}
	return styles.header.Render(fmt.Sprintf("cinex • %s • %s", styles.badge(m.state), who))
}

func (m *Model) renderList() string {
	if m.loading && len(m.list.Items()) == 0 {
		return "Loading movies..."
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.prev, m.keys.toggle, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.list.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	body := formatter.MovieDetails(*m.selected, m.client.ImageURL(m.selected.PosterPath))
	helpKeys := []key.Binding{m.keys.toggle, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s", body, m.help.ShortHelpView(helpKeys))
}
