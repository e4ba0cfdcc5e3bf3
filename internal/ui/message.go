package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageFetched MsgKind = iota
	MsgDetailsFetched
	MsgWatchlistToggled
	MsgSessionChanged
)

type detailsResult struct {
	movie *models.Movie
	err   error
}

type toggleResult struct {
	movieID int
	result  *services.ActionResult
	err     error
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(page models.MoviePage) Msg {
	return Msg{kind: MsgPageFetched, data: page}
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(movie *models.Movie, err error) Msg {
	return Msg{kind: MsgDetailsFetched, data: detailsResult{movie, err}}
}

// watchlistToggledMsg is the constructor for [MsgWatchlistToggled]
func watchlistToggledMsg(movieID int, res *services.ActionResult, err error) Msg {
	return Msg{kind: MsgWatchlistToggled, data: toggleResult{movieID, res, err}}
}

// SessionMsg wraps a session event for delivery with [tea.Program.Send].
func SessionMsg(ev session.Event) tea.Msg {
	return Msg{kind: MsgSessionChanged, data: ev}
}
