// Package ui implements an interactive movie browser using bubbletea's Elm architecture.
//
// Views:
//  1. [MovieListView] : page through popular movies
//  2. [DetailView] : movie details with watchlist toggle
//
// The header shows the session state. The TUI never changes the session itself: it forwards 401
// failures to [Session.Observe] and re-renders when a [SessionMsg] arrives from a session hook.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, w, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
