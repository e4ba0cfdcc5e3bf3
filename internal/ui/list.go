package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie models.Movie
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string       { return i.movie.Title }
func (i movieItem) Description() string {
	desc := fmt.Sprintf("#%d", i.movie.ID)
	if y := formatter.Year(i.movie.ReleaseDate); y != "" {
		desc = fmt.Sprintf("%s • %s", desc, y)
	}
	if i.movie.VoteAverage > 0 {
		desc = fmt.Sprintf("%s • ★ %.1f", desc, i.movie.VoteAverage)
	}
	return desc
}

func movieItems(movies []models.Movie) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m}
	}
	return items
}
