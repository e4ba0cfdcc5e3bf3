package formatter

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NotProvided is shown for absent profile fields.
const NotProvided = "Not provided"

var (
	strict = bluemonday.StrictPolicy()
	title  = cases.Title(language.English)
)

// Sanitize strips markup from backend text.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Optional returns *s or [NotProvided].
func Optional(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return NotProvided
	}
	return *s
}

// OptionalInt returns *n or [NotProvided].
func OptionalInt(n *int) string {
	if n == nil {
		return NotProvided
	}
	return strconv.Itoa(*n)
}

// OptionalTitle is [Optional] with title casing ("non-binary" -> "Non-Binary").
func OptionalTitle(s *string) string {
	v := Optional(s)
	if v == NotProvided {
		return v
	}
	return title.String(strings.ReplaceAll(v, "_", " "))
}

// Year extracts the year from a release date.
func Year(date string) string {
	if len(date) >= 4 {
		if _, err := strconv.Atoi(date[:4]); err == nil {
			return date[:4]
		}
	}
	return ""
}

// Movies renders a numbered movie list.
func Movies(movies []models.Movie) string {
	if len(movies) == 0 {
		return "No movies found.\n"
	}

	var b strings.Builder
	for i, m := range movies {
		fmt.Fprintf(&b, "%3d. [%d] %s%s", i+1, m.ID, m.Title, yearSuffix(m.ReleaseDate))
		if m.VoteAverage > 0 {
			fmt.Fprintf(&b, " ★ %.1f", m.VoteAverage)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// MoviePage renders a page of movies with its position.
func MoviePage(p models.MoviePage) string {
	var b strings.Builder
	if p.Error != "" {
		fmt.Fprintf(&b, "! %s\n", p.Error)
	}
	b.WriteString(Movies(p.Movies))
	fmt.Fprintf(&b, "\nPage %d of %d\n", p.CurrentPage, p.TotalPages)
	return b.String()
}

// SearchResults renders search or genre results.
func SearchResults(r models.SearchResults) string {
	var b strings.Builder
	b.WriteString(Movies(r.Results))
	fmt.Fprintf(&b, "\nPage %d of %d (%d results)\n", r.Page, max(r.TotalPages, 1), r.TotalResults)
	return b.String()
}

// MovieDetails renders one movie. poster is the resolved image URL.
func MovieDetails(m models.Movie, poster string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", m.Title, yearSuffix(m.ReleaseDate))
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", len([]rune(m.Title))+len(yearSuffix(m.ReleaseDate))))

	fmt.Fprintf(&b, "ID:       %d", m.ID)
	if m.TMDBID != 0 {
		fmt.Fprintf(&b, " (TMDB %d)", m.TMDBID)
	}
	b.WriteString("\n")
	if m.ReleaseDate != "" {
		fmt.Fprintf(&b, "Released: %s\n", m.ReleaseDate)
	}
	if m.VoteAverage > 0 {
		fmt.Fprintf(&b, "Rating:   %.1f/10\n", m.VoteAverage)
	}
	if g := genreNames(m.Genres, ", "); g != "" {
		fmt.Fprintf(&b, "Genres:   %s\n", g)
	}
	fmt.Fprintf(&b, "Poster:   %s\n", poster)

	if overview := Sanitize(m.Overview); overview != "" {
		fmt.Fprintf(&b, "\n%s\n", overview)
	}
	return b.String()
}

// Genres renders the genre list.
func Genres(genres []models.Genre) string {
	var b strings.Builder
	for _, g := range genres {
		fmt.Fprintf(&b, "%6d  %s\n", g.ID, g.Name)
	}
	return b.String()
}

// Profile renders a user with display defaults for absent fields.
func Profile(u *models.User) string {
	if u == nil {
		return "Not signed in.\n"
	}

	var b strings.Builder
	rows := [][2]string{
		{"Username", u.Username},
		{"Email", u.Email},
		{"Name", Optional(u.DisplayName)},
		{"Age", OptionalInt(u.Age)},
		{"Gender", OptionalTitle(u.Gender)},
		{"Location", Optional(u.Location)},
		{"Marital status", OptionalTitle(u.MaritalStatus)},
		{"Favorite countries", Optional(u.FavoriteCountries)},
		{"Avatar", Optional(u.AvatarURL)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-19s %s\n", r[0]+":", r[1])
	}
	return b.String()
}

// Demographics renders the demographic fields.
func Demographics(d *models.Demographics) string {
	if d == nil {
		return "No demographic data.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-19s %s\n", "Age:", OptionalInt(d.Age))
	fmt.Fprintf(&b, "%-19s %s\n", "Gender:", OptionalTitle(d.Gender))
	fmt.Fprintf(&b, "%-19s %s\n", "Location:", Optional(d.Location))
	fmt.Fprintf(&b, "%-19s %s\n", "Marital status:", OptionalTitle(d.MaritalStatus))
	fmt.Fprintf(&b, "%-19s %s\n", "Favorite countries:", Optional(d.FavoriteCountries))
	return b.String()
}

// Watchlist renders watchlist entries.
func Watchlist(items []models.WatchlistItem) string {
	if len(items) == 0 {
		return "Your watchlist is empty.\n"
	}

	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%3d. [%d] %s", i+1, it.MovieID, it.Title)
		if !it.AddedAt.IsZero() {
			fmt.Fprintf(&b, "  (added %s)", it.AddedAt.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// History renders watch history entries.
func History(items []models.HistoryItem) string {
	if len(items) == 0 {
		return "No watch history.\n"
	}

	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%3d. [%d] %s", i+1, it.MovieID, it.Title)
		if !it.WatchedAt.IsZero() {
			fmt.Fprintf(&b, "  (watched %s)", it.WatchedAt.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
