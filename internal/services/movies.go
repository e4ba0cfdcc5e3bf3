package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/cinex/internal/models"
)

const popularPageSize = 20

type moviesPayload struct {
	Movies       []models.Movie `json:"movies"`
	Results      []models.Movie `json:"results"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

func (p moviesPayload) items() []models.Movie {
	switch {
	case p.Movies != nil:
		return p.Movies
	case p.Results != nil:
		return p.Results
	default:
		return []models.Movie{}
	}
}

// pageCount returns ceil(total/size) with a floor of one page.
func pageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// GetPopularMovies fetches a page of popular movies. Failures yield [models.EmptyMoviePage].
func (a *APIService) GetPopularMovies(ctx context.Context, page int) models.MoviePage {
	page = max(page, 1)

	var payload moviesPayload
	if err := a.getJSON(ctx, fmt.Sprintf("/movies/popular?page=%d", page), nil, &payload); err != nil {
		a.logger.Warn("failed to fetch popular movies", "page", page, "error", err)
		return models.EmptyMoviePage()
	}

	return models.MoviePage{
		Movies:      payload.items(),
		CurrentPage: page,
		TotalPages:  pageCount(payload.TotalResults, popularPageSize),
	}
}

// GetGenres lists all genres.
func (a *APIService) GetGenres(ctx context.Context) ([]models.Genre, error) {
	raw, err := a.Call(ctx, "/movies/genres", Request{})
	if err != nil {
		return nil, err
	}

	genres := []models.Genre{}
	if err := decodeList(raw, &genres, "genres"); err != nil {
		return nil, err
	}
	return genres, nil
}

// GetMovieDetails fetches one movie, authenticating when a token is stored.
func (a *APIService) GetMovieDetails(ctx context.Context, movieID int) (*models.Movie, error) {
	var movie models.Movie
	if err := a.getJSON(ctx, fmt.Sprintf("/movies/%d", movieID), a.AuthHeaders(ctx), &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetSimilarMovies fetches movies similar to movieID.
//
// Failures yield an empty page; a 401 additionally carries an "Authentication required" note.
func (a *APIService) GetSimilarMovies(ctx context.Context, movieID, page, limit int) models.MoviePage {
	page = max(page, 1)
	if limit <= 0 {
		limit = 8
	}

	path := fmt.Sprintf("/movies/%d/similar?page=%d&limit=%d", movieID, page, limit)

	var payload moviesPayload
	if err := a.getJSON(ctx, path, a.AuthHeaders(ctx), &payload); err != nil {
		a.logger.Warn("failed to fetch similar movies", "movie_id", movieID, "error", err)
		empty := models.EmptyMoviePage()
		if IsUnauthorized(err) {
			empty.Error = "Authentication required"
		}
		return empty
	}

	return models.MoviePage{
		Movies:      payload.items(),
		CurrentPage: page,
		TotalPages:  pageCount(payload.TotalResults, limit),
	}
}

// SearchMovies searches by title. A blank query returns [models.EmptySearchResults] without a request.
func (a *APIService) SearchMovies(ctx context.Context, query string, page int) models.SearchResults {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.EmptySearchResults()
	}
	page = max(page, 1)

	path := fmt.Sprintf("/movies/search?query=%s&page=%d", url.QueryEscape(query), page)

	var payload moviesPayload
	if err := a.getJSON(ctx, path, nil, &payload); err != nil {
		a.logger.Warn("search failed", "query", query, "error", err)
		return models.EmptySearchResults()
	}

	if payload.Page == 0 {
		payload.Page = page
	}
	return models.SearchResults{
		Page:         payload.Page,
		Results:      payload.items(),
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
	}
}

// GetMoviesByGenre lists a page of movies in one genre.
func (a *APIService) GetMoviesByGenre(ctx context.Context, genreID, page int) models.SearchResults {
	page = max(page, 1)

	var payload moviesPayload
	if err := a.getJSON(ctx, fmt.Sprintf("/movies/genre/%d?page=%d", genreID, page), nil, &payload); err != nil {
		a.logger.Warn("failed to fetch genre movies", "genre_id", genreID, "error", err)
		return models.SearchResults{Page: 1, Results: []models.Movie{}, TotalPages: 1}
	}

	res := models.SearchResults{
		Page:         payload.Page,
		Results:      payload.items(),
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
	}
	if res.Page == 0 {
		res.Page = 1
	}
	if res.TotalPages == 0 {
		res.TotalPages = 1
	}
	return res
}

// ImageURL resolves a poster or backdrop path against the image host, or returns the placeholder.
func (a *APIService) ImageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return a.placeholder
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.imageBaseURL + path
}
