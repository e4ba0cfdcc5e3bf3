package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/urfave/cli/v3"
)

// MoviesPopular lists a page of popular movies.
func (r *Runner) MoviesPopular(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}

	page := r.api.GetPopularMovies(ctx, cmd.Int("page"))
	return r.writeResult(cmd, page, formatter.MoviePage(page))
}

// MoviesGenres lists every genre.
func (r *Runner) MoviesGenres(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}

	genres, err := r.api.GetGenres(ctx)
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeResult(cmd, genres, formatter.Genres(genres))
}

// MoviesShow prints the details of one movie.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}
	r.initSession(ctx)

	movie, err := r.api.GetMovieDetails(ctx, id)
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeResult(cmd, movie, formatter.MovieDetails(*movie, r.api.ImageURL(movie.PosterPath)))
}

// MoviesSimilar lists movies similar to the given one. The backend requires a session.
func (r *Runner) MoviesSimilar(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}
	r.initSession(ctx)

	page := r.api.GetSimilarMovies(ctx, id, cmd.Int("page"), cmd.Int("limit"))
	return r.writeResult(cmd, page, formatter.MoviePage(page))
}

// MoviesSearch searches movie titles.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	results := r.api.SearchMovies(ctx, query, cmd.Int("page"))
	return r.writeResult(cmd, results, formatter.SearchResults(results))
}

// MoviesByGenre lists a page of movies in a genre.
func (r *Runner) MoviesByGenre(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}

	results := r.api.GetMoviesByGenre(ctx, id, cmd.Int("page"))
	return r.writeResult(cmd, results, formatter.SearchResults(results))
}

// MoviesImage resolves a poster path and optionally downloads the image.
func (r *Runner) MoviesImage(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}

	url := r.api.ImageURL(cmd.StringArg("path"))
	dest := cmd.String("download")
	if dest == "" {
		return r.writePlain("%s\n", url)
	}

	r.logger.Info("downloading image", "url", url, "dest", dest)
	data, err := formatter.DownloadImage(ctx, r.httpClient, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return r.writePlain("✓ Saved %s (%d bytes)\n", dest, len(data))
}
