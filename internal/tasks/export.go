package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	"golang.org/x/time/rate"
)

// Library is the part of the API client the exporter reads from.
type Library interface {
	GetMovieDetails(ctx context.Context, movieID int) (*models.Movie, error)
	GetWatchlist(ctx context.Context) []models.WatchlistItem
	GetWatchHistory(ctx context.Context, limit int) []models.HistoryItem
	ImageURL(path string) string
}

// ExportOpts contains configuration for movie exports.
type ExportOpts struct {
	Format     string  // json, csv, markdown, txt
	OutputDir  string  // default: cinex_export_{epoch}
	Name       string  // export title; also the file name
	Source     string  // watchlist, history or ids
	NumWorkers int     // default 4, at most 10
	RateLimit  float64 // requests per second, default 5
}

// MovieFailure records a movie that could not be fetched.
type MovieFailure struct {
	MovieID int    `json:"movie_id"`
	Error   string `json:"error"`
}

// ExportResult summarizes an export and is written as its manifest.
type ExportResult struct {
	Name         string         `json:"name"`
	Source       string         `json:"source"`
	Format       string         `json:"format"`
	Total        int            `json:"total"`
	Exported     int            `json:"exported"`
	Failed       int            `json:"failed"`
	File         string         `json:"file,omitempty"`
	Failures     []MovieFailure `json:"failures,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	ManifestPath string         `json:"-"`
}

// Exporter writes movie lists to disk.
type Exporter struct {
	library Library
	logger  *log.Logger
}

// NewExporter creates an Exporter reading through lib.
func NewExporter(lib Library, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Exporter{library: lib, logger: logger}
}

type movieJob struct {
	index int
	id    int
}

type movieResult struct {
	index int
	id    int
	movie *models.Movie
	err   error
}

// ExportWatchlist exports every movie on the watchlist.
func (e *Exporter) ExportWatchlist(ctx context.Context, prog chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	items := e.library.GetWatchlist(ctx)
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.MovieID)
	}
	sendProgress(prog, fetchLibraryUpdate("watchlist", len(ids)))

	opts.Source = "watchlist"
	if opts.Name == "" {
		opts.Name = "Watchlist"
	}
	return e.ExportMovies(ctx, prog, ids, opts)
}

// ExportHistory exports up to limit recently watched movies, without duplicates.
func (e *Exporter) ExportHistory(ctx context.Context, prog chan<- ProgressUpdate, limit int, opts ExportOpts) (*ExportResult, error) {
	items := e.library.GetWatchHistory(ctx, limit)
	seen := make(map[int]bool, len(items))
	ids := make([]int, 0, len(items))
	for _, it := range items {
		if !seen[it.MovieID] {
			seen[it.MovieID] = true
			ids = append(ids, it.MovieID)
		}
	}
	sendProgress(prog, fetchLibraryUpdate("watch history", len(ids)))

	opts.Source = "history"
	if opts.Name == "" {
		opts.Name = "Watch History"
	}
	return e.ExportMovies(ctx, prog, ids, opts)
}

// ExportMovies fetches details for ids concurrently and writes them in opts.Format.
//
// Movies keep the order of ids. Failed fetches are listed in the manifest, not retried.
func (e *Exporter) ExportMovies(ctx context.Context, prog chan<- ProgressUpdate, ids []int, opts ExportOpts) (*ExportResult, error) {
	if e.library == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = "json"
	}
	if _, err := formatter.Render(&formatter.MovieExport{}, opts.Format, nil); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("cinex_export_%d", time.Now().Unix())
	}
	if opts.Name == "" {
		opts.Name = "Movies"
	}
	if opts.Source == "" {
		opts.Source = "ids"
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Name:      opts.Name,
		Source:    opts.Source,
		Format:    opts.Format,
		Total:     len(ids),
		StartedAt: time.Now().UTC(),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan movieJob)
	results := make(chan movieResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, limiter, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			select {
			case <-ctx.Done():
				return
			case jobs <- movieJob{index: i, id: id}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	movies := make([]*models.Movie, len(ids))
	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			result.Failed++
			result.Failures = append(result.Failures, MovieFailure{MovieID: res.id, Error: res.err.Error()})
			e.logger.Warn("movie export failed", "movie_id", res.id, "error", res.err)
			sendProgress(prog, failedMovieUpdate(completed, len(ids), res.id, res.err))
			continue
		}
		result.Exported++
		movies[res.index] = res.movie
		sendProgress(prog, fetchedMovieUpdate(completed, len(ids), res.movie.Title))
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	export := &formatter.MovieExport{Name: opts.Name, Source: opts.Source, ExportedAt: result.StartedAt}
	export.Movies = make([]models.Movie, 0, result.Exported)
	for _, m := range movies {
		if m != nil {
			export.Movies = append(export.Movies, *m)
		}
	}

	path := filepath.Join(opts.OutputDir, exportFileName(opts.Name)+formatter.Extension(opts.Format))
	file, err := formatter.WriteExport(export, opts.Format, path, e.library.ImageURL)
	if err != nil {
		return result, fmt.Errorf("failed to write export: %w", err)
	}
	result.File = file
	sendProgress(prog, writeExportUpdate(file))

	result.FinishedAt = time.Now().UTC()
	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// worker fetches movie details from the jobs channel, waiting on the shared limiter before each request.
func (e *Exporter) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan movieJob,
	results chan<- movieResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- movieResult{index: job.index, id: job.id, err: err}
			continue
		}

		movie, err := e.library.GetMovieDetails(ctx, job.id)
		results <- movieResult{index: job.index, id: job.id, movie: movie, err: err}
	}
}

func exportFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "export"
	}
	return string(out)
}

// sendProgress delivers update without blocking; it is dropped when the channel is full.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
