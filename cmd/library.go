package main

import (
	"context"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/tasks"
	"github.com/urfave/cli/v3"
)

// WatchlistList prints the user's watchlist.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	items := r.api.GetWatchlist(ctx)
	return r.writeResult(cmd, items, formatter.Watchlist(items))
}

// WatchlistToggle adds a movie to the watchlist or removes it.
func (r *Runner) WatchlistToggle(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	res, err := r.api.ToggleWatchlist(ctx, id)
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeAction(res, "Watchlist updated")
}

// WatchlistExport writes the watchlist movies with full details to disk.
func (r *Runner) WatchlistExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireExporter(ctx); err != nil {
		return err
	}
	return r.runExport(func(prog chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
		return r.exporter.ExportWatchlist(ctx, prog, exportOpts(cmd))
	})
}

// HistoryList prints recently watched movies.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	items := r.api.GetWatchHistory(ctx, cmd.Int("limit"))
	return r.writeResult(cmd, items, formatter.History(items))
}

// HistoryAdd marks a movie as watched.
func (r *Runner) HistoryAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	res, err := r.api.AddToWatchHistory(ctx, id)
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeAction(res, "Added to watch history")
}

// HistoryRemove deletes a movie from watch history.
func (r *Runner) HistoryRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	res, err := r.api.RemoveFromWatchHistory(ctx, id)
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeAction(res, "Removed from watch history")
}

// HistoryExport writes watched movies with full details to disk.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireExporter(ctx); err != nil {
		return err
	}
	return r.runExport(func(prog chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
		return r.exporter.ExportHistory(ctx, prog, cmd.Int("limit"), exportOpts(cmd))
	})
}

func (r *Runner) requireExporter(ctx context.Context) error {
	if err := r.service(); err != nil {
		return err
	}
	return r.requireAuth(ctx)
}

func exportOpts(cmd *cli.Command) tasks.ExportOpts {
	return tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		Name:       cmd.String("name"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}
}

// runExport prints progress updates while export runs.
func (r *Runner) runExport(export func(chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error)) error {
	progressCh := make(chan tasks.ProgressUpdate, 20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchLibrary:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchMovies:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteExport:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := export(progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Export complete")
	r.writePlain("Exported: %d of %d\n", result.Exported, result.Total)
	if result.Failed > 0 {
		r.writePlain("Failed:   %d\n", result.Failed)
		for _, f := range result.Failures {
			r.writePlain("  [%d] %s\n", f.MovieID, f.Error)
		}
	}
	if result.File != "" {
		r.writePlain("File:     %s\n", result.File)
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}

func (r *Runner) writeAction(res *services.ActionResult, fallback string) error {
	msg := fallback
	if res != nil && res.Message != "" {
		msg = res.Message
	}
	r.writePlain("✓ %s\n", msg)
	if res != nil && res.InWatchlist != nil {
		if *res.InWatchlist {
			return r.writePlain("In watchlist: yes\n")
		}
		return r.writePlain("In watchlist: no\n")
	}
	return nil
}
