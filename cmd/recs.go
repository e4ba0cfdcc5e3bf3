package main

import (
	"context"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/urfave/cli/v3"
)

// RecsPersonalized lists recommendations for the logged in user.
func (r *Runner) RecsPersonalized(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	movies := r.api.GetPersonalizedRecommendations(ctx, cmd.Int("limit"))
	return r.writeResult(cmd, movies, formatter.Movies(movies))
}

// RecsByGenre lists recommendations within a genre.
func (r *Runner) RecsByGenre(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	id, err := movieIDArg(cmd, "id")
	if err != nil {
		return err
	}

	movies, err := r.api.GetRecommendationsByGenre(ctx, id, cmd.Int("limit"))
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeResult(cmd, movies, formatter.Movies(movies))
}
