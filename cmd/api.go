package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend, authenticated when a token is stored.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	r.initSession(ctx)

	r.logger.Info("GET request", "path", path)

	raw, err := r.api.Call(ctx, path, services.Request{
		Method: http.MethodGet,
		Header: r.api.AuthHeaders(ctx),
	})
	if err != nil {
		return r.observe(ctx, err)
	}

	return r.writeJSON(raw, !cmd.Bool("json"))
}
