package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/session"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	"github.com/urfave/cli/v3"
)

// authStatus is the JSON form of auth status.
type authStatus struct {
	State string       `json:"state"`
	User  *models.User `json:"user,omitempty"`
}

// AuthLogin exchanges credentials for a token and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	password := cmd.String("password")

	if _, err := r.initSession(ctx); err != nil {
		return err
	}

	r.logger.Info("logging in", "email", email)
	if err := r.session.Login(ctx, email, password); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, services.MessageOf(err))
	}

	user := r.session.User()
	r.logger.Info("authentication successful", "user", user.Username)
	return r.writePlain("✓ Logged in as %s\n", user.Username)
}

// AuthLogout clears stored credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.initSession(ctx); err != nil {
		return err
	}
	r.session.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.initSession(ctx); err != nil {
		return err
	}

	req := models.RegisterRequest{
		Username:          cmd.String("username"),
		FullName:          cmd.String("full-name"),
		Email:             cmd.String("email"),
		Password:          cmd.String("password"),
		Gender:            cmd.String("gender"),
		Location:          cmd.String("location"),
		MaritalStatus:     cmd.String("marital-status"),
		FavoriteCountries: cmd.String("countries"),
	}
	if cmd.IsSet("age") {
		age := cmd.Int("age")
		req.Age = &age
	}

	user, err := r.session.Register(ctx, req)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return err
		}
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, services.MessageOf(err))
	}

	r.writePlain("✓ Registered %s\n", user.Username)
	return r.writePlain("Run 'cinex auth login --email %s' to sign in\n", user.Email)
}

// AuthStatus reports the session state, revalidating a stored token with the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	state, err := r.initSession(ctx)
	if err != nil {
		return err
	}

	if state == session.StateAuthenticated {
		if err := r.session.Revalidate(ctx); err != nil && !services.IsUnauthorized(err) && !errors.Is(err, shared.ErrNotAuthenticated) {
			r.logger.Warn("could not revalidate session", "error", err)
		}
	}

	status := authStatus{State: r.session.State().String(), User: r.session.User()}
	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Session")
	r.writePlain("State: %s\n", status.State)
	if status.User != nil {
		r.writePlain("User:  %s <%s>\n", status.User.Username, status.User.Email)
	}
	return nil
}

// AuthDebug prints the raw session keys held in storage.
func (r *Runner) AuthDebug(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: storage not initialized", shared.ErrServiceUnavailable)
	}

	r.writePlainHeader("Session storage")
	if r.api != nil {
		r.writePlain("Backend: %s\n", r.api.BaseURL())
	}
	r.writePlain("Driver:  %s\n\n", r.config.Storage.Driver)

	raw, ok, err := storage.Lookup(ctx, r.store, storage.KeyToken)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		r.writePlain("%-12s absent\n", storage.KeyToken)
	default:
		r.writePlain("%-12s %s\n", storage.KeyToken, redact(raw))
		if tok, err := session.ParseToken(raw, time.Now()); err != nil {
			r.writePlain("%-12s %v\n", "", err)
		} else if !tok.Expiry.IsZero() {
			r.writePlain("%-12s expires %s\n", "", tok.Expiry.Format(time.RFC3339))
		}
	}

	for _, key := range []string{storage.KeyUser, storage.KeyGuestMode} {
		v, ok, err := storage.Lookup(ctx, r.store, key)
		if err != nil {
			return err
		}
		if !ok {
			v = "absent"
		}
		r.writePlain("%-12s %s\n", key, v)
	}
	return nil
}

func redact(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "…" + token[len(token)-6:]
}
