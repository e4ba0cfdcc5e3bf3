package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/cinex/internal/formatter"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProfileShow prints the current user as the backend sees it.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}
	if err := r.session.Revalidate(ctx); err != nil {
		return r.observe(ctx, err)
	}

	user := r.session.User()
	return r.writeResult(cmd, user, formatter.Profile(user))
}

// ProfileUpdate sends the provided profile fields and refreshes the cached user.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	update := models.ProfileUpdate{
		Username:          cmd.String("username"),
		FullName:          cmd.String("full-name"),
		Email:             cmd.String("email"),
		Age:               cmd.String("age"),
		Gender:            cmd.String("gender"),
		Location:          cmd.String("location"),
		MaritalStatus:     cmd.String("marital-status"),
		FavoriteCountries: cmd.String("countries"),
		Password:          cmd.String("password"),
		AvatarURL:         cmd.String("avatar-url"),
	}

	user, err := r.api.UpdateProfile(ctx, update)
	if err != nil {
		return r.observe(ctx, err)
	}
	r.refreshUser(ctx)

	r.writePlain("✓ Profile updated\n\n")
	return r.writePlain("%s", formatter.Profile(user))
}

// ProfileAvatar uploads a local image as the profile picture.
func (r *Runner) ProfileAvatar(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	user, err := r.api.UploadProfilePicture(ctx, path, f)
	if err != nil {
		return r.observe(ctx, err)
	}
	r.refreshUser(ctx)

	return r.writePlain("✓ Avatar updated: %s\n", formatter.Optional(user.AvatarURL))
}

// ProfileAvatars lists the stock avatar images.
func (r *Runner) ProfileAvatars(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}

	avatars, err := r.api.GetAvatars(ctx)
	if err != nil {
		return r.observe(ctx, err)
	}

	text := "No avatars available.\n"
	if len(avatars) > 0 {
		text = strings.Join(avatars, "\n") + "\n"
	}
	return r.writeResult(cmd, avatars, text)
}

// ProfileDemographics prints the demographic fields.
func (r *Runner) ProfileDemographics(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	d, err := r.api.GetUserDemographics(ctx)
	if err != nil {
		return r.observe(ctx, err)
	}
	return r.writeResult(cmd, d, formatter.Demographics(d))
}

// ProfileSetDemographics replaces the demographic fields given as flags.
func (r *Runner) ProfileSetDemographics(ctx context.Context, cmd *cli.Command) error {
	if err := r.service(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	var d models.Demographics
	if cmd.IsSet("age") {
		age := cmd.Int("age")
		d.Age = &age
	}
	for flag, field := range map[string]**string{
		"gender":         &d.Gender,
		"location":       &d.Location,
		"marital-status": &d.MaritalStatus,
		"countries":      &d.FavoriteCountries,
	} {
		if cmd.IsSet(flag) {
			v := cmd.String(flag)
			*field = &v
		}
	}

	updated, err := r.api.UpdateUserDemographics(ctx, d)
	if err != nil {
		return r.observe(ctx, err)
	}

	r.writePlain("✓ Demographics updated\n\n")
	return r.writePlain("%s", formatter.Demographics(updated))
}

// refreshUser re-reads the current user into the session cache.
func (r *Runner) refreshUser(ctx context.Context) {
	if err := r.session.Revalidate(ctx); err != nil {
		r.logger.Warn("failed to refresh cached user", "error", err)
	}
}
