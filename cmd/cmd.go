// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func withOutputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, outputFlags()...)
}

func pageFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "page",
		Aliases: []string{"p"},
		Usage:   "Page number",
		Value:   1,
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:    "limit",
		Aliases: []string{"n"},
		Usage:   "Maximum number of movies to return",
		Value:   value,
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format (json, csv, markdown, txt)",
			Value:   "json",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory (default: cinex_export_{timestamp})",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Export title, also used as the file name",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of concurrent detail fetches (1-10)",
			Value: 4,
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Maximum detail requests per second",
			Value: 5,
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and client storage",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml from the default template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "storage",
				Usage: "Open the configured storage driver and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest SQLite migration instead",
					},
				},
				Action: r.SetupStorage,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Session management",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Sources:  cli.EnvVars("CINEX_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "Username", Required: true},
					&cli.StringFlag{Name: "full-name", Usage: "Full name", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Password",
						Sources:  cli.EnvVars("CINEX_PASSWORD"),
						Required: true,
					},
					&cli.IntFlag{Name: "age", Usage: "Age"},
					&cli.StringFlag{Name: "gender", Usage: "Gender"},
					&cli.StringFlag{Name: "location", Usage: "Location"},
					&cli.StringFlag{Name: "marital-status", Usage: "Marital status"},
					&cli.StringFlag{Name: "countries", Usage: "Favorite countries, comma separated"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "status",
				Usage:  "Show the session state and revalidate the stored token",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "debug",
				Usage:  "Show stored session keys and token claims",
				Action: r.AuthDebug,
			},
		},
	}
}

func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse the movie catalogue",
		Commands: []*cli.Command{
			{
				Name:   "popular",
				Usage:  "List popular movies",
				Flags:  withOutputFlags(pageFlag()),
				Action: r.MoviesPopular,
			},
			{
				Name:   "genres",
				Usage:  "List genres",
				Flags:  outputFlags(),
				Action: r.MoviesGenres,
			},
			{
				Name:      "show",
				Usage:     "Show movie details",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     outputFlags(),
				Action:    r.MoviesShow,
			},
			{
				Name:      "similar",
				Usage:     "List movies similar to a movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     withOutputFlags(pageFlag(), limitFlag(8)),
				Action:    r.MoviesSimilar,
			},
			{
				Name:      "search",
				Usage:     "Search movies by title",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     withOutputFlags(pageFlag()),
				Action:    r.MoviesSearch,
			},
			{
				Name:      "genre",
				Usage:     "List movies in a genre",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     withOutputFlags(pageFlag()),
				Action:    r.MoviesByGenre,
			},
			{
				Name:      "image",
				Usage:     "Resolve a poster path to an image URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "download",
						Aliases: []string{"d"},
						Usage:   "Save the image to this file",
					},
				},
				Action: r.MoviesImage,
			},
		},
	}
}

func recsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recs",
		Usage: "Movie recommendations",
		Commands: []*cli.Command{
			{
				Name:   "personalized",
				Usage:  "Recommendations for the logged in user",
				Flags:  withOutputFlags(limitFlag(12)),
				Action: r.RecsPersonalized,
			},
			{
				Name:      "genre",
				Usage:     "Recommendations within a genre",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     withOutputFlags(limitFlag(8)),
				Action:    r.RecsByGenre,
			},
		},
	}
}

func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watchlist",
		Aliases: []string{"wl"},
		Usage:   "Manage the watchlist",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List watchlist movies",
				Flags:  outputFlags(),
				Action: r.WatchlistList,
			},
			{
				Name:      "toggle",
				Usage:     "Add or remove a movie",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.WatchlistToggle,
			},
			{
				Name:   "export",
				Usage:  "Export watchlist movies with full details",
				Flags:  exportFlags(),
				Action: r.WatchlistExport,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Manage watch history",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List recently watched movies",
				Flags:  withOutputFlags(limitFlag(12)),
				Action: r.HistoryList,
			},
			{
				Name:      "add",
				Usage:     "Mark a movie as watched",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.HistoryAdd,
			},
			{
				Name:      "rm",
				Usage:     "Remove a movie from watch history",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.HistoryRemove,
			},
			{
				Name:   "export",
				Usage:  "Export watched movies with full details",
				Flags:  append(exportFlags(), limitFlag(50)),
				Action: r.HistoryExport,
			},
		},
	}
}

func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit the user profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current user",
				Flags:  outputFlags(),
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Update profile fields; omitted flags are left unchanged",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Usage: "Username"},
					&cli.StringFlag{Name: "full-name", Usage: "Full name"},
					&cli.StringFlag{Name: "email", Usage: "Email"},
					&cli.StringFlag{Name: "age", Usage: "Age"},
					&cli.StringFlag{Name: "gender", Usage: "Gender"},
					&cli.StringFlag{Name: "location", Usage: "Location"},
					&cli.StringFlag{Name: "marital-status", Usage: "Marital status"},
					&cli.StringFlag{Name: "countries", Usage: "Favorite countries"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
					&cli.StringFlag{Name: "avatar-url", Usage: "Avatar URL"},
				},
				Action: r.ProfileUpdate,
			},
			{
				Name:      "avatar",
				Usage:     "Upload a profile picture",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.ProfileAvatar,
			},
			{
				Name:   "avatars",
				Usage:  "List available avatar images",
				Flags:  outputFlags(),
				Action: r.ProfileAvatars,
			},
			{
				Name:   "demographics",
				Usage:  "Show demographic fields",
				Flags:  outputFlags(),
				Action: r.ProfileDemographics,
			},
			{
				Name:  "set-demographics",
				Usage: "Update demographic fields",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "age", Usage: "Age"},
					&cli.StringFlag{Name: "gender", Usage: "Gender"},
					&cli.StringFlag{Name: "location", Usage: "Location"},
					&cli.StringFlag{Name: "marital-status", Usage: "Marital status"},
					&cli.StringFlag{Name: "countries", Usage: "Favorite countries"},
				},
				Action: r.ProfileSetDemographics,
			},
		},
	}
}

func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct backend API access",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET an endpoint and print the JSON response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive movie browser",
		Action: r.TUI,
	}
}
