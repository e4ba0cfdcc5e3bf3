package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	tu "github.com/desertthunder/cinex/internal/testing"
)

func newBackendService(t *testing.T) (*APIService, *storage.MemoryStore, *tu.Backend) {
	t.Helper()
	backend := tu.NewBackend(t)
	store := storage.NewMemoryStore()
	return NewAPIService(APIOpts{BaseURL: backend.URL(), Store: store}), store, backend
}

func signIn(t *testing.T, store storage.Store, backend *tu.Backend) int {
	t.Helper()
	id := backend.AddUser("alice", "alice@example.com", "secret")
	if err := store.Set(context.Background(), storage.KeyToken, backend.Token(id)); err != nil {
		t.Fatal(err)
	}
	return id
}

func TestMovies(t *testing.T) {
	ctx := context.Background()

	t.Run("GetPopularMovies", func(t *testing.T) {
		t.Run("Pages By Twenty", func(t *testing.T) {
			srv, _, _ := newBackendService(t)

			page := srv.GetPopularMovies(ctx, 3)
			if page.CurrentPage != 3 {
				t.Errorf("expected current page 3, got %d", page.CurrentPage)
			}
			if page.TotalPages != 3 {
				t.Errorf("expected 3 pages for %d movies, got %d", tu.BackendMovieCount, page.TotalPages)
			}
			if len(page.Movies) != tu.BackendMovieCount-40 {
				t.Errorf("expected %d movies on last page, got %d", tu.BackendMovieCount-40, len(page.Movies))
			}
		})

		t.Run("Server Error Returns Empty Default", func(t *testing.T) {
			srv, _, backend := newBackendService(t)
			backend.Fail("/movies/popular", http.StatusInternalServerError)

			page := srv.GetPopularMovies(ctx, 2)
			if page.CurrentPage != 1 || page.TotalPages != 1 || page.Movies == nil || len(page.Movies) != 0 {
				t.Errorf("expected empty default page, got %+v", page)
			}
		})
	})

	t.Run("GetGenres", func(t *testing.T) {
		srv, _, backend := newBackendService(t)

		genres, err := srv.GetGenres(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(genres) != 3 || genres[0].Name != "Action" {
			t.Errorf("unexpected genres %+v", genres)
		}

		backend.Fail("/movies/genres", http.StatusServiceUnavailable)
		if _, err := srv.GetGenres(ctx); StatusOf(err) != http.StatusServiceUnavailable {
			t.Errorf("expected propagated 503, got %v", err)
		}
	})

	t.Run("GetMovieDetails", func(t *testing.T) {
		srv, _, _ := newBackendService(t)

		movie, err := srv.GetMovieDetails(ctx, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if movie.Title != "Movie 4" || len(movie.Genres) != 1 {
			t.Errorf("unexpected movie %+v", movie)
		}

		if _, err := srv.GetMovieDetails(ctx, 999); StatusOf(err) != http.StatusNotFound {
			t.Errorf("expected 404 failure, got %v", err)
		}
	})

	t.Run("GetSimilarMovies", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			srv, _, _ := newBackendService(t)

			page := srv.GetSimilarMovies(ctx, 3, 1, 4)
			if len(page.Movies) != 4 {
				t.Errorf("expected 4 movies, got %d", len(page.Movies))
			}
			if page.TotalPages != 4 {
				t.Errorf("expected 4 pages for 14 similar movies, got %d", page.TotalPages)
			}
		})

		t.Run("Unauthorized Sets Note", func(t *testing.T) {
			srv, _, backend := newBackendService(t)
			backend.Fail("/movies/3/similar", http.StatusUnauthorized)

			page := srv.GetSimilarMovies(ctx, 3, 1, 8)
			if page.Error != "Authentication required" {
				t.Errorf("expected auth note, got %q", page.Error)
			}
			if len(page.Movies) != 0 || page.TotalPages != 1 {
				t.Errorf("expected empty page, got %+v", page)
			}
		})
	})

	t.Run("SearchMovies", func(t *testing.T) {
		t.Run("Blank Query Skips Network", func(t *testing.T) {
			srv, _, backend := newBackendService(t)

			for _, q := range []string{"", "   ", "\t\n"} {
				res := srv.SearchMovies(ctx, q, 3)
				if res.Page != 1 || res.TotalPages != 0 || res.TotalResults != 0 || res.Results == nil || len(res.Results) != 0 {
					t.Errorf("expected empty results for %q, got %+v", q, res)
				}
			}
			if backend.Calls() != 0 {
				t.Errorf("expected no requests, got %d", backend.Calls())
			}
		})

		t.Run("Matches", func(t *testing.T) {
			srv, _, _ := newBackendService(t)

			res := srv.SearchMovies(ctx, "  movie 45 ", 1)
			if res.TotalResults != 1 || len(res.Results) != 1 || res.Results[0].ID != 45 {
				t.Errorf("expected a single match for movie 45, got %+v", res)
			}
		})

		t.Run("Failure Returns Empty", func(t *testing.T) {
			srv, _, backend := newBackendService(t)
			backend.Fail("/movies/search", http.StatusInternalServerError)

			res := srv.SearchMovies(ctx, "movie", 1)
			if res.Page != 1 || len(res.Results) != 0 {
				t.Errorf("expected empty results, got %+v", res)
			}
		})
	})

	t.Run("GetMoviesByGenre", func(t *testing.T) {
		srv, _, backend := newBackendService(t)

		res := srv.GetMoviesByGenre(ctx, 28, 1)
		if res.TotalResults != 15 || len(res.Results) != 15 {
			t.Errorf("expected 15 action movies, got %+v", res)
		}

		backend.Fail("/movies/genre", http.StatusInternalServerError)
		res = srv.GetMoviesByGenre(ctx, 28, 2)
		if res.Page != 1 || res.TotalPages != 1 || res.TotalResults != 0 {
			t.Errorf("expected empty default, got %+v", res)
		}
	})
}

func TestAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("Persists Token And User", func(t *testing.T) {
			srv, store, backend := newBackendService(t)
			backend.AddUser("alice", "alice@example.com", "secret")

			resp, err := srv.Login(ctx, "alice@example.com", "secret")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.User == nil || resp.User.Username != "alice" {
				t.Errorf("unexpected user %+v", resp.User)
			}

			snap := store.Snapshot()
			if snap[storage.KeyToken] != resp.AccessToken {
				t.Error("expected token to be persisted")
			}
			if !strings.Contains(snap[storage.KeyUser], `"username":"alice"`) {
				t.Errorf("expected user to be persisted, got %q", snap[storage.KeyUser])
			}
		})

		t.Run("Bad Credentials Leave Storage Untouched", func(t *testing.T) {
			srv, store, backend := newBackendService(t)
			backend.AddUser("alice", "alice@example.com", "secret")

			_, err := srv.Login(ctx, "alice@example.com", "wrong")
			if !IsUnauthorized(err) {
				t.Fatalf("expected 401, got %v", err)
			}
			if MessageOf(err) != "Incorrect email or password" {
				t.Errorf("unexpected message %q", MessageOf(err))
			}
			if len(store.Snapshot()) != 0 {
				t.Errorf("expected empty storage, got %v", store.Snapshot())
			}
		})
	})

	t.Run("Authenticate Does Not Persist", func(t *testing.T) {
		srv, store, backend := newBackendService(t)
		backend.AddUser("alice", "alice@example.com", "secret")

		resp, err := srv.Authenticate(ctx, "alice@example.com", "secret")
		if err != nil || resp.AccessToken == "" {
			t.Fatalf("expected a token, got (%+v, %v)", resp, err)
		}
		if len(store.Snapshot()) != 0 {
			t.Errorf("expected empty storage, got %v", store.Snapshot())
		}

		user, err := srv.UserForToken(ctx, resp.AccessToken)
		if err != nil || user.Username != "alice" {
			t.Errorf("expected alice for granted token, got (%+v, %v)", user, err)
		}
	})

	t.Run("Register", func(t *testing.T) {
		srv, store, _ := newBackendService(t)
		req := models.RegisterRequest{Username: "bob", FullName: "Bob B", Email: "bob@example.com", Password: "pw"}

		user, err := srv.Register(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.DisplayName == nil || *user.DisplayName != "Bob B" {
			t.Errorf("expected display name from full_name, got %+v", user.DisplayName)
		}
		if len(store.Snapshot()) != 0 {
			t.Error("expected register not to touch storage")
		}

		if _, err := srv.Register(ctx, req); StatusOf(err) != http.StatusBadRequest {
			t.Errorf("expected duplicate registration to fail with 400, got %v", err)
		}

		if _, err := srv.Register(ctx, models.RegisterRequest{Email: "x@example.com"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("GetCurrentUser", func(t *testing.T) {
		t.Run("No Token", func(t *testing.T) {
			srv, _, backend := newBackendService(t)

			user, err := srv.GetCurrentUser(ctx)
			if user != nil || err != nil {
				t.Errorf("expected (nil, nil), got (%v, %v)", user, err)
			}
			if backend.Calls() != 0 {
				t.Error("expected no request without a token")
			}
		})

		t.Run("Valid Token", func(t *testing.T) {
			srv, store, backend := newBackendService(t)
			signIn(t, store, backend)

			user, err := srv.GetCurrentUser(ctx)
			if err != nil || user.Email != "alice@example.com" {
				t.Errorf("unexpected result (%+v, %v)", user, err)
			}
		})

		t.Run("Rejected Token", func(t *testing.T) {
			srv, store, backend := newBackendService(t)
			id := backend.AddUser("alice", "alice@example.com", "secret")
			store.Set(ctx, storage.KeyToken, backend.ExpiredToken(id))

			if _, err := srv.GetCurrentUser(ctx); !IsUnauthorized(err) {
				t.Errorf("expected 401, got %v", err)
			}
		})
	})
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("Watchlist Toggle Round Trip", func(t *testing.T) {
		srv, store, backend := newBackendService(t)
		signIn(t, store, backend)

		if got := srv.GetWatchlist(ctx); len(got) != 0 {
			t.Fatalf("expected empty watchlist, got %v", got)
		}

		res, err := srv.ToggleWatchlist(ctx, 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.InWatchlist == nil || !*res.InWatchlist {
			t.Errorf("expected movie to be added, got %+v", res)
		}

		list := srv.GetWatchlist(ctx)
		if len(list) != 1 || list[0].MovieID != 7 || list[0].AddedAt.IsZero() {
			t.Errorf("expected movie 7 in watchlist, got %+v", list)
		}

		if _, err := srv.ToggleWatchlist(ctx, 7); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := srv.GetWatchlist(ctx); len(got) != 0 {
			t.Errorf("expected double toggle to restore empty watchlist, got %v", got)
		}
	})

	t.Run("Watchlist Without Token", func(t *testing.T) {
		srv, _, _ := newBackendService(t)

		if _, err := srv.ToggleWatchlist(ctx, 1); !IsUnauthorized(err) {
			t.Errorf("expected toggle to propagate 401, got %v", err)
		}
		if got := srv.GetWatchlist(ctx); got == nil || len(got) != 0 {
			t.Errorf("expected empty watchlist, got %v", got)
		}
	})

	t.Run("Watch History", func(t *testing.T) {
		srv, store, backend := newBackendService(t)
		signIn(t, store, backend)

		for _, id := range []int{1, 2, 3} {
			if _, err := srv.AddToWatchHistory(ctx, id); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if got := srv.GetWatchHistory(ctx, 2); len(got) != 2 {
			t.Errorf("expected limit to apply, got %d entries", len(got))
		}

		if _, err := srv.RemoveFromWatchHistory(ctx, 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := srv.GetWatchHistory(ctx, 10); len(got) != 2 {
			t.Errorf("expected 2 entries after removal, got %d", len(got))
		}

		if _, err := srv.RemoveFromWatchHistory(ctx, 2); StatusOf(err) != http.StatusNotFound {
			t.Errorf("expected 404 for missing entry, got %v", err)
		}
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("UpdateProfile", func(t *testing.T) {
		srv, store, backend := newBackendService(t)
		signIn(t, store, backend)

		user, err := srv.UpdateProfile(ctx, models.ProfileUpdate{FullName: "Alice A", Age: "31"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.DisplayName == nil || *user.DisplayName != "Alice A" || user.Age == nil || *user.Age != 31 {
			t.Errorf("unexpected user %+v", user)
		}

		if _, err := srv.UpdateProfile(ctx, models.ProfileUpdate{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected empty update to be rejected, got %v", err)
		}
	})

	t.Run("UpdateProfile Empty Response", func(t *testing.T) {
		srv, store := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		store.Set(ctx, storage.KeyToken, "a.b.c")

		if _, err := srv.UpdateProfile(ctx, models.ProfileUpdate{Location: "Oslo"}); !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected empty body to fail, got %v", err)
		}
	})

	t.Run("UploadProfilePicture", func(t *testing.T) {
		srv, store, backend := newBackendService(t)
		signIn(t, store, backend)

		user, err := srv.UploadProfilePicture(ctx, "/tmp/me.png", strings.NewReader("png-bytes"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.AvatarURL == nil || *user.AvatarURL != "/uploads/me.png" {
			t.Errorf("unexpected avatar %v", user.AvatarURL)
		}
	})

	t.Run("GetAvatars", func(t *testing.T) {
		srv, _, _ := newBackendService(t)

		avatars, err := srv.GetAvatars(ctx)
		if err != nil || len(avatars) != 2 {
			t.Errorf("unexpected avatars (%v, %v)", avatars, err)
		}
	})

	t.Run("Demographics", func(t *testing.T) {
		srv, store, backend := newBackendService(t)

		if d, err := srv.GetUserDemographics(ctx); d != nil || err != nil {
			t.Errorf("expected (nil, nil) without token, got (%v, %v)", d, err)
		}
		if _, err := srv.UpdateUserDemographics(ctx, models.Demographics{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		signIn(t, store, backend)
		age, loc := 40, "Lisbon"
		if _, err := srv.UpdateUserDemographics(ctx, models.Demographics{Age: &age, Location: &loc}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		d, err := srv.GetUserDemographics(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Age == nil || *d.Age != 40 || d.Location == nil || *d.Location != "Lisbon" {
			t.Errorf("unexpected demographics %+v", d)
		}
	})
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()

	t.Run("Personalized", func(t *testing.T) {
		srv, store, backend := newBackendService(t)

		if got := srv.GetPersonalizedRecommendations(ctx, 5); got == nil || len(got) != 0 {
			t.Errorf("expected empty list without token, got %v", got)
		}

		signIn(t, store, backend)
		if got := srv.GetPersonalizedRecommendations(ctx, 5); len(got) != 5 {
			t.Errorf("expected 5 recommendations, got %d", len(got))
		}
	})

	t.Run("By Genre", func(t *testing.T) {
		srv, _, backend := newBackendService(t)

		movies, err := srv.GetRecommendationsByGenre(ctx, 18, 3)
		if err != nil || len(movies) != 3 {
			t.Errorf("unexpected result (%v, %v)", movies, err)
		}

		backend.Fail("/recommendations", http.StatusInternalServerError)
		if _, err := srv.GetRecommendationsByGenre(ctx, 18, 3); StatusOf(err) != http.StatusInternalServerError {
			t.Errorf("expected propagated 500, got %v", err)
		}
	})
}
