package formatter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/cinex/internal/models"
)

func sampleExport() *MovieExport {
	return &MovieExport{
		Name:       "My Watchlist",
		Source:     "watchlist",
		ExportedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Movies: []models.Movie{
			{
				ID: 1, TMDBID: 550, Title: "Fight Club", ReleaseDate: "1999-10-15", VoteAverage: 8.4,
				PosterPath: "/fc.jpg", Overview: "<p>An insomniac &amp; a soap maker.</p>",
				Genres: []models.Genre{{ID: 18, Name: "Drama"}, {ID: 53, Name: "Thriller"}},
			},
			{ID: 2, Title: "Heat", ReleaseDate: "1995-12-15"},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,TMDB ID,Title,Release Date,Rating,Genres") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,550,Fight Club,1999-10-15,8.4,Drama|Thriller") {
			t.Errorf("CSV missing first record, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without images", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(), nil)
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# My Watchlist",
				"**Movies**: 2",
				"1. **Fight Club** (1999) ★ 8.4 _Drama, Thriller_",
				"> An insomniac & a soap maker.",
				"2. **Heat** (1995)",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "![") {
				t.Error("expected no images without a resolver")
			}
		})

		t.Run("with images", func(t *testing.T) {
			data, _ := ExportToMarkdown(sampleExport(), func(p string) string { return "https://img.test" + p })

			if !strings.Contains(string(data), "![Fight Club](https://img.test/fc.jpg)") {
				t.Errorf("expected poster link, got:\n%s", data)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)
		if !strings.Contains(output, "Movies: 2") || !strings.Contains(output, "2. Heat (1995)") {
			t.Errorf("unexpected text output:\n%s", output)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded MovieExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Source != "watchlist" || len(decoded.Movies) != 2 {
			t.Errorf("unexpected decoded export %+v", decoded)
		}
	})

	t.Run("Render Rejects Unknown Format", func(t *testing.T) {
		if _, err := Render(sampleExport(), "xml", nil); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "out.csv")

		got, err := WriteExport(sampleExport(), "csv", path, nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("file not created: %v", err)
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteExport(sampleExport(), "markdown", "", nil)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != "my_watchlist.md" {
			t.Errorf("expected slug filename, got %s", got)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		if err := WriteManifest(map[string]int{"ok": 2}, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), `"ok": 2`) {
			t.Errorf("unexpected manifest %s", data)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer srv.Close()

		data, err := DownloadImage(context.Background(), srv.Client(), srv.URL+"/p.jpg")
		if err != nil || string(data) != "jpeg" {
			t.Errorf("unexpected result (%q, %v)", data, err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(context.Background(), srv.Client(), srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestDisplay(t *testing.T) {
	t.Run("Profile Defaults", func(t *testing.T) {
		gender, status := "female", "never_married"
		out := Profile(&models.User{Username: "ana", Email: "ana@example.com", Gender: &gender, MaritalStatus: &status})

		if !strings.Contains(out, "Gender:             Female") {
			t.Errorf("expected title-cased gender, got:\n%s", out)
		}
		if !strings.Contains(out, "Marital status:     Never Married") {
			t.Errorf("expected title-cased marital status, got:\n%s", out)
		}
		if !strings.Contains(out, "Age:                "+NotProvided) {
			t.Errorf("expected age default, got:\n%s", out)
		}
		if Profile(nil) != "Not signed in.\n" {
			t.Error("expected nil profile message")
		}
	})

	t.Run("Optional", func(t *testing.T) {
		blank := "  "
		if Optional(nil) != NotProvided || Optional(&blank) != NotProvided {
			t.Error("expected absent and blank values to show the default")
		}
		n := 0
		if OptionalInt(&n) != "0" {
			t.Error("expected zero age to be shown")
		}
	})

	t.Run("Sanitize", func(t *testing.T) {
		if got := Sanitize(`<script>alert(1)</script><b>Bold</b> &amp; plain`); got != "Bold & plain" {
			t.Errorf("unexpected sanitized text %q", got)
		}
	})

	t.Run("MoviePage", func(t *testing.T) {
		out := MoviePage(models.MoviePage{Movies: []models.Movie{}, CurrentPage: 1, TotalPages: 1, Error: "Authentication required"})
		if !strings.Contains(out, "! Authentication required") || !strings.Contains(out, "No movies found.") {
			t.Errorf("unexpected page:\n%s", out)
		}
	})

	t.Run("MovieDetails", func(t *testing.T) {
		out := MovieDetails(sampleExport().Movies[0], "https://img.test/fc.jpg")
		for _, want := range []string{"Fight Club (1999)", "TMDB 550", "Genres:   Drama, Thriller", "Poster:   https://img.test/fc.jpg"} {
			if !strings.Contains(out, want) {
				t.Errorf("details missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Library", func(t *testing.T) {
		if Watchlist(nil) != "Your watchlist is empty.\n" || History(nil) != "No watch history.\n" {
			t.Error("expected empty library messages")
		}

		items := []models.HistoryItem{{MovieID: 3, Title: "Heat", WatchedAt: models.Timestamp{Time: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)}}}
		if out := History(items); !strings.Contains(out, "[3] Heat  (watched 2024-01-02 03:04)") {
			t.Errorf("unexpected history:\n%s", out)
		}
	})
}
