// package formatter renders movies, libraries and profiles as text, CSV, Markdown and JSON.
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

// MovieExport is a named list of movies written by the exporters.
type MovieExport struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"` // watchlist, history or ids
	ExportedAt time.Time      `json:"exported_at"`
	Movies     []models.Movie `json:"movies"`
}

// ImageResolver maps a poster path to a URL.
type ImageResolver func(path string) string

// Formats lists the supported export formats.
var Formats = []string{"json", "csv", "markdown", "txt"}

// ExportToCSV converts a MovieExport to CSV with columns: ID, TMDB ID, Title, Release Date, Rating, Genres
func ExportToCSV(export *MovieExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "TMDB ID", "Title", "Release Date", "Rating", "Genres"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range export.Movies {
		record := []string{
			strconv.Itoa(m.ID),
			strconv.Itoa(m.TMDBID),
			m.Title,
			m.ReleaseDate,
			strconv.FormatFloat(m.VoteAverage, 'f', 1, 64),
			genreNames(m.Genres, "|"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a MovieExport to Markdown, with poster thumbnails when images is set
func ExportToMarkdown(export *MovieExport, images ImageResolver) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Name)
	fmt.Fprintf(&buf, "**Movies**: %d\n", len(export.Movies))
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.Format(time.RFC1123))
	}
	buf.WriteString("\n## Movies\n\n")

	for i, m := range export.Movies {
		fmt.Fprintf(&buf, "%d. **%s**%s", i+1, m.Title, yearSuffix(m.ReleaseDate))
		if m.VoteAverage > 0 {
			fmt.Fprintf(&buf, " ★ %.1f", m.VoteAverage)
		}
		if g := genreNames(m.Genres, ", "); g != "" {
			fmt.Fprintf(&buf, " _%s_", g)
		}
		buf.WriteString("\n")

		if images != nil && m.PosterPath != "" {
			fmt.Fprintf(&buf, "   ![%s](%s)\n", m.Title, images(m.PosterPath))
		}
		if overview := Sanitize(m.Overview); overview != "" {
			fmt.Fprintf(&buf, "   > %s\n", overview)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a MovieExport to plain text
func ExportToText(export *MovieExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.Name)
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(export.Movies))

	for i, m := range export.Movies {
		fmt.Fprintf(&buf, "%d. %s%s\n", i+1, m.Title, yearSuffix(m.ReleaseDate))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a MovieExport to indented JSON
func ExportToJSON(export *MovieExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch format {
	case "csv":
		return ".csv"
	case "markdown", "md":
		return ".md"
	case "txt", "text":
		return ".txt"
	default:
		return ".json"
	}
}

// Render encodes export in format. Unknown formats are rejected.
func Render(export *MovieExport, format string, images ImageResolver) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(export)
	case "markdown", "md":
		return ExportToMarkdown(export, images)
	case "txt", "text":
		return ExportToText(export)
	case "json", "":
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to {name}{ext} in the working directory.
func WriteExport(export *MovieExport, format, path string, images ImageResolver) (string, error) {
	data, err := Render(export, format, images)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = slug(export.Name) + Extension(format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

func genreNames(genres []models.Genre, sep string) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, sep)
}

func yearSuffix(date string) string {
	if y := Year(date); y != "" {
		return " (" + y + ")"
	}
	return ""
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "export"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
