package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchLibrary Phase = iota
	FetchMovies
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case FetchLibrary:
		return "fetch_library"
	case FetchMovies:
		return "fetch_movies"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

func fetchLibraryUpdate(source string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d movies in %s", count, source),
	}
}

func fetchedMovieUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovies,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func failedMovieUpdate(step, total, id int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMovies,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ movie %d: %v", step, total, id, err),
	}
}

func writeExportUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %s", path),
		Data:    path,
	}
}
