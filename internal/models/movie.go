package models

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie represents a movie from the catalogue.
type Movie struct {
	ID           int     `json:"id"`
	TMDBID       int     `json:"tmdb_id,omitempty"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	Genres       []Genre `json:"genres,omitempty"`
}

// MoviePage is a normalized page of movies (popular and similar listings).
//
// Error carries a note for display (e.g. "Authentication required"), not a failure.
type MoviePage struct {
	Movies      []Movie `json:"movies"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	Error       string  `json:"error,omitempty"`
}

// EmptyMoviePage returns the default page used when a listing fails.
func EmptyMoviePage() MoviePage {
	return MoviePage{Movies: []Movie{}, CurrentPage: 1, TotalPages: 1}
}

// SearchResults is a normalized page of search or genre results.
type SearchResults struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// EmptySearchResults is returned for blank queries and failed searches.
func EmptySearchResults() SearchResults {
	return SearchResults{Page: 1, Results: []Movie{}, TotalPages: 0, TotalResults: 0}
}
