package models

// WatchlistItem is a movie saved to the user's watchlist.
type WatchlistItem struct {
	ID         int       `json:"id"`
	MovieID    int       `json:"movie_id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	AddedAt    Timestamp `json:"added_at"`
}

// HistoryItem is a watch history entry.
type HistoryItem struct {
	ID         int       `json:"id"`
	MovieID    int       `json:"movie_id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	WatchedAt  Timestamp `json:"watched_at"`
}
