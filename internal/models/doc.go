// Package models defines the data transfer types exchanged with the movie recommendation backend.
//
// The package contains two categories of types:
//
// 1. Catalogue types: read-only data served by the backend
//   - [Movie], [Genre] : Movie metadata with TMDB image paths
//   - [MoviePage], [SearchResults] : Normalized paged listings that never need nil checks
//
// 2. Account types: data owned by the signed-in user
//   - [User] : Profile record, normalized to one canonical schema on decode
//   - [WatchlistItem], [HistoryItem] : Library entries
//   - [Demographics], [RegisterRequest], [ProfileUpdate] : Request payloads
//
// Optional [User] fields are pointers so that absence survives a round trip through durable storage.
// Display fallbacks ("Not provided") belong to the formatter package, never to these types.
package models
