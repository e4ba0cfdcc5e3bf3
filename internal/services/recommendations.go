package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/cinex/internal/models"
)

// GetPersonalizedRecommendations returns up to limit movies for the signed-in user, or an empty list on any failure.
func (a *APIService) GetPersonalizedRecommendations(ctx context.Context, limit int) []models.Movie {
	if limit <= 0 {
		limit = 12
	}

	raw, err := a.Call(ctx, fmt.Sprintf("/recommendations/personalized?limit=%d", limit), Request{Header: a.AuthHeaders(ctx)})
	if err != nil {
		a.logger.Warn("failed to fetch recommendations", "error", err)
		return []models.Movie{}
	}

	movies := []models.Movie{}
	if err := decodeList(raw, &movies, "recommendations", "results", "movies"); err != nil {
		a.logger.Warn("failed to decode recommendations", "error", err)
		return []models.Movie{}
	}
	return movies
}

// GetRecommendationsByGenre returns up to limit recommended movies in one genre.
func (a *APIService) GetRecommendationsByGenre(ctx context.Context, genreID, limit int) ([]models.Movie, error) {
	if limit <= 0 {
		limit = 8
	}

	raw, err := a.Call(ctx, fmt.Sprintf("/recommendations/by-genre/%d?limit=%d", genreID, limit), Request{})
	if err != nil {
		return nil, err
	}

	movies := []models.Movie{}
	if err := decodeList(raw, &movies, "recommendations", "results", "movies"); err != nil {
		return nil, err
	}
	return movies, nil
}
