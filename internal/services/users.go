package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
)

// ActionResult is the loosely shaped acknowledgement returned by library and profile mutations.
type ActionResult struct {
	Message     string `json:"message,omitempty"`
	Status      string `json:"status,omitempty"`
	MovieID     int    `json:"movie_id,omitempty"`
	InWatchlist *bool  `json:"in_watchlist,omitempty"`
}

type movieRef struct {
	MovieID int `json:"movie_id"`
}

func (a *APIService) action(raw json.RawMessage) (*ActionResult, error) {
	var res ActionResult
	if string(raw) == "null" {
		return &res, nil
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		// Non-object acknowledgements are still successes.
		a.logger.Debug("unrecognised action response", "body", string(raw))
	}
	return &res, nil
}

// ToggleWatchlist adds or removes movieID from the watchlist.
func (a *APIService) ToggleWatchlist(ctx context.Context, movieID int) (*ActionResult, error) {
	raw, err := a.sendJSON(ctx, http.MethodPost, "/users/watch-list/toggle", a.AuthHeaders(ctx), movieRef{movieID})
	if err != nil {
		return nil, err
	}
	return a.action(raw)
}

// GetWatchlist returns the user's watchlist, or an empty list on any failure.
func (a *APIService) GetWatchlist(ctx context.Context) []models.WatchlistItem {
	raw, err := a.Call(ctx, "/users/watch-list", Request{Header: a.AuthHeaders(ctx)})
	if err != nil {
		a.logger.Warn("failed to fetch watchlist", "error", err)
		return []models.WatchlistItem{}
	}

	items := []models.WatchlistItem{}
	if err := decodeList(raw, &items, "watchlist"); err != nil {
		a.logger.Warn("failed to decode watchlist", "error", err)
		return []models.WatchlistItem{}
	}
	return items
}

// AddToWatchHistory records movieID as watched.
func (a *APIService) AddToWatchHistory(ctx context.Context, movieID int) (*ActionResult, error) {
	raw, err := a.sendJSON(ctx, http.MethodPost, "/users/watch-history", a.AuthHeaders(ctx), movieRef{movieID})
	if err != nil {
		return nil, err
	}
	return a.action(raw)
}

// GetWatchHistory returns up to limit history entries, or an empty list on any failure.
func (a *APIService) GetWatchHistory(ctx context.Context, limit int) []models.HistoryItem {
	if limit <= 0 {
		limit = 12
	}

	raw, err := a.Call(ctx, fmt.Sprintf("/users/watch-history?limit=%d", limit), Request{Header: a.AuthHeaders(ctx)})
	if err != nil {
		a.logger.Warn("failed to fetch watch history", "error", err)
		return []models.HistoryItem{}
	}

	items := []models.HistoryItem{}
	if err := decodeList(raw, &items, "history"); err != nil {
		a.logger.Warn("failed to decode watch history", "error", err)
		return []models.HistoryItem{}
	}
	return items
}

// RemoveFromWatchHistory deletes movieID from the history.
func (a *APIService) RemoveFromWatchHistory(ctx context.Context, movieID int) (*ActionResult, error) {
	raw, err := a.Call(ctx, fmt.Sprintf("/users/watch-history/%d", movieID), Request{
		Method: http.MethodDelete,
		Header: a.AuthHeaders(ctx),
	})
	if err != nil {
		return nil, err
	}
	return a.action(raw)
}

// UpdateProfile sends the non-empty profile fields as a multipart form and returns the updated user.
func (a *APIService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	fields := update.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no profile fields to update", shared.ErrInvalidInput)
	}

	body, contentType, err := multipartBody(fields, nil)
	if err != nil {
		return nil, err
	}

	header := a.AuthHeaders(ctx)
	header.Set("Content-Type", contentType)

	raw, err := a.Call(ctx, "/users/profile", Request{
		Method: http.MethodPut,
		Header: header,
		Body:   body,
		Empty:  EmptyNull,
	})
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, &Failure{Kind: KindParse, Message: "no response from server"}
	}

	var user models.User
	if err := decode(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// filePart is a file field of a multipart form.
type filePart struct {
	field    string
	filename string
	r        io.Reader
}

// UploadProfilePicture uploads an image as the "avatar" form field.
func (a *APIService) UploadProfilePicture(ctx context.Context, filename string, r io.Reader) (*models.User, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no image provided", shared.ErrMissingArgument)
	}

	body, contentType, err := multipartBody(nil, &filePart{field: "avatar", filename: filepath.Base(filename), r: r})
	if err != nil {
		return nil, err
	}

	header := a.AuthHeaders(ctx)
	header.Set("Content-Type", contentType)

	raw, err := a.Call(ctx, "/users/avatar", Request{Method: http.MethodPost, Header: header, Body: body})
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decode(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAvatars lists the stock avatar URLs.
func (a *APIService) GetAvatars(ctx context.Context) ([]string, error) {
	raw, err := a.Call(ctx, "/users/avatars", Request{})
	if err != nil {
		return nil, err
	}

	avatars := []string{}
	if err := decodeList(raw, &avatars, "avatars"); err != nil {
		return nil, err
	}
	return avatars, nil
}

// UpdateUserDemographics replaces the demographic fields. It requires a stored token.
func (a *APIService) UpdateUserDemographics(ctx context.Context, d models.Demographics) (*models.Demographics, error) {
	if _, ok := a.Token(ctx); !ok {
		return nil, shared.ErrNotAuthenticated
	}

	raw, err := a.sendJSON(ctx, http.MethodPut, "/users/demographics", a.AuthHeaders(ctx), d)
	if err != nil {
		return nil, err
	}

	var out models.Demographics
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserDemographics returns the demographic fields, or (nil, nil) when no token is stored.
func (a *APIService) GetUserDemographics(ctx context.Context) (*models.Demographics, error) {
	if _, ok := a.Token(ctx); !ok {
		return nil, nil
	}

	var out models.Demographics
	if err := a.getJSON(ctx, "/users/demographics", a.AuthHeaders(ctx), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// multipartBody encodes fields (in key order) and an optional file into a multipart form.
func multipartBody(fields map[string]string, file *filePart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	if file != nil {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file.r); err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", file.filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
