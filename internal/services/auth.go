package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
)

// LoginResponse is the backend's token grant.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

// Authenticate exchanges credentials for a bearer token without touching storage.
//
// The backend expects an OAuth2 password form, so the email is sent as "username".
func (a *APIService) Authenticate(ctx context.Context, email, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := a.Call(ctx, "/auth/login", Request{
		Method: http.MethodPost,
		Header: header,
		Body:   strings.NewReader(form.Encode()),
	})
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates and, when a token is granted, persists token and user together.
func (a *APIService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken != "" && a.store != nil {
		user, err := json.Marshal(resp.User)
		if err != nil {
			return nil, fmt.Errorf("failed to encode user: %w", err)
		}

		pairs := map[string]string{
			storage.KeyToken: resp.AccessToken,
			storage.KeyUser:  string(user),
		}
		if err := a.store.SetMany(ctx, pairs); err != nil {
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	return resp, nil
}

// Register creates an account. It does not log the user in.
func (a *APIService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	raw, err := a.sendJSON(ctx, http.MethodPost, "/auth/register", nil, req)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := decode(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCurrentUser validates the stored token against the backend.
//
// It returns (nil, nil) when no token is stored. A rejected token is returned as a 401 [Failure].
func (a *APIService) GetCurrentUser(ctx context.Context) (*models.User, error) {
	tok, ok := a.Token(ctx)
	if !ok {
		return nil, nil
	}
	return a.UserForToken(ctx, tok.AccessToken)
}

// UserForToken fetches the user that accessToken belongs to, ignoring any stored token.
func (a *APIService) UserForToken(ctx context.Context, accessToken string) (*models.User, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	var user models.User
	if err := a.getJSON(ctx, "/auth/me", header, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
