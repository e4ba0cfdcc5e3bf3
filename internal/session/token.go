package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cinex/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ParseToken checks that raw is a well-formed, unexpired JWT and wraps it as a bearer token.
//
// The signature is not verified; only the backend can do that.
func ParseToken(raw string, now time.Time) (*oauth2.Token, error) {
	raw = strings.TrimSpace(raw)

	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", shared.ErrMalformedToken, len(segments))
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment", shared.ErrMalformedToken)
		}
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedToken, err)
	}

	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if claims.ExpiresAt != nil {
		if !claims.ExpiresAt.After(now) {
			return nil, fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
		}
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok, nil
}
