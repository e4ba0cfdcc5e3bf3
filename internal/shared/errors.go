package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("authentication required")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrMalformedToken   = fmt.Errorf("malformed access token")

	// API errors, one per failure kind
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNetwork            = fmt.Errorf("network error")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrHTTPStatus         = fmt.Errorf("unexpected HTTP status")
	ErrParse              = fmt.Errorf("malformed response body")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Storage errors
	ErrKeyNotFound = fmt.Errorf("storage key not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
