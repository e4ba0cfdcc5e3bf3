package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/cinex/internal/shared"
)

// Kind classifies a [Failure].
type Kind int

const (
	// KindNetwork means no response arrived (connectivity, DNS, refused connection, caller cancellation).
	KindNetwork Kind = iota + 1
	// KindTimeout means the client timeout elapsed before a response arrived.
	KindTimeout
	// KindHTTP means the backend answered with a non-2xx status.
	KindHTTP
	// KindParse means a 2xx body was not the JSON the caller expected.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindTimeout:
		return "TimeoutError"
	case KindHTTP:
		return "HttpError"
	case KindParse:
		return "ParseError"
	default:
		return "UnknownError"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return shared.ErrNetwork
	case KindTimeout:
		return shared.ErrTimeout
	case KindHTTP:
		return shared.ErrHTTPStatus
	case KindParse:
		return shared.ErrParse
	default:
		return shared.ErrAPIRequest
	}
}

// Failure is the normalized error returned by [APIService.Call].
//
// Status is 0 when no response was received.
type Failure struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Status > 0 {
		return fmt.Sprintf("%s (status %d)", f.Message, f.Status)
	}
	return f.Message
}

// Unwrap exposes both the kind sentinel and the underlying cause to [errors.Is].
func (f *Failure) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest, f.Kind.sentinel()}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// AsFailure extracts a [Failure] from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	if f, ok := AsFailure(err); ok {
		return f.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 [Failure].
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// MessageOf returns the human-readable message for display.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if f, ok := AsFailure(err); ok && f.Message != "" {
		return f.Message
	}
	return err.Error()
}

// httpFailure builds a [KindHTTP] failure, preferring the message in a JSON error body.
func httpFailure(resp *http.Response, body []byte) *Failure {
	return &Failure{
		Kind:    KindHTTP,
		Status:  resp.StatusCode,
		Message: errorMessage(resp, body),
	}
}

func errorMessage(resp *http.Response, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := detailMessage(payload.Detail); msg != "" {
			return msg
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = fmt.Sprintf("HTTP error %d", resp.StatusCode)
	}
	return text
}

// detailMessage reads FastAPI style details: a string or a list of {"msg": ...} objects.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
