// API client for the movie recommendation backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL      = "https://cineplexfinal.onrender.com"
	defaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	defaultPlaceholder  = "assets/images/placeholder.jpg"
	defaultTimeout      = 10 * time.Second
)

var errRequestTimeout = errors.New("request timeout elapsed")

// EmptyBody selects what an empty 2xx body decodes to.
type EmptyBody int

const (
	EmptyObject EmptyBody = iota // {}
	EmptyNull                    // null
)

// Request describes one call. Zero values mean GET with the default JSON headers.
type Request struct {
	Method string
	Header http.Header
	Body   io.Reader
	Empty  EmptyBody
}

// APIOpts configures [NewAPIService].
type APIOpts struct {
	BaseURL      string
	ImageBaseURL string
	Placeholder  string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Store        storage.Store
	Logger       *log.Logger
}

// APIService is the single point of outbound traffic to one backend origin.
//
// The bearer token is read from durable storage on demand; the service keeps no session state of its own.
type APIService struct {
	baseURL      string
	imageBaseURL string
	placeholder  string
	timeout      time.Duration
	httpClient   *http.Client
	store        storage.Store
	logger       *log.Logger
}

// NewAPIService creates a new API service, filling unset options with defaults.
//
// The HTTP client always carries a cookie jar so that cookies set by the backend are sent back.
func NewAPIService(opts APIOpts) *APIService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = defaultImageBaseURL
	}
	if opts.Placeholder == "" {
		opts.Placeholder = defaultPlaceholder
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	client := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	}
	if client.Jar == nil {
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}

	return &APIService{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(opts.ImageBaseURL, "/"),
		placeholder:  opts.Placeholder,
		timeout:      opts.Timeout,
		httpClient:   client,
		store:        opts.Store,
		logger:       opts.Logger,
	}
}

// BaseURL returns the backend origin.
func (a *APIService) BaseURL() string { return a.baseURL }

// SetLogger replaces the request logger. It must not be called while requests are in flight.
func (a *APIService) SetLogger(l *log.Logger) { a.logger = l }

// Call performs one request against the backend and returns the raw JSON payload.
//
// Failures are always a [*Failure]; see [Kind] for the taxonomy.
func (a *APIService) Call(ctx context.Context, path string, req Request) (json.RawMessage, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithTimeoutCause(ctx, a.timeout, errRequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrInvalidInput, err)
	}

	requestID := shared.GenerateID()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	logger := a.logger.With("method", method, "path", path, "request_id", requestID)
	start := time.Now()

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, a.transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, a.transportFailure(ctx, err)
	}

	logger.Debug("api response", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpFailure(resp, body)
	}

	text := bytes.TrimSpace(body)
	if len(text) == 0 {
		if req.Empty == EmptyNull {
			return json.RawMessage("null"), nil
		}
		return json.RawMessage("{}"), nil
	}

	if !json.Valid(text) {
		return nil, &Failure{
			Kind:    KindParse,
			Status:  resp.StatusCode,
			Message: "response body is not valid JSON",
		}
	}

	return json.RawMessage(text), nil
}

func (a *APIService) transportFailure(ctx context.Context, err error) *Failure {
	if context.Cause(ctx) == errRequestTimeout {
		return &Failure{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("request timed out after %s", a.timeout),
			Err:     err,
		}
	}
	return &Failure{
		Kind:    KindNetwork,
		Message: "unable to reach the server",
		Err:     err,
	}
}

// Token returns the bearer token from durable storage.
func (a *APIService) Token(ctx context.Context) (*oauth2.Token, bool) {
	if a.store == nil {
		return nil, false
	}

	v, ok, err := storage.Lookup(ctx, a.store, storage.KeyToken)
	if err != nil {
		a.logger.Warn("failed to read token from storage", "error", err)
		return nil, false
	}
	if !ok || v == "" {
		return nil, false
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, true
}

// AuthHeaders returns an Authorization header for the stored token, or an empty header without one.
func (a *APIService) AuthHeaders(ctx context.Context) http.Header {
	h := http.Header{}
	if tok, ok := a.Token(ctx); ok {
		h.Set("Authorization", tok.Type()+" "+tok.AccessToken)
	}
	return h
}

// getJSON performs a GET and decodes the payload into out.
func (a *APIService) getJSON(ctx context.Context, path string, header http.Header, out any) error {
	raw, err := a.Call(ctx, path, Request{Header: header})
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// sendJSON encodes body as JSON and sends it with method.
func (a *APIService) sendJSON(ctx context.Context, method, path string, header http.Header, body any) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", shared.ErrInvalidInput, err)
	}
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", "application/json")

	return a.Call(ctx, path, Request{Method: method, Header: header, Body: bytes.NewReader(data)})
}

func decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &Failure{Kind: KindParse, Message: "unexpected response shape", Err: err}
	}
	return nil
}

// decodeList accepts a bare JSON array or an object holding the array under one of keys.
func decodeList(raw json.RawMessage, out any, keys ...string) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return decode(trimmed, out)
	}
	if string(trimmed) == "null" {
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := decode(trimmed, &envelope); err != nil {
		return err
	}
	for _, k := range keys {
		if v, ok := envelope[k]; ok && string(v) != "null" {
			return decode(v, out)
		}
	}
	return nil
}
