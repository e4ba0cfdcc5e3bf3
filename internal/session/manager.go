package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	"golang.org/x/oauth2"
)

// State is the client-side authentication state.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateGuest
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateGuest:
		return "guest"
	default:
		return "anonymous"
	}
}

// Event is delivered to hooks after every state change.
type Event struct {
	State  State
	User   *models.User
	Reason string
	// Landing asks the UI to return to a neutral view (set by logout).
	Landing bool
}

// Hook receives session events synchronously.
type Hook func(Event)

// Authenticator is the part of the API client the session drives.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*services.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	GetCurrentUser(ctx context.Context) (*models.User, error)
	UserForToken(ctx context.Context, accessToken string) (*models.User, error)
}

// Options configures a [Manager].
type Options struct {
	Logger *log.Logger
	// Now is used for token expiry checks.
	Now func() time.Time
}

// Manager owns the anonymous/authenticated/guest state machine over durable storage.
type Manager struct {
	api    Authenticator
	store  storage.Store
	logger *log.Logger
	now    func() time.Time

	initOnce sync.Once

	mu       sync.Mutex
	state    State
	user     *models.User
	token    *oauth2.Token
	hooks    map[int]Hook
	nextHook int
}

// NewManager creates a session manager. Call [Manager.Init] before use.
func NewManager(api Authenticator, store storage.Store, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		api:    api,
		store:  store,
		logger: opts.Logger,
		now:    opts.Now,
		hooks:  map[int]Hook{},
	}
}

// SetLogger replaces the logger. Call it before [Manager.Init].
func (m *Manager) SetLogger(l *log.Logger) { m.logger = l }

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns the current user, or nil.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Token returns the validated bearer token, or nil.
func (m *Manager) Token() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Subscribe registers hook and returns a function that removes it.
func (m *Manager) Subscribe(hook Hook) (cancel func()) {
	m.mu.Lock()
	id := m.nextHook
	m.nextHook++
	m.hooks[id] = hook
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.hooks, id)
		m.mu.Unlock()
	}
}

// Init computes the initial state from durable storage. Only the first call has any effect.
func (m *Manager) Init(ctx context.Context) State {
	m.initOnce.Do(func() { m.initialize(ctx) })
	return m.State()
}

func (m *Manager) initialize(ctx context.Context) {
	raw, ok, err := storage.Lookup(ctx, m.store, storage.KeyToken)
	if err != nil {
		m.logger.Error("failed to read token", "error", err)
		m.set(StateAnonymous, nil, nil, "storage unavailable", false)
		return
	}
	if !ok {
		m.set(StateAnonymous, nil, nil, "no stored token", false)
		return
	}

	tok, err := ParseToken(raw, m.now())
	if err != nil {
		m.logger.Info("discarding stored token", "error", err)
		m.invalidate(ctx, err.Error())
		return
	}

	if m.guestFlag(ctx) {
		if user := m.cachedUser(ctx); user != nil {
			m.set(StateGuest, user, tok, "guest mode", false)
			return
		}
		m.logger.Warn("guest flag set without cached user; validating token")
	}

	user, err := m.api.GetCurrentUser(ctx)
	if err != nil || user == nil {
		if err == nil {
			err = shared.ErrNotAuthenticated
		}
		m.logger.Info("stored token rejected", "error", err)
		m.invalidate(ctx, services.MessageOf(err))
		return
	}

	m.cacheUser(ctx, user)
	m.set(StateAuthenticated, user, tok, "token validated", false)
}

// Login authenticates and moves to [StateAuthenticated].
//
// The granted token is checked and its user resolved before anything is written, then token and
// user are stored in one [storage.Store.SetMany]. On failure the state and storage are unchanged
// and the error carries a displayable message.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.api.Authenticate(ctx, email, password)
	if err != nil {
		m.logger.Warn("login failed", "email", email, "error", err)
		return err
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: no access token in response", shared.ErrAuthFailed)
	}

	tok, err := ParseToken(resp.AccessToken, m.now())
	if err != nil {
		m.logger.Warn("login granted an unusable token", "error", err)
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	user := resp.User
	if user == nil {
		if user, err = m.api.UserForToken(ctx, resp.AccessToken); err != nil {
			m.logger.Warn("failed to resolve user for new token", "error", err)
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: no user for granted token", shared.ErrAuthFailed)
		}
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%w: failed to encode user: %v", shared.ErrAuthFailed, err)
	}
	if err := m.store.SetMany(ctx, map[string]string{
		storage.KeyToken: resp.AccessToken,
		storage.KeyUser:  string(data),
	}); err != nil {
		return fmt.Errorf("%w: failed to persist session: %v", shared.ErrAuthFailed, err)
	}

	if err := m.store.Remove(ctx, storage.KeyGuestMode); err != nil {
		m.logger.Warn("failed to clear guest flag", "error", err)
	}

	m.set(StateAuthenticated, user, tok, "login", false)
	return nil
}

// Register creates an account without changing the session.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	user, err := m.api.Register(ctx, req)
	if err != nil {
		m.logger.Warn("registration failed", "email", req.Email, "error", err)
		return nil, err
	}
	return user, nil
}

// Logout clears durable storage and returns to [StateAnonymous]. It cannot fail.
func (m *Manager) Logout(ctx context.Context) {
	m.clear(ctx)
	m.set(StateAnonymous, nil, nil, "logout", true)
}

// Observe applies the cross-cutting 401 rule to err: any unauthorized failure ends the session.
//
// Storage is cleared even when already anonymous, since stale keys may survive a failed [Manager.Init].
// It reports whether the state changed.
func (m *Manager) Observe(ctx context.Context, err error) bool {
	if !services.IsUnauthorized(err) {
		return false
	}
	if m.State() == StateAnonymous {
		m.clear(ctx)
		return false
	}
	m.invalidate(ctx, "session expired")
	return true
}

// Revalidate repeats the current-user check against the backend.
func (m *Manager) Revalidate(ctx context.Context) error {
	if m.State() == StateAnonymous {
		return shared.ErrNotAuthenticated
	}

	user, err := m.api.GetCurrentUser(ctx)
	if err != nil {
		m.Observe(ctx, err)
		return err
	}
	if user == nil {
		m.invalidate(ctx, "token missing")
		return shared.ErrNotAuthenticated
	}

	m.cacheUser(ctx, user)
	m.mu.Lock()
	state, tok := m.state, m.token
	m.mu.Unlock()
	m.set(state, user, tok, "revalidated", false)
	return nil
}

func (m *Manager) invalidate(ctx context.Context, reason string) {
	m.clear(ctx)
	m.set(StateAnonymous, nil, nil, reason, false)
}

func (m *Manager) clear(ctx context.Context) {
	if err := m.store.Remove(ctx, storage.KeyToken, storage.KeyUser, storage.KeyGuestMode); err != nil {
		m.logger.Error("failed to clear session storage", "error", err)
	}
}

// set records the new state and notifies hooks after releasing the lock.
func (m *Manager) set(state State, user *models.User, tok *oauth2.Token, reason string, landing bool) {
	m.mu.Lock()
	prev := m.state
	m.state, m.user, m.token = state, user, tok
	hooks := make([]Hook, 0, len(m.hooks))
	for i := 0; i < m.nextHook; i++ {
		if h, ok := m.hooks[i]; ok {
			hooks = append(hooks, h)
		}
	}
	m.mu.Unlock()

	m.logger.Info("session state", "from", prev, "to", state, "reason", reason)

	ev := Event{State: state, User: user, Reason: reason, Landing: landing}
	for _, h := range hooks {
		h(ev)
	}
}

func (m *Manager) guestFlag(ctx context.Context) bool {
	v, ok, err := storage.Lookup(ctx, m.store, storage.KeyGuestMode)
	return err == nil && ok && v == "true"
}

func (m *Manager) cachedUser(ctx context.Context) *models.User {
	v, ok, err := storage.Lookup(ctx, m.store, storage.KeyUser)
	if err != nil || !ok || v == "" || v == "null" {
		return nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(v), &user); err != nil {
		m.logger.Warn("ignoring unreadable cached user", "error", err)
		return nil
	}
	return &user
}

func (m *Manager) cacheUser(ctx context.Context, user *models.User) {
	data, err := json.Marshal(user)
	if err == nil {
		err = m.store.Set(ctx, storage.KeyUser, string(data))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Warn("failed to cache user", "error", err)
	}
}
