package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/cinex/internal/models"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/desertthunder/cinex/internal/storage"
	tu "github.com/desertthunder/cinex/internal/testing"
	"github.com/golang-jwt/jwt/v5"
)

type fixture struct {
	backend *tu.Backend
	store   *storage.MemoryStore
	api     *services.APIService
	mgr     *Manager
	events  []Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{backend: tu.NewBackend(t), store: storage.NewMemoryStore()}
	f.api = services.NewAPIService(services.APIOpts{BaseURL: f.backend.URL(), Store: f.store})
	f.mgr = NewManager(f.api, f.store, Options{})
	f.mgr.Subscribe(func(e Event) { f.events = append(f.events, e) })
	return f
}

func (f *fixture) seed(t *testing.T, pairs map[string]string) {
	t.Helper()
	if err := f.store.SetMany(context.Background(), pairs); err != nil {
		t.Fatal(err)
	}
}

func unsigned(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(exp)}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-key"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// grantClient answers logins with a fixed grant and forwards everything else to the backend.
type grantClient struct {
	*services.APIService
	resp *services.LoginResponse
}

func (g grantClient) Authenticate(context.Context, string, string) (*services.LoginResponse, error) {
	return g.resp, nil
}

// signedInWith seeds a valid session for alice, then builds a manager whose logins return resp.
func (f *fixture) signedInWith(t *testing.T, resp *services.LoginResponse) map[string]string {
	t.Helper()
	id := f.backend.AddUser("alice", "alice@example.com", "secret")
	f.seed(t, map[string]string{
		storage.KeyToken: f.backend.Token(id),
		storage.KeyUser:  `{"id":"1","username":"alice","email":"alice@example.com"}`,
	})
	f.mgr = NewManager(grantClient{APIService: f.api, resp: resp}, f.store, Options{})
	f.mgr.Subscribe(func(e Event) { f.events = append(f.events, e) })
	if got := f.mgr.Init(context.Background()); got != StateAuthenticated {
		t.Fatalf("expected authenticated after init, got %v", got)
	}
	return f.store.Snapshot()
}

func TestParseToken(t *testing.T) {
	now := time.Now()

	t.Run("Valid", func(t *testing.T) {
		tok, err := ParseToken(unsigned(t, now.Add(time.Hour)), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Type() != "Bearer" || tok.Expiry.IsZero() {
			t.Errorf("unexpected token %+v", tok)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		if _, err := ParseToken(unsigned(t, now.Add(-time.Minute)), now); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b", "a..c", "a.b.c.d", "not.a.jwt"} {
			if _, err := ParseToken(raw, now); !errors.Is(err, shared.ErrMalformedToken) {
				t.Errorf("expected ErrMalformedToken for %q, got %v", raw, err)
			}
		}
	})
}

func TestInit(t *testing.T) {
	ctx := context.Background()

	t.Run("No Token", func(t *testing.T) {
		f := newFixture(t)

		if got := f.mgr.Init(ctx); got != StateAnonymous {
			t.Errorf("expected anonymous, got %v", got)
		}
		if f.backend.Calls() != 0 {
			t.Error("expected no network call")
		}
	})

	invalid := map[string]func(f *fixture) string{
		"Expired Token":   func(f *fixture) string { return f.backend.ExpiredToken(f.backend.AddUser("a", "a@x.io", "p")) },
		"Two Segments":    func(*fixture) string { return "header.payload" },
		"Garbage Segment": func(*fixture) string { return "x.y.z" },
	}
	for name, token := range invalid {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, map[string]string{
				storage.KeyToken:     token(f),
				storage.KeyUser:      `{"id":1,"username":"a"}`,
				storage.KeyGuestMode: "true",
			})

			var storedAtHook map[string]string
			f.mgr.Subscribe(func(Event) { storedAtHook = f.store.Snapshot() })

			if got := f.mgr.Init(ctx); got != StateAnonymous {
				t.Errorf("expected anonymous, got %v", got)
			}
			if len(storedAtHook) != 0 {
				t.Errorf("expected storage cleared before hook fired, got %v", storedAtHook)
			}
			if f.backend.Calls() != 0 {
				t.Error("expected no network call for an invalid token")
			}
		})
	}

	t.Run("Guest Mode", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, map[string]string{
			storage.KeyToken:     unsigned(t, time.Now().Add(time.Hour)),
			storage.KeyUser:      `{"id":7,"username":"guest","name":"Guest User"}`,
			storage.KeyGuestMode: "true",
		})

		if got := f.mgr.Init(ctx); got != StateGuest {
			t.Fatalf("expected guest, got %v", got)
		}
		if u := f.mgr.User(); u == nil || u.Username != "guest" || *u.DisplayName != "Guest User" {
			t.Errorf("expected cached user, got %+v", u)
		}
		if f.backend.Calls() != 0 {
			t.Error("expected guest mode to skip the network")
		}
	})

	t.Run("Token Without Cached User", func(t *testing.T) {
		f := newFixture(t)
		id := f.backend.AddUser("alice", "alice@example.com", "secret")
		f.seed(t, map[string]string{storage.KeyToken: f.backend.Token(id)})

		if got := f.mgr.Init(ctx); got != StateAuthenticated {
			t.Fatalf("expected authenticated, got %v", got)
		}
		if f.mgr.User().Email != "alice@example.com" {
			t.Errorf("unexpected user %+v", f.mgr.User())
		}
		if _, ok := f.store.Snapshot()[storage.KeyUser]; !ok {
			t.Error("expected user to be cached after validation")
		}
	})

	t.Run("Rejected Token", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, map[string]string{
			storage.KeyToken: f.backend.Token(99),
			storage.KeyUser:  `{"id":99,"username":"ghost"}`,
		})

		if got := f.mgr.Init(ctx); got != StateAnonymous {
			t.Errorf("expected anonymous, got %v", got)
		}
		if len(f.store.Snapshot()) != 0 {
			t.Errorf("expected storage cleared, got %v", f.store.Snapshot())
		}
	})

	t.Run("Runs Once", func(t *testing.T) {
		f := newFixture(t)
		f.mgr.Init(ctx)
		f.mgr.Init(ctx)

		if len(f.events) != 1 {
			t.Errorf("expected a single event, got %d", len(f.events))
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("alice", "alice@example.com", "secret")
		f.mgr.Init(ctx)

		if err := f.mgr.Login(ctx, "alice@example.com", "secret"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.mgr.State() != StateAuthenticated || f.mgr.Token() == nil {
			t.Errorf("expected authenticated with token, got %v", f.mgr.State())
		}

		snap := f.store.Snapshot()
		if snap[storage.KeyToken] == "" || snap[storage.KeyUser] == "" {
			t.Errorf("expected token and user in storage, got %v", snap)
		}

		last := f.events[len(f.events)-1]
		if last.State != StateAuthenticated || last.User == nil {
			t.Errorf("unexpected event %+v", last)
		}
	})

	t.Run("Invalid Credentials", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("alice", "alice@example.com", "secret")
		f.mgr.Init(ctx)
		before := len(f.events)

		err := f.mgr.Login(ctx, "alice@example.com", "nope")
		if services.StatusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
		if services.MessageOf(err) == "" {
			t.Error("expected a displayable message")
		}
		if f.mgr.State() != StateAnonymous {
			t.Errorf("expected anonymous, got %v", f.mgr.State())
		}
		if len(f.store.Snapshot()) != 0 {
			t.Errorf("expected storage unchanged, got %v", f.store.Snapshot())
		}
		if len(f.events) != before {
			t.Error("expected no event on failed login")
		}
	})

	t.Run("Relogin With Malformed Token", func(t *testing.T) {
		f := newFixture(t)
		before := f.signedInWith(t, &services.LoginResponse{AccessToken: "opaque-token", TokenType: "bearer"})
		events := len(f.events)

		err := f.mgr.Login(ctx, "alice@example.com", "secret")
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrMalformedToken) {
			t.Fatalf("expected malformed token failure, got %v", err)
		}
		if f.mgr.State() != StateAuthenticated || f.mgr.Token() == nil {
			t.Errorf("expected previous session to remain, got %v", f.mgr.State())
		}
		after := f.store.Snapshot()
		if after[storage.KeyToken] != before[storage.KeyToken] || after[storage.KeyUser] != before[storage.KeyUser] {
			t.Errorf("expected storage unchanged, got %v", after)
		}
		if len(f.events) != events {
			t.Error("expected no event on failed login")
		}
	})

	t.Run("Relogin When User Lookup Fails", func(t *testing.T) {
		f := newFixture(t)
		// signed with a key the backend rejects, and no user in the grant
		grant := &services.LoginResponse{AccessToken: unsigned(t, time.Now().Add(time.Hour)), TokenType: "bearer"}
		before := f.signedInWith(t, grant)
		f.seed(t, map[string]string{storage.KeyGuestMode: "true"})
		before[storage.KeyGuestMode] = "true"

		err := f.mgr.Login(ctx, "alice@example.com", "secret")
		if services.StatusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401 from user lookup, got %v", err)
		}
		if f.mgr.State() != StateAuthenticated {
			t.Errorf("expected previous session to remain, got %v", f.mgr.State())
		}
		after := f.store.Snapshot()
		for _, k := range []string{storage.KeyToken, storage.KeyUser, storage.KeyGuestMode} {
			if after[k] != before[k] {
				t.Errorf("expected %s unchanged, got %q", k, after[k])
			}
		}
	})

	t.Run("Clears Guest Flag", func(t *testing.T) {
		f := newFixture(t)
		f.backend.AddUser("alice", "alice@example.com", "secret")
		f.seed(t, map[string]string{storage.KeyGuestMode: "true"})
		f.mgr.Init(ctx)

		if err := f.mgr.Login(ctx, "alice@example.com", "secret"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := f.store.Snapshot()[storage.KeyGuestMode]; ok {
			t.Error("expected guest flag removed")
		}
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mgr.Init(ctx)

	user, err := f.mgr.Register(ctx, models.RegisterRequest{
		Username: "bob", FullName: "Bob", Email: "bob@example.com", Password: "pw",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "bob" {
		t.Errorf("unexpected user %+v", user)
	}
	if f.mgr.State() != StateAnonymous {
		t.Errorf("expected register not to sign in, got %v", f.mgr.State())
	}
}

func TestLogoutAndObserve(t *testing.T) {
	ctx := context.Background()

	signedIn := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.backend.AddUser("alice", "alice@example.com", "secret")
		f.mgr.Init(ctx)
		if err := f.mgr.Login(ctx, "alice@example.com", "secret"); err != nil {
			t.Fatal(err)
		}
		return f
	}

	t.Run("Logout", func(t *testing.T) {
		f := signedIn(t)
		f.mgr.Logout(ctx)

		if f.mgr.State() != StateAnonymous || f.mgr.User() != nil {
			t.Errorf("expected anonymous without user")
		}
		if len(f.store.Snapshot()) != 0 {
			t.Errorf("expected storage cleared, got %v", f.store.Snapshot())
		}
		if last := f.events[len(f.events)-1]; !last.Landing {
			t.Error("expected logout event to request the landing view")
		}
	})

	t.Run("Observe While Anonymous Clears Storage", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, map[string]string{storage.KeyToken: "stale", storage.KeyUser: "{}"})

		unauthorized := &services.Failure{Kind: services.KindHTTP, Status: http.StatusUnauthorized}
		if f.mgr.Observe(ctx, unauthorized) {
			t.Error("expected no state change while anonymous")
		}
		if len(f.store.Snapshot()) != 0 {
			t.Errorf("expected stale keys cleared, got %v", f.store.Snapshot())
		}
		if len(f.events) != 0 {
			t.Errorf("expected no events, got %d", len(f.events))
		}
	})

	t.Run("Observe Unauthorized", func(t *testing.T) {
		f := signedIn(t)

		if f.mgr.Observe(ctx, errors.New("boom")) {
			t.Error("expected plain error to be ignored")
		}
		if f.mgr.Observe(ctx, &services.Failure{Kind: services.KindHTTP, Status: http.StatusInternalServerError}) {
			t.Error("expected 500 to be ignored")
		}
		if !f.mgr.Observe(ctx, &services.Failure{Kind: services.KindHTTP, Status: http.StatusUnauthorized}) {
			t.Fatal("expected 401 to invalidate the session")
		}
		if f.mgr.State() != StateAnonymous || len(f.store.Snapshot()) != 0 {
			t.Error("expected anonymous with empty storage")
		}
	})

	t.Run("Revalidate", func(t *testing.T) {
		f := signedIn(t)

		if err := f.mgr.Revalidate(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f.backend.Fail("/auth/me", http.StatusUnauthorized)
		if err := f.mgr.Revalidate(ctx); !services.IsUnauthorized(err) {
			t.Errorf("expected 401, got %v", err)
		}
		if f.mgr.State() != StateAnonymous {
			t.Errorf("expected anonymous, got %v", f.mgr.State())
		}
	})

	t.Run("Subscribe Cancel", func(t *testing.T) {
		f := signedIn(t)
		calls := 0
		cancel := f.mgr.Subscribe(func(Event) { calls++ })
		cancel()

		f.mgr.Logout(ctx)
		if calls != 0 {
			t.Errorf("expected cancelled hook not to fire, got %d calls", calls)
		}
	})
}
