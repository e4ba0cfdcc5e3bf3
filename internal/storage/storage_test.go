package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/cinex/internal/shared"
	"github.com/redis/go-redis/v9"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "absent")
		if !errors.Is(err, shared.ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("Set then Get", func(t *testing.T) {
		if err := s.Set(ctx, KeyToken, "a.b.c"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Get(ctx, KeyToken)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "a.b.c" {
			t.Errorf("expected a.b.c, got %s", got)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		if err := s.Set(ctx, KeyToken, "d.e.f"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if got, _ := s.Get(ctx, KeyToken); got != "d.e.f" {
			t.Errorf("expected overwritten value, got %s", got)
		}
	})

	t.Run("SetMany", func(t *testing.T) {
		pairs := map[string]string{KeyToken: "x.y.z", KeyUser: `{"id":"1"}`}
		if err := s.SetMany(ctx, pairs); err != nil {
			t.Fatalf("SetMany failed: %v", err)
		}
		for k, want := range pairs {
			if got, err := s.Get(ctx, k); err != nil || got != want {
				t.Errorf("key %s: got (%q, %v), want %q", k, got, err, want)
			}
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := s.Remove(ctx, KeyToken, KeyUser, KeyGuestMode); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		for _, k := range []string{KeyToken, KeyUser} {
			if _, err := s.Get(ctx, k); !errors.Is(err, shared.ErrKeyNotFound) {
				t.Errorf("expected %s to be removed, got %v", k, err)
			}
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		if _, ok, err := Lookup(ctx, s, KeyGuestMode); ok || err != nil {
			t.Errorf("expected missing key, got ok=%v err=%v", ok, err)
		}
		if err := s.Set(ctx, KeyGuestMode, "true"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if v, ok, err := Lookup(ctx, s, KeyGuestMode); !ok || err != nil || v != "true" {
			t.Errorf("expected true, got (%q, %v, %v)", v, ok, err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)

	if snap := s.Snapshot(); snap[KeyGuestMode] != "true" {
		t.Errorf("expected snapshot to contain guest flag, got %v", snap)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:", 0, 0)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		defer s.Close()
		exerciseStore(t, s)
	})

	t.Run("persists across reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cinex.db")
		ctx := context.Background()

		s, err := NewSQLiteStore(path, 1, 1)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		if err := s.Set(ctx, KeyToken, "persisted.token.value"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		s.Close()

		reopened, err := NewSQLiteStore(path, 1, 1)
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer reopened.Close()

		if got, err := reopened.Get(ctx, KeyToken); err != nil || got != "persisted.token.value" {
			t.Errorf("expected persisted token, got (%q, %v)", got, err)
		}
	})
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb, "test")
	defer s.Close()

	exerciseStore(t, s)

	if !mr.Exists("test:" + KeyGuestMode) {
		t.Error("expected keys to be namespaced with the prefix")
	}

	t.Run("FromURL", func(t *testing.T) {
		fromURL, err := NewRedisStoreFromURL(context.Background(), "redis://"+mr.Addr()+"/0", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer fromURL.Close()

		if got, err := fromURL.Get(context.Background(), "x"); !errors.Is(err, shared.ErrKeyNotFound) {
			t.Errorf("expected missing key under default prefix, got (%q, %v)", got, err)
		}
	})

	t.Run("FromURL rejects bad URL", func(t *testing.T) {
		if _, err := NewRedisStoreFromURL(context.Background(), "ftp://nope", ""); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, shared.StorageConfig{Driver: "memory"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("expected *MemoryStore, got %T", s)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, shared.StorageConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "s.db")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer s.Close()
		if _, ok := s.(*SQLiteStore); !ok {
			t.Errorf("expected *SQLiteStore, got %T", s)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := Open(ctx, shared.StorageConfig{Driver: "etcd"}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
