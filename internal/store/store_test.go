package store

import (
	"context"
	"path/filepath"
	"testing"

	"forgetodo/internal/forge"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, forgeID int64, login string) *User {
	t.Helper()
	u, err := s.GetOrCreateUser(context.Background(), &forge.Profile{
		ID:    forgeID,
		Login: login,
		Email: login + "@example.com",
	})
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	return u
}

func TestGetOrCreateUser_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateUser(ctx, &forge.Profile{ID: 42, Login: "alice", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	second, err := s.GetOrCreateUser(ctx, &forge.Profile{
		ID:        42,
		Login:     "alice",
		Email:     "new@example.com",
		FullName:  "Alice A.",
		AvatarURL: "https://forge.example/avatar/alice",
	})
	if err != nil {
		t.Fatalf("GetOrCreateUser (second): %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("re-auth created a second row: %d vs %d", second.ID, first.ID)
	}
	if second.Email != "new@example.com" {
		t.Fatalf("Email=%q, want refreshed value", second.Email)
	}
	if second.FullName != "Alice A." {
		t.Fatalf("FullName=%q, want %q", second.FullName, "Alice A.")
	}
	if second.CreatedAt != first.CreatedAt {
		t.Fatalf("CreatedAt changed on upsert")
	}
}

func TestGetOrCreateUser_FullNameFallsBackToLogin(t *testing.T) {
	s := newTestStore(t)

	u, err := s.GetOrCreateUser(context.Background(), &forge.Profile{ID: 7, Login: "bob"})
	if err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	if u.FullName != "bob" {
		t.Fatalf("FullName=%q, want login fallback", u.FullName)
	}
}

func TestGetOrCreateUser_MissingID(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetOrCreateUser(context.Background(), &forge.Profile{Login: "ghost"}); err == nil {
		t.Fatalf("expected error for profile without id")
	}
	if _, err := s.GetOrCreateUser(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil profile")
	}
}
