package store

import (
	"context"
	"fmt"

	"forgetodo/internal/forge"
)

// GetOrCreateUser upserts the local row for a forge profile: existing rows
// get their cached profile fields refreshed, missing rows are inserted.
func (s *Store) GetOrCreateUser(ctx context.Context, p *forge.Profile) (*User, error) {
	if p == nil || p.ID == 0 {
		return nil, fmt.Errorf("profile has no forge user id")
	}
	forgeID := fmt.Sprintf("%d", p.ID)
	fullName := p.FullName
	if fullName == "" {
		fullName = p.Login
	}

	now := nowUTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (forgejo_user_id, username, email, full_name, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(forgejo_user_id) DO UPDATE SET
			username   = excluded.username,
			email      = excluded.email,
			full_name  = excluded.full_name,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		forgeID, p.Login, p.Email, fullName, p.AvatarURL, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	var u User
	if err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE forgejo_user_id = ?`, forgeID); err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

// GetUserByID loads a user row by local id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &u, nil
}
