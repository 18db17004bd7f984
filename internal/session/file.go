package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forgetodo/internal/forge"
)

// savedSession is the on-disk layout of a persisted session. The credential
// carries its scheme tag, so restoring never has to guess how the secret
// must be sent.
type savedSession struct {
	Credential  forge.Credential `json:"credential"`
	BaseURL     string           `json:"base_url"`
	User        *forge.Profile   `json:"user"`
	ServerToken string           `json:"server_token"`
	SavedAt     time.Time        `json:"saved_at"`
}

// maxSessionAge is how long a saved session stays usable.
const maxSessionAge = 7 * 24 * time.Hour

func (m *Manager) saveFile() error {
	saved := savedSession{
		Credential:  *m.cred,
		BaseURL:     m.baseURL,
		User:        m.profile,
		ServerToken: m.serverToken,
		SavedAt:     time.Now().UTC(),
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	return os.WriteFile(m.path, data, 0o600)
}

// loadFile reads the saved session, discarding it when expired or unreadable.
func (m *Manager) loadFile() *savedSession {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		m.removeFile()
		return nil
	}
	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		m.removeFile()
		return nil
	}
	if !saved.Credential.Valid() || saved.BaseURL == "" || saved.User == nil {
		m.removeFile()
		return nil
	}
	if time.Since(saved.SavedAt) > maxSessionAge {
		m.removeFile()
		return nil
	}
	return &saved
}

func (m *Manager) removeFile() {
	_ = os.Remove(m.path)
}
