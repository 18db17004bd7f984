// Package session owns the client-held credential and cached profile. A
// Manager is constructed explicitly by the entry point and handed to whatever
// needs the authenticated-request capability; there is no package-level
// instance.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"forgetodo/internal/forge"
)

// State is the manager's lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAuthenticated
	StateUnauthenticated
)

var (
	// ErrNotAuthenticated means no usable session exists; log in first.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrSessionExpired means the server rejected the session token. The
	// manager has already logged itself out when this is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// Manager holds one session: the forge credential (tagged with its scheme),
// the cached profile, and the todo server's session token, persisted to a
// file with a 7-day expiry.
type Manager struct {
	serverURL  string
	path       string
	forge      *forge.Client
	httpClient *http.Client

	state       State
	cred        *forge.Credential
	baseURL     string
	profile     *forge.Profile
	serverToken string
}

// NewManager returns an uninitialized manager. serverURL is the todo API
// server; path is the session file location.
func NewManager(serverURL, path string, httpClient *http.Client) *Manager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Manager{
		serverURL:  strings.TrimRight(serverURL, "/"),
		path:       path,
		forge:      forge.NewClient(httpClient),
		httpClient: httpClient,
		state:      StateUninitialized,
	}
}

// State reports the manager's current lifecycle state.
func (m *Manager) State() State { return m.state }

// Initialize restores a previously saved session, if any. It is idempotent.
// A token credential is re-validated against the forge before being trusted;
// a basic credential restores from the cached profile without re-validation
// (known limitation; the server still rejects the cached session token once
// it expires).
func (m *Manager) Initialize(ctx context.Context) error {
	if m.state != StateUninitialized {
		return nil
	}
	m.state = StateInitializing

	saved := m.loadFile()
	if saved == nil {
		m.state = StateUnauthenticated
		return nil
	}

	switch saved.Credential.Kind {
	case forge.KindToken:
		profile, err := m.forge.CurrentUser(ctx, saved.BaseURL, saved.Credential)
		if err != nil {
			m.clear()
			return nil
		}
		token, err := m.exchange(ctx, saved.Credential)
		if err != nil {
			m.clear()
			return nil
		}
		m.cred = &saved.Credential
		m.baseURL = saved.BaseURL
		m.profile = profile
		m.serverToken = token
		m.state = StateAuthenticated
		_ = m.saveFile()
	case forge.KindBasic:
		m.cred = &saved.Credential
		m.baseURL = saved.BaseURL
		m.profile = saved.User
		m.serverToken = saved.ServerToken
		m.state = StateAuthenticated
	default:
		m.clear()
	}
	return nil
}

// LoginWithToken authenticates a personal API token against the forge at
// baseURL, then exchanges it for a server session.
func (m *Manager) LoginWithToken(ctx context.Context, token, baseURL string) (*forge.Profile, error) {
	if token == "" || baseURL == "" {
		return nil, fmt.Errorf("token and forge URL are required")
	}
	return m.login(ctx, forge.TokenCredential(token), baseURL)
}

// LoginWithBasicAuth authenticates a username/password pair.
func (m *Manager) LoginWithBasicAuth(ctx context.Context, username, password, baseURL string) (*forge.Profile, error) {
	if username == "" || password == "" || baseURL == "" {
		return nil, fmt.Errorf("username, password and forge URL are required")
	}
	return m.login(ctx, forge.BasicCredential(username, password), baseURL)
}

func (m *Manager) login(ctx context.Context, cred forge.Credential, baseURL string) (*forge.Profile, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	profile, err := m.forge.CurrentUser(ctx, baseURL, cred)
	if err != nil {
		return nil, err
	}
	token, err := m.exchange(ctx, cred)
	if err != nil {
		return nil, err
	}

	m.cred = &cred
	m.baseURL = baseURL
	m.profile = profile
	m.serverToken = token
	m.state = StateAuthenticated
	if err := m.saveFile(); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return profile, nil
}

// exchange trades a forge credential for a server session token via the todo
// server's login endpoint.
func (m *Manager) exchange(ctx context.Context, cred forge.Credential) (string, error) {
	body, err := json.Marshal(map[string]string{
		"kind":   string(cred.Kind),
		"secret": cred.Secret,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.serverURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot reach todo server at %s: %w", m.serverURL, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if !envelope.Success || envelope.Data.Token == "" {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("login failed (%d)", resp.StatusCode)
		}
		return "", errors.New(msg)
	}
	return envelope.Data.Token, nil
}

// IsAuthenticated reports whether a complete session is present.
func (m *Manager) IsAuthenticated() bool {
	return m.cred != nil && m.profile != nil && m.baseURL != "" && m.serverToken != ""
}

// Profile returns the cached forge profile, or nil.
func (m *Manager) Profile() *forge.Profile { return m.profile }

// BaseURL returns the forge instance URL of the current session.
func (m *Manager) BaseURL() string { return m.baseURL }

// Logout clears all in-memory and persisted session state. Idempotent.
func (m *Manager) Logout() {
	m.clear()
}

func (m *Manager) clear() {
	m.cred = nil
	m.baseURL = ""
	m.profile = nil
	m.serverToken = ""
	m.state = StateUnauthenticated
	m.removeFile()
}

// Do issues an authenticated request to the todo server. A 401 response
// terminates the session (state and file are cleared) before the error is
// returned, so a rejected call never leaves a half-valid session behind.
func (m *Manager) Do(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	if !m.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.serverURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+m.serverToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach todo server at %s: %w", m.serverURL, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		m.Logout()
		return nil, ErrSessionExpired
	}
	return resp, nil
}
