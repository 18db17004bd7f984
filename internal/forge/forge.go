// Package forge talks to a Forgejo (or Gitea) instance, which acts as the
// identity provider for this application.
package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CredentialKind records which authorization scheme a credential uses. The
// kind is fixed at login time and stored alongside the secret, so no guessing
// from the secret's shape is ever needed.
type CredentialKind string

const (
	KindToken  CredentialKind = "token"  // personal API token
	KindBasic  CredentialKind = "basic"  // base64(username:password)
	KindBearer CredentialKind = "bearer" // OAuth2 access token
)

// Credential is an opaque secret plus the scheme it must be sent with.
type Credential struct {
	Kind   CredentialKind `json:"kind"`
	Secret string         `json:"secret"`
}

// TokenCredential wraps a personal API token.
func TokenCredential(token string) Credential {
	return Credential{Kind: KindToken, Secret: token}
}

// BasicCredential encodes a username/password pair.
func BasicCredential(username, password string) Credential {
	enc := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return Credential{Kind: KindBasic, Secret: enc}
}

// BearerCredential wraps an OAuth2 access token.
func BearerCredential(token string) Credential {
	return Credential{Kind: KindBearer, Secret: token}
}

// AuthorizationHeader renders the Authorization header value for the
// credential's scheme.
func (c Credential) AuthorizationHeader() string {
	switch c.Kind {
	case KindBasic:
		return "Basic " + c.Secret
	case KindBearer:
		return "Bearer " + c.Secret
	default:
		return "token " + c.Secret
	}
}

// Valid reports whether the credential has a known kind and a secret.
func (c Credential) Valid() bool {
	if c.Secret == "" {
		return false
	}
	switch c.Kind {
	case KindToken, KindBasic, KindBearer:
		return true
	}
	return false
}

// Profile is the user object returned by the forge's /api/v1/user endpoint.
type Profile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// AuthError is a rejection from the forge (wrong token, bad password, ...).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("authentication failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("authentication failed (%d)", e.StatusCode)
}

// ConnectError means the forge could not be reached at all. It carries the
// base URL so a mistyped instance address can be spotted by the user.
type ConnectError struct {
	BaseURL string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot reach forge at %s: %v", e.BaseURL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Client performs authenticated calls against a forge instance.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a forge client. A nil httpClient selects
// http.DefaultClient.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// CurrentUser fetches the profile of the credential's owner from
// {baseURL}/api/v1/user. A non-2xx response becomes an AuthError carrying the
// forge's message when one is present; a transport failure becomes a
// ConnectError naming the base URL.
func (c *Client) CurrentUser(ctx context.Context, baseURL string, cred Credential) (*Profile, error) {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("forge base URL is empty")
	}
	if !cred.Valid() {
		return nil, fmt.Errorf("invalid credential")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", cred.AuthorizationHeader())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectError{BaseURL: base, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode forge profile: %w", err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("forge profile has no id")
	}
	return &p, nil
}

// readErrorMessage pulls the "message" field out of a forge error body, or
// falls back to the raw text.
func readErrorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}
