package server

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies the server's own session tokens. A token
// is minted once at login, after the forge has accepted the caller's
// credential; every later request is authenticated by the token's signature
// alone, so the client never gets to assert its own identity.
type TokenManager struct {
	secret []byte
	issuer string
	expire time.Duration
}

func NewTokenManager(secret string, expire time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: "todod",
		expire: expire,
	}
}

type SessionClaims struct {
	UserID int64  `json:"userId"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the given local user id.
func (m *TokenManager) Issue(userID int64, login string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(m.expire)
	claims := SessionClaims{
		UserID: userID,
		Login:  login,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	return signed, exp, err
}

// Verify checks signature and expiry and returns the embedded user identity.
func (m *TokenManager) Verify(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IssueState signs a short-lived opaque value for the OAuth state parameter,
// so no per-request state needs to be kept server-side.
func (m *TokenManager) IssueState() (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   "oauth-state",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// VerifyState validates an OAuth state value minted by IssueState.
func (m *TokenManager) VerifyState(state string) error {
	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject != "oauth-state" {
		return errors.New("invalid state")
	}
	return nil
}
