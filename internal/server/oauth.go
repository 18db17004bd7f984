package server

import (
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"forgetodo/internal/config"
	"forgetodo/internal/forge"
)

// oauthFlow implements the optional OAuth2 login path against the forge's
// own authorization server. The state parameter is a signed short-lived
// token, so the flow keeps no state between start and callback.
type oauthFlow struct {
	conf *oauth2.Config
}

func newOAuthFlow(cfg *config.Config) *oauthFlow {
	base := strings.TrimRight(cfg.ForgeBaseURL, "/")
	return &oauthFlow{
		conf: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  strings.TrimRight(cfg.PublicURL, "/") + "/auth/oauth/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/login/oauth/authorize",
				TokenURL: base + "/login/oauth/access_token",
			},
		},
	}
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	state, err := s.tokens.IssueState()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	http.Redirect(w, r, s.oauth.conf.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing code")
		return
	}
	if err := s.tokens.VerifyState(state); err != nil {
		respondError(w, http.StatusBadRequest, "invalid state")
		return
	}

	tok, err := s.oauth.conf.Exchange(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "code exchange failed")
		return
	}

	profile, err := s.forge.CurrentUser(r.Context(), s.forgeBaseURL, forge.BearerCredential(tok.AccessToken))
	if err != nil {
		s.respondLoginError(w, err)
		return
	}
	s.finishLogin(w, r, profile)
}
