package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/xswkr/chartpattern-backend/internal/auth"
	"github.com/xswkr/chartpattern-backend/internal/oauth"
)

// providerSource is the slice of the provider registry the handler needs.
type providerSource interface {
	Get(name string) (oauth.Provider, bool)
}

// stateStore issues and burns the one-time CSRF state values.
type stateStore interface {
	Issue(ctx context.Context, provider string) (string, error)
	Consume(ctx context.Context, state string) (string, bool)
}

// OAuthHandler serves the provider authorize/callback flow. The handler is
// provider-agnostic; each configured provider is a variant behind one
// interface.
type OAuthHandler struct {
	providers   providerSource
	states      stateStore
	identity    *auth.Identity
	sessions    *auth.Sessions
	frontendURL string
}

func NewOAuthHandler(providers providerSource, states stateStore, identity *auth.Identity, sessions *auth.Sessions, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		providers:   providers,
		states:      states,
		identity:    identity,
		sessions:    sessions,
		frontendURL: frontendURL,
	}
}

// Start handles GET /api/auth/{provider}: redirects to the provider's
// authorization page with a one-time state.
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	provider, ok := h.providers.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown provider")
		return
	}

	state, err := h.states.Issue(r.Context(), provider.Name())
	if err != nil {
		log.Printf("oauth state issue failed: %v", err)
		h.redirectWithError(w, r)
		return
	}

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /api/auth/{provider}/callback. The browser is
// mid-navigation here, so every failure is a redirect with an error flag,
// never an API error body. No user record is created or touched unless the
// exchange and profile fetch both succeeded.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	provider, ok := h.providers.Get(name)
	if !ok {
		h.redirectWithError(w, r)
		return
	}

	query := r.URL.Query()
	if query.Get("error") != "" {
		h.redirectWithError(w, r)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r)
		return
	}

	issuedFor, ok := h.states.Consume(r.Context(), query.Get("state"))
	if !ok || issuedFor != provider.Name() {
		h.redirectWithError(w, r)
		return
	}

	token, err := provider.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("%s token exchange failed: %v", provider.Name(), err)
		h.redirectWithError(w, r)
		return
	}

	profile, err := provider.FetchProfile(r.Context(), token)
	if err != nil {
		log.Printf("%s profile fetch failed: %v", provider.Name(), err)
		h.redirectWithError(w, r)
		return
	}

	user, err := h.identity.ResolveOAuth(r.Context(), provider.Name(), profile.ID, profile.Email, profile.Name, profile.Picture)
	if err != nil {
		log.Printf("%s identity resolution failed: %v", provider.Name(), err)
		h.redirectWithError(w, r)
		return
	}

	sessionToken, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		log.Printf("session issue failed: %v", err)
		h.redirectWithError(w, r)
		return
	}
	setSessionCookie(w, sessionToken)

	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(h.frontendURL)
	if err != nil {
		http.Redirect(w, r, h.frontendURL+"?error=auth_failed", http.StatusFound)
		return
	}
	q := target.Query()
	q.Set("error", "auth_failed")
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}
