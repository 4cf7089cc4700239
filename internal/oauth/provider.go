// Package oauth implements social login against Google, Kakao, and Naver.
// All three are variants of one Provider capability; everything above this
// package is provider-agnostic.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/kakao"

	"github.com/xswkr/chartpattern-backend/internal/models"
)

// Naver is not in golang.org/x/oauth2's endpoint registry.
var naverEndpoint = oauth2.Endpoint{
	AuthURL:  "https://nid.naver.com/oauth2.0/authorize",
	TokenURL: "https://nid.naver.com/oauth2.0/token",
}

// Profile is the provider-verified identity handed to the identity resolver.
type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Provider is one configured OAuth identity provider.
type Provider interface {
	Name() string
	// AuthCodeURL returns the provider authorization URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// FetchProfile loads the user profile with the exchanged token.
	FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error)
}

// Credentials is a client id/secret pair from the provider console.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

func (c Credentials) configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// provider is the shared implementation; the three variants differ only in
// endpoint, scopes, and profile decoding.
type provider struct {
	name       string
	conf       *oauth2.Config
	profileURL string
	decode     func([]byte) (*Profile, error)
}

func (p *provider) Name() string { return p.name }

func (p *provider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.conf.Exchange(ctx, code)
}

func (p *provider) FetchProfile(ctx context.Context, token *oauth2.Token) (*Profile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s profile: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s profile API returned status %d", p.name, resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode %s profile: %w", p.name, err)
	}
	return p.decode(body)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds the provider set from whatever credentials are
// configured; providers without credentials are simply absent.
func NewRegistry(callbackBase string, googleCreds, kakaoCreds, naverCreds Credentials) *Registry {
	r := &Registry{providers: make(map[string]Provider)}

	if googleCreds.configured() {
		r.providers[models.ProviderGoogle] = &provider{
			name: models.ProviderGoogle,
			conf: &oauth2.Config{
				ClientID:     googleCreds.ClientID,
				ClientSecret: googleCreds.ClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  callbackBase + "/api/auth/google/callback",
				Scopes:       []string{"email", "profile"},
			},
			profileURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			decode:     decodeGoogleProfile,
		}
	}

	if kakaoCreds.configured() {
		r.providers[models.ProviderKakao] = &provider{
			name: models.ProviderKakao,
			conf: &oauth2.Config{
				ClientID:     kakaoCreds.ClientID,
				ClientSecret: kakaoCreds.ClientSecret,
				Endpoint:     kakao.Endpoint,
				RedirectURL:  callbackBase + "/api/auth/kakao/callback",
				Scopes:       []string{"account_email", "profile_nickname", "profile_image"},
			},
			profileURL: "https://kapi.kakao.com/v2/user/me",
			decode:     decodeKakaoProfile,
		}
	}

	if naverCreds.configured() {
		r.providers[models.ProviderNaver] = &provider{
			name: models.ProviderNaver,
			conf: &oauth2.Config{
				ClientID:     naverCreds.ClientID,
				ClientSecret: naverCreds.ClientSecret,
				Endpoint:     naverEndpoint,
				RedirectURL:  callbackBase + "/api/auth/naver/callback",
			},
			profileURL: "https://openapi.naver.com/v1/nid/me",
			decode:     decodeNaverProfile,
		}
	}

	return r
}

// Get returns the named provider, if configured.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the configured provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

func decodeGoogleProfile(body []byte) (*Profile, error) {
	var data struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	if data.ID == "" {
		return nil, fmt.Errorf("google profile missing id")
	}
	return &Profile{ID: data.ID, Email: data.Email, Name: data.Name, Picture: data.Picture}, nil
}

func decodeKakaoProfile(body []byte) (*Profile, error) {
	var data struct {
		ID      int64 `json:"id"`
		Account struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname string `json:"nickname"`
				ImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	if data.ID == 0 {
		return nil, fmt.Errorf("kakao profile missing id")
	}
	return &Profile{
		ID:      fmt.Sprintf("%d", data.ID),
		Email:   data.Account.Email,
		Name:    data.Account.Profile.Nickname,
		Picture: data.Account.Profile.ImageURL,
	}, nil
}

func decodeNaverProfile(body []byte) (*Profile, error) {
	var data struct {
		ResultCode string `json:"resultcode"`
		Response   struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"profile_image"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	if data.ResultCode != "00" || data.Response.ID == "" {
		return nil, fmt.Errorf("naver profile lookup failed (resultcode %s)", data.ResultCode)
	}
	return &Profile{
		ID:      data.Response.ID,
		Email:   data.Response.Email,
		Name:    data.Response.Name,
		Picture: data.Response.Picture,
	}, nil
}
