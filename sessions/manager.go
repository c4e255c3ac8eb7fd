package sessions

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// State is the session state visible to callers. There is deliberately no "refreshing" state:
// a refresh resolves before IsSessionValid returns.
type State int32

const (
	StateInvalid State = iota
	StateValid
)

func (s State) String() string {
	if s == StateValid {
		return "valid"
	}
	return "invalid"
}

// Navigator performs the redirect to the login entry point after the session is destroyed.
type Navigator interface {
	RedirectToLogin(loginURL string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(loginURL string)

func (f NavigatorFunc) RedirectToLogin(loginURL string) {
	f(loginURL)
}

type tokenBody struct {
	Token string `json:"token"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Introspection is the server's verdict on an access token. Backends answer with either
// "valid" or the RFC 7662 "active" member.
type Introspection struct {
	Valid  *bool `json:"valid,omitempty"`
	Active *bool `json:"active,omitempty"`
}

func (i Introspection) IsValid() bool {
	return (i.Valid != nil && *i.Valid) || (i.Active != nil && *i.Active)
}

// Manager answers "is the current session usable" and heals an expired access token with at
// most one refresh per check.
type Manager struct {
	store    *Store
	client   *api.Client
	nav      Navigator
	loginURL string
	state    atomic.Int32
	refresh  singleflight.Group
}

var _ oauth2.TokenSource = (*Manager)(nil)

// NewManager takes an anonymous API client: the auth endpoints carry tokens in the body.
func NewManager(store *Store, client *api.Client, nav Navigator, loginURL string) *Manager {
	return &Manager{
		store:    store,
		client:   client,
		nav:      nav,
		loginURL: loginURL,
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) Store() *Store {
	return m.store
}

// IsSessionValid reports whether the access token is usable, asking the server. An absent
// token answers false without any network call. An invalid token, a malformed answer or a
// network failure all fall through to one refresh attempt.
func (m *Manager) IsSessionValid(ctx context.Context) bool {
	access := m.store.AccessToken()
	if access == "" {
		m.state.Store(int32(StateInvalid))
		return false
	}

	res := api.Call[Introspection](ctx, m.client, api.Post(api.RouteAuthIntrospect, tokenBody{Token: access}))
	if res.IsOk() && res.Value().IsValid() {
		m.state.Store(int32(StateValid))
		return true
	}
	if !res.IsOk() {
		log.Debug().Str("error", res.Err().Message).Msg("introspection failed")
	}

	return m.refreshFrom(ctx, access)
}

// RefreshSession mints a new access token from the refresh cookie. Concurrent callers share a
// single in-flight refresh. Any failure logs the session out.
func (m *Manager) RefreshSession(ctx context.Context) bool {
	return m.refreshFrom(ctx, "")
}

// refreshFrom skips the refresh when the access token the caller found invalid has already
// been replaced by another caller's refresh.
func (m *Manager) refreshFrom(ctx context.Context, stale string) bool {
	ok, _, _ := m.refresh.Do("refresh", func() (any, error) {
		if current := m.store.AccessToken(); stale != "" && current != "" && current != stale {
			m.state.Store(int32(StateValid))
			return true, nil
		}
		return m.doRefresh(context.WithoutCancel(ctx)), nil
	})
	return ok.(bool)
}

func (m *Manager) doRefresh(ctx context.Context) bool {
	refreshToken := m.store.RefreshToken()
	if refreshToken == "" {
		log.Info().Msg("no refresh token, logging out")
		m.Logout()
		return false
	}

	tokens, err := api.Call[Tokens](ctx, m.client, api.Post(api.RouteAuthRefresh, tokenBody{Token: refreshToken})).Unwrap()
	if err != nil || tokens.AccessToken == "" {
		log.Info().Err(err).Msg("session refresh failed, logging out")
		m.Logout()
		return false
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}

	if err := m.store.Replace(tokens); err != nil {
		log.Error().Err(err).Msg("storing refreshed tokens")
		m.Logout()
		return false
	}

	m.state.Store(int32(StateValid))
	log.Info().Msg("session refreshed")
	return true
}

// Logout destroys both tokens and redirects to login. It is safe to call with no session.
// Callers must stop using the session afterwards.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		log.Error().Err(err).Msg("clearing session")
	}
	m.state.Store(int32(StateInvalid))
	if m.nav != nil {
		m.nav.RedirectToLogin(m.loginURL)
	}
}

// Login exchanges credentials for a token pair. The server's message is returned verbatim
// on failure.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	tokens, err := api.Call[Tokens](ctx, m.client, api.Post(api.RouteAuthLogin, credentials{Username: username, Password: password})).Unwrap()
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		return fmt.Errorf("[Manager Login] %w: no access token issued", errors.ErrMalformedResponse)
	}
	if tokens.RefreshToken == "" {
		// The server may have delivered the refresh token as a Set-Cookie on the shared jar.
		tokens.RefreshToken = m.store.RefreshToken()
	}
	if err := m.store.Replace(tokens); err != nil {
		return err
	}
	m.state.Store(int32(StateValid))
	log.Info().Str("username", username).Msg("logged in")
	return nil
}

// SignOut tells the server to revoke the access token, best effort, then logs out locally.
func (m *Manager) SignOut(ctx context.Context) {
	if access := m.store.AccessToken(); access != "" {
		if _, err := m.client.Do(ctx, api.Post(api.RouteAuthLogout, tokenBody{Token: access})); err != nil {
			log.Warn().Err(err).Msg("server logout failed")
		}
	}
	m.Logout()
}

// Token implements oauth2.TokenSource over the stored access token.
func (m *Manager) Token() (*oauth2.Token, error) {
	access := m.store.AccessToken()
	if access == "" {
		return nil, errors.ErrNoAccessToken
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

// Claims decodes the current access token for display and navigation.
func (m *Manager) Claims() (*token.Claims, error) {
	access := m.store.AccessToken()
	if access == "" {
		return nil, errors.ErrNoAccessToken
	}
	return token.Parse(access)
}

// AuthorizedClient returns an API client that sends the current access token on every call.
func (m *Manager) AuthorizedClient() *api.Client {
	return m.client.WithTokenSource(m)
}
