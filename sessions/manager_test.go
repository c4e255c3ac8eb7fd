package sessions_test

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/apifake"
	"github.com/jrsteele09/go-roombook/internal/config"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/sessions"
	"github.com/stretchr/testify/require"
)

const (
	routeRefresh    = "POST " + api.RouteAuthRefresh
	routeIntrospect = "POST " + api.RouteAuthIntrospect
	routeLogout     = "POST " + api.RouteAuthLogout
	loginURL        = "/login"
)

// recordingNavigator counts redirects to login.
type recordingNavigator struct {
	lock      sync.Mutex
	redirects []string
}

func (n *recordingNavigator) RedirectToLogin(loginURL string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.redirects = append(n.redirects, loginURL)
}

func (n *recordingNavigator) count() int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return len(n.redirects)
}

type testFixture struct {
	srv     *apifake.Server
	store   *sessions.Store
	nav     *recordingNavigator
	manager *sessions.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	srv := apifake.New(t)
	baseURL, err := url.Parse(srv.URL())
	require.NoError(t, err)

	store, err := sessions.NewStore(baseURL, config.Session{}, nil, nil)
	require.NoError(t, err)

	client, err := api.New(srv.URL(), api.WithCookieJar(store.Jar()))
	require.NoError(t, err)

	nav := &recordingNavigator{}
	return &testFixture{
		srv:     srv,
		store:   store,
		nav:     nav,
		manager: sessions.NewManager(store, client, nav, loginURL),
	}
}

func TestIsSessionValid(t *testing.T) {
	t.Run("expired access token heals with one refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		f.srv.RegisterRefreshToken("valid-xyz", "alice")
		f.srv.NextTokens("new-123", "new-xyz")
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: "expired-abc", RefreshToken: "valid-xyz"}))

		require.True(t, f.manager.IsSessionValid(context.Background()))
		require.Equal(t, "new-123", f.store.AccessToken())
		require.Equal(t, "new-xyz", f.store.RefreshToken())
		require.Equal(t, 1, f.srv.Count(routeRefresh))
		require.Equal(t, sessions.StateValid, f.manager.State())
		require.Zero(t, f.nav.count())

		// Subsequent calls carry the new token.
		res := api.Call[map[string]any](context.Background(), f.manager.AuthorizedClient(), api.Get(api.RouteUserMyInfo, nil))
		require.True(t, res.IsOk(), "my-info: %v", res.Err())
		require.Equal(t, "alice", res.Value()["username"])
	})

	t.Run("valid token needs no refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		access, refresh := f.srv.IssueTokens("alice")
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: access, RefreshToken: refresh}))

		require.True(t, f.manager.IsSessionValid(context.Background()))
		require.Equal(t, 1, f.srv.Count(routeIntrospect))
		require.Zero(t, f.srv.Count(routeRefresh))
	})

	t.Run("dead session makes no network call", func(t *testing.T) {
		f := setupTestFixture(t)

		require.False(t, f.manager.IsSessionValid(context.Background()))
		require.Zero(t, f.srv.TotalRequests())
		require.Equal(t, sessions.StateInvalid, f.manager.State())
	})

	t.Run("failed refresh logs out after exactly one attempt", func(t *testing.T) {
		f := setupTestFixture(t)
		f.srv.RegisterRefreshToken("valid-xyz", "alice")
		f.srv.FailRefresh(true)
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: "expired-abc", RefreshToken: "valid-xyz"}))

		require.False(t, f.manager.IsSessionValid(context.Background()))
		require.Equal(t, 1, f.srv.Count(routeRefresh))
		require.Empty(t, f.store.AccessToken())
		require.Empty(t, f.store.RefreshToken())
		require.Equal(t, 1, f.nav.count())
	})

	t.Run("invalid token without refresh cookie logs out", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: "expired-abc"}))

		require.False(t, f.manager.IsSessionValid(context.Background()))
		require.Zero(t, f.srv.Count(routeRefresh))
		require.Equal(t, 1, f.nav.count())
	})

	t.Run("concurrent checks share one refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		f.srv.RegisterRefreshToken("valid-xyz", "alice")
		f.srv.NextTokens("new-123", "new-xyz")
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: "expired-abc", RefreshToken: "valid-xyz"}))

		const callers = 8
		results := make([]bool, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = f.manager.IsSessionValid(context.Background())
			}()
		}
		wg.Wait()

		for _, ok := range results {
			require.True(t, ok)
		}
		require.Equal(t, 1, f.srv.Count(routeRefresh))
		require.Equal(t, "new-123", f.store.AccessToken())
	})
}

func TestRefreshSession(t *testing.T) {
	t.Run("missing refresh token in response keeps the old one", func(t *testing.T) {
		f := setupTestFixture(t)
		f.srv.RegisterRefreshToken("valid-xyz", "alice")
		f.srv.NextTokens("new-123", "")
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: "expired-abc", RefreshToken: "valid-xyz"}))

		require.True(t, f.manager.RefreshSession(context.Background()))
		require.Equal(t, "new-123", f.store.AccessToken())
		require.Equal(t, "valid-xyz", f.store.RefreshToken())
	})

	t.Run("no refresh cookie fails closed", func(t *testing.T) {
		f := setupTestFixture(t)

		require.False(t, f.manager.RefreshSession(context.Background()))
		require.Zero(t, f.srv.TotalRequests())
		require.Equal(t, 1, f.nav.count())
	})
}

func TestLogout(t *testing.T) {
	t.Run("idempotent without tokens", func(t *testing.T) {
		f := setupTestFixture(t)

		require.NotPanics(t, f.manager.Logout)
		require.NotPanics(t, f.manager.Logout)
		require.Equal(t, 2, f.nav.count())
		require.Equal(t, []string{loginURL, loginURL}, f.nav.redirects)
	})

	t.Run("clears both tokens", func(t *testing.T) {
		f := setupTestFixture(t)
		access, refresh := f.srv.IssueTokens("alice")
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: access, RefreshToken: refresh}))

		f.manager.Logout()
		require.Empty(t, f.store.AccessToken())
		require.Empty(t, f.store.RefreshToken())
		require.Zero(t, f.srv.TotalRequests())
	})

	t.Run("sign out revokes on the server first", func(t *testing.T) {
		f := setupTestFixture(t)
		access, refresh := f.srv.IssueTokens("alice")
		require.NoError(t, f.store.Replace(sessions.Tokens{AccessToken: access, RefreshToken: refresh}))

		f.manager.SignOut(context.Background())
		require.Equal(t, 1, f.srv.Count(routeLogout))
		require.Empty(t, f.store.AccessToken())
		require.Equal(t, 1, f.nav.count())
	})
}

func TestLogin(t *testing.T) {
	t.Run("stores both tokens", func(t *testing.T) {
		f := setupTestFixture(t)

		require.NoError(t, f.manager.Login(context.Background(), "admin", "admin123"))
		require.NotEmpty(t, f.store.AccessToken())
		require.NotEmpty(t, f.store.RefreshToken())
		require.Equal(t, sessions.StateValid, f.manager.State())

		claims, err := f.manager.Claims()
		require.NoError(t, err)
		require.True(t, claims.IsAdmin())
	})

	t.Run("returns the server message verbatim", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.manager.Login(context.Background(), "admin", "wrong")
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrUnauthorized))
		require.Equal(t, "Invalid username or password", err.Error())
		require.Empty(t, f.store.AccessToken())
	})
}

func TestToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.Token()
	require.ErrorIs(t, err, errors.ErrNoAccessToken)

	// Without a token the authorized client fails before reaching the server.
	res := api.Call[map[string]any](context.Background(), f.manager.AuthorizedClient(), api.Get(api.RouteUserMyInfo, nil))
	require.False(t, res.IsOk())
	require.ErrorIs(t, res.Err(), errors.ErrUnauthorized)
	require.Zero(t, f.srv.TotalRequests())
}
