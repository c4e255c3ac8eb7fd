package apifake_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/apifake"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func call(t *testing.T, srv *apifake.Server, method, path, access string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL()+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestAuthFlow(t *testing.T) {
	srv := apifake.New(t)

	t.Run("login issues a jwt with role claims", func(t *testing.T) {
		status, env := call(t, srv, http.MethodPost, api.RouteAuthLogin, "", map[string]string{"username": "admin", "password": "admin123"})
		require.Equal(t, http.StatusOK, status)
		require.True(t, env.Success)

		var pair struct{ AccessToken, RefreshToken string }
		require.NoError(t, json.Unmarshal(env.Data, &pair))
		claims, err := apifake.ClaimsFor(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "admin", claims.Username)
		require.True(t, claims.HasRole(apifake.RoleAdmin))
	})

	t.Run("bad password answers a string error", func(t *testing.T) {
		status, env := call(t, srv, http.MethodPost, api.RouteAuthLogin, "", map[string]string{"username": "admin", "password": "nope"})
		require.Equal(t, http.StatusUnauthorized, status)
		require.False(t, env.Success)
		require.JSONEq(t, `"Invalid username or password"`, string(env.Error))
	})

	t.Run("refresh rotates the refresh token", func(t *testing.T) {
		_, refresh := srv.IssueTokens("alice")
		status, _ := call(t, srv, http.MethodPost, api.RouteAuthRefresh, "", map[string]string{"token": refresh})
		require.Equal(t, http.StatusOK, status)

		status, _ = call(t, srv, http.MethodPost, api.RouteAuthRefresh, "", map[string]string{"token": refresh})
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("expired token introspects invalid", func(t *testing.T) {
		access, _ := srv.IssueTokens("alice")
		srv.ExpireToken(access)
		_, env := call(t, srv, http.MethodPost, api.RouteAuthIntrospect, "", map[string]string{"token": access})
		require.JSONEq(t, `{"valid":false}`, string(env.Data))
	})

	t.Run("admin routes need the admin role", func(t *testing.T) {
		access, _ := srv.IssueTokens("alice")
		status, _ := call(t, srv, http.MethodGet, api.RouteStatisticsOverview, access, nil)
		require.Equal(t, http.StatusForbidden, status)

		status, _ = call(t, srv, http.MethodGet, api.RouteRoom, "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestSearchPaging(t *testing.T) {
	srv := apifake.New(t)
	access, _ := srv.IssueTokens("admin")
	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		srv.SeedRoom(name, "HQ", 4)
	}

	q := url.Values{"page": {"1"}, "size": {"2"}}
	status, env := call(t, srv, http.MethodGet, api.RouteRoomSearch+"?"+q.Encode(), access, nil)
	require.Equal(t, http.StatusOK, status)

	var page api.Page[map[string]any]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.EqualValues(t, 3, page.TotalElements)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 1)
	require.Equal(t, "Gamma", page.Content[0]["name"])
	require.Equal(t, 1, srv.Count("GET "+api.RouteRoomSearch))
}

func TestBookingRejection(t *testing.T) {
	srv := apifake.New(t)
	access, _ := srv.IssueTokens("alice")
	srv.RejectBookings("Room already booked")

	status, env := call(t, srv, http.MethodPost, api.RouteBooking, access, map[string]string{"roomName": "Alpha"})
	require.Equal(t, http.StatusOK, status)
	require.False(t, env.Success)
	require.JSONEq(t, `{"message":"Room already booked"}`, string(env.Error))
}
