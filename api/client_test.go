package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := api.New(srv.URL + "/api/")
	require.NoError(t, err)
	return c
}

func TestClient_Do(t *testing.T) {
	ctx := context.Background()

	t.Run("json body, query and request id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/room/search", r.URL.Path)
			require.Equal(t, "Alpha", r.URL.Query().Get("roomName"))
			require.NotEmpty(t, r.Header.Get("X-Request-ID"))
			_, _ = w.Write([]byte(`{"success":true,"data":{"content":[{"name":"Alpha"}],"totalElements":1}}`))
		})

		type room struct {
			Name string `json:"name"`
		}
		res := api.Call[api.Page[room]](ctx, c, api.Get(api.RouteRoomSearch, url.Values{"roomName": {"Alpha"}}))
		require.True(t, res.IsOk())
		require.Len(t, res.Value().Content, 1)
		require.Equal(t, "Alpha", res.Value().Content[0].Name)
	})

	t.Run("post encodes json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Contains(t, r.Header.Get("Content-Type"), "application/json")
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "abc", body["token"])
			_, _ = w.Write([]byte(`{"success":true,"data":{"valid":true}}`))
		})
		_, err := c.Do(ctx, api.Post(api.RouteAuthIntrospect, map[string]string{"token": "abc"}))
		require.NoError(t, err)
	})

	t.Run("server error is an ErrorDetail", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"success":false,"error":{"message":"Room already booked"}}`))
		})
		_, err := c.Do(ctx, api.Post(api.RouteBooking, map[string]string{}))
		var detail *api.ErrorDetail
		require.True(t, errors.As(err, &detail))
		require.Equal(t, "Room already booked", detail.Message)
		require.Equal(t, http.StatusConflict, detail.Status)
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c, err := api.New(srv.URL)
		require.NoError(t, err)
		_, err = c.Do(ctx, api.Get(api.RouteRoom, nil))
		require.True(t, errors.Is(err, errors.ErrTransport))
	})

	t.Run("multipart with json part and file", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Contains(t, r.MultipartForm.Value["room"][0], `"name":"Alpha"`)
			f, header, err := r.FormFile("image")
			require.NoError(t, err)
			defer f.Close()
			b, _ := io.ReadAll(f)
			require.Equal(t, "alpha.png", header.Filename)
			require.Equal(t, "PNGDATA", string(b))
			_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
		})
		req := &api.Request{
			Method: http.MethodPost,
			Path:   api.RouteRoom,
			Parts:  []api.Part{{Name: "room", JSON: map[string]string{"name": "Alpha"}}},
			Files:  []api.File{{Field: "image", Filename: "alpha.png", ContentType: "image/png", Body: strings.NewReader("PNGDATA")}},
		}
		_, err := c.Do(ctx, req)
		require.NoError(t, err)
	})
}

func TestClient_WithTokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("bearer header", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
		})
		authed := c.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-1", TokenType: "Bearer"}))
		_, err := authed.Do(ctx, api.Get(api.RouteUserMyInfo, nil))
		require.NoError(t, err)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("request must not reach the server")
		})
		authed := c.WithTokenSource(failingSource{})
		_, err := authed.Do(ctx, api.Get(api.RouteUserMyInfo, nil))
		require.True(t, errors.Is(err, errors.ErrUnauthorized))
	})
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) {
	return nil, errors.ErrNoAccessToken
}

func TestClient_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("writes body and returns filename", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Disposition", `attachment; filename="stats.xlsx"`)
			_, _ = w.Write([]byte("XLSX"))
		})
		var buf bytes.Buffer
		name, err := c.Download(ctx, api.Get(api.RouteStatisticsExport, nil), &buf)
		require.NoError(t, err)
		require.Equal(t, "stats.xlsx", name)
		require.Equal(t, "XLSX", buf.String())
	})

	t.Run("error response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		var buf bytes.Buffer
		_, err := c.Download(ctx, api.Get(api.RouteStatisticsExport, nil), &buf)
		require.True(t, errors.Is(err, errors.ErrForbidden))
		require.Zero(t, buf.Len())
	})

	t.Run("success false with 200 writes nothing", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"success":false,"error":{"message":"No data for period"}}`))
		})
		var buf bytes.Buffer
		_, err := c.Download(ctx, api.Get(api.RouteStatisticsExport, nil), &buf)

		var detail *api.ErrorDetail
		require.True(t, errors.As(err, &detail))
		require.Equal(t, "No data for period", detail.Message)
		require.Zero(t, buf.Len())
	})

	t.Run("json data instead of a file", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":{"rows":[]}}`))
		})
		var buf bytes.Buffer
		_, err := c.Download(ctx, api.Get(api.RouteStatisticsExport, nil), &buf)
		require.True(t, errors.Is(err, errors.ErrMalformedResponse))
		require.Zero(t, buf.Len())
	})
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := api.New("/api")
	require.Error(t, err)
}
