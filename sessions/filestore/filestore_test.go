package filestore_test

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-roombook/sessions/filestore"
	"github.com/stretchr/testify/require"
)

func TestAccessFile(t *testing.T) {
	dir := t.TempDir()
	f := filestore.NewAccessFile(filepath.Join(dir, "nested"))

	token, err := f.Load()
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, f.Save("tok-1"))
	token, err = filestore.NewAccessFile(filepath.Join(dir, "nested")).Load()
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)

	info, err := os.Stat(filepath.Join(dir, "nested", "access_token"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, f.Delete())
	require.NoError(t, f.Delete())
	token, err = f.Load()
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestJar(t *testing.T) {
	origin, _ := url.Parse("http://booking.example.com/api")
	root, _ := url.Parse("http://booking.example.com/")

	t.Run("cookies survive reopen", func(t *testing.T) {
		dir := t.TempDir()
		jar, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		jar.SetCookies(root, []*http.Cookie{{Name: "refreshToken", Value: "r-1", Path: "/", SameSite: http.SameSiteStrictMode}})

		reopened, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		cookies := reopened.Cookies(root)
		require.Len(t, cookies, 1)
		require.Equal(t, "r-1", cookies[0].Value)
	})

	t.Run("expiring a cookie removes it from disk", func(t *testing.T) {
		dir := t.TempDir()
		jar, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		jar.SetCookies(root, []*http.Cookie{{Name: "refreshToken", Value: "r-1", Path: "/"}})
		jar.SetCookies(root, []*http.Cookie{{Name: "refreshToken", Value: "", Path: "/", MaxAge: -1}})
		require.Empty(t, jar.Cookies(root))

		reopened, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		require.Empty(t, reopened.Cookies(root))
	})

	t.Run("expired cookies are not restored", func(t *testing.T) {
		dir := t.TempDir()
		jar, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		jar.SetCookies(root, []*http.Cookie{{Name: "refreshToken", Value: "r-1", Path: "/", MaxAge: 60}})

		filestore.NowTimeFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
		t.Cleanup(func() { filestore.NowTimeFunc = time.Now })

		reopened, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		require.Empty(t, reopened.Cookies(root))
	})

	t.Run("corrupt file is ignored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cookies.json"), []byte("{"), 0o600))
		jar, err := filestore.OpenJar(dir, origin)
		require.NoError(t, err)
		require.Empty(t, jar.Cookies(root))
	})
}
