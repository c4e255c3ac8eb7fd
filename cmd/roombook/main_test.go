package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/apifake"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/rooms"
	"github.com/stretchr/testify/require"
)

type result struct {
	out    string
	errOut string
	err    error
}

func setup(t *testing.T) *apifake.Server {
	t.Helper()
	srv := apifake.New(t)
	t.Setenv("ROOMBOOK_BASE_URL", srv.URL())
	t.Setenv("ROOMBOOK_SESSION_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "disabled")
	return srv
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func login(t *testing.T, username, password string) {
	t.Helper()
	res := run(t, "", "login", "-u", username, "-p", password)
	require.NoError(t, res.err)
	require.Contains(t, res.out, "Signed in as "+username)
}

func TestSession(t *testing.T) {
	setup(t)

	t.Run("commands need a session", func(t *testing.T) {
		res := run(t, "", "whoami")
		require.EqualError(t, res.err, "not signed in")
	})

	t.Run("bad password shows the server message", func(t *testing.T) {
		res := run(t, "", "login", "-u", "admin", "-p", "wrong")
		require.ErrorContains(t, res.err, "Invalid username or password")
	})

	t.Run("prompted login survives to the next command", func(t *testing.T) {
		res := run(t, "admin\nadmin123\n", "login")
		require.NoError(t, res.err)
		require.Contains(t, res.errOut, "Username: ")

		res = run(t, "", "whoami")
		require.NoError(t, res.err)
		require.Contains(t, res.out, "Ada Admin")
	})

	t.Run("navigation lists admin pages for an admin", func(t *testing.T) {
		res := run(t, "", "nav")
		require.NoError(t, res.err)
		require.Contains(t, res.out, "/admin/users")
		require.NotContains(t, res.out, "/login")
	})

	t.Run("logout ends the session", func(t *testing.T) {
		require.NoError(t, run(t, "", "logout").err)
		res := run(t, "", "whoami")
		require.EqualError(t, res.err, "not signed in")
	})
}

func TestRoles(t *testing.T) {
	setup(t)
	login(t, "alice", "alice123")

	res := run(t, "", "users", "list")
	require.EqualError(t, res.err, "/admin/users requires the admin role")

	res = run(t, "", "nav")
	require.NoError(t, res.err)
	require.NotContains(t, res.out, "/admin")
}

func TestRooms(t *testing.T) {
	srv := setup(t)
	srv.SeedRoom("Beta", "Floor 2", 10, "Whiteboard")
	login(t, "admin", "admin123")

	var created rooms.Room
	t.Run("create with an image", func(t *testing.T) {
		image := filepath.Join(t.TempDir(), "alpha.png")
		require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))

		res := run(t, "", "rooms", "create", "-o", "json",
			"--name", "Alpha", "--location", "Floor 1", "--capacity", "8",
			"--equipment", "Projector", "--image", image)
		require.NoError(t, res.err)
		require.NoError(t, json.Unmarshal([]byte(res.out), &created))
		require.Equal(t, "Alpha", created.Name)
		require.Equal(t, "/images/Alpha", created.ImageURL)
		require.True(t, created.Available)

		filename, size := srv.LastUpload()
		require.Equal(t, "alpha.png", filename)
		require.EqualValues(t, 3, size)
	})

	t.Run("capacity that does not parse is a field error", func(t *testing.T) {
		res := run(t, "", "rooms", "create", "--name", "Gamma", "--location", "Floor 3", "--capacity", "lots")
		require.EqualError(t, res.err, "validation failed")
		require.Contains(t, res.errOut, "capacity: must be a whole number")
	})

	t.Run("list filters by capacity", func(t *testing.T) {
		res := run(t, "", "rooms", "list", "-o", "json", "--capacity", "10")
		require.NoError(t, res.err)
		var items []rooms.Room
		require.NoError(t, json.Unmarshal([]byte(res.out), &items))
		require.Len(t, items, 1)
		require.Equal(t, "Beta", items[0].Name)
	})

	t.Run("page outside the results is rejected", func(t *testing.T) {
		for _, page := range []string{"0", "-1", "3"} {
			res := run(t, "", "rooms", "list", "--page="+page)
			require.ErrorIs(t, res.err, errors.ErrPageOutOfRange, "page %s", page)
		}
	})

	t.Run("update keeps fields that were not given", func(t *testing.T) {
		res := run(t, "", "rooms", "update", created.ID, "-o", "json", "--capacity", "12")
		require.NoError(t, res.err)
		var updated rooms.Room
		require.NoError(t, json.Unmarshal([]byte(res.out), &updated))
		require.Equal(t, 12, updated.Capacity)
		require.Equal(t, "Floor 1", updated.Location)
		require.Equal(t, "/images/Alpha", updated.ImageURL)
	})

	t.Run("delete asks first", func(t *testing.T) {
		res := run(t, "n\n", "rooms", "delete", created.ID)
		require.NoError(t, res.err)
		require.Contains(t, res.errOut, `Delete room "Alpha"?`)
		require.Contains(t, res.errOut, "Cancelled")

		res = run(t, "", "rooms", "delete", "-y", created.ID)
		require.NoError(t, res.err)
		require.Contains(t, res.errOut, "Deleted room Alpha")
		_, ok := srv.Record(api.RouteRoom, created.ID)
		require.False(t, ok)
	})
}

func TestUsers(t *testing.T) {
	srv := setup(t)
	login(t, "admin", "admin123")

	res := run(t, "", "users", "create", "--username", "dave", "--full-name", "Dave Hill",
		"--email", "dave@example.com", "--role", "user", "--password", "weakpass")
	require.EqualError(t, res.err, "validation failed")
	require.Contains(t, res.errOut, "password: must contain an uppercase letter")
	require.Zero(t, srv.Count("POST "+api.RouteUser))

	res = run(t, "", "users", "create", "-o", "json", "--username", "dave", "--full-name", "Dave Hill",
		"--email", "dave@example.com", "--role", "user", "--password", "Weakpass1")
	require.NoError(t, res.err)
	require.Contains(t, res.out, `"username": "dave"`)
}

func TestBookingsAndCalendar(t *testing.T) {
	srv := setup(t)
	srv.SeedRoom("Alpha", "Floor 1", 8)
	login(t, "alice", "alice123")

	t.Run("end before start is rejected locally", func(t *testing.T) {
		before := srv.TotalRequests()
		res := run(t, "", "bookings", "create", "--room", "Alpha", "--title", "Retro",
			"--start", "2026-03-02 11:00", "--end", "2026-03-02 10:00")
		require.EqualError(t, res.err, "validation failed")
		require.Contains(t, res.errOut, "endTime: must be after startTime")
		// only the session check reached the server
		require.Equal(t, before+1, srv.TotalRequests())
	})

	t.Run("book a slot from the calendar", func(t *testing.T) {
		res := run(t, "", "calendar", "Alpha", "--create", "--title", "Standup",
			"--start", "2026-03-02 09:00", "--end", "2026-03-02 09:30")
		require.NoError(t, res.err)
		require.Contains(t, res.errOut, "Created booking Standup")
		require.Contains(t, res.out, "Standup")
		require.Contains(t, res.out, "09:00-09:30")
	})

	t.Run("cancel", func(t *testing.T) {
		start := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
		id := srv.SeedBooking("Alpha", "Review", start, start.Add(time.Hour), apifake.StatusConfirmed)

		res := run(t, "", "bookings", "cancel", "-y", id)
		require.NoError(t, res.err)
		require.Contains(t, res.out, "CANCELLED")

		res = run(t, "", "bookings", "cancel", "-y", id)
		require.ErrorContains(t, res.err, "Booking already cancelled")
	})

	t.Run("list by status", func(t *testing.T) {
		res := run(t, "", "bookings", "list", "--status", "cancelled")
		require.NoError(t, res.err)
		require.Contains(t, res.out, "Review")
		require.NotContains(t, res.out, "Standup")
	})
}

func TestStatsExport(t *testing.T) {
	srv := setup(t)
	srv.SeedRoom("Alpha", "Floor 1", 8)
	login(t, "admin", "admin123")

	dir := t.TempDir()
	res := run(t, "", "stats", "export", "--dir", dir, "--preview", "2")
	require.NoError(t, res.err)
	require.FileExists(t, filepath.Join(dir, apifake.ExportFilename))
	require.Contains(t, res.out, apifake.SheetOverview)
	require.Contains(t, res.out, "Metric")

	res = run(t, "", "stats", "overview", "--from", "yesterday")
	require.ErrorContains(t, res.err, "--from")
}
