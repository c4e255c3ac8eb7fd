package calendar_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/apifake"
	"github.com/jrsteele09/go-roombook/bookings"
	"github.com/jrsteele09/go-roombook/calendar"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/listing"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testFixture struct {
	srv    *apifake.Server
	access string
	view   *calendar.View
	notes  []listing.Notification
	lock   sync.Mutex
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{srv: apifake.New(t)}
	f.access, _ = f.srv.IssueTokens("alice")
	client, err := api.New(f.srv.URL())
	require.NoError(t, err)
	svc := bookings.NewService(client.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: f.access})), 10)
	f.view = calendar.New(svc, "Alpha", listing.NotifierFunc(func(n listing.Notification) {
		f.lock.Lock()
		defer f.lock.Unlock()
		f.notes = append(f.notes, n)
	}), calendar.WithLocation(time.UTC))
	return f
}

func TestStatusColor(t *testing.T) {
	require.Equal(t, calendar.ColorConfirmed, calendar.StatusColor(bookings.StatusConfirmed))
	require.Equal(t, calendar.ColorCancelled, calendar.StatusColor(bookings.StatusCancelled))
	require.Equal(t, calendar.ColorPending, calendar.StatusColor(bookings.StatusPending))
	require.Equal(t, calendar.ColorDefault, calendar.StatusColor("ON_HOLD"))
	require.Equal(t, calendar.ColorDefault, calendar.StatusColor(""))
}

func TestLoad(t *testing.T) {
	f := setupTestFixture(t)
	late := f.srv.SeedBooking("Alpha", "Retro", monday.Add(24*time.Hour), monday.Add(25*time.Hour), "CANCELLED")
	f.srv.SeedBooking("Alpha", "Standup", monday, monday.Add(30*time.Minute), "CONFIRMED")
	odd := f.srv.SeedBooking("Alpha", "Mystery", monday.Add(2*time.Hour), monday.Add(3*time.Hour), "ON_HOLD")
	f.srv.SeedBooking("Beta", "Elsewhere", monday, monday.Add(time.Hour), "CONFIRMED")

	require.NoError(t, f.view.Load(context.Background()))
	events := f.view.Events()
	require.Len(t, events, 3)
	require.Equal(t, []string{"Standup", "Mystery", "Retro"}, []string{events[0].Title, events[1].Title, events[2].Title})
	require.Equal(t, calendar.ColorConfirmed, events[0].Color)
	require.Equal(t, calendar.ColorDefault, events[1].Color)
	require.Equal(t, calendar.ColorCancelled, events[2].Color)
	require.Equal(t, "alice", events[0].Meta.BookedBy)

	t.Run("days group by date", func(t *testing.T) {
		days := f.view.Days()
		require.Len(t, days, 2)
		require.Len(t, days[0].Events, 2)
		require.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), days[1].Date)
	})

	t.Run("select event", func(t *testing.T) {
		detail, err := f.view.SelectEvent(late)
		require.NoError(t, err)
		require.Equal(t, "Retro", detail.Title)
		require.Equal(t, time.Hour, detail.Duration)
		require.Equal(t, "CANCELLED", detail.StatusLabel)

		detail, err = f.view.SelectEvent(odd)
		require.NoError(t, err)
		require.Equal(t, "UNKNOWN (ON_HOLD)", detail.StatusLabel)

		_, err = f.view.SelectEvent("nope")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("failed reload keeps events", func(t *testing.T) {
		f.srv.ExpireToken(f.access)
		require.ErrorIs(t, f.view.Refresh(context.Background()), errors.ErrUnauthorized)
		require.Len(t, f.view.Events(), 3)
		require.Len(t, f.notes, 1)
		require.Equal(t, listing.LevelError, f.notes[0].Level)
	})
}

func TestSelectSlot(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.view.Load(context.Background()))
	require.Empty(t, f.view.Events())

	form := f.view.SelectSlot(monday, monday.Add(time.Hour))
	draft := form.Draft()
	require.Equal(t, "Alpha", draft.RoomName)
	require.True(t, monday.Equal(draft.StartTime))
	require.True(t, monday.Add(time.Hour).Equal(draft.EndTime))

	require.NoError(t, form.Edit(func(b *bookings.Booking) { b.Title = "Design review" }))
	require.NoError(t, form.Submit(context.Background()))

	require.Equal(t, 2, f.srv.Count("GET "+api.RouteBookingByRoom))
	events := f.view.Events()
	require.Len(t, events, 1)
	require.Equal(t, "Design review", events[0].Title)
	require.Equal(t, calendar.ColorConfirmed, events[0].Color)
}

func TestClose(t *testing.T) {
	t.Run("closed view makes no request", func(t *testing.T) {
		f := setupTestFixture(t)
		f.srv.SeedBooking("Alpha", "Standup", monday, monday.Add(30*time.Minute), "CONFIRMED")
		require.NoError(t, f.view.Load(context.Background()))

		f.view.Close()
		f.srv.SeedBooking("Alpha", "Retro", monday.Add(time.Hour), monday.Add(2*time.Hour), "CONFIRMED")
		require.ErrorIs(t, f.view.Refresh(context.Background()), errors.ErrStaleResponse)
		require.Equal(t, 1, f.srv.Count("GET "+api.RouteBookingByRoom))
		require.Len(t, f.view.Events(), 1)
	})

	t.Run("load in flight is dropped", func(t *testing.T) {
		f := setupTestFixture(t)
		f.srv.SeedBooking("Alpha", "Standup", monday, monday.Add(30*time.Minute), "CONFIRMED")
		f.srv.DelaySearch("roomName=Alpha", 200*time.Millisecond)

		done := make(chan error, 1)
		go func() { done <- f.view.Load(context.Background()) }()
		require.Eventually(t, func() bool {
			return f.srv.Count("GET "+api.RouteBookingByRoom) == 1
		}, time.Second, 5*time.Millisecond)

		f.view.Close()
		require.ErrorIs(t, <-done, errors.ErrStaleResponse)
		require.Empty(t, f.view.Events())
	})
}
