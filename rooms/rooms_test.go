package rooms_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/apifake"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/internal/utils"
	"github.com/jrsteele09/go-roombook/listing"
	"github.com/jrsteele09/go-roombook/resource"
	"github.com/jrsteele09/go-roombook/rooms"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newService(t *testing.T, srv *apifake.Server, username string) *resourceService {
	t.Helper()
	access, _ := srv.IssueTokens(username)
	client, err := api.New(srv.URL())
	require.NoError(t, err)
	client = client.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: access}))
	return rooms.NewService(client, 10)
}

type resourceService = resource.Service[rooms.Room, rooms.Filter]

func refuse(string) bool { return false }
func accept(string) bool { return true }

func TestFilterValues(t *testing.T) {
	f := rooms.Filter{
		RoomName:   " Alpha ",
		Locations:  []string{"HQ", "Annex"},
		Capacities: []int{6, 10},
		Available:  utils.Ptr(true),
	}
	v := f.Values()
	require.Equal(t, "Alpha", v.Get("roomName"))
	require.Equal(t, "HQ,Annex", v.Get("locations"))
	require.Equal(t, "6,10", v.Get("capacities"))
	require.Equal(t, "true", v.Get("available"))
	require.False(t, v.Has("equipments"))

	require.Empty(t, rooms.Filter{}.Values())
}

func TestSearch(t *testing.T) {
	srv := apifake.New(t)
	srv.SeedRoom("Alpha", "HQ", 6, "Projector")
	srv.SeedRoom("Beta", "HQ", 10)
	svc := newService(t, srv, "alice")

	list := svc.List(listing.NotifierFunc(func(listing.Notification) {}))

	t.Run("capacity filter", func(t *testing.T) {
		require.NoError(t, list.Apply(context.Background(), rooms.Filter{Capacities: []int{10}}))
		items := list.Items()
		require.Len(t, items, 1)
		require.Equal(t, "Beta", items[0].Name)
		require.Equal(t, 1, list.TotalPages())
	})

	t.Run("equipment filter", func(t *testing.T) {
		require.NoError(t, list.Apply(context.Background(), rooms.Filter{Equipments: []string{"projector"}}))
		require.Equal(t, []string{"Alpha"}, names(list.Items()))
	})

	t.Run("reset returns the unfiltered first page", func(t *testing.T) {
		require.NoError(t, list.Reset(context.Background()))
		require.Equal(t, rooms.Filter{}, list.Filter())
		require.Equal(t, []string{"Alpha", "Beta"}, names(list.Items()))
		require.False(t, list.CanNext())
	})
}

func TestEditRoundTrip(t *testing.T) {
	srv := apifake.New(t)
	id := srv.SeedRoom("Alpha", "HQ", 6)
	svc := newService(t, srv, "admin")

	list := svc.List(nil)
	require.NoError(t, list.Search(context.Background()))
	existing := list.Items()[0]

	form := svc.FormFor(list, &existing)
	require.NoError(t, form.Submit(context.Background()))
	require.True(t, form.Closed())

	// One search to open the list, one re-fetch after the save.
	require.Equal(t, 2, srv.Count("GET "+api.RouteRoomSearch))
	items := list.Items()
	require.Len(t, items, 1)
	require.Equal(t, id, items[0].ID)
	require.Equal(t, "Alpha", items[0].Name)
}

func TestNonAdminCannotSave(t *testing.T) {
	srv := apifake.New(t)
	svc := newService(t, srv, "alice")

	form := svc.NewForm(nil, nil)
	require.NoError(t, form.Edit(func(r *rooms.Room) {
		r.Name = "Gamma"
		r.Location = "HQ"
		r.Capacity = 4
	}))
	require.ErrorIs(t, form.Submit(context.Background()), errors.ErrForbidden)
	require.Equal(t, "Admin access required", form.Errors().Message)
}

func TestDelete(t *testing.T) {
	srv := apifake.New(t)
	id := srv.SeedRoom("Alpha", "HQ", 6)
	svc := newService(t, srv, "admin")

	t.Run("refusal makes no call", func(t *testing.T) {
		err := svc.Delete(context.Background(), id, resource.ConfirmFunc(refuse))
		require.ErrorIs(t, err, errors.ErrNotConfirmed)
		require.Zero(t, srv.Count("DELETE "+api.RouteRoom+"/{id}"))
	})

	t.Run("confirmed delete", func(t *testing.T) {
		var prompt string
		room, err := svc.Get(context.Background(), id)
		require.NoError(t, err)

		err = svc.DeleteEntity(context.Background(), &room, resource.ConfirmFunc(func(p string) bool {
			prompt = p
			return true
		}))
		require.NoError(t, err)
		require.Equal(t, `Delete room "Alpha"?`, prompt)

		_, err = svc.Get(context.Background(), id)
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("missing room", func(t *testing.T) {
		require.ErrorIs(t, svc.Delete(context.Background(), "nope", resource.ConfirmFunc(accept)), errors.ErrNotFound)
	})
}

func names(items []rooms.Room) []string {
	out := make([]string, 0, len(items))
	for _, r := range items {
		out = append(out, r.Name)
	}
	return out
}
