// Package rooms declares the room entity and its search filter.
package rooms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/resource"
)

const (
	MultipartField = "room"
	ImageField     = "image"
)

type Room struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name" validate:"required,max=100"`
	Location    string   `json:"location" validate:"required"`
	Capacity    int      `json:"capacity" validate:"gt=0"`
	Available   bool     `json:"available"`
	Equipments  []string `json:"equipments,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"` // set by the server from the uploaded image
	Description string   `json:"description,omitempty"`
}

// Filter mirrors the room search form. Multi-select fields are sent comma separated.
type Filter struct {
	RoomName   string
	Locations  []string
	Capacities []int
	Equipments []string
	Available  *bool
}

func (f Filter) Values() url.Values {
	v := url.Values{}
	if name := strings.TrimSpace(f.RoomName); name != "" {
		v.Set("roomName", name)
	}
	if len(f.Locations) > 0 {
		v.Set("locations", strings.Join(f.Locations, ","))
	}
	if len(f.Capacities) > 0 {
		capacities := make([]string, 0, len(f.Capacities))
		for _, c := range f.Capacities {
			capacities = append(capacities, strconv.Itoa(c))
		}
		v.Set("capacities", strings.Join(capacities, ","))
	}
	if len(f.Equipments) > 0 {
		v.Set("equipments", strings.Join(f.Equipments, ","))
	}
	if f.Available != nil {
		v.Set("available", strconv.FormatBool(*f.Available))
	}
	return v
}

var Definition = resource.Definition[Room, Filter]{
	Name:           "room",
	Path:           api.RouteRoom,
	SearchPath:     api.RouteRoomSearch,
	NewFilter:      func() Filter { return Filter{} },
	Key:            func(r *Room) string { return r.ID },
	Label:          func(r *Room) string { return r.Name },
	Multipart:      MultipartField,
	FileFields:     []string{ImageField},
	ZeroBasedPages: true,
}

func NewService(client *api.Client, pageSize int) *resource.Service[Room, Filter] {
	return resource.NewService(client, Definition, pageSize)
}
