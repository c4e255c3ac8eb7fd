// Package bookings declares the booking entity and the booking-specific calls.
package bookings

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/resource"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusPending   Status = "PENDING"
	StatusCancelled Status = "CANCELLED"
)

// Known reports whether the status is one this client has a presentation for. The server may
// send others.
func (s Status) Known() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID          string    `json:"id,omitempty"`
	RoomName    string    `json:"roomName" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Status      Status    `json:"status,omitempty"`
	BookedBy    string    `json:"bookedBy,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
}

type Filter struct {
	RoomName string
	Statuses []Status
}

func (f Filter) Values() url.Values {
	v := url.Values{}
	if name := strings.TrimSpace(f.RoomName); name != "" {
		v.Set("roomName", name)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		v.Set("statuses", strings.Join(statuses, ","))
	}
	return v
}

var Definition = resource.Definition[Booking, Filter]{
	Name:           "booking",
	Path:           api.RouteBooking,
	SearchPath:     api.RouteBookingSearch,
	NewFilter:      func() Filter { return Filter{} },
	Key:            func(b *Booking) string { return b.ID },
	Label:          func(b *Booking) string { return b.Title },
	ZeroBasedPages: true,
}

type Service struct {
	*resource.Service[Booking, Filter]
}

func NewService(client *api.Client, pageSize int) *Service {
	return &Service{Service: resource.NewService(client, Definition, pageSize)}
}

// Cancel marks the booking cancelled on the server and returns the updated booking.
func (s *Service) Cancel(ctx context.Context, id string) (Booking, error) {
	b, err := api.Call[Booking](ctx, s.Client(), api.Put(fmt.Sprintf(api.RouteBookingCancelFmt, url.PathEscape(id)), nil)).Unwrap()
	if err != nil {
		return b, err
	}
	log.Info().Str("id", id).Msg("booking cancelled")
	return b, nil
}

// ByRoomName returns every booking of the room, earliest first.
func (s *Service) ByRoomName(ctx context.Context, roomName string) ([]Booking, error) {
	query := url.Values{"roomName": {roomName}}
	items, err := api.Call[[]Booking](ctx, s.Client(), api.Get(api.RouteBookingByRoom, query)).Unwrap()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].StartTime.Before(items[j].StartTime)
	})
	return items, nil
}
