// Package calendar turns a room's bookings into time-blocked events and opens booking forms
// from the grid.
package calendar

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/go-roombook/bookings"
	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/listing"
)

const (
	ColorConfirmed = "#2e7d32"
	ColorCancelled = "#c62828"
	ColorPending   = "#f9a825"
	ColorDefault   = "#9e9e9e"
)

// StatusColor maps a booking status to its event color. Unrecognised statuses get the neutral
// default.
func StatusColor(status bookings.Status) string {
	switch status {
	case bookings.StatusConfirmed:
		return ColorConfirmed
	case bookings.StatusCancelled:
		return ColorCancelled
	case bookings.StatusPending:
		return ColorPending
	default:
		return ColorDefault
	}
}

type Meta struct {
	RoomName    string
	BookedBy    string
	Description string
	Attendees   []string
}

type Event struct {
	ID     string
	Start  time.Time
	End    time.Time
	Title  string
	Color  string
	Status bookings.Status
	Meta   Meta
}

// Detail is the read-only view of one event.
type Detail struct {
	Event
	StatusLabel string
	Duration    time.Duration
}

// Day is one local calendar date and its events in start order.
type Day struct {
	Date   time.Time
	Events []Event
}

type Option func(*View)

// WithLocation sets the zone used to group events into days. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(v *View) {
		v.loc = loc
	}
}

type View struct {
	service  *bookings.Service
	roomName string
	notifier listing.Notifier
	loc      *time.Location

	lock   sync.Mutex
	events []Event
	seq    uint64
	closed bool
}

func New(service *bookings.Service, roomName string, notifier listing.Notifier, opts ...Option) *View {
	if notifier == nil {
		notifier = listing.LogNotifier{}
	}
	v := &View{service: service, roomName: roomName, notifier: notifier, loc: time.Local}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) RoomName() string {
	return v.roomName
}

// Load fetches the room's bookings. On failure the previous events stay and the notifier is
// told.
func (v *View) Load(ctx context.Context) error {
	v.lock.Lock()
	if v.closed {
		v.lock.Unlock()
		return fmt.Errorf("[View Load] view closed: %w", errors.ErrStaleResponse)
	}
	v.seq++
	seq := v.seq
	v.lock.Unlock()

	items, err := v.service.ByRoomName(ctx, v.roomName)

	v.lock.Lock()
	defer v.lock.Unlock()
	if v.closed || seq != v.seq {
		return fmt.Errorf("[View Load] %w", errors.ErrStaleResponse)
	}
	if err != nil {
		v.notifier.Notify(listing.Notification{Level: listing.LevelError, Message: "Could not load bookings for " + v.roomName, Err: err})
		return err
	}
	v.events = toEvents(items)
	return nil
}

// Close marks the view as gone. Loads in flight are dropped and later loads make no request.
func (v *View) Close() {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.closed = true
}

// Refresh is the external refresh signal; it reloads the bookings.
func (v *View) Refresh(ctx context.Context) error {
	return v.Load(ctx)
}

func (v *View) Events() []Event {
	v.lock.Lock()
	defer v.lock.Unlock()
	return slices.Clone(v.events)
}

// SelectSlot opens a booking form for the room with the slot pre-filled. Saving it reloads the
// view.
func (v *View) SelectSlot(start, end time.Time) *forms.Form[bookings.Booking] {
	draft := bookings.Booking{RoomName: v.roomName, StartTime: start, EndTime: end}
	form := forms.New(v.service.Client(), bookings.Definition.Schema(), nil, func(ctx context.Context, _ bookings.Booking) {
		_ = v.Refresh(ctx)
	})
	_ = form.Edit(func(b *bookings.Booking) { *b = draft })
	return form
}

// SelectEvent returns the read-only detail of a loaded event.
func (v *View) SelectEvent(id string) (Detail, error) {
	v.lock.Lock()
	defer v.lock.Unlock()
	for _, e := range v.events {
		if e.ID == id {
			label := string(e.Status)
			if !e.Status.Known() {
				label = "UNKNOWN (" + label + ")"
			}
			return Detail{Event: e, StatusLabel: label, Duration: e.End.Sub(e.Start)}, nil
		}
	}
	return Detail{}, fmt.Errorf("[View SelectEvent] event %q: %w", id, errors.ErrNotFound)
}

// Days groups the loaded events by local date.
func (v *View) Days() []Day {
	events := v.Events()
	days := make([]Day, 0)
	for _, e := range events {
		start := e.Start.In(v.loc)
		date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, v.loc)
		if n := len(days); n > 0 && days[n-1].Date.Equal(date) {
			days[n-1].Events = append(days[n-1].Events, e)
			continue
		}
		days = append(days, Day{Date: date, Events: []Event{e}})
	}
	return days
}

func toEvents(items []bookings.Booking) []Event {
	events := make([]Event, 0, len(items))
	for _, b := range items {
		events = append(events, Event{
			ID:     b.ID,
			Start:  b.StartTime,
			End:    b.EndTime,
			Title:  b.Title,
			Color:  StatusColor(b.Status),
			Status: b.Status,
			Meta: Meta{
				RoomName:    b.RoomName,
				BookedBy:    b.BookedBy,
				Description: b.Description,
				Attendees:   b.Attendees,
			},
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}
