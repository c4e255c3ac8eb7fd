package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-roombook/bookings"
	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/shell"
	"github.com/spf13/cobra"
)

const localTimeLayout = "2006-01-02 15:04"

// parseTime accepts RFC3339 or a local "2006-01-02 15:04".
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localTimeLayout, raw, time.Local)
}

// timeFlag parses a time flag into the draft, reporting bad input as a field error.
func timeFlag(cmd *cobra.Command, form *forms.Form[bookings.Booking], flag, field string, set func(*bookings.Booking, time.Time)) error {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	raw, _ := cmd.Flags().GetString(flag)
	t, err := parseTime(raw)
	if err != nil {
		return form.Reject(field, fmt.Sprintf("must look like %q", localTimeLayout))
	}
	return form.Edit(func(b *bookings.Booking) { set(b, t) })
}

func bookingRows(items []bookings.Booking) [][]string {
	rows := make([][]string, 0, len(items))
	for _, b := range items {
		rows = append(rows, []string{
			b.ID, b.RoomName, b.Title,
			b.StartTime.Local().Format(localTimeLayout), b.EndTime.Local().Format(localTimeLayout),
			string(b.Status), b.BookedBy,
		})
	}
	return rows
}

var bookingHeader = []string{"ID", "ROOM", "TITLE", "START", "END", "STATUS", "BOOKED BY"}

func bookingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Search, create and cancel bookings",
	}
	cmd.AddCommand(bookingsListCmd(a), bookingsCreateCmd(a), bookingsCancelCmd(a), bookingsDeleteCmd(a))
	return cmd
}

func bookingsListCmd(a *app) *cobra.Command {
	var (
		room     string
		statuses []string
		page     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mount(cmd.Context(), shell.RouteBookings); err != nil {
				return err
			}
			filter := bookings.Filter{RoomName: room}
			for _, s := range statuses {
				filter.Statuses = append(filter.Statuses, bookings.Status(strings.ToUpper(s)))
			}

			list := bookings.NewService(a.client, a.pageSize()).List(a.notifier())
			if err := search(cmd.Context(), list, filter, page); err != nil {
				return err
			}
			items := list.Items()
			return render(a.out, a.format, items, table{header: bookingHeader, rows: bookingRows(items), footer: pageFooter(list)})
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "Room name")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Statuses (repeatable): CONFIRMED, PENDING, CANCELLED")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

func bookingsCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteBookings); err != nil {
				return err
			}
			form := bookings.NewService(a.client, a.pageSize()).NewForm(nil, nil)
			if err := fillBooking(cmd, form); err != nil {
				return a.submitError(err)
			}
			saved, err := submit(a, ctx, form, "booking "+form.Draft().Title)
			if err != nil {
				return err
			}
			return render(a.out, a.format, saved, table{header: bookingHeader, rows: bookingRows([]bookings.Booking{saved})})
		},
	}
	addBookingFlags(cmd, true)
	return cmd
}

// addBookingFlags registers the booking form flags. The room flag is left out when the room is
// already known, as in the calendar.
func addBookingFlags(cmd *cobra.Command, withRoom bool) {
	if withRoom {
		cmd.Flags().String("room", "", "Room name")
	}
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("start", "", `Start time, RFC3339 or "2006-01-02 15:04"`)
	cmd.Flags().String("end", "", `End time, RFC3339 or "2006-01-02 15:04"`)
	cmd.Flags().StringSlice("attendee", nil, "Attendee username (repeatable)")
}

func fillBooking(cmd *cobra.Command, form *forms.Form[bookings.Booking]) error {
	for flag, set := range map[string]func(*bookings.Booking, string){
		"room":        func(b *bookings.Booking, v string) { b.RoomName = v },
		"title":       func(b *bookings.Booking, v string) { b.Title = v },
		"description": func(b *bookings.Booking, v string) { b.Description = v },
	} {
		if cmd.Flags().Lookup(flag) == nil {
			continue
		}
		if err := stringFlag(cmd, form, flag, set); err != nil {
			return err
		}
	}
	if err := timeFlag(cmd, form, "start", "startTime", func(b *bookings.Booking, t time.Time) { b.StartTime = t }); err != nil {
		return err
	}
	if err := timeFlag(cmd, form, "end", "endTime", func(b *bookings.Booking, t time.Time) { b.EndTime = t }); err != nil {
		return err
	}
	if cmd.Flags().Changed("attendee") {
		attendees, _ := cmd.Flags().GetStringSlice("attendee")
		return form.Edit(func(b *bookings.Booking) { b.Attendees = attendees })
	}
	return nil
}

func bookingsCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteBookings); err != nil {
				return err
			}
			svc := bookings.NewService(a.client, a.pageSize())
			booking, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !a.confirmer().Confirm(fmt.Sprintf("Cancel booking %q?", booking.Title)) {
				fmt.Fprintln(a.errOut, "Cancelled")
				return nil
			}
			cancelled, err := svc.Cancel(ctx, booking.ID)
			if err != nil {
				return err
			}
			return render(a.out, a.format, cancelled, table{header: bookingHeader, rows: bookingRows([]bookings.Booking{cancelled})})
		},
	}
}

func bookingsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteBookings); err != nil {
				return err
			}
			svc := bookings.NewService(a.client, a.pageSize())
			booking, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.deleteOutcome(svc.DeleteEntity(ctx, &booking, a.confirmer()), "booking "+booking.Title)
		},
	}
}
