package main

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-roombook/bookings"
	"github.com/jrsteele09/go-roombook/calendar"
	"github.com/jrsteele09/go-roombook/shell"
	"github.com/spf13/cobra"
)

func calendarCmd(a *app) *cobra.Command {
	var (
		eventID string
		create  bool
	)
	cmd := &cobra.Command{
		Use:   "calendar <room>",
		Short: "Show a room's bookings by day, or book a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteCalendar); err != nil {
				return err
			}
			view := calendar.New(bookings.NewService(a.client, a.pageSize()), args[0], a.notifier())
			defer view.Close()
			if err := view.Load(ctx); err != nil {
				return err
			}

			switch {
			case create:
				start, _ := cmd.Flags().GetString("start")
				end, _ := cmd.Flags().GetString("end")
				startTime, _ := parseTime(start)
				endTime, _ := parseTime(end)

				form := view.SelectSlot(startTime, endTime)
				if err := fillBooking(cmd, form); err != nil {
					return a.submitError(err)
				}
				if _, err := submit(a, ctx, form, "booking "+form.Draft().Title); err != nil {
					return err
				}
			case eventID != "":
				detail, err := view.SelectEvent(eventID)
				if err != nil {
					return err
				}
				return render(a.out, a.format, detail, table{rows: eventDetailRows(detail)})
			}
			return printDays(a, view.Days())
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "Show the detail of one booking")
	cmd.Flags().BoolVar(&create, "create", false, "Book a slot in this room")
	addBookingFlags(cmd, false)
	return cmd
}

func eventDetailRows(d calendar.Detail) [][]string {
	return [][]string{
		{"Title:", d.Title},
		{"Room:", d.Meta.RoomName},
		{"Status:", colourise(d.Color, d.StatusLabel)},
		{"Start:", d.Start.Local().Format(localTimeLayout)},
		{"End:", d.End.Local().Format(localTimeLayout)},
		{"Duration:", d.Duration.String()},
		{"Booked by:", d.Meta.BookedBy},
		{"Attendees:", strings.Join(d.Meta.Attendees, ", ")},
		{"Description:", d.Meta.Description},
	}
}

func printDays(a *app, days []calendar.Day) error {
	if a.format != formatTable && a.format != "" {
		return render(a.out, a.format, days, table{})
	}
	if len(days) == 0 {
		fmt.Fprintln(a.out, "No bookings")
		return nil
	}
	for _, day := range days {
		fmt.Fprintf(a.out, "%s%s%s\n", Cyan, day.Date.Format("Mon 2 Jan 2006"), ResetColor)
		for _, e := range day.Events {
			slot := e.Start.Local().Format("15:04") + "-" + e.End.Local().Format("15:04")
			fmt.Fprintf(a.out, "  %s  %s  %s\n", slot, colourise(e.Color, string(e.Status)), e.Title)
			fmt.Fprintf(a.out, "  %s%s%s\n", Gray, e.ID, ResetColor)
		}
	}
	return nil
}
