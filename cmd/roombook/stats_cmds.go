package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jrsteele09/go-roombook/shell"
	"github.com/jrsteele09/go-roombook/statistics"
	"github.com/spf13/cobra"
)

const periodLayout = "2006-01-02"

func statsCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Booking statistics for administrators",
	}
	cmd.PersistentFlags().StringVar(&from, "from", "", "First day, yyyy-mm-dd")
	cmd.PersistentFlags().StringVar(&to, "to", "", "Last day, yyyy-mm-dd")

	period := func() (statistics.Period, error) {
		var p statistics.Period
		var err error
		if from != "" {
			if p.From, err = time.ParseInLocation(periodLayout, from, time.Local); err != nil {
				return p, fmt.Errorf("--from: %w", err)
			}
		}
		if to != "" {
			if p.To, err = time.ParseInLocation(periodLayout, to, time.Local); err != nil {
				return p, fmt.Errorf("--to: %w", err)
			}
		}
		return p, nil
	}

	cmd.AddCommand(statsOverviewCmd(a, period), statsUsageCmd(a, period), statsExportCmd(a, period))
	return cmd
}

func statsOverviewCmd(a *app, period func() (statistics.Period, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Totals for rooms, bookings and users",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteStatistics); err != nil {
				return err
			}
			p, err := period()
			if err != nil {
				return err
			}
			o, err := statistics.NewService(a.client).Overview(ctx, p)
			if err != nil {
				return err
			}
			return render(a.out, a.format, o, table{
				header: []string{"METRIC", "VALUE"},
				rows: [][]string{
					{"Rooms", strconv.Itoa(o.TotalRooms)},
					{"Available rooms", strconv.Itoa(o.AvailableRooms)},
					{"Bookings", strconv.Itoa(o.TotalBookings)},
					{"Confirmed", strconv.Itoa(o.ConfirmedBookings)},
					{"Pending", strconv.Itoa(o.PendingBookings)},
					{"Cancelled", strconv.Itoa(o.CancelledBookings)},
					{"Users", strconv.Itoa(o.TotalUsers)},
				},
			})
		},
	}
}

func statsUsageCmd(a *app, period func() (statistics.Period, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Bookings and booked hours per room",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteStatistics); err != nil {
				return err
			}
			p, err := period()
			if err != nil {
				return err
			}
			usage, err := statistics.NewService(a.client).RoomUsage(ctx, p)
			if err != nil {
				return err
			}
			t := table{header: []string{"ROOM", "BOOKINGS", "HOURS"}}
			for _, u := range usage {
				t.rows = append(t.rows, []string{u.RoomName, strconv.Itoa(u.BookingCount), strconv.FormatFloat(u.BookedHours, 'f', 1, 64)})
			}
			return render(a.out, a.format, usage, t)
		},
	}
}

func statsExportCmd(a *app, period func() (statistics.Period, error)) *cobra.Command {
	var (
		dir     string
		preview int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the statistics workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.mount(ctx, shell.RouteStatistics); err != nil {
				return err
			}
			p, err := period()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			filename, err := statistics.NewService(a.client).Export(ctx, p, &buf)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, filepath.Base(filename))
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("[stats export] writing %s: %w", path, err)
			}
			fmt.Fprintf(a.errOut, "%sSaved %s%s\n", Green, path, ResetColor)

			if preview == 0 {
				return nil
			}
			sheets, err := statistics.Preview(bytes.NewReader(buf.Bytes()), preview)
			if err != nil {
				return err
			}
			for _, sheet := range sheets {
				fmt.Fprintf(a.out, "%s%s%s\n", Cyan, sheet.Name, ResetColor)
				if err := render(a.out, formatTable, nil, table{rows: sheet.Rows}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to save the workbook in")
	cmd.Flags().IntVar(&preview, "preview", 0, "Print up to this many rows of each sheet")
	return cmd
}
