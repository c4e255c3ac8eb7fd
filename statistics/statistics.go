// Package statistics reads the admin dashboard figures and downloads the Excel export.
package statistics

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/xuri/excelize/v2"
)

const (
	dateLayout      = "2006-01-02"
	DefaultFilename = "statistics.xlsx"
)

type Overview struct {
	TotalRooms        int `json:"totalRooms"`
	AvailableRooms    int `json:"availableRooms"`
	TotalBookings     int `json:"totalBookings"`
	ConfirmedBookings int `json:"confirmedBookings"`
	PendingBookings   int `json:"pendingBookings"`
	CancelledBookings int `json:"cancelledBookings"`
	TotalUsers        int `json:"totalUsers"`
}

type RoomUsage struct {
	RoomName     string  `json:"roomName"`
	BookingCount int     `json:"bookingCount"`
	BookedHours  float64 `json:"bookedHours"`
}

// Period bounds a report by booking start date. Zero values are open ended.
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) Values() url.Values {
	v := url.Values{}
	if !p.From.IsZero() {
		v.Set("from", p.From.Format(dateLayout))
	}
	if !p.To.IsZero() {
		v.Set("to", p.To.Format(dateLayout))
	}
	return v
}

type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Overview(ctx context.Context, period Period) (Overview, error) {
	return api.Call[Overview](ctx, s.client, api.Get(api.RouteStatisticsOverview, period.Values())).Unwrap()
}

func (s *Service) RoomUsage(ctx context.Context, period Period) ([]RoomUsage, error) {
	usage, err := api.Call[[]RoomUsage](ctx, s.client, api.Get(api.RouteStatisticsRoomUsage, period.Values())).Unwrap()
	if err == nil && usage == nil {
		usage = []RoomUsage{}
	}
	return usage, err
}

// Export streams the xlsx report into w and returns the file name the server suggested, or
// DefaultFilename.
func (s *Service) Export(ctx context.Context, period Period, w io.Writer) (string, error) {
	req := api.Get(api.RouteStatisticsExport, period.Values())
	filename, err := s.client.Download(ctx, req, w)
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = DefaultFilename
	}
	return filename, nil
}

// Sheet is the leading rows of one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// Preview reads a downloaded workbook and returns up to maxRows rows per sheet. maxRows <= 0
// returns every row.
func Preview(r io.Reader, maxRows int) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("[statistics Preview] opening workbook: %w", err)
	}
	defer f.Close()

	sheets := make([]Sheet, 0)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("[statistics Preview] reading %q: %w", name, err)
		}
		if maxRows > 0 && len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}
