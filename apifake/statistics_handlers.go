package apifake

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	dateLayout      = "2006-01-02"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportFilename  = "statistics.xlsx"
	SheetOverview   = "Overview"
	SheetRoomUsage  = "Room usage"
)

type overview struct {
	TotalRooms        int `json:"totalRooms"`
	AvailableRooms    int `json:"availableRooms"`
	TotalBookings     int `json:"totalBookings"`
	ConfirmedBookings int `json:"confirmedBookings"`
	PendingBookings   int `json:"pendingBookings"`
	CancelledBookings int `json:"cancelledBookings"`
	TotalUsers        int `json:"totalUsers"`
}

type roomUsage struct {
	RoomName     string  `json:"roomName"`
	BookingCount int     `json:"bookingCount"`
	BookedHours  float64 `json:"bookedHours"`
}

func (s *Server) OverviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := periodParams(w, r)
		if !ok {
			return
		}
		writeData(w, http.StatusOK, s.computeOverview(from, to))
	}
}

func (s *Server) RoomUsageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := periodParams(w, r)
		if !ok {
			return
		}
		writeData(w, http.StatusOK, s.computeRoomUsage(from, to))
	}
}

// ExportHandler streams an xlsx workbook with an overview sheet and a room usage sheet.
func (s *Server) ExportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, ok := periodParams(w, r)
		if !ok {
			return
		}

		f, err := s.buildWorkbook(s.computeOverview(from, to), s.computeRoomUsage(from, to))
		if err != nil {
			log.Error().Err(err).Msg("[ExportHandler] build workbook")
			writeError(w, http.StatusInternalServerError, "Export failed", nil)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", contentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
		w.WriteHeader(http.StatusOK)
		if err := f.Write(w); err != nil {
			log.Error().Err(err).Msg("[ExportHandler] write workbook")
		}
	}
}

func (s *Server) buildWorkbook(ov overview, usage []roomUsage) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Total rooms", ov.TotalRooms},
		{"Available rooms", ov.AvailableRooms},
		{"Total bookings", ov.TotalBookings},
		{"Confirmed bookings", ov.ConfirmedBookings},
		{"Pending bookings", ov.PendingBookings},
		{"Cancelled bookings", ov.CancelledBookings},
		{"Total users", ov.TotalUsers},
	}
	if err := setRows(f, SheetOverview, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetRoomUsage); err != nil {
		return nil, err
	}
	rows = [][]any{{"Room", "Bookings", "Booked hours"}}
	for _, u := range usage {
		rows = append(rows, []any{u.RoomName, u.BookingCount, u.BookedHours})
	}
	if err := setRows(f, SheetRoomUsage, rows); err != nil {
		return nil, err
	}
	return f, nil
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) computeOverview(from, to time.Time) overview {
	s.lock.Lock()
	rooms := s.collections[api.RouteRoom].list()
	bookings := s.collections[api.RouteBooking].list()
	users := s.collections[api.RouteUser].list()
	accounts := len(s.accounts)
	s.lock.Unlock()

	ov := overview{TotalRooms: len(rooms), TotalUsers: max(len(users), accounts)}
	for _, room := range rooms {
		if available, _ := room["available"].(bool); available {
			ov.AvailableRooms++
		}
	}
	for _, b := range bookings {
		if !inPeriod(b, from, to) {
			continue
		}
		ov.TotalBookings++
		switch b["status"] {
		case StatusConfirmed:
			ov.ConfirmedBookings++
		case StatusCancelled:
			ov.CancelledBookings++
		case "PENDING":
			ov.PendingBookings++
		}
	}
	return ov
}

// computeRoomUsage counts non-cancelled bookings per room, in room storage order.
func (s *Server) computeRoomUsage(from, to time.Time) []roomUsage {
	s.lock.Lock()
	rooms := s.collections[api.RouteRoom].list()
	bookings := s.collections[api.RouteBooking].list()
	s.lock.Unlock()

	usage := make([]roomUsage, 0, len(rooms))
	for _, room := range rooms {
		name, _ := room["name"].(string)
		u := roomUsage{RoomName: name}
		for _, b := range bookings {
			if b["roomName"] != name || b["status"] == StatusCancelled || !inPeriod(b, from, to) {
				continue
			}
			start, end := bookingTimes(b)
			u.BookingCount++
			if end.After(start) {
				u.BookedHours += end.Sub(start).Hours()
			}
		}
		usage = append(usage, u)
	}
	return usage
}

func periodParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var from, to time.Time
	q := r.URL.Query()
	for key, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{key: "expected yyyy-mm-dd"})
				return from, to, false
			}
			*dst = t
		}
	}
	return from, to, true
}

// inPeriod includes bookings starting on or after from and before the day after to.
func inPeriod(b record, from, to time.Time) bool {
	start, _ := bookingTimes(b)
	if !from.IsZero() && start.Before(from) {
		return false
	}
	if !to.IsZero() && !start.Before(to.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func bookingTimes(b record) (time.Time, time.Time) {
	parse := func(v any) time.Time {
		s, _ := v.(string)
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	return parse(b["startTime"]), parse(b["endTime"])
}
