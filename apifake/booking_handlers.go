package apifake

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-roombook/api"
)

const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// SeedBooking stores a booking for roomName and returns its id.
func (s *Server) SeedBooking(roomName, title string, start, end time.Time, status string) string {
	return s.Seed(api.RouteBooking, record{
		"roomName":  roomName,
		"title":     title,
		"startTime": start.UTC().Format(time.RFC3339),
		"endTime":   end.UTC().Format(time.RFC3339),
		"status":    status,
		"bookedBy":  "alice",
	})
}

func (s *Server) BookingCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		if s.rejectBooking != "" {
			// Business rejections come back as HTTP 200 with success:false.
			writeError(w, http.StatusOK, s.rejectBooking, nil)
			return
		}
		if room, _ := rec["roomName"].(string); strings.TrimSpace(room) == "" {
			writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{"roomName": "must not be blank"})
			return
		}

		delete(rec, "id")
		if status, _ := rec["status"].(string); status == "" {
			rec["status"] = StatusConfirmed
		}
		if username, ok := r.Context().Value(ContextKeyUsername).(string); ok {
			rec["bookedBy"] = username
		}
		c := s.collections[api.RouteBooking]
		saved, _ := c.get(c.insert(rec))
		writeData(w, http.StatusCreated, saved)
	}
}

func (s *Server) BookingCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[api.RouteBooking]
		rec, ok := c.get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "Booking not found", nil)
			return
		}
		if rec["status"] == StatusCancelled {
			writeError(w, http.StatusConflict, "Booking already cancelled", nil)
			return
		}
		rec["status"] = StatusCancelled
		c.insert(rec)
		writeData(w, http.StatusOK, rec)
	}
}

// BookingsByRoomHandler answers with a bare data array in storage order.
func (s *Server) BookingsByRoomHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomName := r.URL.Query().Get("roomName")
		if roomName == "" {
			writeError(w, http.StatusBadRequest, "roomName is required", nil)
			return
		}
		if err := s.applyDelay(r); err != nil {
			return
		}
		s.lock.Lock()
		all := s.collections[api.RouteBooking].list()
		s.lock.Unlock()

		out := make([]record, 0)
		for _, rec := range all {
			if inFold(rec["roomName"], []string{roomName}) {
				out = append(out, rec)
			}
		}
		writeData(w, http.StatusOK, out)
	}
}
