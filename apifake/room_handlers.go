package apifake

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/jrsteele09/go-roombook/api"
)

const maxUploadBytes = 8 << 20

// SeedRoom stores an available room and returns its id.
func (s *Server) SeedRoom(name, location string, capacity int, equipments ...string) string {
	eq := make([]any, 0, len(equipments))
	for _, e := range equipments {
		eq = append(eq, e)
	}
	return s.Seed(api.RouteRoom, record{
		"name":       name,
		"location":   location,
		"capacity":   float64(capacity),
		"available":  true,
		"equipments": eq,
	})
}

// LastUpload returns the name and size of the most recent room image received.
func (s *Server) LastUpload() (filename string, size int64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.lastUpload, s.lastUploadSize
}

// RoomSaveHandler serves both create and update. The room arrives as a "room" JSON part and an
// optional "image" file; without a new image the stored imageUrl is kept.
func (s *Server) RoomSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "Expected multipart form", nil)
			return
		}
		var rec record
		if err := json.Unmarshal([]byte(r.FormValue("room")), &rec); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid room part", nil)
			return
		}
		if intValue(rec["capacity"]) <= 0 {
			writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{"capacity": "must be greater than 0"})
			return
		}

		var imageURL string
		var imageSize int64
		if file, header, err := r.FormFile("image"); err == nil {
			_ = file.Close()
			imageURL = "/images/" + path.Base(header.Filename)
			imageSize = header.Size
		}

		id := r.PathValue("id")
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[api.RouteRoom]

		name, _ := rec["name"].(string)
		if existing, ok := c.findBy("name", name); ok && existing["id"] != id {
			writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{"name": "Room name already exists"})
			return
		}

		uploaded := imageURL != ""
		status := http.StatusCreated
		if id != "" {
			stored, ok := c.get(id)
			if !ok {
				writeError(w, http.StatusNotFound, "Room not found", nil)
				return
			}
			if imageURL == "" {
				imageURL, _ = stored["imageUrl"].(string)
			}
			rec["id"] = id
			status = http.StatusOK
		} else {
			delete(rec, "id")
		}
		if imageURL != "" {
			rec["imageUrl"] = imageURL
		}
		if uploaded {
			s.lastUpload, s.lastUploadSize = path.Base(imageURL), imageSize
		}

		saved, _ := c.get(c.insert(rec))
		writeData(w, status, saved)
	}
}
