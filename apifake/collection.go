package apifake

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/internal/utils"
)

type record = map[string]any

type matcher func(rec record, q url.Values) bool

// collection keeps records in insertion order, which is also the order searches return.
type collection struct {
	order []string
	items map[string]record
}

func newCollection() *collection {
	return &collection{items: make(map[string]record)}
}

func (c *collection) insert(r record) string {
	id, _ := r["id"].(string)
	if id == "" {
		id = uuid.New().String()
	}
	r["id"] = id
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = maps.Clone(r)
	return id
}

func (c *collection) get(id string) (record, bool) {
	r, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(r), true
}

func (c *collection) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return true
}

func (c *collection) list() []record {
	out := make([]record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, maps.Clone(c.items[id]))
	}
	return out
}

func (c *collection) findBy(field, value string) (record, bool) {
	for _, id := range c.order {
		if v, _ := c.items[id][field].(string); strings.EqualFold(v, value) {
			return maps.Clone(c.items[id]), true
		}
	}
	return nil, false
}

// Seed stores a record in the collection at path (e.g. api.RouteRoom) and returns its id.
func (s *Server) Seed(path string, r record) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	c, ok := s.collections[path]
	if !ok {
		panic("apifake: unknown collection " + path)
	}
	return c.insert(r)
}

// Record returns a copy of the stored record.
func (s *Server) Record(path, id string) (record, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.collections[path].get(id)
}

func (s *Server) SearchHandler(path string, match matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.applyDelay(r); err != nil {
			return
		}

		q := r.URL.Query()
		page := intParam(q, "page", 0)
		size := intParam(q, "size", 10)
		if page < 0 || size <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid page request", nil)
			return
		}

		s.lock.Lock()
		all := s.collections[path].list()
		s.lock.Unlock()

		matched := make([]record, 0)
		for _, rec := range all {
			if match(rec, q) {
				matched = append(matched, rec)
			}
		}

		start := min(page*size, len(matched))
		end := min(start+size, len(matched))
		writeData(w, http.StatusOK, api.Page[record]{
			Content:       matched[start:end],
			TotalElements: int64(len(matched)),
			TotalPages:    (len(matched) + size - 1) / size,
			Number:        page,
			Size:          size,
		})
	}
}

func (s *Server) applyDelay(r *http.Request) error {
	s.lock.Lock()
	var wait time.Duration
	for _, d := range s.delays {
		if strings.Contains(r.URL.RawQuery, d.match) {
			wait = d.d
		}
	}
	s.lock.Unlock()
	if wait == 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-r.Context().Done():
		return r.Context().Err()
	}
}

func (s *Server) ListHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		all := s.collections[path].list()
		s.lock.Unlock()
		writeData(w, http.StatusOK, all)
	}
}

func (s *Server) GetHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		rec, ok := s.collections[path].get(r.PathValue("id"))
		s.lock.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "Not found", nil)
			return
		}
		writeData(w, http.StatusOK, rec)
	}
}

func (s *Server) CreateHandler(path, uniqueField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
		delete(rec, "id")

		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[path]
		if value, _ := rec[uniqueField].(string); value != "" {
			if _, exists := c.findBy(uniqueField, value); exists {
				writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{uniqueField: "already exists"})
				return
			}
		}
		id := c.insert(rec)
		saved, _ := c.get(id)
		writeData(w, http.StatusCreated, saved)
	}
}

func (s *Server) UpdateHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		id := r.PathValue("id")
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[path]
		if _, ok := c.get(id); !ok {
			writeError(w, http.StatusNotFound, "Not found", nil)
			return
		}
		rec["id"] = id
		c.insert(rec)
		writeData(w, http.StatusOK, rec)
	}
}

func (s *Server) DeleteHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		removed := s.collections[path].remove(r.PathValue("id"))
		s.lock.Unlock()
		if !removed {
			writeError(w, http.StatusNotFound, "Not found", nil)
			return
		}
		writeData(w, http.StatusOK, nil)
	}
}

func intParam(q url.Values, key string, def int) int {
	v, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return def
	}
	return v
}

// listParam collects a multi-valued parameter sent either repeated or comma separated.
func listParam(q url.Values, key string) []string {
	out := make([]string, 0)
	for _, v := range q[key] {
		out = append(out, utils.SplitList(v)...)
	}
	return out
}

func containsFold(haystack any, needle string) bool {
	s, _ := haystack.(string)
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

func inFold(value any, set []string) bool {
	s := fmt.Sprint(value)
	for _, v := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func boolParamMatches(value any, param string) bool {
	if param == "" {
		return true
	}
	want, err := strconv.ParseBool(param)
	if err != nil {
		return true
	}
	got, _ := value.(bool)
	return got == want
}

func nameMatches(rec record, q url.Values) bool {
	name := q.Get("name")
	return name == "" || containsFold(rec["name"], name)
}

func roomMatches(rec record, q url.Values) bool {
	if name := q.Get("roomName"); name != "" && !containsFold(rec["name"], name) {
		return false
	}
	if locations := listParam(q, "locations"); len(locations) > 0 && !inFold(rec["location"], locations) {
		return false
	}
	if capacities := listParam(q, "capacities"); len(capacities) > 0 && !inFold(intValue(rec["capacity"]), capacities) {
		return false
	}
	if equipments := listParam(q, "equipments"); len(equipments) > 0 {
		have, _ := rec["equipments"].([]any)
		for _, want := range equipments {
			if !slices.ContainsFunc(have, func(v any) bool { return inFold(v, []string{want}) }) {
				return false
			}
		}
	}
	return boolParamMatches(rec["available"], q.Get("available"))
}

func bookingMatches(rec record, q url.Values) bool {
	if room := q.Get("roomName"); room != "" && !inFold(rec["roomName"], []string{room}) {
		return false
	}
	if statuses := listParam(q, "statuses"); len(statuses) > 0 && !inFold(rec["status"], statuses) {
		return false
	}
	return true
}

func userMatches(rec record, q url.Values) bool {
	if name := q.Get("name"); name != "" && !containsFold(rec["username"], name) && !containsFold(rec["fullName"], name) {
		return false
	}
	if groups := listParam(q, "groups"); len(groups) > 0 && !inFold(rec["group"], groups) {
		return false
	}
	if positions := listParam(q, "positions"); len(positions) > 0 && !inFold(rec["position"], positions) {
		return false
	}
	return boolParamMatches(rec["active"], q.Get("active"))
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}
