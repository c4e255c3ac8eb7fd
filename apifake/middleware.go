package apifake

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUsername stores the authenticated username
	ContextKeyUsername ContextKey = "username"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("apifake")
		next(w, r)
	}
}

func (s *Server) CountingMiddleware(pattern string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.lock.Lock()
			s.counts[pattern]++
			s.lock.Unlock()
			next(w, r)
		}
	}
}

// RequireAuth validates the Bearer access token against the issued set.
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Missing Authorization header", nil)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "Invalid Authorization header format", nil)
			return
		}

		s.lock.Lock()
		username, ok := s.accessTokens[parts[1]]
		s.lock.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUsername, username)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin must be chained after RequireAuth.
func (s *Server) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, _ := r.Context().Value(ContextKeyUsername).(string)
		s.lock.Lock()
		acc := s.accounts[username]
		s.lock.Unlock()
		if acc == nil || !slices.Contains(acc.Roles, RoleAdmin) {
			writeError(w, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next(w, r)
	}
}
