package apifake

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const RefreshCookieName = "refreshToken"

type tokenRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		acc, ok := s.accounts[req.Username]
		if !ok || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
			writeStringError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}

		access, refresh := s.issueLocked(acc.Username)
		setRefreshCookie(w, refresh)
		writeData(w, http.StatusOK, tokenPair{AccessToken: access, RefreshToken: refresh})
	}
}

func (s *Server) IntrospectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
		s.lock.Lock()
		_, valid := s.accessTokens[req.Token]
		s.lock.Unlock()
		writeData(w, http.StatusOK, map[string]bool{"valid": valid})
	}
}

// RefreshHandler rotates the refresh token: the presented one stops working.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		username, ok := s.refreshTokens[req.Token]
		if s.failRefresh || !ok {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token", nil)
			return
		}
		delete(s.refreshTokens, req.Token)

		access, refresh := s.issueLocked(username)
		setRefreshCookie(w, refresh)
		writeData(w, http.StatusOK, tokenPair{AccessToken: access, RefreshToken: refresh})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.lock.Lock()
		delete(s.accessTokens, req.Token)
		s.lock.Unlock()
		writeData(w, http.StatusOK, nil)
	}
}

func (s *Server) MyInfoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, _ := r.Context().Value(ContextKeyUsername).(string)
		s.lock.Lock()
		acc := s.accounts[username]
		s.lock.Unlock()
		if acc == nil {
			writeError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		role := RoleUser
		if len(acc.Roles) > 0 {
			role = acc.Roles[0]
		}
		writeData(w, http.StatusOK, map[string]any{
			"username": acc.Username,
			"fullName": acc.FullName,
			"email":    acc.Email,
			"role":     role,
		})
	}
}

func setRefreshCookie(w http.ResponseWriter, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
