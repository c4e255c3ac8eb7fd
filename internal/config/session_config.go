package config

import "net/http"

type SessionConfig interface {
	GetRefreshCookieName() string
	GetRefreshCookiePath() string
	GetRefreshCookieSameSite() http.SameSite
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetRefreshCookieName() string {
	return "refreshToken"
}

func (Session) GetRefreshCookiePath() string {
	return "/"
}

func (Session) GetRefreshCookieSameSite() http.SameSite {
	return http.SameSiteStrictMode
}
