package sessions

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-roombook/internal/config"
	"golang.org/x/net/publicsuffix"
)

// Tokens is the pair issued by login and refresh.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// AccessStorage keeps the access token. It is volatile by default (MemoryStorage); the CLI
// swaps in a file so one shell session behaves like one browser tab.
type AccessStorage interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// MemoryStorage is tab-scoped storage: it lives as long as the process.
type MemoryStorage struct {
	token string
	lock  sync.RWMutex
}

var _ AccessStorage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(token string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Delete() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.token = ""
	return nil
}

// Store is the one place the session's tokens live. It is created at startup and passed to
// every component that needs the session; it is only mutated by the Manager.
type Store struct {
	access AccessStorage
	jar    http.CookieJar
	origin *url.URL
	config config.SessionConfig
	lock   sync.RWMutex
}

// NewStore scopes the refresh cookie to the API origin. A nil jar gets a fresh in-memory one.
func NewStore(baseURL *url.URL, cfg config.SessionConfig, access AccessStorage, jar http.CookieJar) (*Store, error) {
	if baseURL == nil {
		return nil, fmt.Errorf("[sessions NewStore] base url is required")
	}
	if access == nil {
		access = NewMemoryStorage()
	}
	if jar == nil {
		var err error
		jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("[sessions NewStore] cookie jar: %w", err)
		}
	}
	return &Store{
		access: access,
		jar:    jar,
		origin: &url.URL{Scheme: baseURL.Scheme, Host: baseURL.Host, Path: cfg.GetRefreshCookiePath()},
		config: cfg,
	}, nil
}

// Jar exposes the cookie jar so the API client can share it.
func (s *Store) Jar() http.CookieJar {
	return s.jar
}

// AccessToken is the single accessor for the current access token.
func (s *Store) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	token, err := s.access.Load()
	if err != nil {
		return ""
	}
	return token
}

func (s *Store) RefreshToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, c := range s.jar.Cookies(s.origin) {
		if c.Name == s.config.GetRefreshCookieName() {
			return c.Value
		}
	}
	return ""
}

// Replace swaps both tokens under one lock so readers never observe a new access token
// paired with the old refresh token.
func (s *Store) Replace(tokens Tokens) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.access.Save(tokens.AccessToken); err != nil {
		return fmt.Errorf("[Store Replace] saving access token: %w", err)
	}
	if tokens.RefreshToken != "" {
		s.jar.SetCookies(s.origin, []*http.Cookie{s.refreshCookie(tokens.RefreshToken, 0)})
	}
	return nil
}

// Clear removes the access token and expires the refresh cookie immediately.
func (s *Store) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.jar.SetCookies(s.origin, []*http.Cookie{s.refreshCookie("", -1)})
	if err := s.access.Delete(); err != nil {
		return fmt.Errorf("[Store Clear] deleting access token: %w", err)
	}
	return nil
}

func (s *Store) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     s.config.GetRefreshCookieName(),
		Value:    value,
		Path:     s.config.GetRefreshCookiePath(),
		MaxAge:   maxAge,
		Secure:   s.origin.Scheme == "https", // cookie jars drop secure cookies on plain http origins
		SameSite: s.config.GetRefreshCookieSameSite(),
	}
}
