package filestore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

const cookiesFile = "cookies.json"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type storedCookie struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Path     string     `json:"path,omitempty"`
	Domain   string     `json:"domain,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HttpOnly bool       `json:"httpOnly,omitempty"`
	SameSite string     `json:"sameSite,omitempty"`
}

// Jar is a cookie jar that survives process restarts. Cookies for the API host are mirrored
// to disk on every change; cookies for other hosts stay in memory only.
type Jar struct {
	inner   *cookiejar.Jar
	origin  *url.URL
	path    string
	cookies map[string]storedCookie
	lock    sync.Mutex
}

var _ http.CookieJar = (*Jar)(nil)

// OpenJar loads any cookies saved for origin from dir. Expired cookies are dropped.
func OpenJar(dir string, origin *url.URL) (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("[filestore OpenJar] %w", err)
	}
	j := &Jar{
		inner:   inner,
		origin:  &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"},
		path:    filepath.Join(dir, cookiesFile),
		cookies: make(map[string]storedCookie),
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.lock.Lock()
	defer j.lock.Unlock()
	now := NowTimeFunc()
	for _, c := range cookies {
		key := c.Name + "|" + c.Path
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.cookies, key)
			continue
		}
		sc := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: sameSiteName(c.SameSite),
		}
		switch {
		case c.MaxAge > 0:
			exp := now.Add(time.Duration(c.MaxAge) * time.Second)
			sc.Expires = &exp
		case !c.Expires.IsZero():
			exp := c.Expires
			sc.Expires = &exp
		}
		j.cookies[key] = sc
	}
	if err := j.save(); err != nil {
		log.Error().Err(err).Msg("persisting cookies")
	}
}

func (j *Jar) load() error {
	b, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[Jar load] %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(b, &stored); err != nil {
		// A corrupt jar is treated as an empty one; the user simply logs in again.
		log.Warn().Err(err).Str("path", j.path).Msg("ignoring unreadable cookie file")
		return nil
	}

	now := NowTimeFunc()
	restored := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if sc.Expires != nil && sc.Expires.Before(now) {
			continue
		}
		j.cookies[sc.Name+"|"+sc.Path] = sc
		c := &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
			SameSite: sameSiteValue(sc.SameSite),
		}
		if sc.Expires != nil {
			c.Expires = *sc.Expires
		}
		restored = append(restored, c)
	}
	j.inner.SetCookies(j.origin, restored)
	return nil
}

func (j *Jar) save() error {
	stored := make([]storedCookie, 0, len(j.cookies))
	for _, sc := range j.cookies {
		stored = append(stored, sc)
	}
	b, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("[Jar save] %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return fmt.Errorf("[Jar save] %w", err)
	}
	if err := os.WriteFile(j.path, b, 0o600); err != nil {
		return fmt.Errorf("[Jar save] %w", err)
	}
	return nil
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return ""
	}
}

func sameSiteValue(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
