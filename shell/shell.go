// Package shell owns the route table, role-based navigation and the check every page runs
// before it fetches anything.
package shell

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/token"
	"github.com/rs/zerolog/log"
)

// Session is the part of the session manager the shell needs.
type Session interface {
	IsSessionValid(ctx context.Context) bool
	Claims() (*token.Claims, error)
}

type Shell struct {
	session Session
	pages   []Page
}

func New(session Session) *Shell {
	return &Shell{session: session, pages: Pages}
}

func (s *Shell) Page(route string) (Page, bool) {
	for _, p := range s.pages {
		if p.Route == route {
			return p, true
		}
	}
	return Page{}, false
}

// Navigation lists the pages the claims may open, in route table order. The login page is
// never listed.
func (s *Shell) Navigation(claims *token.Claims) []Page {
	visible := make([]Page, 0, len(s.pages))
	for _, p := range s.pages {
		if !p.Public && p.Allows(claims) {
			visible = append(visible, p)
		}
	}
	return visible
}

// Mount runs the page effect: validate (and if needed heal) the session, then check roles.
// ErrSessionExpired means the manager has already logged out and redirected.
func (s *Shell) Mount(ctx context.Context, route string) (Page, error) {
	page, ok := s.Page(route)
	if !ok {
		return Page{}, fmt.Errorf("[Shell Mount] route %q: %w", route, errors.ErrNotFound)
	}
	if page.Public {
		return page, nil
	}

	if !s.session.IsSessionValid(ctx) {
		return page, fmt.Errorf("[Shell Mount] %s: %w", route, errors.ErrSessionExpired)
	}

	claims, err := s.session.Claims()
	if err != nil {
		log.Debug().Err(err).Msg("access token claims unreadable")
	}
	if !page.Allows(claims) {
		return page, fmt.Errorf("[Shell Mount] %s: %w", route, errors.ErrForbidden)
	}
	return page, nil
}
