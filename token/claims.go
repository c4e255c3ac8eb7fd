package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-roombook/internal/errors"
	"github.com/jrsteele09/go-roombook/internal/utils"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the client-side view of an access token. The signature is not verified here:
// the API's introspection endpoint is the only authority on validity, these claims only drive
// what the client shows.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	Username  string    `json:"username,omitempty"`
	Roles     []string  `json:"roles,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// Parse extracts claims from a raw JWT without verifying it.
func Parse(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.ErrInvalidToken
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("[token Parse] %w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("[token Parse] %w: error extracting claims", errors.ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	c := &Claims{
		Subject:  sub,
		Username: utils.FirstNonEmpty(username, sub),
		Roles:    rolesFromClaims(claims),
	}
	if iat > 0 {
		c.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp > 0 {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return c, nil
}

// rolesFromClaims accepts the role shapes issued by different backends: a "roles" array,
// a single "role" string, or a space separated "scope".
func rolesFromClaims(claims jwt.MapClaims) []string {
	roles := make([]string, 0)
	if claimRoles, ok := claims["roles"].([]any); ok {
		roles = append(roles, utils.ToStringSlice(claimRoles)...)
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		roles = append(roles, role)
	}
	if scope, ok := claims["scope"].(string); ok {
		roles = append(roles, strings.Fields(scope)...)
	}
	for i, r := range roles {
		roles[i] = normaliseRole(r)
	}
	return roles
}

func normaliseRole(role string) string {
	return strings.TrimPrefix(strings.ToUpper(role), "ROLE_")
}

// HasRole reports whether the token carries the role. Spring style "ROLE_" prefixes and case
// are ignored.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	want := normaliseRole(role)
	for _, r := range c.Roles {
		if r == want {
			return true
		}
	}
	return false
}

// Expired reports whether the exp claim is in the past. Tokens without exp never expire
// client-side.
func (c *Claims) Expired() bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return NowTimeFunc().After(c.ExpiresAt)
}

// IsAdmin reports whether the token grants the ADMIN role.
func (c *Claims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}
