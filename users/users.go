package users

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/jrsteele09/go-roombook/api"
	"github.com/jrsteele09/go-roombook/forms"
	"github.com/jrsteele09/go-roombook/resource"
)

// RoleType is the application role carried by a user and by the access token's claims
type RoleType string

const (
	RoleAdmin RoleType = "ADMIN" // Can manage rooms, users, catalogs and statistics
	RoleUser  RoleType = "USER"  // Can search rooms and manage their own bookings
)

type User struct {
	ID       string   `json:"id,omitempty"`                                     // Unique identifier for the user
	Username string   `json:"username" validate:"required,min=3"`               // Unique login name
	Password string   `json:"password,omitempty" validate:"omitempty,password"` // Only sent when creating a user or changing the password
	FullName string   `json:"fullName" validate:"required"`                     // Display name
	Email    string   `json:"email" validate:"required,email"`                  // Contact email address
	Phone    string   `json:"phone,omitempty"`                                  // Optional phone number
	Role     RoleType `json:"role" validate:"required,oneof=ADMIN USER"`        // Application role
	Group    string   `json:"group,omitempty"`                                  // Name of the group the user belongs to
	Position string   `json:"position,omitempty"`                               // Name of the user's position
	Active   bool     `json:"active"`                                           // Inactive users cannot log in
}

// Profile is the signed-in user's own record as returned by my-info.
type Profile struct {
	Username string   `json:"username"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Role     RoleType `json:"role"`
}

func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// MyInfo fetches the profile of the user the client is authorized as.
func MyInfo(ctx context.Context, client *api.Client) (Profile, error) {
	return api.Call[Profile](ctx, client, api.Get(api.RouteUserMyInfo, nil)).Unwrap()
}

type Filter struct {
	Name      string
	Groups    []string
	Positions []string
	Active    *bool
}

func (f Filter) Values() url.Values {
	v := url.Values{}
	if name := strings.TrimSpace(f.Name); name != "" {
		v.Set("name", name)
	}
	if len(f.Groups) > 0 {
		v.Set("groups", strings.Join(f.Groups, ","))
	}
	if len(f.Positions) > 0 {
		v.Set("positions", strings.Join(f.Positions, ","))
	}
	if f.Active != nil {
		v.Set("active", strconv.FormatBool(*f.Active))
	}
	return v
}

var Definition = resource.Definition[User, Filter]{
	Name:           "user",
	Path:           api.RouteUser,
	SearchPath:     api.RouteUserSearch,
	NewFilter:      func() Filter { return Filter{} },
	Key:            func(u *User) string { return u.ID },
	Label:          func(u *User) string { return u.Username },
	ZeroBasedPages: true,
}

func NewService(client *api.Client, pageSize int) *resource.Service[User, Filter] {
	return resource.NewService(client, Definition, pageSize)
}

// PasswordRule is the validator tag for the password strength check.
const PasswordRule = "password"

func init() {
	forms.RegisterRule(PasswordRule, ValidatePasswordStrength)
}

// ValidatePasswordStrength accepts passwords of eight or more characters mixing upper case,
// lower case and digits. The error reads as a field message.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("must be at least 8 characters long")
	}
	for _, class := range []struct {
		name string
		in   func(rune) bool
	}{
		{"an uppercase letter", unicode.IsUpper},
		{"a lowercase letter", unicode.IsLower},
		{"a number", unicode.IsDigit},
	} {
		if !strings.ContainsFunc(password, class.in) {
			return fmt.Errorf("must contain %s", class.name)
		}
	}
	return nil
}
