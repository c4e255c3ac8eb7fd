package shell

import "github.com/jrsteele09/go-roombook/token"

// Route path constants
// All application pages are defined here to keep navigation and role checks consistent
const (
	// Public Routes
	RouteLogin = "/login"

	// User Routes
	RouteRooms    = "/rooms"
	RouteBookings = "/bookings"
	RouteCalendar = "/calendar"

	// Admin Routes
	RouteAdminRooms     = "/admin/rooms"
	RouteAdminUsers     = "/admin/users"
	RouteAdminEquipment = "/admin/equipment"
	RouteAdminGroups    = "/admin/groups"
	RouteAdminPositions = "/admin/positions"
	RouteStatistics     = "/statistics"
)

// Page is one entry of the route table. A page with no roles is open to any signed-in user.
type Page struct {
	Route  string
	Title  string
	Roles  []string
	Public bool
}

var Pages = []Page{
	{Route: RouteLogin, Title: "Sign in", Public: true},
	{Route: RouteRooms, Title: "Rooms"},
	{Route: RouteBookings, Title: "My bookings"},
	{Route: RouteCalendar, Title: "Calendar"},
	{Route: RouteAdminRooms, Title: "Manage rooms", Roles: []string{token.RoleAdmin}},
	{Route: RouteAdminUsers, Title: "Manage users", Roles: []string{token.RoleAdmin}},
	{Route: RouteAdminEquipment, Title: "Manage equipment", Roles: []string{token.RoleAdmin}},
	{Route: RouteAdminGroups, Title: "Manage groups", Roles: []string{token.RoleAdmin}},
	{Route: RouteAdminPositions, Title: "Manage positions", Roles: []string{token.RoleAdmin}},
	{Route: RouteStatistics, Title: "Statistics", Roles: []string{token.RoleAdmin}},
}

// Allows reports whether claims grant access to the page. Any one of the page's roles is enough.
func (p Page) Allows(claims *token.Claims) bool {
	if p.Public || len(p.Roles) == 0 {
		return true
	}
	for _, role := range p.Roles {
		if claims.HasRole(role) {
			return true
		}
	}
	return false
}
