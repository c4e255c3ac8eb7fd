package api

// Route path constants
// All endpoints consumed from the booking API are defined here to keep call sites consistent
const (
	// Auth Routes
	RouteAuthIntrospect = "/auth/introspect"
	RouteAuthRefresh    = "/auth/refresh"
	RouteAuthLogin      = "/auth/login"
	RouteAuthLogout     = "/auth/logout"

	// User Routes
	RouteUserMyInfo = "/user/my-info"
	RouteUser       = "/user"
	RouteUserSearch = "/user/search"

	// Room Routes
	RouteRoom       = "/room"
	RouteRoomSearch = "/room/search"

	// Booking Routes
	RouteBooking          = "/roombooking"
	RouteBookingSearch    = "/roombooking/search"
	RouteBookingByRoom    = "/roombooking/by-room-name"
	RouteBookingCancelFmt = "/roombooking/%s/cancel"

	// Catalog Routes
	RouteEquipment       = "/equipment"
	RouteEquipmentSearch = "/equipment/search"
	RouteGroup           = "/group"
	RouteGroupSearch     = "/group/search"
	RoutePosition        = "/position"
	RoutePositionSearch  = "/position/search"

	// Statistics Routes
	RouteStatisticsOverview  = "/statistical/overview"
	RouteStatisticsRoomUsage = "/statistical/room-usage"
	RouteStatisticsExport    = "/statistical/export"
)
