package apifake

import (
	"strings"

	"github.com/jrsteele09/go-roombook/api"
)

func prefixPattern(pattern string) string {
	method, path, _ := strings.Cut(pattern, " ")
	return method + " " + basePath + path
}

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+api.RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+api.RouteAuthIntrospect, s.IntrospectHandler())
	s.RegisterRouteFunc("POST "+api.RouteAuthRefresh, s.RefreshHandler())
	s.RegisterRouteFunc("POST "+api.RouteAuthLogout, s.LogoutHandler())
	s.RegisterAuthedRouteFunc("GET "+api.RouteUserMyInfo, s.MyInfoHandler())

	// ROOMS
	s.RegisterAuthedRouteFunc("GET "+api.RouteRoomSearch, s.SearchHandler(api.RouteRoom, roomMatches))
	s.RegisterAuthedRouteFunc("GET "+api.RouteRoom+"/{id}", s.GetHandler(api.RouteRoom))
	s.RegisterAuthedRouteFunc("GET "+api.RouteRoom, s.ListHandler(api.RouteRoom))
	s.RegisterAuthedRouteFunc("POST "+api.RouteRoom, s.RoomSaveHandler(), s.RequireAdmin)
	s.RegisterAuthedRouteFunc("PUT "+api.RouteRoom+"/{id}", s.RoomSaveHandler(), s.RequireAdmin)
	s.RegisterAuthedRouteFunc("DELETE "+api.RouteRoom+"/{id}", s.DeleteHandler(api.RouteRoom), s.RequireAdmin)

	// BOOKINGS
	s.RegisterAuthedRouteFunc("GET "+api.RouteBookingSearch, s.SearchHandler(api.RouteBooking, bookingMatches))
	s.RegisterAuthedRouteFunc("GET "+api.RouteBookingByRoom, s.BookingsByRoomHandler())
	s.RegisterAuthedRouteFunc("GET "+api.RouteBooking+"/{id}", s.GetHandler(api.RouteBooking))
	s.RegisterAuthedRouteFunc("GET "+api.RouteBooking, s.ListHandler(api.RouteBooking))
	s.RegisterAuthedRouteFunc("POST "+api.RouteBooking, s.BookingCreateHandler())
	s.RegisterAuthedRouteFunc("PUT "+api.RouteBooking+"/{id}", s.UpdateHandler(api.RouteBooking))
	s.RegisterAuthedRouteFunc("PUT "+api.RouteBooking+"/{id}/cancel", s.BookingCancelHandler())
	s.RegisterAuthedRouteFunc("DELETE "+api.RouteBooking+"/{id}", s.DeleteHandler(api.RouteBooking))

	// USERS, EQUIPMENT, GROUPS, POSITIONS
	s.registerCatalog(api.RouteUser, api.RouteUserSearch, userMatches, "username")
	s.registerCatalog(api.RouteEquipment, api.RouteEquipmentSearch, nameMatches, "name")
	s.registerCatalog(api.RouteGroup, api.RouteGroupSearch, nameMatches, "name")
	s.registerCatalog(api.RoutePosition, api.RoutePositionSearch, nameMatches, "name")

	// STATISTICS
	s.RegisterAuthedRouteFunc("GET "+api.RouteStatisticsOverview, s.OverviewHandler(), s.RequireAdmin)
	s.RegisterAuthedRouteFunc("GET "+api.RouteStatisticsRoomUsage, s.RoomUsageHandler(), s.RequireAdmin)
	s.RegisterAuthedRouteFunc("GET "+api.RouteStatisticsExport, s.ExportHandler(), s.RequireAdmin)
}

func (s *Server) registerCatalog(collectionPath, searchPath string, match matcher, uniqueField string) {
	s.RegisterAuthedRouteFunc("GET "+searchPath, s.SearchHandler(collectionPath, match))
	s.RegisterAuthedRouteFunc("GET "+collectionPath+"/{id}", s.GetHandler(collectionPath))
	s.RegisterAuthedRouteFunc("GET "+collectionPath, s.ListHandler(collectionPath))
	s.RegisterAuthedRouteFunc("POST "+collectionPath, s.CreateHandler(collectionPath, uniqueField), s.RequireAdmin)
	s.RegisterAuthedRouteFunc("PUT "+collectionPath+"/{id}", s.UpdateHandler(collectionPath), s.RequireAdmin)
	s.RegisterAuthedRouteFunc("DELETE "+collectionPath+"/{id}", s.DeleteHandler(collectionPath), s.RequireAdmin)
}
