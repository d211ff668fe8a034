package api

import (
	"fmt"
	"net/url"
)

// Endpoint path constants, relative to the gateway base URL.
const (
	// Auth
	EndpointRegister   = "/auth/register"
	EndpointLogin      = "/auth/login"
	EndpointSendOTP    = "/auth/send-otp"
	EndpointVerifyOTP  = "/auth/verify-otp"
	EndpointAdminLogin = "/auth/admin-login"
	EndpointLogout     = "/auth/logout"

	// Profile
	EndpointProfile = "/profile"

	// Rooms
	EndpointRooms          = "/rooms"
	EndpointRoomsAvailable = "/rooms/available"

	// Bookings
	EndpointBookings = "/bookings"

	// Food
	EndpointFoodItems  = "/food-items"
	EndpointFoodOrders = "/food-orders"

	// Day passes
	EndpointDayPasses       = "/day-passes"
	EndpointDayPassCheck    = "/day-passes/check"
	EndpointDayPassPurchase = "/day-passes/purchase"

	// Invoices
	EndpointInvoices = "/invoices"

	// Wallet
	EndpointWalletBalance      = "/wallet/balance"
	EndpointWalletTransactions = "/wallet/transactions"

	// Notifications
	EndpointNotifications            = "/notifications"
	EndpointNotificationsUnreadCount = "/notifications/unread-count"
	EndpointNotificationsRecent      = "/notifications/recent"
	EndpointNotificationsMarkAllRead = "/notifications/mark-all-read"
	EndpointNotificationsClearRead   = "/notifications/clear-read"

	// Schedule
	EndpointScheduleToday = "/schedule/today"
)

// resource joins a collection endpoint with an escaped id and optional action.
func resource(collection, id string, action ...string) string {
	path := fmt.Sprintf("%s/%s", collection, url.PathEscape(id))
	for _, a := range action {
		path += "/" + a
	}
	return path
}
