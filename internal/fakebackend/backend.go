// Package fakebackend is an in-process coworking backend speaking the same
// JSON envelope as the real one. Tests and the mock server run it; it keeps
// everything in memory.
package fakebackend

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-cowork-client/api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultIssuer      = "cowork-fakebackend"
	defaultTokenExpiry = 24 * time.Hour
	dayPassPrice       = 25.0
	dayPassCapacity    = 20
	startingBalance    = 100.0
	currency           = "EUR"
	dateLayout         = "2006-01-02"
	clockLayout        = "15:04"
)

// Backend is the fake server. Handler returns its router.
type Backend struct {
	router  *mux.Router
	logger  zerolog.Logger
	now     func() time.Time
	otpCode func() string

	members *memberRepo
	tokens  *tokenIssuer

	rooms     []api.Room
	foodItems []api.FoodItem

	lock     sync.Mutex
	accounts map[string]*account // member id to account
	otps     map[string]string   // destination to code
	seq      int
}

// account holds one member's records, newest last.
type account struct {
	balance       float64
	bookings      []*api.Booking
	orders        []*api.FoodOrder
	dayPasses     []*api.DayPass
	invoices      []*api.Invoice
	transactions  []*api.Transaction
	notifications []*api.Notification
}

type Option func(*Backend)

func WithLogger(logger zerolog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithClock fixes the backend's notion of now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// WithOTPCode makes every issued one-time code equal code.
func WithOTPCode(code string) Option {
	return func(b *Backend) {
		b.otpCode = func() string { return code }
	}
}

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) Option {
	return func(b *Backend) {
		b.tokens.secret = []byte(secret)
	}
}

func New(options ...Option) *Backend {
	b := &Backend{
		router:   mux.NewRouter(),
		logger:   log.Logger,
		now:      time.Now,
		members:  newMemberRepo(),
		accounts: make(map[string]*account),
		otps:     make(map[string]string),
		otpCode: func() string {
			return fmt.Sprintf("%06d", rand.IntN(1_000_000))
		},
	}
	b.tokens = newTokenIssuer(defaultIssuer, []byte("fakebackend-secret"), defaultTokenExpiry, b.clock)
	for _, opt := range options {
		opt(b)
	}
	b.seedCatalogue()
	b.initRoutes()
	return b
}

func (b *Backend) Handler() http.Handler {
	return b.router
}

func (b *Backend) clock() time.Time {
	return b.now()
}

func (b *Backend) today() string {
	return b.now().Format(dateLayout)
}

// AddMember registers an account directly, bypassing the HTTP API.
func (b *Backend) AddMember(name, email, password string, role Role) (*Member, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[Backend AddMember] hash password: %w", err)
	}
	member := &Member{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		DateJoined:   b.now(),
	}
	b.members.Upsert(member)
	b.account(member.ID)
	return member, nil
}

// OTP returns the last code sent to destination.
func (b *Backend) OTP(destination string) (string, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	code, ok := b.otps[destination]
	return code, ok
}

// ExpireSessions invalidates every token issued so far, so the next
// authenticated call answers 401.
func (b *Backend) ExpireSessions() {
	b.tokens.RotateSecret()
}

// account returns the member's account, creating it on first use.
func (b *Backend) account(memberID string) *account {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.accountLocked(memberID)
}

func (b *Backend) accountLocked(memberID string) *account {
	acc, ok := b.accounts[memberID]
	if !ok {
		acc = &account{balance: startingBalance}
		b.accounts[memberID] = acc
	}
	return acc
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func (b *Backend) seedCatalogue() {
	b.rooms = []api.Room{
		{ID: "room-1", Name: "Focus Pod", Capacity: 1, HourlyRate: 8, Amenities: []string{"desk", "lamp"}},
		{ID: "room-2", Name: "Huddle Room", Capacity: 4, HourlyRate: 20, Amenities: []string{"screen", "whiteboard"}},
		{ID: "room-3", Name: "Board Room", Capacity: 12, HourlyRate: 60, Amenities: []string{"screen", "video", "whiteboard"}},
	}
	b.foodItems = []api.FoodItem{
		{ID: "food-1", Name: "Espresso", Category: "drinks", Price: 2.5, Available: true},
		{ID: "food-2", Name: "Flat White", Category: "drinks", Price: 3.5, Available: true},
		{ID: "food-3", Name: "Club Sandwich", Category: "food", Price: 8, Available: true},
		{ID: "food-4", Name: "Seasonal Soup", Category: "food", Price: 6, Available: false},
	}
}

// initRoutes registers literal paths before their {id} siblings; the router
// matches in registration order.
func (b *Backend) initRoutes() {
	r := b.router
	r.Use(b.recoverMiddleware, b.loggingMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found.")
	})

	// AUTH
	r.HandleFunc(api.EndpointRegister, b.registerHandler()).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointLogin, b.loginHandler(false)).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointAdminLogin, b.loginHandler(true)).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointSendOTP, b.sendOTPHandler()).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointVerifyOTP, b.verifyOTPHandler()).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointLogout, b.requireAuth(b.logoutHandler())).Methods(http.MethodPost)

	// PROFILE
	r.HandleFunc(api.EndpointProfile, b.requireAuth(b.profileHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointProfile, b.requireAuth(b.profileUpdateHandler())).Methods(http.MethodPut, http.MethodPost)

	// ROOMS
	r.HandleFunc(api.EndpointRooms, b.requireAuth(b.roomsHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointRoomsAvailable, b.requireAuth(b.availableRoomsHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointRooms+"/{id}", b.requireAuth(b.roomHandler())).Methods(http.MethodGet)

	// BOOKINGS
	r.HandleFunc(api.EndpointBookings, b.requireAuth(b.bookingsHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointBookings, b.requireAuth(b.createBookingHandler())).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointBookings+"/{id}", b.requireAuth(b.bookingHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointBookings+"/{id}", b.requireAuth(b.rescheduleBookingHandler())).Methods(http.MethodPut)
	r.HandleFunc(api.EndpointBookings+"/{id}/cancel", b.requireAuth(b.cancelBookingHandler())).Methods(http.MethodPost)

	// FOOD
	r.HandleFunc(api.EndpointFoodItems, b.requireAuth(b.foodItemsHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointFoodItems+"/{id}", b.requireAuth(b.foodItemHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointFoodOrders, b.requireAuth(b.foodOrdersHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointFoodOrders, b.requireAuth(b.createFoodOrderHandler())).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointFoodOrders+"/{id}", b.requireAuth(b.foodOrderHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointFoodOrders+"/{id}/cancel", b.requireAuth(b.cancelFoodOrderHandler())).Methods(http.MethodPost)

	// DAY PASSES
	r.HandleFunc(api.EndpointDayPassCheck, b.requireAuth(b.dayPassCheckHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointDayPassPurchase, b.requireAuth(b.dayPassPurchaseHandler())).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointDayPasses, b.requireAuth(b.dayPassesHandler())).Methods(http.MethodGet)

	// INVOICES & WALLET
	r.HandleFunc(api.EndpointInvoices, b.requireAuth(b.invoicesHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointInvoices+"/{id}", b.requireAuth(b.invoiceHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointWalletBalance, b.requireAuth(b.walletBalanceHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointWalletTransactions, b.requireAuth(b.walletTransactionsHandler())).Methods(http.MethodGet)

	// NOTIFICATIONS
	r.HandleFunc(api.EndpointNotifications, b.requireAuth(b.notificationsHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointNotificationsUnreadCount, b.requireAuth(b.unreadCountHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointNotificationsRecent, b.requireAuth(b.recentNotificationsHandler())).Methods(http.MethodGet)
	r.HandleFunc(api.EndpointNotificationsMarkAllRead, b.requireAuth(b.markAllReadHandler())).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointNotificationsClearRead, b.requireAuth(b.clearReadHandler())).Methods(http.MethodDelete)
	r.HandleFunc(api.EndpointNotifications+"/{id}/read", b.requireAuth(b.markReadHandler())).Methods(http.MethodPost)
	r.HandleFunc(api.EndpointNotifications+"/{id}", b.requireAuth(b.deleteNotificationHandler())).Methods(http.MethodDelete)

	// SCHEDULE
	r.HandleFunc(api.EndpointScheduleToday, b.requireAuth(b.scheduleTodayHandler())).Methods(http.MethodGet)
}
