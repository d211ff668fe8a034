package api

import "time"

// User is the authenticated member or admin as returned by the backend.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role,omitempty"`
}

// AuthResult is the data payload of login, registration, OTP verification and
// admin login.
type AuthResult struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token,omitempty"`
	User        *User  `json:"user,omitempty"`
}

func (a AuthResult) bearer() string {
	if a.Token != "" {
		return a.Token
	}
	return a.AccessToken
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone,omitempty"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SendOTPRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	OTP   string `json:"otp"`
}

type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
}

// Avatar is an image uploaded together with a profile update.
type Avatar struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Room struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Capacity    int      `json:"capacity"`
	HourlyRate  float64  `json:"hourly_rate"`
	Amenities   []string `json:"amenities,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// AvailabilityQuery filters /rooms/available.
type AvailabilityQuery struct {
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Capacity  int
}

type Booking struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Room      *Room     `json:"room,omitempty"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Status    string    `json:"status"`
	Total     float64   `json:"total,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type BookingRequest struct {
	RoomID    string `json:"room_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Notes     string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type FoodItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

type OrderLine struct {
	FoodItemID string `json:"food_item_id"`
	Quantity   int    `json:"quantity"`
}

type FoodOrderRequest struct {
	Items []OrderLine `json:"items"`
	Notes string      `json:"notes,omitempty"`
}

type FoodOrder struct {
	ID        string      `json:"id"`
	Items     []OrderLine `json:"items"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

type DayPassCheck struct {
	Date      string  `json:"date"`
	Available bool    `json:"available"`
	Price     float64 `json:"price"`
	Remaining int     `json:"remaining"`
}

type DayPassPurchase struct {
	Date          string `json:"date"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type DayPass struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Status string  `json:"status"`
	Price  float64 `json:"price"`
}

type Invoice struct {
	ID       string        `json:"id"`
	Number   string        `json:"number"`
	Amount   float64       `json:"amount"`
	Status   string        `json:"status"`
	IssuedAt time.Time     `json:"issued_at,omitempty"`
	Lines    []InvoiceLine `json:"lines,omitempty"`
}

type InvoiceLine struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type WalletBalance struct {
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type UnreadCount struct {
	Count int `json:"count"`
}

// ScheduleEntry is one item of the member's agenda for today.
type ScheduleEntry struct {
	Kind      string `json:"kind"` // booking, day_pass, food_order
	RefID     string `json:"ref_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// Page narrows list endpoints.
type Page struct {
	Page    int
	PerPage int
}
