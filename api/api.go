// Package api exposes the coworking backend's resources as typed services on
// top of the gateway.
package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/jrsteele09/go-cowork-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UnsuccessfulError is returned by typed reads when the backend answered with
// a data status (422, 409) or an envelope reporting success=false.
type UnsuccessfulError struct {
	Response *gateway.Response
}

func (e *UnsuccessfulError) Error() string {
	if e.Response != nil && e.Response.Message != "" {
		return e.Response.Message
	}
	return "request was not successful"
}

// API groups every resource service.
type API struct {
	Auth          *AuthService
	Profile       *ProfileService
	Rooms         *RoomsService
	Bookings      *BookingsService
	Food          *FoodService
	DayPasses     *DayPassService
	Invoices      *InvoiceService
	Wallet        *WalletService
	Notifications *NotificationService
	Schedule      *ScheduleService
}

type Option func(*client)

// WithLogger sets the logger shared by every service.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *client) {
		c.logger = logger
	}
}

// client is what every service shares.
type client struct {
	gw     *gateway.Client
	store  session.TokenStore
	logger zerolog.Logger
}

// New builds the services. store must be the same store the gateway reads so
// a login is visible to the next authenticated call.
func New(gw *gateway.Client, store session.TokenStore, options ...Option) (*API, error) {
	if gw == nil {
		return nil, errors.New("[api.New] gateway is required")
	}
	if store == nil {
		return nil, errors.New("[api.New] session store is required")
	}
	c := &client{gw: gw, store: store, logger: log.Logger}
	for _, opt := range options {
		opt(c)
	}
	return &API{
		Auth:          &AuthService{c},
		Profile:       &ProfileService{c},
		Rooms:         &RoomsService{c},
		Bookings:      &BookingsService{c},
		Food:          &FoodService{c},
		DayPasses:     &DayPassService{c},
		Invoices:      &InvoiceService{c},
		Wallet:        &WalletService{c},
		Notifications: &NotificationService{c},
		Schedule:      &ScheduleService{c},
	}, nil
}

// getInto fetches endpoint and decodes its data into out.
func getInto[T any](ctx context.Context, c *client, endpoint string, query url.Values) (T, error) {
	var out T
	resp, err := c.gw.Get(ctx, endpoint, query)
	if err != nil {
		return out, err
	}
	if !resp.Success {
		return out, &UnsuccessfulError{Response: resp}
	}
	if err := resp.Decode(&out); err != nil && !errors.Is(err, gateway.ErrNoData) {
		return out, errors.Wrapf(err, "[api] GET %s: decode response data", endpoint)
	}
	return out, nil
}

func (p Page) values() url.Values {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return values
}
