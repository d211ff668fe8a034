package api

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-cowork-client/gateway"
)

type BookingsService struct {
	c *client
}

// List returns the member's bookings, optionally filtered by status
// ("upcoming", "past", "cancelled").
func (s *BookingsService) List(ctx context.Context, status string) ([]Booking, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	return getInto[[]Booking](ctx, s.c, EndpointBookings, query)
}

// Create books a room. A 409 (slot taken) or 422 (invalid slot) comes back as
// a Response, not an error.
func (s *BookingsService) Create(ctx context.Context, req BookingRequest) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, EndpointBookings, req)
}

func (s *BookingsService) Get(ctx context.Context, id string) (*Booking, error) {
	booking, err := getInto[Booking](ctx, s.c, resource(EndpointBookings, id), nil)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *BookingsService) Cancel(ctx context.Context, id string) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, resource(EndpointBookings, id, "cancel"), nil)
}

// Reschedule moves a booking through the update endpoint.
func (s *BookingsService) Reschedule(ctx context.Context, id string, req RescheduleRequest) (*gateway.Response, error) {
	return s.c.gw.Put(ctx, resource(EndpointBookings, id), req)
}
