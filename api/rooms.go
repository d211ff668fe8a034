package api

import (
	"context"
	"net/url"
	"strconv"
)

type RoomsService struct {
	c *client
}

func (s *RoomsService) List(ctx context.Context) ([]Room, error) {
	return getInto[[]Room](ctx, s.c, EndpointRooms, nil)
}

func (s *RoomsService) Available(ctx context.Context, q AvailabilityQuery) ([]Room, error) {
	query := url.Values{}
	if q.Date != "" {
		query.Set("date", q.Date)
	}
	if q.StartTime != "" {
		query.Set("start_time", q.StartTime)
	}
	if q.EndTime != "" {
		query.Set("end_time", q.EndTime)
	}
	if q.Capacity > 0 {
		query.Set("capacity", strconv.Itoa(q.Capacity))
	}
	return getInto[[]Room](ctx, s.c, EndpointRoomsAvailable, query)
}

func (s *RoomsService) Get(ctx context.Context, id string) (*Room, error) {
	room, err := getInto[Room](ctx, s.c, resource(EndpointRooms, id), nil)
	if err != nil {
		return nil, err
	}
	return &room, nil
}
