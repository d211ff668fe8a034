package api

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-cowork-client/gateway"
)

type DayPassService struct {
	c *client
}

// Check reports availability and price for date (YYYY-MM-DD).
func (s *DayPassService) Check(ctx context.Context, date string) (*DayPassCheck, error) {
	check, err := getInto[DayPassCheck](ctx, s.c, EndpointDayPassCheck, url.Values{"date": {date}})
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (s *DayPassService) Purchase(ctx context.Context, req DayPassPurchase) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, EndpointDayPassPurchase, req)
}

func (s *DayPassService) List(ctx context.Context) ([]DayPass, error) {
	return getInto[[]DayPass](ctx, s.c, EndpointDayPasses, nil)
}
