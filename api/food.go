package api

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-cowork-client/gateway"
)

type FoodService struct {
	c *client
}

func (s *FoodService) Items(ctx context.Context, category string) ([]FoodItem, error) {
	var query url.Values
	if category != "" {
		query = url.Values{"category": {category}}
	}
	return getInto[[]FoodItem](ctx, s.c, EndpointFoodItems, query)
}

func (s *FoodService) Item(ctx context.Context, id string) (*FoodItem, error) {
	item, err := getInto[FoodItem](ctx, s.c, resource(EndpointFoodItems, id), nil)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *FoodService) Orders(ctx context.Context, page Page) ([]FoodOrder, error) {
	return getInto[[]FoodOrder](ctx, s.c, EndpointFoodOrders, page.values())
}

func (s *FoodService) Order(ctx context.Context, id string) (*FoodOrder, error) {
	order, err := getInto[FoodOrder](ctx, s.c, resource(EndpointFoodOrders, id), nil)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *FoodService) CreateOrder(ctx context.Context, req FoodOrderRequest) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, EndpointFoodOrders, req)
}

func (s *FoodService) CancelOrder(ctx context.Context, id string) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, resource(EndpointFoodOrders, id, "cancel"), nil)
}
