package api

import "context"

type WalletService struct {
	c *client
}

func (s *WalletService) Balance(ctx context.Context) (*WalletBalance, error) {
	balance, err := getInto[WalletBalance](ctx, s.c, EndpointWalletBalance, nil)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *WalletService) Transactions(ctx context.Context, page Page) ([]Transaction, error) {
	return getInto[[]Transaction](ctx, s.c, EndpointWalletTransactions, page.values())
}
