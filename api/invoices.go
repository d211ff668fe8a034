package api

import "context"

type InvoiceService struct {
	c *client
}

func (s *InvoiceService) List(ctx context.Context, page Page) ([]Invoice, error) {
	return getInto[[]Invoice](ctx, s.c, EndpointInvoices, page.values())
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*Invoice, error) {
	invoice, err := getInto[Invoice](ctx, s.c, resource(EndpointInvoices, id), nil)
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
