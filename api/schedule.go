package api

import "context"

type ScheduleService struct {
	c *client
}

func (s *ScheduleService) Today(ctx context.Context) ([]ScheduleEntry, error) {
	return getInto[[]ScheduleEntry](ctx, s.c, EndpointScheduleToday, nil)
}
