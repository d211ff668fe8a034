package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-cowork-client/gateway"
)

type NotificationService struct {
	c *client
}

func (s *NotificationService) List(ctx context.Context, page Page) ([]Notification, error) {
	return getInto[[]Notification](ctx, s.c, EndpointNotifications, page.values())
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	count, err := getInto[UnreadCount](ctx, s.c, EndpointNotificationsUnreadCount, nil)
	if err != nil {
		return 0, err
	}
	return count.Count, nil
}

// Recent returns the latest limit notifications; limit <= 0 uses the
// backend default.
func (s *NotificationService) Recent(ctx context.Context, limit int) ([]Notification, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	return getInto[[]Notification](ctx, s.c, EndpointNotificationsRecent, query)
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, resource(EndpointNotifications, id, "read"), nil)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (*gateway.Response, error) {
	return s.c.gw.Post(ctx, EndpointNotificationsMarkAllRead, nil)
}

func (s *NotificationService) Delete(ctx context.Context, id string) (*gateway.Response, error) {
	return s.c.gw.Delete(ctx, resource(EndpointNotifications, id))
}

func (s *NotificationService) ClearRead(ctx context.Context) (*gateway.Response, error) {
	return s.c.gw.Delete(ctx, EndpointNotificationsClearRead)
}
