package api

import (
	"bytes"
	"context"

	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/jrsteele09/go-cowork-client/internal/utils"
)

type ProfileService struct {
	c *client
}

func (s *ProfileService) Get(ctx context.Context) (*User, error) {
	user, err := getInto[User](ctx, s.c, EndpointProfile, nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update sends the changed fields. With an avatar the request goes out as
// multipart/form-data, otherwise as JSON.
func (s *ProfileService) Update(ctx context.Context, update ProfileUpdate, avatar *Avatar) (*gateway.Response, error) {
	if avatar == nil {
		return s.c.gw.Put(ctx, EndpointProfile, update)
	}
	fields := map[string]string{}
	for key, value := range map[string]*string{
		"name":    update.Name,
		"phone":   update.Phone,
		"company": update.Company,
	} {
		if value != nil {
			fields[key] = utils.Value(value)
		}
	}
	// many backends only parse multipart on POST
	fields["_method"] = "PUT"
	return s.c.gw.Post(ctx, EndpointProfile, &gateway.Multipart{
		Fields: fields,
		Files: []gateway.File{{
			Field:       "avatar",
			Name:        utils.FirstNonEmpty(avatar.Filename, "avatar.jpg"),
			ContentType: utils.FirstNonEmpty(avatar.ContentType, "image/jpeg"),
			Content:     bytes.NewReader(avatar.Content),
		}},
	})
}
