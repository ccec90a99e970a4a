package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
)

// UsersService manages console accounts (/usuarios).
type UsersService struct {
	*Resource[domain.User]
}

// ChangePassword sends the new password as the new_password query parameter.
func (s *UsersService) ChangePassword(ctx context.Context, id int, newPassword string) (*Message, error) {
	return s.action(ctx, http.MethodPost, id, "change-password", client.Params{"new_password": newPassword})
}

// Me returns the profile behind the current token.
func (s *UsersService) Me(ctx context.Context) (*domain.User, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, s.base+"/me", nil, &raw); err != nil {
		return nil, err
	}
	return unwrapOne[domain.User](raw)
}
