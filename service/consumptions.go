package service

import (
	"context"
	"net/http"

	"github.com/getkayan/medgas/domain"
)

// ConsumptionsService manages consumption records (/consumos).
type ConsumptionsService struct {
	*Resource[domain.Consumption]
}

// Validate marks a record as validated by the current administrator.
func (s *ConsumptionsService) Validate(ctx context.Context, id int) (*Message, error) {
	return s.action(ctx, http.MethodPost, id, "validar", nil)
}
