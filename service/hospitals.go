package service

import (
	"context"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
)

// HospitalsService manages facilities (/hospitales).
type HospitalsService struct {
	*Resource[domain.Hospital]
}

// Statistics returns consumption statistics for one hospital.
func (s *HospitalsService) Statistics(ctx context.Context, id int, params client.Params) (map[string]any, error) {
	path, err := itemPath(s.base, id)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := s.c.Get(ctx, path+"/estadisticas", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Departments lists the distinct departments of registered hospitals.
func (s *HospitalsService) Departments(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := s.c.Get(ctx, s.base+"/departamentos", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
