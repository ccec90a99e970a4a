package service

import (
	"context"
	"encoding/json"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
)

// AuditService reads the backend audit trail (/auditoria). Admin only.
type AuditService struct {
	c *client.Client
}

// List accepts skip, limit, usuario_id, accion, fecha_inicio and fecha_fin.
func (s *AuditService) List(ctx context.Context, params client.Params) ([]domain.AuditEntry, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/auditoria/", params, &raw); err != nil {
		return nil, err
	}
	return unwrapList[domain.AuditEntry](raw)
}

func (s *AuditService) Statistics(ctx context.Context, params client.Params) (map[string]any, error) {
	out := map[string]any{}
	if err := s.c.Get(ctx, "/auditoria/estadisticas", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Actions lists the distinct action names present in the trail.
func (s *AuditService) Actions(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := s.c.Get(ctx, "/auditoria/acciones", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Purge deletes entries older than dias_antiguedad days (server default 90).
func (s *AuditService) Purge(ctx context.Context, params client.Params) (map[string]any, error) {
	out := map[string]any{}
	if err := s.c.Delete(ctx, "/auditoria/limpiar", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}
