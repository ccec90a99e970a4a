// Package service exposes one typed module per backend resource. Every
// function goes through the shared client pipeline, returns the decoded
// payload without transport wrapping and propagates errors unchanged.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/download"
	"github.com/getkayan/medgas/session"
	"github.com/tidwall/gjson"
)

// ErrInvalidID is returned before any network call when an id is not a
// positive integer.
var ErrInvalidID = errors.New("service: invalid resource id")

// Message is the {"mensaje": "..."} acknowledgement returned by actions.
type Message struct {
	Mensaje string `json:"mensaje"`
}

// Services groups the resource modules.
type Services struct {
	Auth         *AuthService
	Users        *UsersService
	Hospitals    *HospitalsService
	Gases        *GasesService
	Consumptions *ConsumptionsService
	Reports      *ReportsService
	Audit        *AuditService
}

// New builds every module on top of c. Reports save downloads with saver.
func New(c *client.Client, store *session.Store, saver *download.Saver) *Services {
	return &Services{
		Auth:         &AuthService{c: c, store: store},
		Users:        &UsersService{Resource: NewResource[domain.User](c, "/usuarios")},
		Hospitals:    &HospitalsService{Resource: NewResource[domain.Hospital](c, "/hospitales")},
		Gases:        &GasesService{Resource: NewResource[domain.Gas](c, "/gases")},
		Consumptions: &ConsumptionsService{Resource: NewResource[domain.Consumption](c, "/consumos")},
		Reports:      &ReportsService{c: c, saver: saver, now: time.Now},
		Audit:        &AuditService{c: c},
	}
}

func itemPath(base string, id int) (string, error) {
	if id <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return fmt.Sprintf("%s/%d", base, id), nil
}

// unwrapList accepts either a bare array or an object carrying the array
// under items, data or results.
func unwrapList[T any](raw json.RawMessage) ([]T, error) {
	body := []byte(raw)
	if r := gjson.ParseBytes(body); r.IsObject() {
		for _, key := range []string{"items", "data", "results"} {
			if v := r.Get(key); v.IsArray() {
				body = []byte(v.Raw)
				break
			}
		}
	}

	out := []T{}
	if len(body) == 0 || string(body) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("service: decode list: %w", err)
	}
	return out, nil
}

// unwrapOne accepts a bare object or {"data": {...}}.
func unwrapOne[T any](raw json.RawMessage) (*T, error) {
	body := []byte(raw)
	if r := gjson.ParseBytes(body); r.IsObject() && !r.Get("id").Exists() {
		if v := r.Get("data"); v.IsObject() {
			body = []byte(v.Raw)
		}
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("service: decode: %w", err)
	}
	return &out, nil
}
