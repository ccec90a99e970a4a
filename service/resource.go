package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/getkayan/medgas/client"
)

// Resource implements the CRUD contract shared by every module.
type Resource[T any] struct {
	c    *client.Client
	base string
}

func NewResource[T any](c *client.Client, base string) *Resource[T] {
	return &Resource[T]{c: c, base: base}
}

// List returns the resources matching params; absent keys are not sent.
func (r *Resource[T]) List(ctx context.Context, params client.Params) ([]T, error) {
	var raw json.RawMessage
	if err := r.c.Get(ctx, r.base+"/", params, &raw); err != nil {
		return nil, err
	}
	return unwrapList[T](raw)
}

func (r *Resource[T]) Get(ctx context.Context, id int) (*T, error) {
	path, err := itemPath(r.base, id)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return unwrapOne[T](raw)
}

// Create posts payload, any JSON-encodable value.
func (r *Resource[T]) Create(ctx context.Context, payload any) (*T, error) {
	var raw json.RawMessage
	if err := r.c.Post(ctx, r.base+"/", payload, nil, &raw); err != nil {
		return nil, err
	}
	return unwrapOne[T](raw)
}

func (r *Resource[T]) Update(ctx context.Context, id int, payload any) (*T, error) {
	path, err := itemPath(r.base, id)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := r.c.Put(ctx, path, payload, nil, &raw); err != nil {
		return nil, err
	}
	return unwrapOne[T](raw)
}

func (r *Resource[T]) Delete(ctx context.Context, id int) (*Message, error) {
	return r.action(ctx, http.MethodDelete, id, "", nil)
}

// action calls <base>/<id>[/<suffix>] and decodes the acknowledgement.
func (r *Resource[T]) action(ctx context.Context, method string, id int, suffix string, params client.Params) (*Message, error) {
	path, err := itemPath(r.base, id)
	if err != nil {
		return nil, err
	}
	if suffix != "" {
		path += "/" + suffix
	}
	var msg Message
	if err := r.c.Call(ctx, &client.Request{Method: method, Path: path, Params: params}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
