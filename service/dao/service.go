package dao

import (
	"context"
)

// Service is a generic persistence contract shared by all entity stores.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Parameter narrows a List call by a named attribute.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a list parameter. A single value is stored as string,
// multiple values as a string slice.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
