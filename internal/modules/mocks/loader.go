package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shadowbench/internal/modules"
)

// Loader mock
type Loader struct {
	mock.Mock
}

// Load provides a mock function with given fields: ctx, m
func (_m *Loader) Load(ctx context.Context, m modules.Module) error {
	ret := _m.Called(ctx, m)
	return ret.Error(0)
}

// Unload provides a mock function with given fields: ctx, name
func (_m *Loader) Unload(ctx context.Context, name string) error {
	ret := _m.Called(ctx, name)
	return ret.Error(0)
}
