//go:build !linux

package modules

import (
	"context"
	"fmt"

	"shadowbench/internal/core"
)

// ErrPermission is returned by RequireRoot for unprivileged callers.
var ErrPermission = fmt.Errorf("%w: root privileges required", core.ErrModuleUnavailable)

// RequireRoot always fails: kernel modules are only supported on linux.
func RequireRoot() error {
	return ErrPermission
}

// KernelLoader is unavailable outside linux.
type KernelLoader struct{}

func (KernelLoader) Load(context.Context, Module) error {
	return fmt.Errorf("%w: kernel modules require linux", core.ErrModuleUnavailable)
}

func (KernelLoader) Unload(context.Context, string) error {
	return fmt.Errorf("%w: kernel modules require linux", core.ErrModuleUnavailable)
}
