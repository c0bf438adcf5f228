//go:build linux

package modules

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"shadowbench/internal/core"
)

var geteuid = unix.Geteuid

// ErrPermission is returned by RequireRoot for unprivileged callers.
var ErrPermission = fmt.Errorf("%w: root privileges required", core.ErrModuleUnavailable)

// RequireRoot fails unless the process runs with an effective uid of 0.
func RequireRoot() error {
	if geteuid() != 0 {
		return ErrPermission
	}
	return nil
}

// KernelLoader loads modules with finit_module(2) and removes them with
// delete_module(2).
type KernelLoader struct{}

func (KernelLoader) Load(_ context.Context, m Module) error {
	f, err := os.Open(m.Path)
	if err != nil {
		return fmt.Errorf("opening module: %w", err)
	}
	defer f.Close()

	if err := unix.FinitModule(int(f.Fd()), m.Params, 0); err != nil {
		if errors.Is(err, unix.EEXIST) {
			return nil
		}
		return fmt.Errorf("finit_module %s: %w", m.Path, err)
	}
	return nil
}

func (KernelLoader) Unload(_ context.Context, name string) error {
	if err := unix.DeleteModule(name, unix.O_NONBLOCK); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return nil
		}
		return fmt.Errorf("delete_module %s: %w", name, err)
	}
	return nil
}
