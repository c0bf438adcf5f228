// Package modules loads and unloads the kernel components a fault injection
// run depends on and waits for them to become ready.
package modules

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"shadowbench/internal/config"
	"shadowbench/internal/core"
)

// Module is one loadable kernel component.
type Module struct {
	Name   string
	Path   string
	Params string // opaque, passed through at load time
}

// Set is an ordered list of modules. LoadAll loads front to back and
// UnloadAll unloads back to front.
type Set []Module

// Loader loads and unloads modules.
type Loader interface {
	Load(ctx context.Context, m Module) error
	Unload(ctx context.Context, name string) error
}

// NewModule builds a Module from an object file path; the name is the file
// name without its .ko suffix.
func NewModule(path, params string) Module {
	return Module{
		Name:   strings.TrimSuffix(filepath.Base(path), ".ko"),
		Path:   path,
		Params: params,
	}
}

// FromConfig returns the recovery evaluator, fault injector and network
// shadow modules, in that order. The network shadow receives the device name.
func FromConfig(cfg config.ModulesConfig) Set {
	path := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(cfg.Dir, name)
	}
	var params string
	if cfg.Device != "" {
		params = "device=" + cfg.Device
	}
	return Set{
		NewModule(path(cfg.Recovery), ""),
		NewModule(path(cfg.FaultInjection), ""),
		NewModule(path(cfg.NetworkShadow), params),
	}
}

// LoadAll loads set in order. If a load fails, the modules loaded so far are
// unloaded in reverse and the returned error wraps core.ErrModuleUnavailable.
func LoadAll(ctx context.Context, l Loader, set Set, log logrus.FieldLogger) error {
	for i, m := range set {
		log.WithFields(logrus.Fields{"module": m.Name, "path": m.Path}).Info("loading module")
		if err := l.Load(ctx, m); err != nil {
			loadErr := fmt.Errorf("%w: loading %s: %w", core.ErrModuleUnavailable, m.Name, err)
			return errors.Join(loadErr, UnloadAll(ctx, l, set[:i], log))
		}
	}
	return nil
}

// UnloadAll unloads set in reverse order. It keeps going after a failure and
// returns every failure joined.
func UnloadAll(ctx context.Context, l Loader, set Set, log logrus.FieldLogger) error {
	var errs []error
	for i := len(set) - 1; i >= 0; i-- {
		m := set[i]
		if err := l.Unload(ctx, m.Name); err != nil {
			log.WithField("module", m.Name).WithError(err).Warn("unloading module failed")
			errs = append(errs, fmt.Errorf("unloading %s: %w", m.Name, err))
			continue
		}
		log.WithField("module", m.Name).Info("module unloaded")
	}
	return errors.Join(errs...)
}
