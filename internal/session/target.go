package session

import (
	"context"

	"shadowbench/internal/controller"
	"shadowbench/internal/core"
)

// Target is the fault controller a session drives, either in this process or
// behind a command channel.
type Target interface {
	core.Recorder
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	Reset(ctx context.Context) error
	Simulate(ctx context.Context) error
	Results(ctx context.Context) (string, error)
	Close() error
}

// Local adapts an in-process controller to Target. Close does not stop it.
func Local(c *controller.Controller) Target {
	return localTarget{c}
}

type localTarget struct {
	*controller.Controller
}

func (t localTarget) Enable(context.Context) error   { return t.Controller.Enable() }
func (t localTarget) Disable(context.Context) error  { return t.Controller.Disable() }
func (t localTarget) Reset(context.Context) error    { return t.Controller.Reset() }
func (t localTarget) Simulate(context.Context) error { return t.Controller.Simulate() }

func (t localTarget) Results(context.Context) (string, error) {
	return t.Controller.ReadResults(), nil
}

func (t localTarget) Close() error { return nil }
