// Package controller implements the fault controller: the enable/disable
// state machine that gates trial submissions into the results store.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"shadowbench/internal/benchmark"
	"shadowbench/internal/core"
	"shadowbench/internal/report"
	"shadowbench/internal/store"
)

// State is the fault injection state.
type State int

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// errStopped is returned for any command issued outside Start/Stop.
var errStopped = fmt.Errorf("%w: controller not running", core.ErrModuleUnavailable)

// Controller owns the results store and serializes every state transition,
// submission and reset. Commands are accepted between Start and Stop.
type Controller struct {
	mu      sync.Mutex
	state   State
	store   *store.Store
	running bool
	stopped bool
	ready   chan struct{}

	simulation benchmark.Table
	log        logrus.FieldLogger
	metrics    *metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

// WithRegistry registers the controller's metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(c *Controller) { c.metrics = newMetrics(reg) }
}

// WithSimulationTable replaces the dataset used by Simulate.
func WithSimulationTable(t benchmark.Table) Option {
	return func(c *Controller) { c.simulation = t }
}

// New creates a stopped controller in the Disabled state with an empty store.
func New(opts ...Option) *Controller {
	c := &Controller{
		state:      Disabled,
		store:      store.New(),
		ready:      make(chan struct{}),
		simulation: benchmark.Default(),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newMetrics(nil)
	}
	return c
}

// Start makes the controller accept commands and closes the Ready channel.
// A stopped controller cannot be restarted.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return errStopped
	}
	if c.running {
		return nil
	}
	c.running = true
	close(c.ready)
	c.log.Info("fault controller started")
	return nil
}

// Stop disables fault injection and rejects every later command. The store
// stays readable through Snapshot.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.running = false
	c.setState(Disabled)
	c.log.Info("fault controller stopped")
}

// Ready is closed once the controller accepts commands.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// State returns the current fault injection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enable turns fault injection on. Enabling twice is a no-op.
func (c *Controller) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errStopped
	}
	c.setState(Enabled)
	return nil
}

// Disable turns fault injection off. The store is not touched.
func (c *Controller) Disable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errStopped
	}
	c.setState(Disabled)
	return nil
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if s == Enabled {
		c.metrics.enabled.Set(1)
	} else {
		c.metrics.enabled.Set(0)
	}
	c.log.WithField("state", s).Info("fault injection state changed")
}

// Reset empties the store in either state.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errStopped
	}
	c.store.Reset()
	c.metrics.resets.Inc()
	c.log.Info("results reset")
	return nil
}

// Record submits one trial outcome. It fails with core.ErrNotEnabled while
// disabled, leaving the store unmodified.
func (c *Controller) Record(_ context.Context, driver, application string, kind core.OutcomeKind) error {
	var kindErr error
	if !kind.Valid() {
		kindErr = fmt.Errorf("%w: %d", core.ErrInvalidOutcomeCode, kind.Code())
	}
	return c.submit(core.TrialKey{Driver: driver, Application: application}, kind, kindErr)
}

// RecordCode submits one trial outcome given its wire code (1, 2 or 3).
func (c *Controller) RecordCode(_ context.Context, driver, application string, code int) error {
	kind, err := core.ParseOutcomeCode(code)
	return c.submit(core.TrialKey{Driver: driver, Application: application}, kind, err)
}

// submit applies a single increment. The enabled check comes before outcome
// validation so a disabled controller always answers ErrNotEnabled.
func (c *Controller) submit(key core.TrialKey, kind core.OutcomeKind, kindErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch {
	case !c.running:
		err = errStopped
	case c.state != Enabled:
		err = core.ErrNotEnabled
	case kindErr != nil:
		err = kindErr
	default:
		err = key.Validate()
	}
	if err != nil {
		c.metrics.rejected.WithLabelValues(rejectReason(err)).Inc()
		c.log.WithFields(logrus.Fields{
			"driver":      key.Driver,
			"application": key.Application,
		}).WithError(err).Debug("trial rejected")
		return err
	}

	c.store.Increment(key, kind)
	c.metrics.recorded.WithLabelValues(key.Driver, key.Application, kind.String()).Inc()
	return nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, core.ErrNotEnabled):
		return "not_enabled"
	case errors.Is(err, core.ErrInvalidOutcomeCode):
		return "invalid_outcome"
	case errors.Is(err, core.ErrInvalidKey):
		return "invalid_key"
	default:
		return "unavailable"
	}
}

// Simulate fills the store with the simulation table in one critical
// section, applying one increment per trial in replay order: automatic,
// then manual, then failed, entries in table order. It works in either
// state and does not reset first.
func (c *Controller) Simulate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return errStopped
	}
	for _, e := range c.simulation {
		key := e.Key()
		for _, kind := range core.OutcomeKinds {
			n := e.Count(kind)
			for i := 0; i < n; i++ {
				c.store.Increment(key, kind)
			}
			if n > 0 {
				c.metrics.recorded.WithLabelValues(key.Driver, key.Application, kind.String()).Add(float64(n))
			}
		}
	}
	c.log.WithField("trials", c.simulation.Trials()).Info("simulated results loaded")
	return nil
}

// Snapshot returns a consistent copy of every record in first-seen order.
func (c *Controller) Snapshot() []core.TrialRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// ReadResults renders the current results; the read side of the command
// channel.
func (c *Controller) ReadResults() string {
	return report.RenderString(c.Snapshot())
}
