// Package core defines the fundamental types and interfaces for shadowbench.
package core

import "context"

// Recorder accepts single trial outcomes. The in-process controller and the
// command channel client both satisfy it.
type Recorder interface {
	Record(ctx context.Context, driver, application string, kind OutcomeKind) error
}
