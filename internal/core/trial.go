package core

import (
	"fmt"
	"strings"
	"unicode"
)

// TrialKey identifies one benchmarked (driver, application) scenario.
// Matching is exact and case-sensitive.
type TrialKey struct {
	Driver      string
	Application string
}

func (k TrialKey) String() string {
	return k.Driver + "/" + k.Application
}

// Validate rejects keys the command channel or the report cannot carry:
// empty names, whitespace (command tokens), '|' (report columns) and '/' in
// the driver (the report key is driver/application).
func (k TrialKey) Validate() error {
	if k.Driver == "" || k.Application == "" {
		return fmt.Errorf("%w: driver and application must be non-empty", ErrInvalidKey)
	}
	if strings.IndexFunc(k.Driver, unicode.IsSpace) >= 0 || strings.IndexFunc(k.Application, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidKey, k.String())
	}
	if strings.Contains(k.Driver, "|") || strings.Contains(k.Application, "|") {
		return fmt.Errorf("%w: %q contains '|'", ErrInvalidKey, k.String())
	}
	if strings.Contains(k.Driver, "/") {
		return fmt.Errorf("%w: driver %q contains '/'", ErrInvalidKey, k.Driver)
	}
	return nil
}

// TrialRecord holds the outcome tallies for one TrialKey.
type TrialRecord struct {
	Key       TrialKey
	Automatic int
	Manual    int
	Failed    int
}

// Total is the number of recorded trials across all outcome kinds.
func (r TrialRecord) Total() int {
	return r.Automatic + r.Manual + r.Failed
}

// Count returns the counter for kind.
func (r TrialRecord) Count(kind OutcomeKind) int {
	switch kind {
	case AutomaticRecovery:
		return r.Automatic
	case ManualRecovery:
		return r.Manual
	case FailedRecovery:
		return r.Failed
	}
	return 0
}

// Percent returns the share of kind in whole percent, rounded half up.
func (r TrialRecord) Percent(kind OutcomeKind) int {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return (r.Count(kind)*200 + total) / (2 * total)
}
