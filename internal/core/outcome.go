package core

import (
	"fmt"
	"strconv"
)

// OutcomeKind classifies how a single injected fault was resolved.
type OutcomeKind int

const (
	AutomaticRecovery OutcomeKind = iota + 1
	ManualRecovery
	FailedRecovery
)

// OutcomeKinds lists every kind in report column order.
var OutcomeKinds = [...]OutcomeKind{AutomaticRecovery, ManualRecovery, FailedRecovery}

// Valid reports whether k is one of the three defined kinds.
func (k OutcomeKind) Valid() bool {
	return k >= AutomaticRecovery && k <= FailedRecovery
}

// Code returns the wire code (1, 2 or 3) used on the command channel.
func (k OutcomeKind) Code() int {
	return int(k)
}

func (k OutcomeKind) String() string {
	switch k {
	case AutomaticRecovery:
		return "automatic"
	case ManualRecovery:
		return "manual"
	case FailedRecovery:
		return "failed"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseOutcomeCode converts a wire code into an OutcomeKind.
func ParseOutcomeCode(code int) (OutcomeKind, error) {
	k := OutcomeKind(code)
	if !k.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOutcomeCode, code)
	}
	return k, nil
}

// ParseOutcomeToken converts a textual wire code ("1", "2", "3") into an OutcomeKind.
func ParseOutcomeToken(token string) (OutcomeKind, error) {
	code, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOutcomeCode, token)
	}
	return ParseOutcomeCode(code)
}
