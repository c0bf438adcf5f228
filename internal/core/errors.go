package core

import "errors"

var (
	// ErrNotEnabled is returned when a trial is submitted while fault
	// injection is disabled.
	ErrNotEnabled = errors.New("fault injection not enabled")

	// ErrInvalidOutcomeCode is returned for outcome codes outside {1,2,3}.
	ErrInvalidOutcomeCode = errors.New("invalid outcome code")

	// ErrModuleUnavailable covers load/unload failures and a command channel
	// that is not (or no longer) ready.
	ErrModuleUnavailable = errors.New("module unavailable")

	// ErrInvalidKey is returned for empty or whitespace-containing driver or
	// application names.
	ErrInvalidKey = errors.New("invalid trial key")

	// ErrUnknownCommand is returned for unrecognized or malformed command lines.
	ErrUnknownCommand = errors.New("unknown command")
)
