package controller

import (
	"context"
	"fmt"
	"strings"

	"shadowbench/internal/core"
)

// Command verbs accepted on the textual command channel.
const (
	CmdEnable   = "enable"
	CmdDisable  = "disable"
	CmdReset    = "reset_results"
	CmdRecord   = "record"
	CmdSimulate = "simulate_results"
)

const recordUsage = "record <driver> <application> <1|2|3>"

// Dispatch executes one command line. Tokens are separated by whitespace;
// blank lines are ignored.
func (c *Controller) Dispatch(_ context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	verb, args := fields[0], fields[1:]
	if verb != CmdRecord && len(args) != 0 {
		return fmt.Errorf("%w: %s takes no arguments", core.ErrUnknownCommand, verb)
	}

	switch verb {
	case CmdEnable:
		return c.Enable()
	case CmdDisable:
		return c.Disable()
	case CmdReset:
		return c.Reset()
	case CmdSimulate:
		return c.Simulate()
	case CmdRecord:
		if len(args) != 3 {
			return fmt.Errorf("%w: usage: %s", core.ErrUnknownCommand, recordUsage)
		}
		kind, err := core.ParseOutcomeToken(args[2])
		return c.submit(core.TrialKey{Driver: args[0], Application: args[1]}, kind, err)
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownCommand, verb)
	}
}

// FormatRecord builds the command line that submits one trial.
func FormatRecord(driver, application string, kind core.OutcomeKind) string {
	return fmt.Sprintf("%s %s %s %d", CmdRecord, driver, application, kind.Code())
}
