// Package session runs a complete fault injection session: modules up, trials
// replayed, results persisted, modules down.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"shadowbench/internal/benchmark"
	"shadowbench/internal/core"
	"shadowbench/internal/modules"
	"shadowbench/internal/ratelimit"
	"shadowbench/internal/report"
	"shadowbench/internal/trial"
)

// Options configures a session. Loader nil skips module handling entirely.
type Options struct {
	// Connect opens the target once the modules are ready.
	Connect func(ctx context.Context) (Target, error)

	Loader       modules.Loader
	Modules      modules.Set
	ReadyPath    string
	ReadyTimeout time.Duration

	// CheckPrivileges runs before anything is loaded. Nil skips the check.
	CheckPrivileges func() error

	Table    benchmark.Table
	Limiter  *ratelimit.RateLimiter
	Simulate bool

	ResultsPath string // empty skips persisting
	Format      report.Format
	Observers   []func(trial.Event)

	Log   logrus.FieldLogger
	Clock core.Clock
}

// Result describes a finished or aborted session.
type Result struct {
	ID        string
	Started   time.Time
	Submitted int
	Records   []core.TrialRecord
	Report    string // text report as read back from the target
}

// Run executes the session. Modules are unloaded and the target disabled on
// every path once they were set up. When the abort happens after trials
// began, the partial results are still persisted and returned alongside the
// error.
func Run(ctx context.Context, opts Options) (res *Result, err error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = core.RealClock{}
	}
	table := opts.Table
	if table == nil {
		table = benchmark.Default()
	}
	format := opts.Format
	if format == "" {
		format = report.Text
	}

	res = &Result{ID: uuid.NewString(), Started: clock.Now()}
	log = log.WithField("session", res.ID)

	if opts.CheckPrivileges != nil {
		if err := opts.CheckPrivileges(); err != nil {
			return res, err
		}
	}

	if opts.Loader != nil {
		if err := modules.LoadAll(ctx, opts.Loader, opts.Modules, log); err != nil {
			return res, err
		}
		defer func() {
			// Cleanup must run even when ctx is already cancelled.
			if uerr := modules.UnloadAll(context.WithoutCancel(ctx), opts.Loader, opts.Modules, log); uerr != nil {
				log.WithError(uerr).Warn("module cleanup incomplete")
			}
		}()

		if opts.ReadyPath != "" {
			if err := modules.WaitReady(ctx, opts.ReadyPath, opts.ReadyTimeout); err != nil {
				return res, err
			}
		}
	}

	target, err := opts.Connect(ctx)
	if err != nil {
		return res, fmt.Errorf("connecting to controller: %w", err)
	}
	defer target.Close()

	if err := target.Enable(ctx); err != nil {
		return res, fmt.Errorf("enabling fault injection: %w", err)
	}
	defer func() {
		if derr := target.Disable(context.WithoutCancel(ctx)); derr != nil {
			log.WithError(derr).Warn("disabling fault injection failed")
		}
	}()

	if err := target.Reset(ctx); err != nil {
		return res, fmt.Errorf("resetting results: %w", err)
	}
	log.WithField("trials", table.Trials()).Info("session started")

	var runErr error
	if opts.Simulate {
		runErr = target.Simulate(ctx)
	} else {
		driver := trial.NewDriver(target, opts.Limiter, log)
		res.Submitted, runErr = driver.Run(ctx, table, opts.Observers...)
	}

	if runErr != nil && res.Submitted == 0 && !opts.Simulate {
		return res, runErr
	}

	if err := collect(context.WithoutCancel(ctx), target, res, opts.ResultsPath, format); err != nil {
		return res, errors.Join(runErr, err)
	}
	if runErr != nil {
		log.WithField("submitted", res.Submitted).Warn("partial results persisted")
		return res, runErr
	}

	log.WithField("submitted", res.Submitted).Info("session complete")
	return res, nil
}

// collect reads the results back from the target and persists them.
func collect(ctx context.Context, target Target, res *Result, path string, format report.Format) error {
	text, err := target.Results(ctx)
	if err != nil {
		return fmt.Errorf("reading results: %w", err)
	}
	res.Report = text

	records, err := report.Parse(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("parsing results: %w", err)
	}
	res.Records = records
	if res.Submitted == 0 {
		for _, r := range records {
			res.Submitted += r.Total()
		}
	}

	if path == "" {
		return nil
	}
	return WriteResults(path, res, format)
}

// WriteResults writes the session preamble followed by the results in
// format. Structured formats are written without a preamble so they stay
// machine-readable.
func WriteResults(path string, res *Result, format report.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	if format == report.Text {
		fmt.Fprintf(f, "Session: %s\n", res.ID)
		fmt.Fprintf(f, "Started: %s\n", res.Started.UTC().Format(time.RFC3339))
		fmt.Fprintf(f, "Submitted: %d\n\n", res.Submitted)
	}
	if err := report.Write(f, format, res.Records); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return f.Close()
}
