// Package trial replays benchmark tables as single-trial submissions.
package trial

import (
	"context"
	"fmt"
	"iter"

	"github.com/sirupsen/logrus"

	"shadowbench/internal/benchmark"
	"shadowbench/internal/core"
	"shadowbench/internal/ratelimit"
)

// Event reports one successful submission.
type Event struct {
	Seq   int // 1-based position in the replay
	Total int // submissions the full replay performs
	Key   core.TrialKey
	Kind  core.OutcomeKind
}

// SubmissionError identifies the submission that aborted a replay.
type SubmissionError struct {
	Seq     int
	Key     core.TrialKey
	Kind    core.OutcomeKind
	Attempt int // 1-based within the entry's outcome group
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission %d (%s %s #%d): %v", e.Seq, e.Key, e.Kind, e.Attempt, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Driver submits trials to a Recorder, one at a time, pacing each
// submission with a RateLimiter.
type Driver struct {
	recorder core.Recorder
	limiter  *ratelimit.RateLimiter
	log      logrus.FieldLogger
}

// NewDriver creates a Driver. A nil limiter disables pacing.
func NewDriver(recorder core.Recorder, limiter *ratelimit.RateLimiter, log logrus.FieldLogger) *Driver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{
		recorder: recorder,
		limiter:  limiter,
		log:      log,
	}
}

// Steps returns the replay of table as a lazy sequence. Nothing is submitted
// until the sequence is iterated; each iteration step performs one paced
// submission and yields its Event. Entries are replayed in table order and,
// within an entry, all automatic trials precede the manual ones, which
// precede the failed ones.
//
// The first failure is yielded as a *SubmissionError (or the validation
// error for a bad table) and ends the sequence. Stopping the iteration early
// stops the replay; trials already submitted stay recorded.
func (d *Driver) Steps(ctx context.Context, table benchmark.Table) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if err := table.Validate(); err != nil {
			yield(Event{}, err)
			return
		}

		total := table.Trials()
		seq := 0
		for _, entry := range table {
			key := entry.Key()
			for _, kind := range core.OutcomeKinds {
				for attempt := 1; attempt <= entry.Count(kind); attempt++ {
					seq++
					if err := d.submit(ctx, key, kind); err != nil {
						yield(Event{}, &SubmissionError{Seq: seq, Key: key, Kind: kind, Attempt: attempt, Err: err})
						return
					}
					if !yield(Event{Seq: seq, Total: total, Key: key, Kind: kind}, nil) {
						return
					}
				}
			}
		}
	}
}

// submit waits for the limiter outside any controller lock, then records.
func (d *Driver) submit(ctx context.Context, key core.TrialKey, kind core.OutcomeKind) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.recorder.Record(ctx, key.Driver, key.Application, kind)
}

// Run replays table to completion, passing every Event to observers. It
// returns the number of successful submissions and the error that aborted
// the replay, if any.
func (d *Driver) Run(ctx context.Context, table benchmark.Table, observers ...func(Event)) (int, error) {
	submitted := 0
	for ev, err := range d.Steps(ctx, table) {
		if err != nil {
			d.log.WithFields(logrus.Fields{
				"submitted": submitted,
				"total":     table.Trials(),
			}).WithError(err).Error("replay aborted")
			return submitted, err
		}
		submitted++
		for _, observe := range observers {
			observe(ev)
		}
	}
	d.log.WithField("submitted", submitted).Info("replay complete")
	return submitted, nil
}
