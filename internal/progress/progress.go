// Package progress prints a live trial counter while a replay runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"shadowbench/internal/core"
	"shadowbench/internal/trial"
)

type Progress struct {
	startTime time.Time
	clock     core.Clock
	ticker    *time.Ticker
	interval  time.Duration
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex

	total  int
	done   int
	counts [4]int // indexed by core.OutcomeKind
}

func NewProgress(total int, quiet bool) *Progress {
	return &Progress{
		clock:    core.RealClock{},
		interval: time.Second,
		total:    total,
		quiet:    quiet,
		output:   os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// Observe records one completed submission. It has the signature of a
// trial.Driver observer.
func (p *Progress) Observe(ev trial.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if ev.Kind.Valid() {
		p.counts[ev.Kind]++
	}
	if ev.Total > 0 {
		p.total = ev.Total
	}
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.mu.Lock()
	p.startTime = p.clock.Now()
	p.mu.Unlock()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(p.interval)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.output, p.line())
}

// line renders the status line. Caller holds p.mu.
func (p *Progress) line() string {
	elapsed := p.clock.Since(p.startTime).Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("\033[K[%02d:%02d] Trials: %d/%d | auto %d | manual %d | failed %d\r",
		mins, secs, p.done, p.total,
		p.counts[core.AutomaticRecovery], p.counts[core.ManualRecovery], p.counts[core.FailedRecovery])
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
