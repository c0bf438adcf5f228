package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"shadowbench/internal/controller"
	"shadowbench/internal/core"
)

// OpenFunc opens the channel file with the given os.OpenFile flags.
type OpenFunc func(name string, flag int) (io.ReadWriteCloser, error)

func openFile(name string, flag int) (io.ReadWriteCloser, error) {
	return os.OpenFile(name, flag, 0)
}

// ProcFile drives a controller exposed by the fault injection module as a
// pseudo-file. Every command is a single write of one line; reading the file
// returns the text report. The module rejects a write with EPERM while fault
// injection is disabled and with EINVAL for a command it cannot parse.
type ProcFile struct {
	path string
	open OpenFunc
	mu   sync.Mutex
}

// OpenProcFile returns a ProcFile for path, which must already exist.
func OpenProcFile(path string) (*ProcFile, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrModuleUnavailable, err)
	}
	return &ProcFile{path: path, open: openFile}, nil
}

// SetOpener replaces the function used to open the channel file.
func (p *ProcFile) SetOpener(open OpenFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = open
}

// Do writes one command line.
func (p *ProcFile) Do(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.open(p.path, os.O_WRONLY)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrModuleUnavailable, err)
	}
	_, werr := io.WriteString(f, line+"\n")
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		return procError(line, werr)
	}
	return nil
}

func procError(line string, err error) error {
	switch {
	case errors.Is(err, syscall.EPERM):
		return fmt.Errorf("%w: %s", core.ErrNotEnabled, line)
	case errors.Is(err, syscall.EINVAL):
		return fmt.Errorf("%w: %q rejected", core.ErrUnknownCommand, line)
	default:
		return fmt.Errorf("%w: writing %q: %w", core.ErrModuleUnavailable, line, err)
	}
}

func (p *ProcFile) Enable(ctx context.Context) error   { return p.Do(ctx, controller.CmdEnable) }
func (p *ProcFile) Disable(ctx context.Context) error  { return p.Do(ctx, controller.CmdDisable) }
func (p *ProcFile) Reset(ctx context.Context) error    { return p.Do(ctx, controller.CmdReset) }
func (p *ProcFile) Simulate(ctx context.Context) error { return p.Do(ctx, controller.CmdSimulate) }

// Record submits one trial.
func (p *ProcFile) Record(ctx context.Context, driver, application string, kind core.OutcomeKind) error {
	line, err := recordLine(driver, application, kind)
	if err != nil {
		return err
	}
	return p.Do(ctx, line)
}

// Results reads the text report.
func (p *ProcFile) Results(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := p.open(p.path, os.O_RDONLY)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrModuleUnavailable, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: reading results: %w", core.ErrModuleUnavailable, err)
	}
	return string(data), nil
}

// Close is a no-op; every operation opens the file afresh.
func (p *ProcFile) Close() error { return nil }
