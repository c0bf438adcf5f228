package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shadowbench/internal/benchmark"
	"shadowbench/internal/controller"
	"shadowbench/internal/core"
	"shadowbench/internal/modules"
	"shadowbench/internal/modules/mocks"
	"shadowbench/internal/session"
)

// moduleFile behaves like the fault injection module's pseudo-file: each
// write is one command, a read returns the report.
func moduleFile(ctrl *controller.Controller) OpenFunc {
	return func(name string, flag int) (io.ReadWriteCloser, error) {
		if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
			return &commandFile{ctrl: ctrl, name: name}, nil
		}
		return reportFile{strings.NewReader(ctrl.ReadResults())}, nil
	}
}

type commandFile struct {
	ctrl *controller.Controller
	name string
}

func (f *commandFile) Read([]byte) (int, error) { return 0, syscall.EBADF }
func (f *commandFile) Close() error             { return nil }

func (f *commandFile) Write(p []byte) (int, error) {
	err := f.ctrl.Dispatch(context.Background(), strings.TrimSpace(string(p)))
	var errno syscall.Errno
	switch {
	case err == nil:
		return len(p), nil
	case errors.Is(err, core.ErrNotEnabled):
		errno = syscall.EPERM
	case errors.Is(err, core.ErrModuleUnavailable):
		errno = syscall.ENODEV
	default:
		errno = syscall.EINVAL
	}
	return 0, &os.PathError{Op: "write", Path: f.name, Err: errno}
}

type reportFile struct{ io.Reader }

func (reportFile) Write([]byte) (int, error) { return 0, syscall.EBADF }
func (reportFile) Close() error              { return nil }

func newModuleChannel(t *testing.T) (*controller.Controller, string, *ProcFile) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	ctrl := controller.New(controller.WithLogger(logger))
	require.NoError(t, ctrl.Start())
	t.Cleanup(ctrl.Stop)

	path := filepath.Join(t.TempDir(), "fault_injection")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	pf, err := OpenProcFile(path)
	require.NoError(t, err)
	pf.SetOpener(moduleFile(ctrl))
	return ctrl, path, pf
}

func TestProcFile_RecordAndRead(t *testing.T) {
	ctrl, _, pf := newModuleChannel(t)
	ctx := context.Background()

	require.NoError(t, pf.Enable(ctx))
	require.NoError(t, pf.Reset(ctx))
	require.NoError(t, pf.Record(ctx, "e1000", "network_analyzer", core.ManualRecovery))

	text, err := pf.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, ctrl.ReadResults(), text)

	require.NoError(t, pf.Disable(ctx))
	assert.Equal(t, controller.Disabled, ctrl.State())
}

func TestProcFile_Errors(t *testing.T) {
	ctrl, _, pf := newModuleChannel(t)
	ctx := context.Background()

	err := pf.Record(ctx, "snd", "mp3_player", core.AutomaticRecovery)
	assert.True(t, errors.Is(err, core.ErrNotEnabled), "got %v", err)

	require.NoError(t, pf.Enable(ctx))

	err = pf.Record(ctx, "net|x", "ping", core.AutomaticRecovery)
	assert.True(t, errors.Is(err, core.ErrInvalidKey), "got %v", err)

	err = pf.Do(ctx, "explode")
	assert.True(t, errors.Is(err, core.ErrUnknownCommand), "got %v", err)

	ctrl.Stop()
	err = pf.Enable(ctx)
	assert.True(t, errors.Is(err, core.ErrModuleUnavailable), "got %v", err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, pf.Enable(cancelled), context.Canceled)
}

func TestOpenProcFile_Missing(t *testing.T) {
	_, err := OpenProcFile(filepath.Join(t.TempDir(), "fault_injection"))
	assert.True(t, errors.Is(err, core.ErrModuleUnavailable), "got %v", err)
}

func TestProcFile_WritesOneLinePerCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channel")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	pf, err := OpenProcFile(path)
	require.NoError(t, err)
	require.NoError(t, pf.Record(context.Background(), "ide", "compiler", core.FailedRecovery))

	text, err := pf.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "record ide compiler 3\n", text)
}

// A module-backed session waits for the pseudo-file and then drives the
// controller through that same file.
func TestProcFile_SessionOnModuleChannel(t *testing.T) {
	ctrl, path, pf := newModuleChannel(t)
	logger, _ := logtest.NewNullLogger()

	loader := &mocks.Loader{}
	loader.On("Load", mock.Anything, mock.Anything).Return(nil)
	loader.On("Unload", mock.Anything, "fault_injection").Return(nil).Once()

	table := benchmark.Table{{Driver: "snd", Application: "mp3_player", Automatic: 2, Manual: 1, Failed: 1}}
	res, err := session.Run(context.Background(), session.Options{
		Loader:       loader,
		Modules:      modules.Set{modules.NewModule("/m/fault_injection.ko", "")},
		ReadyPath:    path,
		ReadyTimeout: time.Second,
		Connect: func(context.Context) (session.Target, error) {
			return pf, nil
		},
		Table: table,
		Log:   logger,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Submitted)
	assert.Equal(t, ctrl.Snapshot(), res.Records)
	assert.Equal(t, controller.Disabled, ctrl.State())
	loader.AssertExpectations(t)
}
