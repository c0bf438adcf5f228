// Package transport exposes a fault controller over command channels: a
// line-oriented socket protocol and an HTTP API.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"shadowbench/internal/core"
	"shadowbench/internal/report"
)

// Controller is the part of a fault controller the transports need.
type Controller interface {
	Dispatch(ctx context.Context, line string) error
	Snapshot() []core.TrialRecord
	Ready() <-chan struct{}
}

// Line protocol tokens. Every command line is answered with RespOK or
// RespError followed by the message; ReadCommand is answered with the text
// report followed by a ReadTerminator line.
const (
	ReadCommand    = "read"
	ReadTerminator = "."
	RespOK         = "ok"
	RespError      = "error: "
)

// LineServer serves the line protocol on a listener, one goroutine per
// connection.
type LineServer struct {
	ctrl Controller
	log  logrus.FieldLogger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewLineServer(ctrl Controller, log logrus.FieldLogger) *LineServer {
	return &LineServer{
		ctrl:  ctrl,
		log:   log,
		conns: make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections until Shutdown is called, then returns nil. A
// listener handed over after Shutdown is closed immediately.
func (s *LineServer) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return nil
	}
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return nil
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handle(conn)
	}
}

// Shutdown closes the listener and every open connection and waits for
// their handlers to return.
func (s *LineServer) Shutdown() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *LineServer) handle(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		s.wg.Done()
	}()

	log := s.log.WithField("remote", conn.RemoteAddr().String())
	log.Debug("command channel connection opened")

	ctx := context.Background()
	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == ReadCommand {
			_ = report.Render(w, s.ctrl.Snapshot())
			fmt.Fprintln(w, ReadTerminator)
		} else if err := s.ctrl.Dispatch(ctx, line); err != nil {
			log.WithField("command", line).WithError(err).Debug("command failed")
			fmt.Fprintln(w, RespError+err.Error())
		} else {
			fmt.Fprintln(w, RespOK)
		}

		if err := w.Flush(); err != nil {
			return
		}
	}
}
