package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeConfig selects the channels to serve. Empty fields are skipped.
type ServeConfig struct {
	Socket   string // unix socket path for the line protocol
	HTTPAddr string
}

// ListenUnix listens on a unix socket, replacing a stale socket file.
func ListenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}
	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	return l, nil
}

// Serve runs the configured channels until ctx is cancelled or one of them
// fails, then shuts all of them down.
func Serve(ctx context.Context, ctrl Controller, cfg ServeConfig, gatherer prometheus.Gatherer, log logrus.FieldLogger) error {
	if cfg.Socket == "" && cfg.HTTPAddr == "" {
		return errors.New("no command channel configured")
	}

	var lineListener, httpListener net.Listener
	if cfg.Socket != "" {
		l, err := ListenUnix(cfg.Socket)
		if err != nil {
			return err
		}
		lineListener = l
	}
	if cfg.HTTPAddr != "" {
		l, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			if lineListener != nil {
				lineListener.Close()
			}
			return fmt.Errorf("listening on %s: %w", cfg.HTTPAddr, err)
		}
		httpListener = l
	}

	g, ctx := errgroup.WithContext(ctx)

	if lineListener != nil {
		srv := NewLineServer(ctrl, log)
		g.Go(func() error { return srv.Serve(lineListener) })
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown()
		})
		log.WithField("socket", cfg.Socket).Info("command socket listening")
	}

	if httpListener != nil {
		srv := &http.Server{
			Handler:           NewHTTPHandler(ctrl, gatherer, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			if err := srv.Serve(httpListener); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		log.WithField("addr", httpListener.Addr().String()).Info("http command channel listening")
	}

	return g.Wait()
}
