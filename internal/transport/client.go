package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"shadowbench/internal/controller"
	"shadowbench/internal/core"
)

// Client talks to a LineServer. It implements core.Recorder so a trial
// driver can replay against a controller in another process.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a LineServer.
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %w", core.ErrModuleUnavailable, addr, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Do sends one command line and waits for its acknowledgement.
func (c *Client) Do(ctx context.Context, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.roundTrip(ctx, line)
	if err != nil {
		return err
	}
	switch {
	case resp == RespOK:
		return nil
	case strings.HasPrefix(resp, RespError):
		return remoteError(strings.TrimPrefix(resp, RespError))
	default:
		return fmt.Errorf("unexpected response %q", resp)
	}
}

func (c *Client) roundTrip(ctx context.Context, line string) (string, error) {
	deadline, _ := ctx.Deadline() // zero means no deadline
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", err
	}
	if _, err := fmt.Fprintln(c.conn, line); err != nil {
		return "", fmt.Errorf("%w: sending command: %w", core.ErrModuleUnavailable, err)
	}
	return c.readLine()
}

func (c *Client) readLine() (string, error) {
	resp, err := c.r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", core.ErrModuleUnavailable, err)
	}
	return strings.TrimRight(resp, "\r\n"), nil
}

func (c *Client) Enable(ctx context.Context) error   { return c.Do(ctx, controller.CmdEnable) }
func (c *Client) Disable(ctx context.Context) error  { return c.Do(ctx, controller.CmdDisable) }
func (c *Client) Reset(ctx context.Context) error    { return c.Do(ctx, controller.CmdReset) }
func (c *Client) Simulate(ctx context.Context) error { return c.Do(ctx, controller.CmdSimulate) }

// Record submits one trial. Keys and outcomes the command line cannot carry
// are rejected before anything is sent.
func (c *Client) Record(ctx context.Context, driver, application string, kind core.OutcomeKind) error {
	line, err := recordLine(driver, application, kind)
	if err != nil {
		return err
	}
	return c.Do(ctx, line)
}

func recordLine(driver, application string, kind core.OutcomeKind) (string, error) {
	if err := (core.TrialKey{Driver: driver, Application: application}).Validate(); err != nil {
		return "", err
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %d", core.ErrInvalidOutcomeCode, kind.Code())
	}
	return controller.FormatRecord(driver, application, kind), nil
}

// Results returns the rendered text report.
func (c *Client) Results(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	first, err := c.roundTrip(ctx, ReadCommand)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for line := first; line != ReadTerminator; {
		b.WriteString(line + "\n")
		if line, err = c.readLine(); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

var remoteSentinels = []error{
	core.ErrNotEnabled,
	core.ErrInvalidOutcomeCode,
	core.ErrModuleUnavailable,
	core.ErrInvalidKey,
	core.ErrUnknownCommand,
}

// remoteError maps a server error message back onto the matching sentinel.
func remoteError(msg string) error {
	for _, sentinel := range remoteSentinels {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()); ok {
			return fmt.Errorf("%w%s", sentinel, rest)
		}
	}
	return errors.New(msg)
}
