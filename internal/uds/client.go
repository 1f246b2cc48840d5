package uds

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrDaemonNotRunning is returned when nothing answers on the socket.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// Client sends one request per connection to the daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 30 * time.Second}
}

// SetTimeout bounds a whole request, dial to response.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Send delivers req and reads the response frame.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w (%s: %v)\nStart it with: deskflow daemon",
			ErrDaemonNotRunning, c.socketPath, err)
	}
	defer func() { _ = conn.Close() }()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := WriteFrame(conn, req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Command, err)
	}
	var resp Response
	if err := ReadFrame(conn, &resp); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", req.Command, ctx.Err())
		}
		return nil, fmt.Errorf("read %s response: %w", req.Command, err)
	}
	return &resp, nil
}

// Call sends command and decodes a successful response into result.
// A daemon-side failure is returned as *ErrorDetail.
func (c *Client) Call(command string, params, result any) error {
	return c.CallContext(context.Background(), command, params, result)
}

func (c *Client) CallContext(ctx context.Context, command string, params, result any) error {
	req, err := NewRequest(command, params)
	if err != nil {
		return err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(result)
}
