package uds

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortSockPath keeps socket paths under the macOS 104 byte limit.
func shortSockPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "df-uds-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name)
}

func startServer(t *testing.T) (*Server, *Client, string) {
	t.Helper()
	sock := shortSockPath(t, "t.sock")
	server := NewServer(sock, nil)
	client := NewClient(sock)
	client.SetTimeout(5 * time.Second)
	return server, client, sock
}

func TestFraming_RoundTrip(t *testing.T) {
	sock := shortSockPath(t, "f.sock")
	listener, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer listener.Close()

	got := make(chan Request, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var req Request
		if ReadFrame(conn, &req) == nil {
			got <- req
			_ = WriteFrame(conn, SuccessResponse(CancelResult{Cancelled: true, SessionID: "run_1"}))
		}
	}()

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	req, err := NewRequest(CommandRun, RunParams{WorkflowID: "wf-1", Wait: true})
	require.NoError(t, err)
	require.NoError(t, WriteFrame(conn, req))

	var resp Response
	require.NoError(t, ReadFrame(conn, &resp))
	var result CancelResult
	require.NoError(t, resp.Decode(&result))
	assert.Equal(t, CancelResult{Cancelled: true, SessionID: "run_1"}, result)

	serverSide := <-got
	assert.Equal(t, ProtocolVersion, serverSide.ProtocolVersion)
	var params RunParams
	require.NoError(t, serverSide.DecodeParams(&params))
	assert.Equal(t, "wf-1", params.WorkflowID)
	assert.True(t, params.Wait)
}

func TestFraming_LargeBatch(t *testing.T) {
	sock := shortSockPath(t, "l.sock")
	listener, err := net.Listen("unix", sock)
	require.NoError(t, err)
	defer listener.Close()

	batch := strings.Repeat("- kind: type\n  text: x\n", 40000)
	lengths := make(chan int, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var req Request
		if ReadFrame(conn, &req) != nil {
			return
		}
		var params RunParams
		_ = req.DecodeParams(&params)
		lengths <- len(params.Batch)
	}()

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()
	req, _ := NewRequest(CommandRun, RunParams{Batch: batch})
	require.NoError(t, WriteFrame(conn, req))
	assert.Equal(t, len(batch), <-lengths)
}

func TestServer_ProtocolVersionMismatch(t *testing.T) {
	server, client, _ := startServer(t)
	server.Handle(CommandPing, func(context.Context, *Request) *Response { return SuccessResponse(nil) })
	require.NoError(t, server.Start())
	defer server.Stop()

	resp, err := client.Send(context.Background(), &Request{ProtocolVersion: 999, Command: CommandPing})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeProtocolMismatch, resp.Error.Code)
}

func TestServer_UnknownCommand(t *testing.T) {
	server, client, _ := startServer(t)
	require.NoError(t, server.Start())
	defer server.Stop()

	err := client.Call("nonexistent", nil, nil)
	var detail *ErrorDetail
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, ErrCodeUnknownCommand, detail.Code)
}

func TestServer_HandlerExecution(t *testing.T) {
	server, client, _ := startServer(t)
	server.Handle(CommandPing, func(context.Context, *Request) *Response {
		return SuccessResponse(PingResult{PID: 7, Version: "dev"})
	})
	server.Handle(CommandTrigger, func(_ context.Context, req *Request) *Response {
		var p TriggerParams
		if err := req.DecodeParams(&p); err != nil || p.Shortcut == "" {
			return ErrorResponse(ErrCodeValidation, "shortcut is required")
		}
		return SuccessResponse(map[string]string{"shortcut": p.Shortcut})
	})
	require.NoError(t, server.Start())
	defer server.Stop()

	var ping PingResult
	require.NoError(t, client.Call(CommandPing, nil, &ping))
	assert.Equal(t, 7, ping.PID)

	var echoed map[string]string
	require.NoError(t, client.Call(CommandTrigger, TriggerParams{Shortcut: "~@f"}, &echoed))
	assert.Equal(t, "~@f", echoed["shortcut"])

	err := client.Call(CommandTrigger, TriggerParams{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeValidation)
}

func TestServer_HandlerContextEndsOnStop(t *testing.T) {
	server, _, sock := startServer(t)
	entered := make(chan struct{})
	server.Handle(CommandRun, func(ctx context.Context, _ *Request) *Response {
		close(entered)
		<-ctx.Done()
		return ErrorResponse(ErrCodeCancelled, "daemon stopping")
	})
	require.NoError(t, server.Start())

	errs := make(chan error, 1)
	go func() {
		c := NewClient(sock)
		c.SetTimeout(5 * time.Second)
		errs <- c.Call(CommandRun, RunParams{Wait: true}, nil)
	}()
	<-entered
	require.NoError(t, server.Stop())

	err := <-errs
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeCancelled)
}

func TestServer_MultipleClients(t *testing.T) {
	server, _, sock := startServer(t)
	server.Handle(CommandPing, func(context.Context, *Request) *Response { return SuccessResponse(nil) })
	require.NoError(t, server.Start())
	defer server.Stop()

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			c := NewClient(sock)
			c.SetTimeout(5 * time.Second)
			errs <- c.Call(CommandPing, nil, nil)
		}()
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestClient_DaemonNotRunning(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "nonexistent.sock"))
	client.SetTimeout(time.Second)

	err := client.Call(CommandPing, nil, nil)
	require.ErrorIs(t, err, ErrDaemonNotRunning)
	assert.Contains(t, err.Error(), "deskflow daemon")
}

func TestClient_ContextCancelsWait(t *testing.T) {
	server, client, _ := startServer(t)
	server.Handle(CommandRun, func(ctx context.Context, _ *Request) *Response {
		<-ctx.Done()
		return SuccessResponse(nil)
	})
	require.NoError(t, server.Start())
	defer server.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := client.CallContext(ctx, CommandRun, RunParams{Wait: true}, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServer_HandlerPanicReturnsInternal(t *testing.T) {
	server, client, _ := startServer(t)
	server.Handle(CommandStatus, func(context.Context, *Request) *Response {
		panic("nil summary")
	})
	server.Handle(CommandPing, func(context.Context, *Request) *Response { return SuccessResponse(nil) })
	require.NoError(t, server.Start())
	defer server.Stop()

	err := client.Call(CommandStatus, nil, nil)
	var detail *ErrorDetail
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, ErrCodeInternal, detail.Code)
	assert.Contains(t, detail.Message, "nil summary")

	assert.NoError(t, client.Call(CommandPing, nil, nil), "server keeps serving")
}

func TestServer_StaleSocketReplaced(t *testing.T) {
	server, client, sock := startServer(t)
	require.NoError(t, os.WriteFile(sock, nil, 0600))
	server.Handle(CommandPing, func(context.Context, *Request) *Response { return SuccessResponse(nil) })

	require.NoError(t, server.Start())
	defer server.Stop()
	assert.NoError(t, client.Call(CommandPing, nil, nil))
}

func TestServer_LiveSocketRefused(t *testing.T) {
	first, _, sock := startServer(t)
	require.NoError(t, first.Start())
	defer first.Stop()

	second := NewServer(sock, nil)
	err := second.Start()
	require.ErrorIs(t, err, ErrSocketInUse)

	_, err = os.Stat(sock)
	assert.NoError(t, err, "live socket left in place")
}

func TestServer_ConnectionTimeout(t *testing.T) {
	server, _, sock := startServer(t)
	server.SetConnTimeout(300 * time.Millisecond)
	server.Handle(CommandStatus, func(context.Context, *Request) *Response { return SuccessResponse(nil) })
	require.NoError(t, server.Start())
	defer server.Stop()

	idle, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer idle.Close()

	_ = idle.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = idle.Read(make([]byte, 1))
	assert.Error(t, err, "idle connection is closed by the server")

	client := NewClient(sock)
	client.SetTimeout(2 * time.Second)
	assert.NoError(t, client.Call(CommandStatus, nil, nil))
}

func TestServer_SocketLifecycle(t *testing.T) {
	server, _, sock := startServer(t)
	require.NoError(t, server.Start())

	info, err := os.Stat(sock)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, server.Stop())
	_, err = os.Stat(sock)
	assert.True(t, os.IsNotExist(err))
}

func TestResponseDecode(t *testing.T) {
	assert.NoError(t, SuccessResponse(nil).Decode(nil))
	assert.Nil(t, SuccessResponse(nil).Data)

	var n ReloadResult
	require.NoError(t, SuccessResponse(ReloadResult{Workflows: 3}).Decode(&n))
	assert.Equal(t, 3, n.Workflows)

	err := ErrorResponse(ErrCodeNotFound, `workflow "x" not found`).Decode(&n)
	assert.EqualError(t, err, `NOT_FOUND: workflow "x" not found`)

	assert.Error(t, (&Response{}).Decode(nil))
}
