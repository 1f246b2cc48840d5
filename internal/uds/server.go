package uds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSocketInUse is returned by Start when another process is serving
// the socket path.
var ErrSocketInUse = errors.New("socket already in use")

// HandlerFunc serves one request. ctx is cancelled when the server stops.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// Server answers one framed request per connection.
type Server struct {
	socketPath  string
	connTimeout time.Duration
	logger      *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	listener net.Listener
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewServer(socketPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath:  socketPath,
		connTimeout: 30 * time.Second,
		logger:      logger,
		handlers:    make(map[string]HandlerFunc),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetConnTimeout bounds reading the request and writing the response.
// Handler time is not counted.
func (s *Server) SetConnTimeout(d time.Duration) {
	s.connTimeout = d
}

func (s *Server) Handle(command string, handler HandlerFunc) {
	s.mu.Lock()
	s.handlers[command] = handler
	s.mu.Unlock()
}

// Start listens on the socket path. A leftover socket file nobody
// answers on is replaced; a live one is not.
func (s *Server) Start() error {
	if err := s.clearStaleSocket(); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.serve(ln)
	return nil
}

func (s *Server) clearStaleSocket() error {
	if _, err := os.Lstat(s.socketPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	conn, err := net.DialTimeout("unix", s.socketPath, 200*time.Millisecond)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("%s: %w", s.socketPath, ErrSocketInUse)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

// Stop closes the listener, cancels handler contexts and waits for open
// connections to finish.
func (s *Server) Stop() error {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if s.listener != nil {
		_ = os.Remove(s.socketPath)
	}
	return nil
}

func (s *Server) serve(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn("uds_accept_failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(s.connTimeout))
	var req Request
	if err := ReadFrame(conn, &req); err != nil {
		s.logger.Warn("uds_read_failed", "error", err)
		return
	}

	reqID := uuid.NewString()
	logger := s.logger.With("command", req.Command, "request_id", reqID)
	start := time.Now()
	resp := s.dispatch(logger, &req)
	logger.Debug("uds_request_served",
		"success", resp.Success,
		"duration_ms", time.Since(start).Milliseconds())

	_ = conn.SetWriteDeadline(time.Now().Add(s.connTimeout))
	if err := WriteFrame(conn, resp); err != nil {
		logger.Warn("uds_write_failed", "error", err)
	}
}

// dispatch runs the handler for req. A panicking handler becomes an
// INTERNAL_ERROR response.
func (s *Server) dispatch(logger *slog.Logger, req *Request) (resp *Response) {
	if req.ProtocolVersion != ProtocolVersion {
		return ErrorResponse(ErrCodeProtocolMismatch,
			fmt.Sprintf("protocol version mismatch: got %d, expected %d", req.ProtocolVersion, ProtocolVersion))
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Command]
	s.mu.RUnlock()
	if !ok {
		return ErrorResponse(ErrCodeUnknownCommand, fmt.Sprintf("unknown command: %q", req.Command))
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("uds_handler_panic", "panic", r, "stack", string(debug.Stack()))
			resp = ErrorResponse(ErrCodeInternal, fmt.Sprintf("%s handler panicked: %v", req.Command, r))
		}
	}()
	return handler(s.ctx, req)
}
