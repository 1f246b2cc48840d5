// Package uds implements Unix Domain Socket based IPC between the CLI and daemon.
package uds

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/model"
)

const ProtocolVersion = 1

type Request struct {
	ProtocolVersion int             `json:"protocol_version"`
	Command         string          `json:"command"`
	Params          json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorDetail) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	ErrCodeProtocolMismatch = "PROTOCOL_MISMATCH"
	ErrCodeUnknownCommand   = "UNKNOWN_COMMAND"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeCancelled        = "CANCELLED"
)

// Daemon commands.
const (
	CommandPing     = "ping"
	CommandRun      = "run"
	CommandTrigger  = "trigger"
	CommandCancel   = "cancel"
	CommandStatus   = "status"
	CommandReveal   = "reveal"
	CommandReload   = "reload"
	CommandShutdown = "shutdown"
)

// RunParams starts a workflow by id or name, or an ad-hoc batch when
// Batch holds a YAML command list. Wait blocks the response until the
// session finished.
type RunParams struct {
	WorkflowID string              `json:"workflow_id,omitempty"`
	Batch      string              `json:"batch,omitempty"`
	Mode       model.ExecutionMode `json:"mode,omitempty"`
	Wait       bool                `json:"wait,omitempty"`
}

// TriggerParams fires the workflows bound to a keyboard shortcut spec.
type TriggerParams struct {
	Shortcut string `json:"shortcut"`
}

type RevealParams struct {
	WorkflowID string `json:"workflow_id"`
}

type PingResult struct {
	PID       int    `json:"pid"`
	Version   string `json:"version"`
	StartedAt string `json:"started_at"`
}

type CancelResult struct {
	Cancelled bool   `json:"cancelled"`
	SessionID string `json:"session_id,omitempty"`
}

type ReloadResult struct {
	Workflows int `json:"workflows"`
}

// StatusResult reports the running session, if any, and the last
// finished one.
type StatusResult struct {
	PID       int             `json:"pid"`
	StartedAt string          `json:"started_at"`
	Workflows int             `json:"workflows"`
	Current   *engine.Summary `json:"current,omitempty"`
	Last      *engine.Summary `json:"last,omitempty"`
}

func NewRequest(command string, params any) (*Request, error) {
	req := &Request{
		ProtocolVersion: ProtocolVersion,
		Command:         command,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = data
	}
	return req, nil
}

// DecodeParams unmarshals the request params into v. Missing params
// leave v untouched.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return fmt.Errorf("decode %s params: %w", r.Command, err)
	}
	return nil
}

func SuccessResponse(data any) *Response {
	resp := &Response{Success: true}
	if data != nil {
		raw, _ := json.Marshal(data)
		resp.Data = raw
	}
	return resp
}

func ErrorResponse(code, message string) *Response {
	return &Response{
		Success: false,
		Error: &ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// Decode returns the response error, or unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if !r.Success {
		if r.Error == nil {
			return fmt.Errorf("daemon returned failure without detail")
		}
		return r.Error
	}
	if v == nil || len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DefaultSocketName is the conventional socket filename inside the state directory.
const DefaultSocketName = "daemon.sock"

// WriteFrame writes a length-prefixed JSON frame to the connection.
// Format: [4-byte BigEndian length][JSON payload]
func WriteFrame(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	length := uint32(len(data))
	if err := binary.Write(conn, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := io.Copy(conn, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads a length-prefixed JSON frame from the connection.
func ReadFrame(conn net.Conn, v any) error {
	var length uint32
	if err := binary.Read(conn, binary.BigEndian, &length); err != nil {
		return fmt.Errorf("read frame length: %w", err)
	}

	if length > 10*1024*1024 {
		return fmt.Errorf("frame too large: %d bytes", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return fmt.Errorf("read frame payload: %w", err)
	}

	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("unmarshal frame: %w", err)
	}
	return nil
}
