// Package ipc is the control pipe: a per-user named pipe carrying
// newline-delimited JSON requests from hotkeyctl and from second instances
// handing off to the running daemon.
package ipc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/user"
	"regexp"
	"strings"

	"hotkeyd/internal/userutil"
)

// Control operations understood by the daemon.
const (
	// OpActivate asks the daemon to bring up its settings window.
	OpActivate = "activate"
	// OpStatus asks for a runtime snapshot (counts, addresses, uptime).
	OpStatus = "status"
	// OpReload asks the daemon to re-read its config file.
	OpReload = "reload"
)

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\hotkeyd-[a-z0-9._-]{1,128}$`)

const defaultPipePrefix = `\\.\pipe\hotkeyd-`

// Request is a single control request.
type Request struct {
	Op string `json:"op"`
}

// Response is the daemon's reply to a control request.
type Response struct {
	OK    bool           `json:"ok"`
	Error string         `json:"error,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Executor handles a control request and returns a response.
type Executor interface {
	Execute(req Request) Response
}

// DefaultPipeName returns the pipe path to use. If the HOTKEYD_PIPE
// environment variable is set and passes pattern validation, its value is
// used; otherwise a per-user default is constructed from the current
// username.
func DefaultPipeName() string {
	if v, ok := trustedPipeNameFromEnv(); ok {
		return v
	}

	username := strings.TrimSpace(os.Getenv("USERNAME"))
	if username == "" {
		if current, err := user.Current(); err == nil {
			username = current.Username
		}
	}
	return defaultPipePrefix + userutil.SanitizeUsername(username)
}

func trustedPipeNameFromEnv() (string, bool) {
	value := strings.TrimSpace(os.Getenv("HOTKEYD_PIPE"))
	if value == "" {
		return "", false
	}
	if !pipeNamePattern.MatchString(value) {
		slog.Warn("[ipc] HOTKEYD_PIPE rejected: value does not match allowed pattern", "value", value)
		return "", false
	}
	return value, true
}

func encodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	req.Op = strings.TrimSpace(req.Op)
	if req.Op == "" {
		return Request{}, errors.New("missing op")
	}
	return req, nil
}

func encodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
