package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	cerrors "github.com/jrsteele09/go-cowork-client/internal/errors"
)

// Kind classifies how a request ended when it did not produce a Response.
type Kind int

const (
	KindInvalidRequest Kind = iota
	KindTimeout
	KindNetwork
	KindCanceled
	KindUnauthorized
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindCanceled:
		return "canceled"
	case KindUnauthorized:
		return "unauthorized"
	case KindClient:
		return "client_error"
	case KindServer:
		return "server_error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInvalidRequest = cerrors.ErrInvalidRequest
	ErrTimeout        = errors.New("request timed out")
	ErrNetwork        = errors.New("network error")
	ErrCanceled       = errors.New("request canceled")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrClient         = errors.New("client error")
	ErrServer         = errors.New("server error")
)

var kindSentinels = map[Kind]error{
	KindInvalidRequest: ErrInvalidRequest,
	KindTimeout:        ErrTimeout,
	KindNetwork:        ErrNetwork,
	KindCanceled:       ErrCanceled,
	KindUnauthorized:   ErrUnauthorized,
	KindClient:         ErrClient,
	KindServer:         ErrServer,
}

const (
	messageTimeout      = "Request timed out. Please try again."
	messageNetwork      = "Network error. Please check your internet connection."
	messageCanceled     = "Request was canceled."
	messageUnauthorized = "Your session has expired. Please log in again."
	messageInvalid      = "The request could not be prepared."
)

// Error is returned for every failed gateway call. Message is always safe to
// show to a user.
type Error struct {
	Kind     Kind
	Method   string
	Endpoint string
	Status   int             // 0 when no response was received
	Body     json.RawMessage // parsed JSON error body, if any
	Text     string          // non-JSON error body, if any
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "gateway error"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return kindSentinels[e.Kind] == target
}

// Detail is a log-friendly description including method, endpoint and status.
func (e *Error) Detail() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %s", e.Method, e.Endpoint, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Endpoint, e.Kind, e.Message)
}

// AsError unwraps err to a gateway *Error.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if gwErr, ok := AsError(err); ok {
		return gwErr.Status
	}
	return 0
}

// Message returns a human readable message for any error, preferring the
// gateway message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if gwErr, ok := AsError(err); ok {
		return gwErr.Message
	}
	return err.Error()
}

func newStatusError(method, endpoint string, status int, body parsedBody) *Error {
	kind := KindClient
	sentinel := ErrClient
	if status >= http.StatusInternalServerError {
		kind = KindServer
		sentinel = ErrServer
	}
	message := body.message()
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d.", status)
	}
	return &Error{
		Kind:     kind,
		Method:   method,
		Endpoint: endpoint,
		Status:   status,
		Body:     body.json,
		Text:     body.text,
		Message:  message,
		Err:      fmt.Errorf("%w: %s", sentinel, http.StatusText(status)),
	}
}

func newUnauthorizedError(method, endpoint string, body parsedBody) *Error {
	message := body.message()
	if message == "" || strings.EqualFold(message, "unauthenticated.") || strings.EqualFold(message, "unauthorized") {
		message = messageUnauthorized
	}
	return &Error{
		Kind:     KindUnauthorized,
		Method:   method,
		Endpoint: endpoint,
		Status:   http.StatusUnauthorized,
		Body:     body.json,
		Text:     body.text,
		Message:  message,
		Err:      ErrUnauthorized,
	}
}
