package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind string

const (
	KindAuthentication Kind = "AuthenticationError"
	KindAuthorization  Kind = "AuthorizationError"
	KindServer         Kind = "ServerError"
	KindNetwork        Kind = "NetworkError"
	KindClient         Kind = "ClientError"
)

var (
	// ErrAuthentication matches 401 responses.
	ErrAuthentication = errors.New("authentication required")
	// ErrAuthorization matches 403 responses.
	ErrAuthorization = errors.New("access denied")
	// ErrServer matches 5xx responses and unreadable success payloads.
	ErrServer = errors.New("server error")
	// ErrNetwork matches requests that got no response, including timeouts.
	ErrNetwork = errors.New("network error")
	// ErrClient matches every other 4xx and envelopes with success=false.
	ErrClient = errors.New("client error")
)

// Error is returned by every failed Client call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Method  string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.Path, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	} else if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets callers match on the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return kindSentinel(e.Kind) == target
}

func kindSentinel(k Kind) error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindAuthorization:
		return ErrAuthorization
	case KindServer:
		return ErrServer
	case KindNetwork:
		return ErrNetwork
	case KindClient:
		return ErrClient
	default:
		return nil
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// Message turns err into the text shown to the user: the backend's message
// when it sent one, else the transport's message, else fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if msg := strings.TrimSpace(apiErr.Message); msg != "" {
		return msg
	}
	if apiErr.Cause != nil {
		return apiErr.Cause.Error()
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
