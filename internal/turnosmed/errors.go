package turnosmed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorKind buckets backend failures into the classes the booking flow
// branches on. Callers switch on the kind instead of inspecting raw HTTP
// status codes.
type ErrorKind int

const (
	// KindTransient covers timeouts, connection failures and 5xx responses.
	KindTransient ErrorKind = iota
	// KindBadRequest is a 400 with structured field errors.
	KindBadRequest
	// KindAuth is a 401: the credential is missing, expired or revoked.
	KindAuth
	// KindNotFound is a 404: a referenced doctor/clinic/patient vanished.
	KindNotFound
	// KindConflict is a 409: the requested slot is no longer available.
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "transient"
	}
}

// FieldError is a backend validation message tied to one request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the TurnosMed backend.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("turnosmed: %s (%d): %s", e.Kind, e.StatusCode, e.JoinFieldMessages())
	}
	return fmt.Sprintf("turnosmed: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

// JoinFieldMessages flattens backend field errors into one readable string.
func (e *APIError) JoinFieldMessages() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			msgs = append(msgs, f.Field+": "+f.Message)
			continue
		}
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	default:
		return KindTransient
	}
}

// Classify maps any error from a client call to an ErrorKind. Transport
// failures (timeouts, refused connections, cancelled contexts) classify as
// transient.
func Classify(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}
	return KindTransient
}

// IsConflict reports whether err is a 409 slot-taken response.
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsAuth reports whether err is a 401 response.
func IsAuth(err error) bool { return isKind(err, KindAuth) }

// IsBadRequest reports whether err is a 400 response.
func IsBadRequest(err error) bool { return isKind(err, KindBadRequest) }

func isKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
