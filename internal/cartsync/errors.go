package cartsync

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes synchronizer failures.
type Kind int

const (
	// KindSessionExpired means no credential was available or the server
	// rejected it.
	KindSessionExpired Kind = iota
	// KindValidation covers bad local input and 400 responses.
	KindValidation
	// KindNotFound means the product, line, or cart does not exist.
	KindNotFound
	// KindConflict means a state conflict such as stock gone at commit time.
	// Reloading and retrying may succeed.
	KindConflict
	// KindTransport covers network failures, timeouts, and unexpected statuses.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindSessionExpired:
		return "session_expired"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is returned by every failed synchronizer operation. Message is the
// user-facing text also published as State.LastError.
type Error struct {
	Op      Operation
	Kind    Kind
	Status  int // 0 when the failure carried no HTTP error status
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a synchronizer error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// statusOf extracts the HTTP status from err, if any.
func statusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindSessionExpired
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindTransport
	}
}

// classify converts a backend failure into an Error with the operation's
// user-facing message.
func classify(op Operation, err error) *Error {
	status, ok := statusOf(err)
	if !ok {
		return &Error{
			Op:      op,
			Kind:    KindTransport,
			Message: fmt.Sprintf(MsgConnectionError, err),
			Cause:   err,
		}
	}
	return &Error{
		Op:      op,
		Kind:    kindForStatus(status),
		Status:  status,
		Message: messageFor(op, status),
		Cause:   err,
	}
}

func sessionExpired(op Operation) *Error {
	msg := MsgSessionExpired
	if op == OpAdd {
		msg = MsgSessionExpiredLogin
	}
	return &Error{Op: op, Kind: KindSessionExpired, Message: msg}
}

func validation(op Operation, msg string) *Error {
	return &Error{Op: op, Kind: KindValidation, Message: msg}
}
