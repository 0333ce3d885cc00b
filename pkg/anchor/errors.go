package anchor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"liyu1981.xyz/iot-anchor-service/pkg/ledger"
)

type Kind string

const (
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindNoMatchingReadings   Kind = "NO_MATCHING_READINGS"
	KindPayloadTooLarge      Kind = "PAYLOAD_TOO_LARGE"
	KindNodeConnectionFailed Kind = "NODE_CONNECTION_FAILED"
	KindInternal             Kind = "INTERNAL"
	KindNotYetIncluded       Kind = "NOT_YET_INCLUDED"
	KindNoMatchingRecord     Kind = "NO_MATCHING_RECORD"
)

// Error is returned by every Anchor operation. Compare with errors.Is against the Err* kinds.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	NodeStatus int
	Size       int
	Limit      int
	Err        error
}

var (
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
	ErrNoMatchingReadings   = &Error{Kind: KindNoMatchingReadings}
	ErrPayloadTooLarge      = &Error{Kind: KindPayloadTooLarge}
	ErrNodeConnectionFailed = &Error{Kind: KindNodeConnectionFailed}
	ErrInternal             = &Error{Kind: KindInternal}
	ErrNotYetIncluded       = &Error{Kind: KindNotYetIncluded}
	ErrNoMatchingRecord     = &Error{Kind: KindNoMatchingRecord}
)

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.ReplaceAll(strings.ToLower(string(e.Kind)), "_", " ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrPayloadTooLarge) holds for a detailed error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Code: string(KindInvalidInput), Message: fmt.Sprintf(format, args...)}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: string(KindInternal), Message: message, Err: errors.WithStack(err)}
}

// nodeFailure turns a ledger error into the user facing error, keeping the node's own message.
func nodeFailure(err error) *Error {
	e := &Error{
		Kind:       KindNodeConnectionFailed,
		NodeStatus: ledger.StatusCode(err),
		Err:        err,
	}

	var nodeErr *ledger.NodeError
	switch {
	case errors.As(err, &nodeErr):
		e.Code = "NODE_REJECTED"
		if nodeErr.Code != "" {
			e.Code = "NODE_REJECTED_" + nodeErr.Code
		}
		e.Message = nodeErr.Message
	case errors.Is(err, ledger.ErrConnection):
		e.Code = "CONNECTION_FAILED"
		e.Message = err.Error()
	default:
		e.Code = "NODE_ERROR"
		e.Message = err.Error()
	}
	return e
}
