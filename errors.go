package beanstalkt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors that can be returned by the beanstalkt client functions. The
// request-scoped ones are wrapped in a RequestError, so they can be matched
// with errors.Is.
var (
	ErrBuried             = errors.New("job is buried")
	ErrTimedOut           = errors.New("reserve timed out")
	ErrDeadlineSoon       = errors.New("deadline soon")
	ErrCommandFailed      = errors.New("command failed")
	ErrUnexpectedResponse = errors.New("unexpected response from server")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrNotConnected       = errors.New("not connected")
)

// RequestError describes an unsuccessful reply to a single request. It
// carries the raw status token and any trailing tokens, so callers can
// branch on the status text, e.g. to fall back to an older verb when an old
// server replies UNKNOWN_COMMAND.
type RequestError struct {
	// Op is the protocol verb of the request that provoked the reply.
	Op string
	// Status is the raw status token of the reply.
	Status string
	// Values holds the raw tokens that followed the status token.
	Values []string

	kind error
}

func (e *RequestError) Error() string {
	if len(e.Values) == 0 {
		return fmt.Sprintf("%s: %s in reply to %s", e.kind, e.Status, e.Op)
	}

	return fmt.Sprintf("%s: %s %s in reply to %s", e.kind, e.Status, strings.Join(e.Values, " "), e.Op)
}

// Unwrap returns the error kind, one of ErrBuried, ErrTimedOut,
// ErrDeadlineSoon, ErrCommandFailed or ErrUnexpectedResponse.
func (e *RequestError) Unwrap() error {
	return e.kind
}

// JobID returns the job id on the status line, if the reply carried one. A
// BURIED reply to put names the id of the job that got buried.
func (e *RequestError) JobID() (uint64, bool) {
	if len(e.Values) == 0 {
		return 0, false
	}

	id, err := strconv.ParseUint(e.Values[0], 10, 64)
	return id, err == nil
}

// classify determines the outcome of a reply from its status token and the
// expectations declared on the request. It returns nil for success.
//
// The ok set is consulted first, because BURIED is the success status of
// bury but an error for put and release.
func classify(req *request, status string, values []string) *RequestError {
	kind := func(kind error) *RequestError {
		return &RequestError{Op: req.op, Status: status, Values: values, kind: kind}
	}

	switch {
	case includes(req.ok, status):
		return nil
	case status == "BURIED":
		return kind(ErrBuried)
	case status == "TIMED_OUT":
		return kind(ErrTimedOut)
	case status == "DEADLINE_SOON":
		return kind(ErrDeadlineSoon)
	case includes(req.err, status):
		return kind(ErrCommandFailed)
	default:
		return kind(ErrUnexpectedResponse)
	}
}
