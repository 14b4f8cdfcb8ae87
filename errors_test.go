package beanstalkt

import (
	"errors"
	"strings"
	"testing"
)

func putReq() *request {
	return &request{op: "put", ok: []string{"INSERTED"}, err: []string{"BURIED", "JOB_TOO_BIG", "DRAINING"}}
}

func TestClassify(t *testing.T) {
	bury := &request{op: "bury", ok: []string{"BURIED"}, err: []string{"NOT_FOUND"}}
	reserve := &request{op: "reserve-with-timeout", ok: []string{"RESERVED"}, err: []string{"DEADLINE_SOON", "TIMED_OUT"}}
	del := &request{op: "delete", ok: []string{"DELETED"}, err: []string{"NOT_FOUND"}}

	testCases := []struct {
		name     string
		req      *request
		status   string
		expected error
	}{
		{"PutInserted", putReq(), "INSERTED", nil},
		{"PutBuried", putReq(), "BURIED", ErrBuried},
		{"PutDraining", putReq(), "DRAINING", ErrCommandFailed},
		{"PutJobTooBig", putReq(), "JOB_TOO_BIG", ErrCommandFailed},

		// BURIED is the success status of bury, so the ok set must win
		// over the buried classification.
		{"BurySuccess", bury, "BURIED", nil},
		{"BuryNotFound", bury, "NOT_FOUND", ErrCommandFailed},

		{"ReserveTimedOut", reserve, "TIMED_OUT", ErrTimedOut},
		{"ReserveDeadlineSoon", reserve, "DEADLINE_SOON", ErrDeadlineSoon},
		{"ReserveReserved", reserve, "RESERVED", nil},

		{"DeleteUnknownCommand", del, "UNKNOWN_COMMAND", ErrUnexpectedResponse},
		{"DeleteEmptyStatus", del, "", ErrUnexpectedResponse},
		{"DeleteGarbage", del, "WHATEVER", ErrUnexpectedResponse},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := classify(testCase.req, testCase.status, nil)

			switch {
			case testCase.expected == nil && got != nil:
				t.Fatalf("Expected success, but got %v", got)
			case testCase.expected != nil && got == nil:
				t.Fatalf("Expected %v, but got success", testCase.expected)
			case testCase.expected != nil && !errors.Is(got, testCase.expected):
				t.Fatalf("Expected %v, but got %v", testCase.expected, got)
			}
		})
	}
}

// TestClassifyTotality validates that every status resolves to exactly one
// classification, whatever the verb expects.
func TestClassifyTotality(t *testing.T) {
	kinds := []error{ErrBuried, ErrTimedOut, ErrDeadlineSoon, ErrCommandFailed, ErrUnexpectedResponse}
	statuses := []string{
		"INSERTED", "BURIED", "TIMED_OUT", "DEADLINE_SOON", "NOT_FOUND",
		"DRAINING", "UNKNOWN_COMMAND", "OUT_OF_MEMORY", "",
	}

	for _, status := range statuses {
		got := classify(putReq(), status, nil)
		if got == nil {
			continue
		}

		matches := 0
		for _, kind := range kinds {
			if errors.Is(got, kind) {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("Expected status %q to match exactly one error kind, but matched %d", status, matches)
		}
	}
}

func TestRequestErrorJobID(t *testing.T) {
	reqErr := classify(putReq(), "BURIED", []string{"13"})
	if !errors.Is(reqErr, ErrBuried) {
		t.Fatalf("Expected a buried error, but got %v", reqErr)
	}
	if id, ok := reqErr.JobID(); !ok || id != 13 {
		t.Fatalf("Expected job id 13, but got %d (%t)", id, ok)
	}

	reqErr = classify(putReq(), "DRAINING", nil)
	if _, ok := reqErr.JobID(); ok {
		t.Fatal("Expected no job id on a DRAINING reply")
	}
}

func TestRequestErrorMessage(t *testing.T) {
	err := classify(putReq(), "BURIED", []string{"13"})
	if msg := err.Error(); !strings.Contains(msg, "BURIED 13") || !strings.Contains(msg, "put") {
		t.Fatalf("Expected the status and verb in the message, but got %q", msg)
	}

	var reqErr *RequestError
	if !errors.As(error(err), &reqErr) {
		t.Fatal("Expected the error to match *RequestError")
	}
	if reqErr.Status != "BURIED" || reqErr.Op != "put" {
		t.Fatalf("Unexpected request error fields: %+v", reqErr)
	}
}
