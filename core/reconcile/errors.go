package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrBranchListUnavailable is fatal to a run.
	ErrBranchListUnavailable = errors.New("branch list unavailable")
	// ErrSourceUnavailable means the POS could not be reached for one branch.
	ErrSourceUnavailable = errors.New("inventory source unavailable")
	// ErrSourceError means the POS answered but reported a failure.
	ErrSourceError = errors.New("inventory source error")
	// ErrUpsertFailure means the store rejected a single product write.
	ErrUpsertFailure = errors.New("inventory upsert failed")
	// ErrAuditWriteFailure means the run record could not be persisted.
	ErrAuditWriteFailure = errors.New("sync run audit write failed")
)

// SourceError carries the details of an application-level POS failure.
type SourceError struct {
	// StatusCode is the HTTP status, zero when the failure came from the payload.
	StatusCode int
	// Code is the API error code, if the payload carried one.
	Code string
	// Message is the API or HTTP error text.
	Message string
}

func (e *SourceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("pos api error %d: %s", e.StatusCode, e.Message)
	case e.Code != "":
		return fmt.Sprintf("pos api error %s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("pos api error: %s", e.Message)
	}
}

// Unwrap lets errors.Is(err, ErrSourceError) match.
func (e *SourceError) Unwrap() error {
	return ErrSourceError
}
