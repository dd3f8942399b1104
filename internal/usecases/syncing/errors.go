package syncing

import (
	"errors"
	"fmt"
)

var (
	// ErrParentNotFound means a record references a campaign or ad set that is not stored
	ErrParentNotFound = errors.New("parent entity not found")
	// ErrInvalidRecord means a fetched record could not be decoded or converted
	ErrInvalidRecord = errors.New("invalid record")
	// ErrSummaryNotDue means the daily summary window has not opened yet
	ErrSummaryNotDue = errors.New("daily summary not due yet")
)

// RecordError carries the stage and external id of a record that was skipped
type RecordError struct {
	Stage      string
	ExternalID string
	Err        error
}

func (e *RecordError) Error() string {
	if e.ExternalID == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.ExternalID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrStageFailed means at least one stage stopped early; the report says which
var ErrStageFailed = errors.New("sync stage failed")
