package source

import "fmt"

// MalformedUpdateError means a payload could not be turned into an update.
// Such updates never reach the pipeline.
type MalformedUpdateError struct {
	// UpdateID is the update_id found in the payload, 0 when unreadable.
	UpdateID int
	Err      error
}

func (e *MalformedUpdateError) Error() string {
	if e.UpdateID != 0 {
		return fmt.Sprintf("source: malformed update %d: %v", e.UpdateID, e.Err)
	}
	return fmt.Sprintf("source: malformed update: %v", e.Err)
}

func (e *MalformedUpdateError) Unwrap() error {
	return e.Err
}

// TransientError is a failed call to the Bot API that is worth retrying.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("source: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
