package upload

import (
	"errors"
	"fmt"
)

// ErrUploadInFlight is returned when HandleUpload is called while another
// batch is still being processed.
var ErrUploadInFlight = errors.New("an upload batch is already in progress")

// ValidationError rejects a file before it enters the queue. It never reaches
// the per-item state machine.
type ValidationError struct {
	FileName string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileName, e.Reason)
}
