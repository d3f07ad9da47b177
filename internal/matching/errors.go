package matching

import (
	"errors"
	"fmt"
)

// ErrInvalidPair is returned when a resume or job id is missing.
var ErrInvalidPair = errors.New("missing resume_id or job_id")

// PersistError means an opinion was formed but could not be saved.
type PersistError struct {
	Result Result
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to update match score: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
