package workflow

import "errors"

var (
	// ErrValidation marks a rejected stage submission.
	ErrValidation = errors.New("validation error")

	// ErrAtFirstStage is returned by Retreat on the first stage.
	ErrAtFirstStage = errors.New("already at the first stage")

	// ErrCompleted is returned by transitions once the report is generated.
	ErrCompleted = errors.New("record already completed")
)
