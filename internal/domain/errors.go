package domain

import "fmt"

// Step names the part of an operation that failed.
type Step string

const (
	StepValidation  Step = "validation"
	StepPersistence Step = "persistence"
	StepGeneration  Step = "generation"
)

// StepError wraps a core failure with the step and operation that produced
// it, so the message can be shown to the user as-is.
type StepError struct {
	Step Step
	Op   string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed during %s: %v", e.Step, e.Op, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Fail builds a StepError. A nil err yields nil.
func Fail(step Step, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Op: op, Err: err}
}
