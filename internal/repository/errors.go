package repository

import "errors"

// ErrNotFound is returned when a record id has no matching row.
var ErrNotFound = errors.New("not found")

// ErrStorage wraps persistence I/O failures. Callers see it through
// errors.Is and are not expected to retry.
var ErrStorage = errors.New("storage error")
