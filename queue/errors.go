package queue

import "errors"

var (
	// ErrTrackerRequired is returned when a job tracker is not provided.
	ErrTrackerRequired = errors.New("job tracker required")

	// ErrRunnerRequired is returned when a job runner is not provided.
	ErrRunnerRequired = errors.New("job runner required")

	// ErrClosed is returned by Submit after Stop.
	ErrClosed = errors.New("queue is stopped")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("queue already started")
)
