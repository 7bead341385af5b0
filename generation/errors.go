package generation

import "errors"

var (
	// ErrTrackerRequired is returned when no job tracker is supplied.
	ErrTrackerRequired = errors.New("job tracker is required")

	// ErrGeneratorRequired is returned when no content generator is supplied.
	ErrGeneratorRequired = errors.New("content generator is required")

	// ErrIndexRequired is returned when no content index is supplied.
	ErrIndexRequired = errors.New("content index is required")

	// ErrMaterializerRequired is returned when no materializer is supplied.
	ErrMaterializerRequired = errors.New("materializer is required")

	// ErrInvalidArtifactPath is returned for artifact paths outside the root.
	ErrInvalidArtifactPath = errors.New("invalid artifact path")

	// errHalted stops the pipeline once the job is cancelled or failed.
	errHalted = errors.New("pipeline halted")
)
