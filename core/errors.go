// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateJob indicates a non-terminal job already exists for the roadmap.
	ErrDuplicateJob = errors.New("duplicate job for roadmap")

	// ErrQueueFull indicates the job queue is at capacity. Callers should retry later.
	ErrQueueFull = errors.New("job queue is full")

	// ErrTerminalJob indicates a mutation was attempted on a finished job.
	ErrTerminalJob = errors.New("job is terminal")

	// ErrEmbeddingDimension indicates a vector does not match the deployment dimension.
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates an unknown job or embedding id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest indicates a submission or store request failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrPercentageRegression indicates an advance tried to lower the progress percentage.
	ErrPercentageRegression = errors.New("progress percentage cannot decrease")

	// ErrInvalidTransition indicates a state change the job lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrEmptyContent indicates content text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidContentType indicates an unknown content type tag.
	ErrInvalidContentType = errors.New("invalid content type")
)

// DuplicateJobError carries the id of the job already in flight for a roadmap.
type DuplicateJobError struct {
	RoadmapID     string
	ExistingJobID string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("%s: roadmap %s has active job %s", ErrDuplicateJob, e.RoadmapID, e.ExistingJobID)
}

func (e *DuplicateJobError) Is(target error) bool {
	return target == ErrDuplicateJob
}

// StepExecutionError is a transient failure of one pipeline step attempt.
type StepExecutionError struct {
	Step    string
	Attempt int
	Err     error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s attempt %d: %v", e.Step, e.Attempt, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

// TerminalJobError reports that a job is already in a final state.
type TerminalJobError struct {
	JobID  string
	Status JobStatus
}

func (e *TerminalJobError) Error() string {
	return fmt.Sprintf("%s: job %s is %s", ErrTerminalJob, e.JobID, e.Status)
}

func (e *TerminalJobError) Is(target error) bool {
	return target == ErrTerminalJob
}

// EmbeddingDimensionError reports a vector whose length differs from the deployment's.
type EmbeddingDimensionError struct {
	Expected int
	Actual   int
}

func (e *EmbeddingDimensionError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrEmbeddingDimension, e.Expected, e.Actual)
}

func (e *EmbeddingDimensionError) Is(target error) bool {
	return target == ErrEmbeddingDimension
}
