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

package storage

import (
	"fmt"

	"github.com/poiesic/syllabus/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalJob serializes a GenerationJob to bytes.
func MarshalJob(job *core.GenerationJob) []byte {
	buf := make([]byte, core.GenerationJobMUS.Size(*job))
	core.GenerationJobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalJob deserializes a GenerationJob from bytes.
func UnmarshalJob(data []byte) (*core.GenerationJob, error) {
	job, _, err := core.GenerationJobMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &job, nil
}

// MarshalRequest serializes a GenerationRequest to bytes.
func MarshalRequest(req *core.GenerationRequest) []byte {
	buf := make([]byte, core.GenerationRequestMUS.Size(*req))
	core.GenerationRequestMUS.Marshal(*req, buf)
	return buf
}

// UnmarshalRequest deserializes a GenerationRequest from bytes.
func UnmarshalRequest(data []byte) (*core.GenerationRequest, error) {
	req, _, err := core.GenerationRequestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &req, nil
}

// MarshalEmbedding serializes a VectorEmbedding to bytes.
func MarshalEmbedding(embedding *core.VectorEmbedding) []byte {
	buf := make([]byte, core.VectorEmbeddingMUS.Size(*embedding))
	core.VectorEmbeddingMUS.Marshal(*embedding, buf)
	return buf
}

// UnmarshalEmbedding deserializes a VectorEmbedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.VectorEmbedding, error) {
	embedding, _, err := core.VectorEmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &embedding, nil
}
