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
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// contenttype accepts one of ContentTypes
	_ = v.RegisterValidation("contenttype", func(fl validator.FieldLevel) bool {
		return slices.Contains(ContentTypes, ContentType(fl.Field().String()))
	})
	return v
}

// ValidateStruct applies the validate tags of v.
// Failures wrap ErrInvalidRequest.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describeValidation(err))
	}
	return nil
}

// ValidateGenerationRequest validates a submission according to domain rules.
//
// Validation rules:
//   - CourseID, RoadmapID and Title are required
//   - At least one section, each with at least one subtopic
//   - Overrides must reference existing sections
func ValidateGenerationRequest(req *GenerationRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	if err := ValidateStruct(req); err != nil {
		return err
	}
	for idx := range req.Overrides {
		if idx < 0 || idx >= len(req.Sections) {
			return fmt.Errorf("%w: override for unknown section %d", ErrInvalidRequest, idx)
		}
	}
	return nil
}

// ValidateContentType checks that a content type is one of ContentTypes.
func ValidateContentType(ct ContentType) error {
	if !slices.Contains(ContentTypes, ct) {
		return fmt.Errorf("%w: %q", ErrInvalidContentType, ct)
	}
	return nil
}

// ValidateEmbedding validates an embedding before it is stored.
//
// NOT validated (populated by the store):
//   - Vector and ContentHash
//   - ID (0 is valid until assigned from the sequence)
func ValidateEmbedding(e *VectorEmbedding) error {
	if e == nil {
		return fmt.Errorf("%w: embedding is nil", ErrInvalidRequest)
	}
	if strings.TrimSpace(e.CourseID) == "" {
		return fmt.Errorf("%w: course id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(e.ContentText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyContent)
	}
	if err := ValidateContentType(e.ContentType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
