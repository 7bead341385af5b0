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

import "math"

// CosineSimilarity returns dot(a,b) / (|a| * |b|) computed in float64.
// Returns 0 when the lengths differ, either vector is empty, or either norm is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	score := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// rounding can push identical vectors just past 1
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// CompareResults orders search results by score descending, then newer
// CreatedAt first, then higher id first. It is suitable for slices.SortFunc.
func CompareResults(a, b *SearchResult) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	if c := b.Embedding.CreatedAt.Compare(a.Embedding.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.Embedding.ID > b.Embedding.ID:
		return -1
	case a.Embedding.ID < b.Embedding.ID:
		return 1
	}
	return 0
}
