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

package similarity

import "math"

// Matrix returns the cosine similarity of every query vector against every
// candidate vector as an m×n matrix. Vectors with zero norm are divided by 1
// instead, so they score zero against everything. Vectors with a NaN or
// infinite component also score zero. If either set is empty the result is
// an all-zero m×n matrix.
func Matrix(queries, candidates [][]float32) [][]float64 {
	result := make([][]float64, len(queries))
	for i := range result {
		result[i] = make([]float64, len(candidates))
	}
	if len(queries) == 0 || len(candidates) == 0 {
		return result
	}

	candidateNorms := make([]float64, len(candidates))
	for j, c := range candidates {
		candidateNorms[j] = safeNorm(c)
	}

	for i, q := range queries {
		if !Finite(q) {
			continue
		}
		qn := safeNorm(q)
		for j, c := range candidates {
			if !Finite(c) {
				continue
			}
			sim := Dot(q, c) / (qn * candidateNorms[j])
			if math.IsNaN(sim) || math.IsInf(sim, 0) {
				sim = 0
			}
			result[i][j] = sim
		}
	}
	return result
}

// Cosine returns the cosine similarity of a single pair of vectors.
func Cosine(a, b []float32) float64 {
	return Matrix([][]float32{a}, [][]float32{b})[0][0]
}

func safeNorm(v []float32) float64 {
	n := norm(v)
	if n == 0 {
		return 1
	}
	return n
}
