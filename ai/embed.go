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

package ai

import (
	"context"

	"github.com/poiesic/profilematch/similarity"
)

// Embed embeds texts with e in one batched call.
// Empty input returns no vectors and the embedder's model id without calling
// the service. When normalize is set every vector is scaled to unit length.
func Embed(ctx context.Context, e Embedder, texts []string, normalize bool) ([][]float32, string, error) {
	model := e.Model()
	if len(texts) == 0 {
		return [][]float32{}, model, nil
	}

	vectors, err := e.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, model, err
	}
	if normalize {
		vectors = similarity.NormalizeAll(vectors)
	}
	return vectors, model, nil
}
