package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/fyrsmithlabs/docrank/internal/tokenize"
)

// DefaultHashDimension is the vector size of the hash provider, matching
// the small sentence-encoder models it stands in for.
const DefaultHashDimension = 384

// HashProvider is a deterministic bag-of-words embedder: each token hashes
// into a bucket of an L2-normalized vector. It has none of a sentence
// encoder's semantics but preserves the properties the pipeline relies on:
// identical texts embed identically, and texts sharing vocabulary have
// higher cosine similarity than disjoint texts. Used in tests and as a
// degraded fallback when no ONNX model is available.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a HashProvider with the given dimension.
// A non-positive dimension selects DefaultHashDimension.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashProvider{dimension: dimension}
}

// EmbedQuery generates the embedding for a single text.
func (p *HashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	return p.embed(text), nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *HashProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.embed(t)
	}
	return out, nil
}

// Dimension returns the configured vector size.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; the hash provider holds no resources.
func (p *HashProvider) Close() error {
	return nil
}

func (p *HashProvider) embed(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, tok := range tokenize.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(p.dimension))
		// Sign from a second hash bit spreads tokens across both
		// directions, reducing accidental collisions in similarity.
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

var _ Provider = (*HashProvider)(nil)
