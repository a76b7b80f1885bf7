package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashProviderDeterministic(t *testing.T) {
	p := NewHashProvider(DefaultHashDimension)
	defer p.Close()

	ctx := context.Background()
	a, err := p.EmbedQuery(ctx, "vegetarian buffet menu planning")
	require.NoError(t, err)
	b, err := p.EmbedQuery(ctx, "vegetarian buffet menu planning")
	require.NoError(t, err)

	require.Len(t, a, DefaultHashDimension)
	assert.Equal(t, a, b, "identical input must produce identical vectors")
}

func TestHashProviderNormalized(t *testing.T) {
	p := NewHashProvider(DefaultHashDimension)
	defer p.Close()

	vec, err := p.EmbedQuery(context.Background(), "travel itinerary for a group of college friends")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashProviderOverlapSimilarity(t *testing.T) {
	p := NewHashProvider(DefaultHashDimension)
	defer p.Close()

	ctx := context.Background()
	query, err := p.EmbedQuery(ctx, "coastal adventures and beach activities")
	require.NoError(t, err)

	docs, err := p.EmbedDocuments(ctx, []string{
		"beach activities along the coast with water sports",
		"corporate expense reporting and compliance forms",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	related := cosine(query, docs[0])
	unrelated := cosine(query, docs[1])
	assert.Greater(t, related, unrelated,
		"vector for overlapping text should score higher than disjoint text")
}

func TestHashProviderEmptyInput(t *testing.T) {
	p := NewHashProvider(DefaultHashDimension)
	defer p.Close()

	_, err := p.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestHashProviderContextCancelled(t *testing.T) {
	p := NewHashProvider(DefaultHashDimension)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.EmbedQuery(ctx, "anything")
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ProviderConfig
		wantErr  bool
		wantHash bool
	}{
		{name: "hash provider", cfg: ProviderConfig{Provider: "hash"}, wantHash: true},
		{name: "unknown provider", cfg: ProviderConfig{Provider: "openai"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			defer p.Close()
			if tt.wantHash {
				_, ok := p.(*HashProvider)
				assert.True(t, ok)
			}
		})
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
