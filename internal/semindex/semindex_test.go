package semindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/embeddings"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(embeddings.NewHashProvider(0), zap.NewNop())
	require.NoError(t, err)
	return ix
}

func TestSimilaritiesRanksOverlappingContent(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	err := ix.Add(ctx, []Document{
		{ID: "beach", Content: "beach activities water sports along the coastline"},
		{ID: "tax", Content: "quarterly tax compliance filing deadlines"},
	})
	require.NoError(t, err)

	scores, err := ix.Similarities(ctx, "coastal beach activities for a trip")
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Greater(t, scores["beach"], scores["tax"])
	for id, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0, "score for %s", id)
		assert.LessOrEqual(t, s, 1.0, "score for %s", id)
	}
}

func TestSimilaritiesEmptyIndex(t *testing.T) {
	ix := newTestIndex(t)

	scores, err := ix.Similarities(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestSimilaritiesEmptyQuery(t *testing.T) {
	ix := newTestIndex(t)

	_, err := ix.Similarities(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAddEmptyDocuments(t *testing.T) {
	ix := newTestIndex(t)

	err := ix.Add(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)
}

func TestCount(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	assert.Equal(t, 0, ix.Count())

	err := ix.Add(ctx, []Document{
		{ID: "a", Content: "first section body"},
		{ID: "b", Content: "second section body"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Count())
}
