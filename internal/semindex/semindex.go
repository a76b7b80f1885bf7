// Package semindex provides an in-memory semantic similarity index over
// candidate sections. Each pipeline run builds one index, queries it once
// with the persona query, and discards it.
package semindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docrank/internal/embeddings"
)

var tracer = otel.Tracer("docrank.semindex")

var (
	// ErrEmptyDocuments indicates Add was called with no documents.
	ErrEmptyDocuments = errors.New("documents cannot be empty")
	// ErrEmptyQuery indicates Similarities was called with an empty query.
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrEmbeddingFailed indicates the embedder could not produce vectors.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Document is a section body to index, keyed by a caller-assigned ID.
type Document struct {
	ID      string
	Content string
}

// Index is an in-memory vector index over one run's candidate sections.
// chromem-go performs exact (brute-force) search, which is what we want:
// every candidate gets a true similarity, not an ANN approximation.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	logger     *zap.Logger
	count      int
}

// New creates an empty index backed by the given embedder.
func New(embedder embeddings.Embedder, logger *zap.Logger) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := chromem.NewDB()
	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	// Collection names are unique per run so concurrent runs sharing a
	// process never collide.
	name := "docrank_run_" + uuid.NewString()
	collection, err := db.CreateCollection(name, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}

	return &Index{
		db:         db,
		collection: collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Add embeds and indexes the given documents in one batch.
func (ix *Index) Add(ctx context.Context, docs []Document) error {
	ctx, span := tracer.Start(ctx, "semindex.Add")
	defer span.End()

	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return ErrEmptyDocuments
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: vectors[i],
		}
	}

	// Concurrency 1: embeddings are already computed, nothing to parallelize.
	if err := ix.collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	ix.count += len(docs)
	span.SetStatus(codes.Ok, "success")

	ix.logger.Debug("indexed documents",
		zap.Int("count", len(docs)),
		zap.Int("total", ix.count),
	)
	return nil
}

// Similarities returns the similarity of every indexed document to the
// query, keyed by document ID. Scores are cosine similarity rescaled from
// [-1,1] to [0,1], so 0.5 means orthogonal and 1.0 means identical.
func (ix *Index) Similarities(ctx context.Context, query string) (map[string]float64, error) {
	ctx, span := tracer.Start(ctx, "semindex.Similarities")
	defer span.End()

	if query == "" {
		return nil, ErrEmptyQuery
	}
	if ix.count == 0 {
		return map[string]float64{}, nil
	}

	results, err := ix.collection.Query(ctx, query, ix.count, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying index: %w", err)
	}

	scores := make(map[string]float64, len(results))
	for _, r := range results {
		scores[r.ID] = clamp01((float64(r.Similarity) + 1) / 2)
	}

	span.SetAttributes(attribute.Int("results_count", len(scores)))
	span.SetStatus(codes.Ok, "success")
	return scores, nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.count
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
