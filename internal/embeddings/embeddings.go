// Package embeddings provides text embedding generation for the similarity
// engine.
//
// The pipeline treats the encoder as a frozen pure function text -> vector;
// nothing here trains or updates a model. Two providers are available:
// FastEmbed (local ONNX models) and a deterministic hash encoder used in
// tests and as a degraded fallback when no model is available.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Embedder generates fixed-length vectors for texts. Implementations must
// be safe for concurrent use and deterministic for identical inputs.
type Embedder interface {
	// EmbedQuery generates an embedding for a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments generates embeddings for multiple document texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider is an Embedder with lifecycle and dimension information.
type Provider interface {
	Embedder

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type: "fastembed" or "hash".
	Provider string `koanf:"provider"`

	// Model is the embedding model name (FastEmbed only).
	Model string `koanf:"model"`

	// CacheDir is the model cache directory (FastEmbed only).
	CacheDir string `koanf:"cache_dir"`

	// Dimension overrides the vector size (hash provider only).
	Dimension int `koanf:"dimension"`
}
