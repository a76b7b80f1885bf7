// Package extract produces text blocks from input documents. The primary
// source parses PDF content streams via pdfcpu; a JSON source accepts
// pre-extracted blocks, and an in-memory source backs tests.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fyrsmithlabs/docrank/internal/layout"
)

var (
	// ErrNoText indicates a document yielded zero text blocks.
	ErrNoText = errors.New("no text content found")
	// ErrUnknownDocument indicates a source has no entry for the document.
	ErrUnknownDocument = errors.New("unknown document")
)

// Source yields the text blocks of one document, in reading order with
// sequential indices.
type Source interface {
	Extract(ctx context.Context, path string) ([]layout.TextBlock, error)
}

// JSONSource reads pre-extracted blocks from a JSON file: an array of
// objects matching the TextBlock wire shape. Indices are reassigned
// sequentially so downstream tie-breaks stay consistent.
type JSONSource struct{}

// Extract reads and decodes the block file at path.
func (JSONSource) Extract(ctx context.Context, path string) ([]layout.TextBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading block file: %w", err)
	}

	var blocks []layout.TextBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("decoding block file %s: %w", path, err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, path)
	}

	for i := range blocks {
		blocks[i].Index = i
	}
	return blocks, nil
}

// MemorySource serves fixed blocks keyed by document path. Used in tests.
type MemorySource map[string][]layout.TextBlock

// Extract returns the configured blocks for path.
func (m MemorySource) Extract(ctx context.Context, path string) ([]layout.TextBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, path)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, path)
	}
	return blocks, nil
}

var (
	_ Source = JSONSource{}
	_ Source = MemorySource{}
)
