package service

import (
	"context"
	"strings"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// Embedder is the embedding surface used by the retriever and indexer.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelID() string
	Dimensions() int
}

// ChunkSearcher is the index surface the retriever needs.
type ChunkSearcher interface {
	SearchByEmbedding(ctx context.Context, embedding []float32, filter domain.RetrievalFilter, embeddingModel string, limit int) ([]domain.RetrievedChunk, error)
	CountModelMismatch(ctx context.Context, filter domain.RetrievalFilter, embeddingModel string) (int64, error)
}

// RetrieverService embeds a query and similarity-searches the chunk index.
type RetrieverService struct {
	embedder Embedder
	chunks   ChunkSearcher
}

// NewRetrieverService creates a RetrieverService.
func NewRetrieverService(embedder Embedder, chunks ChunkSearcher) *RetrieverService {
	return &RetrieverService{embedder: embedder, chunks: chunks}
}

// Retrieve returns the top-k chunks for a query under the filter. Zero
// matches is a valid empty result, not an error. An index built with a
// different embedding model than the configured one is a configuration
// error, not silently empty results.
func (s *RetrieverService) Retrieve(ctx context.Context, queryText string, filter domain.RetrievalFilter, k int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 5
	}

	mismatched, err := s.chunks.CountModelMismatch(ctx, filter, s.embedder.ModelID())
	if err != nil {
		return nil, err
	}
	if mismatched > 0 {
		return nil, domain.ErrEmbeddingModelMismatch
	}

	embedding, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	return s.chunks.SearchByEmbedding(ctx, embedding, filter, s.embedder.ModelID(), k)
}
