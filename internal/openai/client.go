// Package openai wraps the OpenAI API for embeddings and chat completion.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/syllabiq/syllabiq/internal/domain"
)

var (
	// ErrNoAPIKey is returned when the client is constructed without a key.
	ErrNoAPIKey = errors.New("openai api key is not set")
	// ErrWrongDimensions is returned when the API responds with a vector of
	// unexpected size.
	ErrWrongDimensions = errors.New("embedding has unexpected dimensions")
	// ErrEmptyText is returned when asked to embed an empty string.
	ErrEmptyText = errors.New("cannot embed empty text")
)

// EmbeddingAPI is the surface of the OpenAI client used for embeddings.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Client produces embeddings with a fixed model and dimension count. The
// model identity travels with every stored chunk so the retriever can detect
// index/query model drift.
type Client struct {
	api        EmbeddingAPI
	model      string
	dimensions int
}

// NewClient creates an embedding client. Returns ErrNoAPIKey when apiKey is
// empty so callers can fall back to an Unavailable client.
func NewClient(apiKey, model string, dimensions int) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Client{
		api:        openai.NewClient(apiKey),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// NewClientWithAPI creates a client with a custom API implementation, used in tests.
func NewClientWithAPI(api EmbeddingAPI, model string, dimensions int) *Client {
	return &Client{api: api, model: model, dimensions: dimensions}
}

// ModelID returns the embedding model identifier.
func (c *Client) ModelID() string {
	return c.model
}

// Dimensions returns the configured embedding dimension count.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed returns the embedding vector for a single text. Transient API
// failures are retried with exponential backoff before surfacing as an
// upstream error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	}

	var resp openai.EmbeddingResponse
	op := func() error {
		var err error
		resp, err = c.api.CreateEmbeddings(ctx, req)
		return err
	}
	if err := backoff.Retry(op, c.newBackoff(ctx)); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "creating embedding", err)
	}

	if len(resp.Data) == 0 {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "creating embedding", errors.New("empty response"))
	}
	embedding := resp.Data[0].Embedding
	if len(embedding) != c.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrWrongDimensions, len(embedding), c.dimensions)
	}
	return embedding, nil
}

func (c *Client) newBackoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)
}

// UnavailableClient satisfies the embedding surface when no API key is
// configured. Every call fails deterministically with an upstream error.
type UnavailableClient struct {
	model      string
	dimensions int
}

// NewUnavailableClient creates a client that always reports the embedding
// service as unavailable.
func NewUnavailableClient(model string, dimensions int) *UnavailableClient {
	return &UnavailableClient{model: model, dimensions: dimensions}
}

func (u *UnavailableClient) ModelID() string { return u.model }

func (u *UnavailableClient) Dimensions() int { return u.dimensions }

func (u *UnavailableClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, domain.ErrEmbeddingUnavailable
}
