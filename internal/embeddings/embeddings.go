// Package embeddings turns normalized track text into fixed-size vectors.
// The OpenAI adapter handles batching and retry; the cached wrapper keeps
// recently embedded texts in a bounded TTL cache so repeated resolutions
// of the same catalog avoid API calls.
package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"github.com/desertthunder/tracklink/internal/metrics"
	"github.com/desertthunder/tracklink/internal/shared"
)

// Embedder produces embedding vectors for normalized track text.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions is the length of every vector the embedder produces.
	Dimensions() int
	// Model names the underlying embedding model.
	Model() string
}

// embeddingClient is the slice of the OpenAI client the adapter uses.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint, splitting large
// inputs into batches of at most batchSize texts per request.
type OpenAIEmbedder struct {
	client    embeddingClient
	model     string
	dimension int
	batchSize int
	logger    *log.Logger
}

func NewOpenAIEmbedder(apiKey string, cfg shared.EmbeddingConfig, logger *log.Logger) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:    openai.NewClient(apiKey),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dimension }

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := texts[start:end]

		vecs, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		results = append(results, vecs...)
	}

	return results, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	// Empty strings are rejected by the API, so they are embedded as
	// zero vectors without a call.
	input := make([]string, 0, len(batch))
	zeroAt := make(map[int]bool)
	for i, text := range batch {
		if text == "" {
			e.logger.Warn("embedding empty text as zero vector", "index", i)
			zeroAt[i] = true
			continue
		}
		input = append(input, text)
	}

	vectors := make([][]float32, len(batch))
	if len(input) > 0 {
		start := time.Now()
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: input,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrEmbedding, err)
		}
		metrics.Default().TrackEmbedding(time.Since(start), len(input))

		if len(resp.Data) != len(input) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				shared.ErrEmbedding, len(resp.Data), len(input))
		}

		next := 0
		for i := range batch {
			if zeroAt[i] {
				continue
			}
			vectors[i] = resp.Data[next].Embedding
			next++
		}
	}

	for i := range batch {
		if zeroAt[i] {
			vectors[i] = make([]float32, e.dimension)
		}
	}

	return vectors, nil
}
