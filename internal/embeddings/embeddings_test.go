package embeddings

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"github.com/desertthunder/tracklink/internal/shared"
)

// stubClient fakes the OpenAI embeddings endpoint, returning a distinct
// vector per input and recording request sizes.
type stubClient struct {
	batches [][]string
	err     error
}

func (s *stubClient) CreateEmbeddings(_ context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	if s.err != nil {
		return openai.EmbeddingResponse{}, s.err
	}

	req := conv.Convert()
	input := req.Input.([]string)
	s.batches = append(s.batches, input)

	resp := openai.EmbeddingResponse{}
	for i := range input {
		resp.Data = append(resp.Data, openai.Embedding{
			Embedding: []float32{float32(len(input[i])), float32(i)},
		})
	}
	return resp, nil
}

func newTestEmbedder(client embeddingClient, batchSize int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:    client,
		model:     "text-embedding-ada-002",
		dimension: 2,
		batchSize: batchSize,
		logger:    log.New(io.Discard),
	}
}

func TestOpenAIEmbedderBatching(t *testing.T) {
	client := &stubClient{}
	e := newTestEmbedder(client, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}
	if len(client.batches) != 3 {
		t.Errorf("got %d API calls, want 3", len(client.batches))
	}
	for i, text := range texts {
		if vecs[i][0] != float32(len(text)) {
			t.Errorf("vector %d out of order: got %f, want %f", i, vecs[i][0], float32(len(text)))
		}
	}
}

func TestOpenAIEmbedderEmptyText(t *testing.T) {
	client := &stubClient{}
	e := newTestEmbedder(client, 100)

	vecs, err := e.EmbedBatch(context.Background(), []string{"hello", "", "world"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if len(client.batches) != 1 || len(client.batches[0]) != 2 {
		t.Fatalf("expected one API call with 2 texts, got %v", client.batches)
	}
	for _, v := range vecs[1] {
		if v != 0 {
			t.Errorf("expected zero vector for empty text, got %v", vecs[1])
		}
	}
	if len(vecs[1]) != e.Dimensions() {
		t.Errorf("zero vector length = %d, want %d", len(vecs[1]), e.Dimensions())
	}
	if vecs[0][0] != 5 || vecs[2][0] != 5 {
		t.Errorf("non-empty vectors misplaced: %v", vecs)
	}
}

func TestOpenAIEmbedderAllEmpty(t *testing.T) {
	client := &stubClient{}
	e := newTestEmbedder(client, 100)

	vecs, err := e.EmbedBatch(context.Background(), []string{"", ""})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(client.batches) != 0 {
		t.Errorf("expected no API calls, got %d", len(client.batches))
	}
	if len(vecs) != 2 {
		t.Errorf("got %d vectors, want 2", len(vecs))
	}
}

func TestOpenAIEmbedderError(t *testing.T) {
	client := &stubClient{err: errors.New("rate limited")}
	e := newTestEmbedder(client, 100)

	_, err := e.Embed(context.Background(), "some track")
	if !errors.Is(err, shared.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

// countingEmbedder counts Embed/EmbedBatch invocations for cache tests.
type countingEmbedder struct {
	calls int
	texts []string
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts = append(c.texts, texts...)

	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = []float32{float32(len(t))}
	}
	return vecs, nil
}

func (c *countingEmbedder) Dimensions() int { return 1 }

func (c *countingEmbedder) Model() string { return "test-model" }

func TestCachedEmbedderHit(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10, time.Minute)
	ctx := context.Background()

	first, err := cached.Embed(ctx, "hey jude")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := cached.Embed(ctx, "hey jude")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if first[0] != second[0] {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}
}

func TestCachedEmbedderBatchPartialHit(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10, time.Minute)
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "bb"); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	vecs, err := cached.EmbedBatch(ctx, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
	// only the misses hit the inner embedder
	if len(inner.texts) != 3 {
		t.Errorf("inner embedded %v, want 3 texts total", inner.texts)
	}
	want := []float32{1, 2, 3}
	for i, w := range want {
		if vecs[i][0] != w {
			t.Errorf("vector %d = %v, want %v", i, vecs[i], w)
		}
	}
}

func TestCachedEmbedderTTL(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 10, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := cached.Embed(ctx, "hey jude"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := cached.Embed(ctx, "hey jude"); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if inner.calls != 2 {
		t.Errorf("inner called %d times after TTL expiry, want 2", inner.calls)
	}
}

func TestCachedEmbedderEvictionBound(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewCachedEmbedder(inner, 2, time.Minute)
	ctx := context.Background()

	for _, text := range []string{"a", "bb", "ccc"} {
		if _, err := cached.Embed(ctx, text); err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
	}

	// "a" was evicted when the third entry landed
	if _, err := cached.Embed(ctx, "a"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 4 {
		t.Errorf("inner called %d times, want 4 (oldest entry evicted)", inner.calls)
	}
}
