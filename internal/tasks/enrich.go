package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tracklink/internal/embeddings"
	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/repositories"
	"github.com/desertthunder/tracklink/internal/shared"
	"github.com/desertthunder/tracklink/internal/vector"
)

// EnrichOpts contains configuration for bulk vector enrichment.
type EnrichOpts struct {
	BatchSize  int     // Tracks embedded per API call (default: 100)
	NumWorkers int     // Concurrent upsert workers (default: 5)
	RateLimit  float64 // Embedding requests per second (default: 5)
	Recreate   bool    // Drop and recreate the collection first
}

// EnrichResult summarizes a bulk enrichment run.
type EnrichResult struct {
	TotalTracks  int
	IndexedCount int
	FailedCount  int
	Errors       []error
}

// VectorEnricher backfills the vector index from the track catalog.
//
// Tracks land in the catalog whenever the pipeline observes them, but
// index writes can fail or be skipped. Enrichment embeds every
// unindexed track and upserts it, so the index converges on the catalog.
type VectorEnricher struct {
	embedder embeddings.Embedder
	index    vector.Index
	tracks   *repositories.TrackRepository
	logger   *log.Logger
}

func NewVectorEnricher(
	embedder embeddings.Embedder,
	index vector.Index,
	tracks *repositories.TrackRepository,
	logger *log.Logger,
) *VectorEnricher {
	return &VectorEnricher{
		embedder: embedder,
		index:    index,
		tracks:   tracks,
		logger:   logger,
	}
}

type enrichJob struct {
	tracks  []*models.CatalogTrack
	vectors [][]float32
}

// Run embeds and indexes every unindexed catalog track concurrently with
// rate limiting and progress tracking.
//
// Embedding happens in batches on the producer side; a worker pool
// performs the index upserts. Partial failures are collected rather than
// aborting the run.
func (v *VectorEnricher) Run(ctx context.Context, prog chan<- ProgressUpdate, opts EnrichOpts) (*EnrichResult, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if opts.Recreate {
		if err := v.index.EnsureCollection(ctx, true); err != nil {
			return nil, err
		}
		// A fresh collection holds nothing, so everything needs indexing.
		all, err := v.tracks.List(map[string]any{})
		if err != nil {
			return nil, fmt.Errorf("failed to list catalog: %w", err)
		}
		for _, ct := range all {
			ct.SetVectorIndexed(false)
			if err := v.tracks.Update(ct); err != nil {
				v.logger.Warn("failed to reset index flag", "track", ct.TrackID(), "error", err)
			}
		}
	} else if err := v.index.EnsureCollection(ctx, false); err != nil {
		return nil, err
	}

	pending, err := v.tracks.ListUnindexed(0)
	if err != nil {
		return nil, fmt.Errorf("failed to list unindexed tracks: %w", err)
	}

	result := &EnrichResult{TotalTracks: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan enrichJob, opts.NumWorkers)
	type jobResult struct {
		indexed int
		err     error
	}
	results := make(chan jobResult, opts.NumWorkers)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				indexed, err := v.upsertBatch(ctx, job)
				results <- jobResult{indexed: indexed, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)

		for start := 0; start < len(pending); start += opts.BatchSize {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			end := min(start+opts.BatchSize, len(pending))
			batch := pending[start:end]

			texts := make([]string, len(batch))
			for i, ct := range batch {
				texts[i] = shared.NormalizeTrack(ct.Track())
			}

			vectors, err := v.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				results <- jobResult{err: fmt.Errorf("embedding batch at %d: %w", start, err)}
				continue
			}

			jobs <- enrichJob{tracks: batch, vectors: vectors}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	processed := 0
	for res := range results {
		processed += res.indexed
		result.IndexedCount += res.indexed
		if res.err != nil {
			result.Errors = append(result.Errors, res.err)
			v.logger.Warn("enrichment batch failed", "error", res.err)
		}
		if prog != nil {
			select {
			case prog <- indexVectorsUpdate(processed, result.TotalTracks):
			default:
			}
		}
	}

	result.FailedCount = result.TotalTracks - result.IndexedCount
	return result, nil
}

func (v *VectorEnricher) upsertBatch(ctx context.Context, job enrichJob) (int, error) {
	entries := make([]vector.Entry, len(job.tracks))
	byPlatform := make(map[models.Platform][]string)

	for i, ct := range job.tracks {
		t := ct.Track()
		entries[i] = vector.Entry{
			Vector: job.vectors[i],
			Payload: vector.Payload{
				Platform:   t.Platform,
				TrackID:    t.ID,
				Title:      t.Title,
				Artist:     t.Artist,
				Album:      t.Album,
				Normalized: shared.NormalizeTrack(t),
			},
		}
		byPlatform[t.Platform] = append(byPlatform[t.Platform], t.ID)
	}

	if err := v.index.Upsert(ctx, entries); err != nil {
		return 0, err
	}

	for platform, ids := range byPlatform {
		if err := v.tracks.MarkIndexed(platform, ids); err != nil {
			v.logger.Warn("failed to mark tracks indexed", "platform", platform, "error", err)
		}
	}

	return len(entries), nil
}

// UpdatePayloads rewrites every indexed point's payload from the current
// catalog metadata without re-embedding.
func (v *VectorEnricher) UpdatePayloads(ctx context.Context, prog chan<- ProgressUpdate) (int, error) {
	all, err := v.tracks.List(map[string]any{})
	if err != nil {
		return 0, fmt.Errorf("failed to list catalog: %w", err)
	}

	updated := 0
	for i, ct := range all {
		if !ct.VectorIndexed() {
			continue
		}

		t := ct.Track()
		payload := vector.Payload{
			Platform:   t.Platform,
			TrackID:    t.ID,
			Title:      t.Title,
			Artist:     t.Artist,
			Album:      t.Album,
			Normalized: shared.NormalizeTrack(t),
		}

		if err := v.index.UpdatePayload(ctx, t.Platform, t.ID, payload); err != nil {
			v.logger.Warn("payload update failed", "track", t.ID, "error", err)
			continue
		}
		updated++

		if prog != nil {
			select {
			case prog <- updatePayloadsUpdate(i+1, len(all)):
			default:
			}
		}
	}

	return updated, nil
}
