package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tracklink/internal/shared"
	"github.com/desertthunder/tracklink/internal/tasks"
)

// VectorMigrate embeds and indexes every unindexed catalog track.
func (r *Runner) VectorMigrate(ctx context.Context, cmd *cli.Command) error {
	if r.enricher == nil {
		return fmt.Errorf("%w: vector enricher not initialized, run 'tracklink setup database' first", shared.ErrServiceUnavailable)
	}

	opts := tasks.EnrichOpts{
		BatchSize:  int(cmd.Int("batch-size")),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate-limit"),
		Recreate:   cmd.Bool("recreate"),
	}

	r.logger.Info("starting vector enrichment", "batch_size", opts.BatchSize, "workers", opts.NumWorkers, "recreate", opts.Recreate)
	r.writePlain("Indexing catalog tracks...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.enricher.Run(ctx, progressCh, opts)
	close(progressCh)
	<-consumerDone

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Enrichment Complete")
	r.writePlain("Indexed: %d/%d tracks\n", result.IndexedCount, result.TotalTracks)
	if result.FailedCount > 0 {
		r.writePlain("Failed: %d tracks\n", result.FailedCount)
		for _, err := range result.Errors {
			r.writePlain("  - %v\n", err)
		}
	}

	return nil
}

// VectorPayloads rewrites index payloads from current catalog metadata.
func (r *Runner) VectorPayloads(ctx context.Context, cmd *cli.Command) error {
	if r.enricher == nil {
		return fmt.Errorf("%w: vector enricher not initialized, run 'tracklink setup database' first", shared.ErrServiceUnavailable)
	}

	r.logger.Info("rewriting vector payloads")
	r.writePlain("Rewriting vector payloads from catalog metadata...\n")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	updated, err := r.enricher.UpdatePayloads(ctx, progressCh)
	close(progressCh)
	<-consumerDone

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Rewrote %d payloads\n", updated)
	return nil
}
