package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tracklink/internal/formatter"
	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
	"github.com/desertthunder/tracklink/internal/tasks"
)

// SyncRun runs a full playlist conversion from one platform to its opposite.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: conversion engine not initialized, run 'tracklink setup database' first", shared.ErrServiceUnavailable)
	}

	sourceIDOrName := cmd.String("source")
	destName := cmd.String("dest")
	reportFile := cmd.String("report")
	reportFormat := cmd.String("report-format")

	source, err := parsePlatform(cmd.String("from"))
	if err != nil {
		return err
	}

	r.logger.Info("starting conversion", "source", sourceIDOrName, "from", source, "dest", destName)
	r.writePlain("Starting playlist conversion...\n")
	r.writePlain("Source: %s (%s)\n\n", sourceIDOrName, source)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CacheLookup, tasks.VectorSearch, tasks.LexicalSearch:
				r.writePlain("   %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.Persist:
				r.writePlain("💾 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, progressCh, source, sourceIDOrName, destName)
	close(progressCh)
	<-consumerDone

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Conversion Complete!")
	r.writePlain("Source: %s (%d tracks)\n", result.SourcePlaylist.Playlist.Name, result.TotalTracks)
	r.writePlain("Destination: %s (%d tracks)\n", result.DestPlaylist.Name, result.ResolvedCount)
	r.writePlain("Resolved: %d/%d (%.1f%%)\n", result.ResolvedCount, result.TotalTracks, result.MatchPercentage)

	if result.UnresolvedCount > 0 || result.FailedCount > 0 {
		r.writePlain("\nUnmatched tracks: %d unresolved, %d failed\n", result.UnresolvedCount, result.FailedCount)
		for _, outcome := range result.Outcomes {
			if outcome.Status != models.StatusResolved {
				r.writePlain("  - %s (%s)\n", outcome.TrackID, outcome.Status)
			}
		}
	}

	if reportFile != "" {
		title := fmt.Sprintf("Match Report: %s", result.SourcePlaylist.Playlist.Name)
		path, err := formatter.WriteMatchReport(title, result.Outcomes, reportFormat, reportFile)
		if err != nil {
			return fmt.Errorf("failed to write match report: %w", err)
		}
		r.writePlain("\n✓ Match report written to %s\n", path)
	}

	return nil
}

// SyncDiff compares and shows missing tracks between two playlists.
func (r *Runner) SyncDiff(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: conversion engine not initialized, run 'tracklink setup database' first", shared.ErrServiceUnavailable)
	}

	sourceID := cmd.String("source-id")
	destID := cmd.String("dest-id")

	r.logger.Info("sync diff requested", "source", sourceID, "dest", destID)
	r.writePlain("Comparing playlists...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 10)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.engine.Diff(ctx, progressCh, sourceID, destID)
	close(progressCh)
	<-consumerDone

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Source: %s (%d tracks)\n", result.SourcePlaylist.Playlist.Name, len(result.SourcePlaylist.Tracks))
	r.writePlain("✓ Destination: %s (%d tracks)\n\n", result.DestPlaylist.Playlist.Name, len(result.DestPlaylist.Tracks))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", result.MatchedCount)
	r.writePlain("Missing from destination: %d tracks\n", len(result.MissingInDest))
	r.writePlain("Extra in destination: %d tracks\n\n", len(result.ExtraInDest))

	if len(result.MissingInDest) > 0 {
		r.writePlain("Missing from destination:\n")
		writeTrackList(r, result.MissingInDest)
		r.writePlain("\n")
	}

	if len(result.ExtraInDest) > 0 {
		r.writePlain("Extra in destination (not in source):\n")
		writeTrackList(r, result.ExtraInDest)
	}

	return nil
}

func writeTrackList(r *Runner, tracks []models.Track) {
	for i, track := range tracks {
		r.writePlain("  %d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n")
	}
}

// parsePlatform maps a CLI platform flag to the model enum.
func parsePlatform(name string) (models.Platform, error) {
	switch name {
	case "spotify":
		return models.PlatformSpotify, nil
	case "youtube", "ytmusic":
		return models.PlatformYouTube, nil
	default:
		return "", fmt.Errorf("%w: invalid platform %q (must be 'spotify' or 'youtube')", shared.ErrInvalidArgument, name)
	}
}
