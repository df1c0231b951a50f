package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tracklink/internal/formatter"
	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// ResolveTrack resolves a single track against the opposite platform and
// writes the durable link on success.
func (r *Runner) ResolveTrack(ctx context.Context, cmd *cli.Command) error {
	if r.resolver == nil {
		return fmt.Errorf("%w: resolver not initialized, run 'tracklink setup database' first", shared.ErrServiceUnavailable)
	}

	platform, err := parsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}

	track := models.Track{
		ID:       cmd.String("id"),
		Platform: platform,
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Album:    cmd.String("album"),
		ISRC:     cmd.String("isrc"),
	}

	r.logger.Info("resolving track", "id", track.ID, "platform", track.Platform)

	outcome := r.resolver.ResolveAndLink(ctx, track)

	if cmd.Bool("json") {
		data, err := formatter.MatchReportJSON([]models.MatchOutcome{outcome})
		if err != nil {
			return fmt.Errorf("failed to marshal outcome: %w", err)
		}
		r.output.Write(data)
		r.output.Write([]byte("\n"))
		return nil
	}

	switch outcome.Status {
	case models.StatusResolved:
		r.writePlain("✓ %s → %s (%s, score %.2f)\n", outcome.TrackID, outcome.TargetTrackID, outcome.Source, outcome.Score)
		if outcome.IsRemix {
			r.writePlain("  ⚠ Linked as remix: titles differ in version markers\n")
		}
	case models.StatusUnresolved:
		r.writePlain("✗ %s: no match found on %s\n", outcome.TrackID, track.Platform.Opposite())
	case models.StatusFailed:
		return outcome.Err
	}

	return nil
}

// ResolveBatch resolves every track of a playlist and optionally writes a
// match report.
func (r *Runner) ResolveBatch(ctx context.Context, cmd *cli.Command) error {
	if r.resolver == nil {
		return fmt.Errorf("%w: resolver not initialized, run 'tracklink setup database' first", shared.ErrServiceUnavailable)
	}

	playlistID := cmd.String("playlist-id")
	reportFile := cmd.String("report")
	reportFormat := cmd.String("report-format")

	platform, err := parsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}

	svc := r.spotify
	if platform == models.PlatformYouTube {
		svc = r.youtube
	}
	if svc == nil {
		return fmt.Errorf("%w: %s service not initialized", shared.ErrServiceUnavailable, platform)
	}

	r.logger.Info("resolving playlist", "id", playlistID, "platform", platform)

	export, err := svc.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}

	r.writePlain("Resolving %d tracks from %s...\n\n", len(export.Tracks), export.Playlist.Name)

	outcomes := r.resolver.ResolveBatch(ctx, export.Tracks)

	resolved, unresolved, failed := 0, 0, 0
	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.StatusResolved:
			resolved++
			r.writePlain("✓ %s → %s (%s)\n", outcome.TrackID, outcome.TargetTrackID, outcome.Source)
		case models.StatusUnresolved:
			unresolved++
			r.writePlain("✗ %s: no match\n", outcome.TrackID)
		case models.StatusFailed:
			failed++
			r.writePlain("✗ %s: %v\n", outcome.TrackID, outcome.Err)
		}
	}

	r.writePlain("\n")
	r.writePlainHeader("Resolution Complete")
	r.writePlain("Resolved: %d/%d\n", resolved, len(outcomes))
	if unresolved > 0 {
		r.writePlain("Unresolved: %d\n", unresolved)
	}
	if failed > 0 {
		r.writePlain("Failed: %d\n", failed)
	}

	if reportFile != "" {
		title := fmt.Sprintf("Match Report: %s", export.Playlist.Name)
		path, err := formatter.WriteMatchReport(title, outcomes, reportFormat, reportFile)
		if err != nil {
			return fmt.Errorf("failed to write match report: %w", err)
		}
		r.writePlain("\n✓ Match report written to %s\n", path)
	}

	return nil
}
