package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// Run performs a full playlist conversion from one platform to its opposite.
//
// The source playlist is located by id first, then by name. Every track
// runs through the resolver; the destination playlist is created from the
// resolved counterpart ids, and the run is recorded for audit.
func (e *PlaylistEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, source models.Platform, playlistID, destName string) (*ConversionRunResult, error) {
	sourceSvc := e.platforms[source]
	destSvc := e.platforms[source.Opposite()]
	if sourceSvc == nil || destSvc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	result := &ConversionRunResult{}

	e.sendProgress(progress, fetchSourceUpdate(1, 1, sourceSvc.Name()))

	srcPlaylist, err := e.exportByIDOrName(ctx, source, playlistID)
	if err != nil {
		return nil, err
	}

	total := len(srcPlaylist.Tracks)
	result.SourcePlaylist = srcPlaylist
	result.TotalTracks = total

	e.sendProgress(progress, foundPlaylistUpdate(1, 1, srcPlaylist))

	run := e.startConversion(srcPlaylist.Playlist.ID, source, total)
	e.snapshotPlaylist(srcPlaylist)

	outcomes := make([]models.MatchOutcome, total)
	for i, track := range srcPlaylist.Tracks {
		e.sendProgress(progress, resolveTrackUpdate(i+1, total, track))

		outcomes[i] = e.resolver.ResolveAndLink(ctx, track)

		e.sendProgress(progress, resolvedUpdate(i+1, total, outcomes[i]))
	}

	result.Outcomes = outcomes
	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.StatusResolved:
			result.ResolvedCount++
		case models.StatusUnresolved:
			result.UnresolvedCount++
		case models.StatusFailed:
			result.FailedCount++
		}
	}
	if result.TotalTracks > 0 {
		result.MatchPercentage = float64(result.ResolvedCount) / float64(result.TotalTracks) * 100
	}

	if result.ResolvedCount == 0 {
		e.finishConversion(run, result, "failed")
		return result, fmt.Errorf("%w: no tracks were resolved, cannot create an empty playlist", shared.ErrNoMatch)
	}

	if destName == "" {
		destName = srcPlaylist.Playlist.Name
	}
	e.sendProgress(progress, createDestinationUpdate(1, 1, destName))

	resolvedTracks := make([]models.Track, 0, result.ResolvedCount)
	for _, outcome := range outcomes {
		if outcome.Status == models.StatusResolved {
			resolvedTracks = append(resolvedTracks, models.Track{
				ID:       outcome.TargetTrackID,
				Platform: source.Opposite(),
			})
		}
	}

	destExport := &models.PlaylistExport{
		Playlist: models.Playlist{
			Name:        destName,
			Platform:    source.Opposite(),
			Description: fmt.Sprintf("Converted from %s: %s", sourceSvc.Name(), srcPlaylist.Playlist.Name),
			Public:      false,
		},
		Tracks: resolvedTracks,
	}

	importedPl, err := destSvc.ImportPlaylist(ctx, destExport)
	if err != nil {
		e.finishConversion(run, result, "failed")
		return result, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
	}

	result.DestPlaylist = importedPl
	e.sendProgress(progress, createPlaylistUpdate(1, 1, importedPl))

	e.sendProgress(progress, persistUpdate(1, 1))
	if run != nil {
		run.DestPlaylist = importedPl.ID
	}
	e.finishConversion(run, result, "completed")

	return result, nil
}

// exportByIDOrName exports a playlist by id, falling back to a name match
// over the user's playlists.
func (e *PlaylistEngine) exportByIDOrName(ctx context.Context, source models.Platform, idOrName string) (*models.PlaylistExport, error) {
	svc := e.platforms[source]

	export, err := svc.ExportPlaylist(ctx, idOrName)
	if err == nil {
		return export, nil
	}

	playlists, playlistsErr := svc.GetPlaylists(ctx)
	if playlistsErr != nil {
		return nil, fmt.Errorf("%w: failed to get playlists: %v", shared.ErrAPIRequest, playlistsErr)
	}

	for _, pl := range playlists {
		if pl.Name == idOrName {
			export, err = svc.ExportPlaylist(ctx, pl.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to export playlist: %v", shared.ErrAPIRequest, err)
			}
			return export, nil
		}
	}

	return nil, fmt.Errorf("%w: no playlist found with id or name '%s'", shared.ErrPlaylistNotFound, idOrName)
}

func (e *PlaylistEngine) startConversion(playlistID string, source models.Platform, total int) *models.ConversionRun {
	if e.conversions == nil {
		return nil
	}

	run := models.NewConversionRun(0, playlistID, source)
	run.TotalTracks = total
	if err := e.conversions.Create(run); err != nil {
		return nil
	}
	return run
}

func (e *PlaylistEngine) finishConversion(run *models.ConversionRun, result *ConversionRunResult, status string) {
	if run == nil || e.conversions == nil {
		return
	}

	run.ResolvedTracks = result.ResolvedCount
	run.Status = status
	_ = e.conversions.Update(run)
}

func (e *PlaylistEngine) snapshotPlaylist(export *models.PlaylistExport) {
	if e.playlists == nil {
		return
	}

	trackIDs := make([]string, len(export.Tracks))
	for i, track := range export.Tracks {
		trackIDs[i] = track.ID
	}
	_, _ = e.playlists.Snapshot(export.Playlist, trackIDs)
}

// Diff compares two playlists and identifies differences.
//
// Tracks match by ISRC when both sides report one, else by normalized
// title and artist.
func (e *PlaylistEngine) Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*ComparisonResult, error) {
	sourceSvc := e.platforms[models.PlatformSpotify]
	destSvc := e.platforms[models.PlatformYouTube]
	if sourceSvc == nil || destSvc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	result := &ComparisonResult{}

	e.sendProgress(progress, fetchSourceUpdate(1, 2, sourceSvc.Name()))
	sourceExport, err := sourceSvc.ExportPlaylist(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to export source playlist: %v", shared.ErrPlaylistNotFound, err)
	}

	e.sendProgress(progress, fetchDestUpdate(2, 2, destSvc.Name()))
	destExport, err := destSvc.ExportPlaylist(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to export destination playlist: %v", shared.ErrPlaylistNotFound, err)
	}

	result.SourcePlaylist = sourceExport
	result.DestPlaylist = destExport

	e.sendProgress(progress, compareUpdate(1, 2))
	destKeys, destISRCs := trackLookupMaps(destExport.Tracks)

	for _, srcTrack := range sourceExport.Tracks {
		if tracksMatch(srcTrack, destKeys, destISRCs) {
			result.MatchedCount++
		} else {
			result.MissingInDest = append(result.MissingInDest, srcTrack)
		}
	}

	e.sendProgress(progress, compareUpdate(2, 2))
	sourceKeys, sourceISRCs := trackLookupMaps(sourceExport.Tracks)

	for _, destTrack := range destExport.Tracks {
		if !tracksMatch(destTrack, sourceKeys, sourceISRCs) {
			result.ExtraInDest = append(result.ExtraInDest, destTrack)
		}
	}

	return result, nil
}

func trackLookupMaps(tracks []models.Track) (byKey, byISRC map[string]models.Track) {
	byKey = make(map[string]models.Track)
	byISRC = make(map[string]models.Track)

	for _, track := range tracks {
		byKey[shared.NormalizeTrackKey(track.Title, track.Artist)] = track
		if track.ISRC != "" {
			byISRC[track.ISRC] = track
		}
	}
	return byKey, byISRC
}

func tracksMatch(track models.Track, byKey, byISRC map[string]models.Track) bool {
	if track.ISRC != "" {
		if _, found := byISRC[track.ISRC]; found {
			return true
		}
	}
	_, found := byKey[shared.NormalizeTrackKey(track.Title, track.Artist)]
	return found
}
