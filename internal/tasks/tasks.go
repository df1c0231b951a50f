// package tasks implements track resolution and playlist conversion
// between music platforms.
//
// The core abstractions are MatchResolver, which resolves single tracks
// against the opposite platform through a staged pipeline (link cache,
// vector similarity, lexical fallback), and SyncEngine, which
// orchestrates whole-playlist conversions on top of it. Operations emit
// progress updates via channels for non-blocking status reporting to
// CLI/UI layers.
package tasks

import (
	"context"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/repositories"
	"github.com/desertthunder/tracklink/internal/services"
)

// ConversionRunResult contains all data from a full playlist conversion.
type ConversionRunResult struct {
	SourcePlaylist  *models.PlaylistExport // Source playlist with tracks
	DestPlaylist    *models.Playlist       // Created destination playlist
	Outcomes        []models.MatchOutcome  // Per-track resolution outcomes
	ResolvedCount   int                    // Number of successfully resolved tracks
	UnresolvedCount int                    // Number of tracks with no acceptable match
	FailedCount     int                    // Number of tracks rejected before matching
	TotalTracks     int                    // Total tracks processed
	MatchPercentage float64                // Resolution rate as percentage
}

// ComparisonResult contains track comparison details between two playlists.
type ComparisonResult struct {
	SourcePlaylist *models.PlaylistExport // Source playlist
	DestPlaylist   *models.PlaylistExport // Destination playlist
	MatchedCount   int                    // Tracks found in both
	MissingInDest  []models.Track         // Tracks in source but not in dest
	ExtraInDest    []models.Track         // Tracks in dest but not in source
}

// SyncEngine defines operations for converting playlists between platforms.
type SyncEngine interface {
	// Run performs a full playlist conversion from the source platform to
	// its opposite: fetches the source playlist, resolves every track,
	// and creates the destination playlist from the resolved links.
	Run(ctx context.Context, progress chan<- ProgressUpdate, source models.Platform, playlistID, destName string) (*ConversionRunResult, error)

	// Diff compares two playlists across platforms by identifying matched
	// tracks, missing tracks, and extra tracks.
	Diff(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*ComparisonResult, error)
}

// PlaylistEngine implements SyncEngine for playlist operations.
// Holds the resolver and the per-platform services plus audit repositories.
type PlaylistEngine struct {
	resolver    *MatchResolver
	platforms   map[models.Platform]services.Service
	playlists   *repositories.PlaylistRepository
	conversions *repositories.ConversionRepository
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided dependencies.
//
// The playlist and conversion repositories are optional; without them the
// engine skips audit persistence.
func NewPlaylistEngine(
	resolver *MatchResolver,
	spotify, youtube services.Service,
	playlists *repositories.PlaylistRepository,
	conversions *repositories.ConversionRepository,
) *PlaylistEngine {
	return &PlaylistEngine{
		resolver: resolver,
		platforms: map[models.Platform]services.Service{
			models.PlatformSpotify: spotify,
			models.PlatformYouTube: youtube,
		},
		playlists:   playlists,
		conversions: conversions,
	}
}

// sendProgress delivers an update without blocking when nobody listens.
func (e *PlaylistEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
