// package services defines interface Service for interacting with HTTP APIs
//
// Spotify, YouTube Music (via proxy)
package services

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/desertthunder/tracklink/internal/models"
)

// Service defines the interface for music platforms (Spotify, YouTube Music)
// that can export and import playlists and search their catalogs.
type Service interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Platform identifies which side of the link store this service feeds.
	Platform() models.Platform

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a specific playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ExportPlaylist exports a playlist with all its tracks.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error)

	// ImportPlaylist imports a playlist into the service.
	// Creates a new playlist and populates it with the provided tracks.
	ImportPlaylist(ctx context.Context, playlist *models.PlaylistExport) (*models.Playlist, error)

	// AddTracks appends tracks to an existing playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// SearchTracks searches the platform catalog, returning up to limit
	// candidates ordered by the platform's own relevance.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Name returns the name of the service (e.g., "Spotify", "YouTube Music")
	Name() string
}

// OAuthService extends Service for platforms that authenticate through a
// browser-based OAuth2 authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for the given CSRF state.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the OAuth2 config used for the code exchange.
	GetOAuthConfig() *oauth2.Config
}
