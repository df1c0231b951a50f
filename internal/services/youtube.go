// YouTube Music API [Service] implementation
//
// Communicates with a proxy server wrapping the ytmusicapi library. Auth
// headers captured from a browser session are forwarded on every request.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"` // Duration in seconds
	Views       int             `json:"views"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
	ISRC        string          `json:"isrc,omitempty"`
	SetVideoID  string          `json:"setVideoId,omitempty"` // For playlist operations
}

// YouTubeService implements the Service interface for YouTube Music via proxy.
type YouTubeService struct {
	baseURL     string
	authFile    string
	authHeaders map[string]string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

func (y *YouTubeService) Platform() models.Platform {
	return models.PlatformYouTube
}

// Authenticate stores proxy authentication for subsequent requests.
//
// Accepts either credentials["auth_file"] pointing at browser.json or
// oauth.json, or credentials["headers_path"] pointing at a curl command
// file captured from a browser session.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if headersPath, ok := credentials["headers_path"]; ok && headersPath != "" {
		curlCmd, err := shared.ParseCurlFile(headersPath)
		if err != nil {
			return fmt.Errorf("%w: parsing headers file: %v", shared.ErrAuthFailed, err)
		}
		y.authHeaders = curlCmd.Headers
		return nil
	}

	if authFile, ok := credentials["auth_file"]; ok && authFile != "" {
		y.authFile = authFile
		return nil
	}

	return fmt.Errorf("%w: missing auth_file or headers_path", shared.ErrMissingCredentials)
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := y.baseURL + endpoint

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}
	for name, value := range y.authHeaders {
		req.Header.Set(name, value)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music API status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// trackFromYouTube maps a proxy track response to the shared track shape.
func trackFromYouTube(yt YouTubeTrack) models.Track {
	track := models.Track{
		ID:         yt.VideoID,
		Platform:   models.PlatformYouTube,
		Title:      shared.CleanVideoTitle(yt.Title),
		DurationMS: yt.DurationSec * 1000,
		Popularity: yt.Views,
		ISRC:       yt.ISRC,
	}
	if len(yt.Artists) > 0 {
		track.Artist = yt.Artists[0].Name
	}
	if yt.Album != nil {
		track.Album = yt.Album.Name
	}
	return track
}

// GetPlaylists retrieves all playlists for the authenticated user.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var ytPlaylists []struct {
		PlaylistID  string         `json:"playlistId"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Privacy     string         `json:"privacy"`
		Count       int            `json:"count"`
		Thumbnails  []YouTubeImage `json:"thumbnails"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/api/library/playlists", nil, &ytPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(ytPlaylists))
	for i, ytp := range ytPlaylists {
		playlists[i] = models.Playlist{
			ID:          ytp.PlaylistID,
			Platform:    models.PlatformYouTube,
			Name:        ytp.Title,
			Description: ytp.Description,
			TrackCount:  ytp.Count,
			Public:      ytp.Privacy == "PUBLIC",
		}
	}

	return playlists, nil
}

// GetPlaylist retrieves a specific playlist by ID without tracks.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	var ytPlaylist struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Privacy     string `json:"privacy"`
		TrackCount  int    `json:"trackCount"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s", playlistID)
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &ytPlaylist); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          ytPlaylist.ID,
		Platform:    models.PlatformYouTube,
		Name:        ytPlaylist.Title,
		Description: ytPlaylist.Description,
		TrackCount:  ytPlaylist.TrackCount,
		Public:      ytPlaylist.Privacy == "PUBLIC",
	}, nil
}

// ExportPlaylist exports a playlist with all its tracks.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	var ytPlaylist struct {
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Privacy     string         `json:"privacy"`
		TrackCount  int            `json:"trackCount"`
		Tracks      []YouTubeTrack `json:"tracks"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s", playlistID)
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &ytPlaylist); err != nil {
		return nil, err
	}

	playlist := models.Playlist{
		ID:          ytPlaylist.ID,
		Platform:    models.PlatformYouTube,
		Name:        ytPlaylist.Title,
		Description: ytPlaylist.Description,
		TrackCount:  ytPlaylist.TrackCount,
		Public:      ytPlaylist.Privacy == "PUBLIC",
	}

	tracks := make([]models.Track, len(ytPlaylist.Tracks))
	for i, ytt := range ytPlaylist.Tracks {
		tracks[i] = trackFromYouTube(ytt)
	}

	return &models.PlaylistExport{
		Playlist: playlist,
		Tracks:   tracks,
	}, nil
}

// ImportPlaylist imports a playlist into YouTube Music.
//
// Creates the playlist via POST /api/playlists and adds tracks via POST /api/playlists/{id}/items.
func (y *YouTubeService) ImportPlaylist(ctx context.Context, playlist *models.PlaylistExport) (*models.Playlist, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         playlist.Playlist.Name,
		Description:   playlist.Playlist.Description,
		PrivacyStatus: "PRIVATE",
	}

	if playlist.Playlist.Public {
		createReq.PrivacyStatus = "PUBLIC"
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return nil, err
	}

	if len(playlist.Tracks) > 0 {
		videoIDs := make([]string, len(playlist.Tracks))
		for i, track := range playlist.Tracks {
			videoIDs[i] = track.ID
		}

		if err := y.AddTracks(ctx, createResp.PlaylistID, videoIDs); err != nil {
			return nil, err
		}
	}

	return &models.Playlist{
		ID:          createResp.PlaylistID,
		Platform:    models.PlatformYouTube,
		Name:        playlist.Playlist.Name,
		Description: playlist.Playlist.Description,
		TrackCount:  len(playlist.Tracks),
		Public:      playlist.Playlist.Public,
	}, nil
}

// AddTracks appends videos to an existing playlist via the proxy.
func (y *YouTubeService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	addReq := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: trackIDs}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", playlistID)
	return y.doRequest(ctx, http.MethodPost, endpoint, addReq, nil)
}

// SearchTracks searches YouTube Music songs, returning up to limit candidates.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy.
func (y *YouTubeService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs&limit=%d", url.QueryEscape(query), limit)

	var results []YouTubeTrack
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}

	tracks := make([]models.Track, len(results))
	for i, yt := range results {
		tracks[i] = trackFromYouTube(yt)
	}

	return tracks, nil
}
