package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// YTMusicPlaylists lists YouTube Music playlists.
func (r *Runner) YTMusicPlaylists(ctx context.Context, cmd *cli.Command) error {
	if r.youtube == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("listing youtube music playlists")

	playlists, err := r.youtube.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", p.Description)
		}
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.TrackCount)
		r.writePlain("\n")
	}

	return nil
}

// YTMusicSearch searches YouTube Music for tracks.
func (r *Runner) YTMusicSearch(ctx context.Context, cmd *cli.Command) error {
	if r.youtube == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	r.logger.Info("searching youtube music", "query", query)

	tracks, err := r.youtube.SearchTracks(ctx, query, int(limit))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	r.writeTracks(tracks)
	return nil
}

// YTMusicCreate creates a new playlist on YouTube Music.
func (r *Runner) YTMusicCreate(ctx context.Context, cmd *cli.Command) error {
	if r.youtube == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrMissingArgument)
	}
	description := cmd.String("description")
	private := cmd.Bool("private")

	r.logger.Info("creating youtube music playlist", "name", name, "private", private)

	export := &models.PlaylistExport{
		Playlist: models.Playlist{
			Platform:    models.PlatformYouTube,
			Name:        name,
			Description: description,
			Public:      !private,
		},
		Tracks: []models.Track{},
	}

	playlist, err := r.youtube.ImportPlaylist(ctx, export)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Info("playlist created", "id", playlist.ID, "name", playlist.Name)
	r.writePlain("✓ Playlist created successfully\n")
	r.writePlain("Name: %s\n", playlist.Name)
	r.writePlain("ID: %s\n", playlist.ID)
	r.writePlain("Visibility: %s\n", shared.VisibilityString(!private))

	return nil
}
