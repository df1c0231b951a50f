package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tracklink/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = outcomeItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

// outcomeItem wraps [models.MatchOutcome] to implement [list.Item] for the
// result review list.
type outcomeItem struct {
	outcome models.MatchOutcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.TrackID }

func (i outcomeItem) Title() string {
	if i.outcome.Status == models.StatusResolved {
		return fmt.Sprintf("%s → %s", i.outcome.TrackID, i.outcome.TargetTrackID)
	}
	return i.outcome.TrackID
}

func (i outcomeItem) Description() string {
	switch i.outcome.Status {
	case models.StatusResolved:
		desc := fmt.Sprintf("%s • score %.2f", i.outcome.Source, i.outcome.Score)
		if i.outcome.IsRemix {
			desc += " • remix"
		}
		return desc
	case models.StatusFailed:
		if i.outcome.Err != nil {
			return fmt.Sprintf("failed • %v", i.outcome.Err)
		}
		return "failed"
	default:
		return "no match found"
	}
}
