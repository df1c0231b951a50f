package models

import (
	"fmt"
	"time"
)

// CatalogTrack is a Track observed from a platform and stored durably.
//
// Catalog rows are write-once: once stored a track's metadata is never
// mutated, except for derived fields such as the vector-indexed flag.
type CatalogTrack struct {
	id            string
	sequence      int
	track         Track
	vectorIndexed bool
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewCatalogTrack wraps a Track for persistence.
func NewCatalogTrack(sequence int, track Track) *CatalogTrack {
	now := time.Now()
	return &CatalogTrack{
		sequence:  sequence,
		track:     track,
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CatalogTrack) ID() string           { return c.id }
func (c *CatalogTrack) Sequence() int        { return c.sequence }
func (c *CatalogTrack) Track() Track         { return c.track }
func (c *CatalogTrack) Platform() Platform   { return c.track.Platform }
func (c *CatalogTrack) TrackID() string      { return c.track.ID }
func (c *CatalogTrack) VectorIndexed() bool  { return c.vectorIndexed }
func (c *CatalogTrack) CreatedAt() time.Time { return c.createdAt }
func (c *CatalogTrack) UpdatedAt() time.Time { return c.updatedAt }
func (c *CatalogTrack) DeletedAt() *time.Time { return c.deletedAt }

func (c *CatalogTrack) SetID(id string) { c.id = id }
func (c *CatalogTrack) SetVectorIndexed(v bool) { c.vectorIndexed = v }
func (c *CatalogTrack) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *CatalogTrack) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *CatalogTrack) SetDeletedAt(t *time.Time) { c.deletedAt = t }

// Validate checks catalog invariants before a write.
func (c *CatalogTrack) Validate() error {
	if c.id == "" {
		return fmt.Errorf("catalog track id not set")
	}
	return c.track.Validate()
}

// TrackLink is the persisted equivalence between a Spotify track and a
// YouTube Music track. Identity is the unordered pair of ids; the row id
// is a deterministic composite so repeat resolution upserts in place.
type TrackLink struct {
	id             string
	SpotifyTrackID string
	YouTubeTrackID string
	IsRemix        bool
	createdAt      time.Time
	updatedAt      time.Time
}

// NewTrackLink builds a link with its deterministic composite id.
func NewTrackLink(spotifyID, youtubeID string, isRemix bool) *TrackLink {
	now := time.Now()
	return &TrackLink{
		id:             LinkID(spotifyID, youtubeID),
		SpotifyTrackID: spotifyID,
		YouTubeTrackID: youtubeID,
		IsRemix:        isRemix,
		createdAt:      now,
		updatedAt:      now,
	}
}

// LinkID returns the composite document id for a track pair. The pair is
// unordered; canonical ordering by platform makes the id stable no matter
// which side initiated resolution.
func LinkID(spotifyID, youtubeID string) string {
	return spotifyID + "_" + youtubeID
}

func (l *TrackLink) ID() string           { return l.id }
func (l *TrackLink) CreatedAt() time.Time { return l.createdAt }
func (l *TrackLink) UpdatedAt() time.Time { return l.updatedAt }

func (l *TrackLink) SetCreatedAt(t time.Time) { l.createdAt = t }
func (l *TrackLink) SetUpdatedAt(t time.Time) { l.updatedAt = t }

// TargetFor returns the counterpart id for a track on the given platform.
func (l *TrackLink) TargetFor(platform Platform) string {
	if platform == PlatformSpotify {
		return l.YouTubeTrackID
	}
	return l.SpotifyTrackID
}

func (l *TrackLink) Validate() error {
	if l.SpotifyTrackID == "" || l.YouTubeTrackID == "" {
		return fmt.Errorf("track link requires ids for both platforms")
	}
	if l.id != LinkID(l.SpotifyTrackID, l.YouTubeTrackID) {
		return fmt.Errorf("track link id does not match its pair")
	}
	return nil
}

// PlaylistRecord is a stored snapshot of a fetched playlist, kept for
// audit and replay. The matching pipeline never reads these rows.
type PlaylistRecord struct {
	id        string
	sequence  int
	Playlist  Playlist
	TrackIDs  []string
	createdAt time.Time
	updatedAt time.Time
}

// NewPlaylistRecord snapshots a playlist and the ordered ids of its tracks.
func NewPlaylistRecord(sequence int, pl Playlist, trackIDs []string) *PlaylistRecord {
	now := time.Now()
	return &PlaylistRecord{
		sequence:  sequence,
		Playlist:  pl,
		TrackIDs:  trackIDs,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *PlaylistRecord) ID() string           { return p.id }
func (p *PlaylistRecord) Sequence() int        { return p.sequence }
func (p *PlaylistRecord) CreatedAt() time.Time { return p.createdAt }
func (p *PlaylistRecord) UpdatedAt() time.Time { return p.updatedAt }

func (p *PlaylistRecord) SetID(id string) { p.id = id }
func (p *PlaylistRecord) SetCreatedAt(t time.Time) { p.createdAt = t }
func (p *PlaylistRecord) SetUpdatedAt(t time.Time) { p.updatedAt = t }

func (p *PlaylistRecord) Validate() error {
	if p.id == "" {
		return fmt.Errorf("playlist record id not set")
	}
	if p.Playlist.ID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if !p.Playlist.Platform.Valid() {
		return fmt.Errorf("unknown platform %q", p.Playlist.Platform)
	}
	return nil
}

// ConversionRun records one playlist conversion for audit.
type ConversionRun struct {
	id             string
	sequence       int
	SourcePlaylist string
	SourcePlatform Platform
	DestPlaylist   string
	TotalTracks    int
	ResolvedTracks int
	Status         string // running, completed, failed
	createdAt      time.Time
	updatedAt      time.Time
}

// NewConversionRun starts an audit record for a conversion.
func NewConversionRun(sequence int, sourcePlaylist string, sourcePlatform Platform) *ConversionRun {
	now := time.Now()
	return &ConversionRun{
		sequence:       sequence,
		SourcePlaylist: sourcePlaylist,
		SourcePlatform: sourcePlatform,
		Status:         "running",
		createdAt:      now,
		updatedAt:      now,
	}
}

func (c *ConversionRun) ID() string           { return c.id }
func (c *ConversionRun) Sequence() int        { return c.sequence }
func (c *ConversionRun) CreatedAt() time.Time { return c.createdAt }
func (c *ConversionRun) UpdatedAt() time.Time { return c.updatedAt }

func (c *ConversionRun) SetID(id string) { c.id = id }
func (c *ConversionRun) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *ConversionRun) SetUpdatedAt(t time.Time) { c.updatedAt = t }

func (c *ConversionRun) Validate() error {
	if c.id == "" {
		return fmt.Errorf("conversion run id not set")
	}
	if c.SourcePlaylist == "" {
		return fmt.Errorf("source playlist id is required")
	}
	if !c.SourcePlatform.Valid() {
		return fmt.Errorf("unknown platform %q", c.SourcePlatform)
	}
	return nil
}
