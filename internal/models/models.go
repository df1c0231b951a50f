// package models defines the data model for the track link service
package models

import (
	"fmt"
	"time"
)

// Platform identifies which music service a track or playlist belongs to.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformYouTube Platform = "youtube"
)

// Opposite returns the counterpart platform for cross-platform matching.
func (p Platform) Opposite() Platform {
	if p == PlatformSpotify {
		return PlatformYouTube
	}
	return PlatformSpotify
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformSpotify || p == PlatformYouTube
}

// Model defines the base interface for all persistent models in the track link service.
// Implementations include CatalogTrack, TrackLink, PlaylistRecord, ConversionRun.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Track represents a music track from either platform, mapped into one
// shape at the service boundary so the pipeline never branches on
// platform-specific field names.
type Track struct {
	ID         string   // Platform-scoped track/video id
	Platform   Platform // Owning platform
	Title      string
	Artist     string // First-listed artist when the platform reports several
	Album      string
	Genres     []string
	DurationMS int
	Popularity int    // Spotify popularity or YouTube view count
	ISRC       string // International Standard Recording Code, when reported
}

// Validate checks the fields required for the track to enter the pipeline.
func (t Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("track id is required")
	}
	if !t.Platform.Valid() {
		return fmt.Errorf("unknown platform %q", t.Platform)
	}
	return nil
}

// Playlist represents a music playlist from any platform.
type Playlist struct {
	ID          string
	Platform    Platform
	Name        string
	Description string
	OwnerID     string
	TrackCount  int
	Public      bool
}

// PlaylistExport represents a playlist with all its tracks for migration.
type PlaylistExport struct {
	Playlist Playlist
	Tracks   []Track
}

// MatchStatus is the terminal state of one resolve attempt.
type MatchStatus string

const (
	StatusResolved   MatchStatus = "resolved"
	StatusUnresolved MatchStatus = "unresolved"
	StatusFailed     MatchStatus = "failed" // validation failure, not a missing match
)

// MatchSource records which resolver stage produced a match.
type MatchSource string

const (
	SourceCache  MatchSource = "cache"
	SourceVector MatchSource = "vector"
	SourceAPI    MatchSource = "api"
)

// MatchOutcome is the result of resolving a single track against the
// opposite platform.
type MatchOutcome struct {
	Status        MatchStatus
	Source        MatchSource // set only when Status is resolved
	TrackID       string      // the input track
	Platform      Platform    // the input track's platform
	TargetTrackID string      // counterpart id on the opposite platform
	IsRemix       bool
	Score         float64 // vector similarity or lexical ratio, depending on Source
	Err           error   // set only when Status is failed
}
