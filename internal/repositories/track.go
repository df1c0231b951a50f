package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// TrackRepository implements models.Repository[*models.CatalogTrack] for
// the local track catalog.
//
// Every track the pipeline observes lands here, keyed by (platform,
// track_id), so lexical fallback and vector backfill can run without
// refetching from either API.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CatalogTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CatalogTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	t := track.Track()
	query := `
		INSERT INTO tracks (id, sequence, platform, track_id, title, artist, album, genres, duration_ms, popularity, isrc, vector_indexed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(t.Platform),
		t.ID,
		t.Title,
		t.Artist,
		t.Album,
		strings.Join(t.Genres, ","),
		t.DurationMS,
		t.Popularity,
		t.ISRC,
		boolToInt(track.VectorIndexed()),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Upsert stores a track observation, inserting on first sight and leaving
// existing metadata untouched on repeats. Returns the stored row.
func (r *TrackRepository) Upsert(track models.Track) (*models.CatalogTrack, error) {
	existing, err := r.GetByPlatformID(track.Platform, track.ID)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	ct := models.NewCatalogTrack(0, track)
	if err := r.Create(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CatalogTrack, error) {
	query := selectTracks + ` WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPlatformID retrieves a track by platform and platform-scoped track id
func (r *TrackRepository) GetByPlatformID(platform models.Platform, trackID string) (*models.CatalogTrack, error) {
	query := selectTracks + ` WHERE platform = ? AND track_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, string(platform), trackID))
}

// GetByISRC retrieves a track by ISRC on the given platform
func (r *TrackRepository) GetByISRC(platform models.Platform, isrc string) (*models.CatalogTrack, error) {
	query := selectTracks + ` WHERE platform = ? AND isrc = ? AND deleted_at IS NULL LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, string(platform), isrc))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.CatalogTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	t := track.Track()
	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, genres = ?, duration_ms = ?, popularity = ?, isrc = ?, vector_indexed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		t.Title,
		t.Artist,
		t.Album,
		strings.Join(t.Genres, ","),
		t.DurationMS,
		t.Popularity,
		t.ISRC,
		boolToInt(track.VectorIndexed()),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", track.ID())
	}

	return nil
}

// MarkIndexed flags tracks as present in the vector index.
func (r *TrackRepository) MarkIndexed(platform models.Platform, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(trackIDs))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		UPDATE tracks
		SET vector_indexed = 1, updated_at = ?
		WHERE platform = ? AND track_id IN (%s) AND deleted_at IS NULL
	`, placeholders)

	args := make([]any, 0, len(trackIDs)+2)
	args = append(args, time.Now(), string(platform))
	for _, id := range trackIDs {
		args = append(args, id)
	}

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to mark tracks indexed: %w", err)
	}
	return nil
}

// ListUnindexed retrieves catalog tracks not yet written to the vector index.
func (r *TrackRepository) ListUnindexed(limit int) ([]*models.CatalogTrack, error) {
	query := selectTracks + ` WHERE vector_indexed = 0 AND deleted_at IS NULL ORDER BY sequence ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryTracks(query, args...)
}

// SearchByTitle retrieves catalog tracks on one platform whose title or
// artist contains the given fragment, most popular first.
func (r *TrackRepository) SearchByTitle(platform models.Platform, fragment string, limit int) ([]*models.CatalogTrack, error) {
	query := selectTracks + `
		WHERE platform = ? AND (title LIKE ? OR artist LIKE ?) AND deleted_at IS NULL
		ORDER BY popularity DESC, sequence ASC
	`
	pattern := "%" + fragment + "%"
	args := []any{string(platform), pattern, pattern}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryTracks(query, args...)
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CatalogTrack, error) {
	query := selectTracks + ` WHERE deleted_at IS NULL`
	args := []any{}

	if platform, ok := criteria["platform"].(string); ok && platform != "" {
		query += " AND platform = ?"
		args = append(args, platform)
	}

	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	query += " ORDER BY sequence ASC"

	return r.queryTracks(query, args...)
}

const selectTracks = `
	SELECT id, sequence, platform, track_id, title, artist, album, genres, duration_ms, popularity, isrc, vector_indexed, created_at, updated_at, deleted_at
	FROM tracks`

func (r *TrackRepository) queryTracks(query string, args ...any) ([]*models.CatalogTrack, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CatalogTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanOne scans a single [sql.Row] into a [models.CatalogTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.CatalogTrack, error) {
	return scanTrack(row.Scan)
}

// scanRow scans a row from [sql.Rows] into a [models.CatalogTrack]
func (r *TrackRepository) scanRow(rows *sql.Rows) (*models.CatalogTrack, error) {
	return scanTrack(rows.Scan)
}

func scanTrack(scan func(...any) error) (*models.CatalogTrack, error) {
	var (
		id            string
		sequence      int
		platform      string
		trackID       string
		title         string
		artist        string
		album         string
		genres        string
		durationMS    int
		popularity    int
		isrc          string
		vectorIndexed int
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := scan(&id, &sequence, &platform, &trackID, &title, &artist, &album, &genres, &durationMS, &popularity, &isrc, &vectorIndexed, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	dto := models.Track{
		ID:         trackID,
		Platform:   models.Platform(platform),
		Title:      title,
		Artist:     artist,
		Album:      album,
		DurationMS: durationMS,
		Popularity: popularity,
		ISRC:       isrc,
	}
	if genres != "" {
		dto.Genres = strings.Split(genres, ",")
	}

	track := models.NewCatalogTrack(sequence, dto)
	track.SetID(id)
	track.SetVectorIndexed(vectorIndexed != 0)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
