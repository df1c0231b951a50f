package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.PlaylistRecord].
//
// Snapshots of fetched playlists, one row per (platform, playlist_id),
// replaced wholesale on refetch.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new [models.PlaylistRecord] into the database with generated ID and sequence
func (r *PlaylistRepository) Create(record *models.PlaylistRecord) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	record.SetID(id)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	pl := record.Playlist
	query := `
		INSERT INTO playlists (id, sequence, platform, playlist_id, name, description, owner_id, track_count, public, track_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		string(pl.Platform),
		pl.ID,
		pl.Name,
		pl.Description,
		pl.OwnerID,
		pl.TrackCount,
		boolToInt(pl.Public),
		strings.Join(record.TrackIDs, ","),
		record.CreatedAt(),
		record.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Snapshot replaces any previous snapshot of the playlist with the given one.
func (r *PlaylistRepository) Snapshot(pl models.Playlist, trackIDs []string) (*models.PlaylistRecord, error) {
	if _, err := r.db.Exec(`DELETE FROM playlists WHERE platform = ? AND playlist_id = ?`,
		string(pl.Platform), pl.ID); err != nil {
		return nil, fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	record := models.NewPlaylistRecord(0, pl, trackIDs)
	if err := r.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Get retrieves a playlist snapshot by ID
func (r *PlaylistRepository) Get(id string) (*models.PlaylistRecord, error) {
	query := selectPlaylists + ` WHERE id = ?`
	return scanPlaylist(r.db.QueryRow(query, id).Scan)
}

// GetByPlatformID retrieves the snapshot for a platform-scoped playlist id
func (r *PlaylistRepository) GetByPlatformID(platform models.Platform, playlistID string) (*models.PlaylistRecord, error) {
	query := selectPlaylists + ` WHERE platform = ? AND playlist_id = ?`
	return scanPlaylist(r.db.QueryRow(query, string(platform), playlistID).Scan)
}

// Update modifies an existing playlist snapshot
func (r *PlaylistRepository) Update(record *models.PlaylistRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	record.SetUpdatedAt(now)

	pl := record.Playlist
	query := `
		UPDATE playlists
		SET name = ?, description = ?, owner_id = ?, track_count = ?, public = ?, track_ids = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		pl.Name,
		pl.Description,
		pl.OwnerID,
		pl.TrackCount,
		boolToInt(pl.Public),
		strings.Join(record.TrackIDs, ","),
		now,
		record.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found: %s", record.ID())
	}

	return nil
}

// Delete removes a playlist snapshot by ID
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found: %s", id)
	}

	return nil
}

// List retrieves all playlist snapshots matching the given criteria
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.PlaylistRecord, error) {
	query := selectPlaylists + ` WHERE 1 = 1`
	args := []any{}

	if platform, ok := criteria["platform"].(string); ok && platform != "" {
		query += " AND platform = ?"
		args = append(args, platform)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var records []*models.PlaylistRecord
	for rows.Next() {
		record, err := scanPlaylist(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

const selectPlaylists = `
	SELECT id, sequence, platform, playlist_id, name, description, owner_id, track_count, public, track_ids, created_at, updated_at
	FROM playlists`

func scanPlaylist(scan func(...any) error) (*models.PlaylistRecord, error) {
	var (
		id          string
		sequence    int
		platform    string
		playlistID  string
		name        string
		description string
		ownerID     string
		trackCount  int
		public      int
		trackIDs    string
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := scan(&id, &sequence, &platform, &playlistID, &name, &description, &ownerID, &trackCount, &public, &trackIDs, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	pl := models.Playlist{
		ID:          playlistID,
		Platform:    models.Platform(platform),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		TrackCount:  trackCount,
		Public:      public != 0,
	}

	var ids []string
	if trackIDs != "" {
		ids = strings.Split(trackIDs, ",")
	}

	record := models.NewPlaylistRecord(sequence, pl, ids)
	record.SetID(id)
	record.SetCreatedAt(createdAt)
	record.SetUpdatedAt(updatedAt)

	return record, nil
}
