package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tracklink/internal/models"
)

// LinkRepository implements models.Repository[*models.TrackLink] for the
// durable cross-platform link store.
//
// The table enforces at most one link per track on each side. Upsert is
// the write path the resolver uses; re-resolving a pair refreshes its
// timestamp, and a new counterpart replaces the stale link entirely.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new LinkRepository with the given database connection
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a new [models.TrackLink] into the database
func (r *LinkRepository) Create(link *models.TrackLink) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO track_links (id, spotify_track_id, youtube_track_id, is_remix, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		link.ID(),
		link.SpotifyTrackID,
		link.YouTubeTrackID,
		boolToInt(link.IsRemix),
		link.CreatedAt(),
		link.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track link: %w", err)
	}

	return nil
}

// Upsert stores a link, preserving the one-link-per-side invariant.
//
// A repeat of the same pair refreshes updated_at and the remix flag. A
// conflicting link on either side is removed first, so the newest
// resolution wins.
func (r *LinkRepository) Upsert(link *models.TrackLink) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	var createdAt time.Time
	err = tx.QueryRow(`SELECT created_at FROM track_links WHERE id = ?`, link.ID()).Scan(&createdAt)
	switch {
	case err == nil:
		_, err = tx.Exec(`UPDATE track_links SET is_remix = ?, updated_at = ? WHERE id = ?`,
			boolToInt(link.IsRemix), now, link.ID())
		if err != nil {
			return fmt.Errorf("failed to refresh track link: %w", err)
		}
		link.SetCreatedAt(createdAt)
		link.SetUpdatedAt(now)
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`DELETE FROM track_links WHERE spotify_track_id = ? OR youtube_track_id = ?`,
			link.SpotifyTrackID, link.YouTubeTrackID)
		if err != nil {
			return fmt.Errorf("failed to clear conflicting links: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO track_links (id, spotify_track_id, youtube_track_id, is_remix, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, link.ID(), link.SpotifyTrackID, link.YouTubeTrackID, boolToInt(link.IsRemix), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert track link: %w", err)
		}
		link.SetCreatedAt(now)
		link.SetUpdatedAt(now)
	default:
		return fmt.Errorf("failed to look up track link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit link upsert: %w", err)
	}

	return nil
}

// Get retrieves a link by its composite id
func (r *LinkRepository) Get(id string) (*models.TrackLink, error) {
	query := selectLinks + ` WHERE id = ?`
	return scanLink(r.db.QueryRow(query, id).Scan)
}

// GetBySide retrieves the link for a track on the given platform, if any.
func (r *LinkRepository) GetBySide(platform models.Platform, trackID string) (*models.TrackLink, error) {
	column := "spotify_track_id"
	if platform == models.PlatformYouTube {
		column = "youtube_track_id"
	}

	query := fmt.Sprintf("%s WHERE %s = ?", selectLinks, column)
	return scanLink(r.db.QueryRow(query, trackID).Scan)
}

// Update modifies an existing link in the database
func (r *LinkRepository) Update(link *models.TrackLink) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	link.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE track_links SET is_remix = ?, updated_at = ? WHERE id = ?`,
		boolToInt(link.IsRemix), now, link.ID())
	if err != nil {
		return fmt.Errorf("failed to update track link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track link not found: %s", link.ID())
	}

	return nil
}

// Delete removes a link by its composite id
func (r *LinkRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM track_links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track link not found: %s", id)
	}

	return nil
}

// List retrieves all links matching the given criteria
func (r *LinkRepository) List(criteria map[string]any) ([]*models.TrackLink, error) {
	query := selectLinks + ` WHERE 1 = 1`
	args := []any{}

	if remix, ok := criteria["is_remix"].(bool); ok {
		query += " AND is_remix = ?"
		args = append(args, boolToInt(remix))
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track links: %w", err)
	}
	defer rows.Close()

	var links []*models.TrackLink
	for rows.Next() {
		link, err := scanLink(rows.Scan)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return links, nil
}

// Count reports how many links the store holds.
func (r *LinkRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM track_links`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count track links: %w", err)
	}
	return n, nil
}

const selectLinks = `
	SELECT id, spotify_track_id, youtube_track_id, is_remix, created_at, updated_at
	FROM track_links`

func scanLink(scan func(...any) error) (*models.TrackLink, error) {
	var (
		id        string
		spotifyID string
		youtubeID string
		isRemix   int
		createdAt time.Time
		updatedAt time.Time
	)

	err := scan(&id, &spotifyID, &youtubeID, &isRemix, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track link: %w", err)
	}

	link := models.NewTrackLink(spotifyID, youtubeID, isRemix != 0)
	link.SetCreatedAt(createdAt)
	link.SetUpdatedAt(updatedAt)

	return link, nil
}
