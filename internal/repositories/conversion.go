package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// ConversionRepository implements models.Repository[*models.ConversionRun]
// for conversion audit records.
type ConversionRepository struct {
	db *sql.DB
}

// NewConversionRepository creates a new ConversionRepository with the given database connection
func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

// Create inserts a new [models.ConversionRun] with generated ID and sequence
func (r *ConversionRepository) Create(run *models.ConversionRun) error {
	sequence, err := NextSequence(r.db, "conversions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO conversions (id, sequence, source_playlist, source_platform, dest_playlist, total_tracks, resolved_tracks, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.SourcePlaylist,
		string(run.SourcePlatform),
		run.DestPlaylist,
		run.TotalTracks,
		run.ResolvedTracks,
		run.Status,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	return nil
}

// Get retrieves a conversion run by ID
func (r *ConversionRepository) Get(id string) (*models.ConversionRun, error) {
	query := selectConversions + ` WHERE id = ?`
	return scanConversion(r.db.QueryRow(query, id).Scan)
}

// Update modifies an existing conversion run
func (r *ConversionRepository) Update(run *models.ConversionRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE conversions
		SET dest_playlist = ?, total_tracks = ?, resolved_tracks = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.DestPlaylist,
		run.TotalTracks,
		run.ResolvedTracks,
		run.Status,
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversion not found: %s", run.ID())
	}

	return nil
}

// Delete removes a conversion run by ID
func (r *ConversionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM conversions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversion not found: %s", id)
	}

	return nil
}

// List retrieves all conversion runs matching the given criteria
func (r *ConversionRepository) List(criteria map[string]any) ([]*models.ConversionRun, error) {
	query := selectConversions + ` WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if platform, ok := criteria["source_platform"].(string); ok && platform != "" {
		query += " AND source_platform = ?"
		args = append(args, platform)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var runs []*models.ConversionRun
	for rows.Next() {
		run, err := scanConversion(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

const selectConversions = `
	SELECT id, sequence, source_playlist, source_platform, dest_playlist, total_tracks, resolved_tracks, status, created_at, updated_at
	FROM conversions`

func scanConversion(scan func(...any) error) (*models.ConversionRun, error) {
	var (
		id             string
		sequence       int
		sourcePlaylist string
		sourcePlatform string
		destPlaylist   string
		totalTracks    int
		resolvedTracks int
		status         string
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := scan(&id, &sequence, &sourcePlaylist, &sourcePlatform, &destPlaylist, &totalTracks, &resolvedTracks, &status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversion: %w", err)
	}

	run := models.NewConversionRun(sequence, sourcePlaylist, models.Platform(sourcePlatform))
	run.SetID(id)
	run.DestPlaylist = destPlaylist
	run.TotalTracks = totalTracks
	run.ResolvedTracks = resolvedTracks
	run.Status = status
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	return run, nil
}
