package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// each pool connection would get its own in-memory database
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testTrack(platform models.Platform, trackID, title, artist string) models.Track {
	return models.Track{
		ID:       trackID,
		Platform: platform,
		Title:    title,
		Artist:   artist,
	}
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewCatalogTrack(0, testTrack(models.PlatformSpotify, "sp1", "Hey Jude", "The Beatles"))

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if track.ID() == "" {
			t.Error("track ID should be set after creation")
		}
	})

	t.Run("GetByPlatformID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		dto := testTrack(models.PlatformSpotify, "sp1", "Hey Jude", "The Beatles")
		dto.Genres = []string{"rock", "pop"}

		if err := repo.Create(models.NewCatalogTrack(0, dto)); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		retrieved, err := repo.GetByPlatformID(models.PlatformSpotify, "sp1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if retrieved.Track().Title != "Hey Jude" {
			t.Errorf("expected title Hey Jude, got %s", retrieved.Track().Title)
		}
		if len(retrieved.Track().Genres) != 2 {
			t.Errorf("expected 2 genres, got %v", retrieved.Track().Genres)
		}
	})

	t.Run("UpsertIdempotent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		dto := testTrack(models.PlatformYouTube, "yt1", "Hey Jude", "The Beatles")

		first, err := repo.Upsert(dto)
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		second, err := repo.Upsert(dto)
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}

		if first.ID() != second.ID() {
			t.Errorf("repeat upsert created a new row: %s vs %s", first.ID(), second.ID())
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 track, got %d", len(all))
		}
	})

	t.Run("MarkIndexedAndListUnindexed", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		for _, id := range []string{"sp1", "sp2", "sp3"} {
			if _, err := repo.Upsert(testTrack(models.PlatformSpotify, id, "Title "+id, "Artist")); err != nil {
				t.Fatalf("failed to upsert %s: %v", id, err)
			}
		}

		if err := repo.MarkIndexed(models.PlatformSpotify, []string{"sp1", "sp3"}); err != nil {
			t.Fatalf("failed to mark indexed: %v", err)
		}

		unindexed, err := repo.ListUnindexed(0)
		if err != nil {
			t.Fatalf("failed to list unindexed: %v", err)
		}
		if len(unindexed) != 1 || unindexed[0].TrackID() != "sp2" {
			t.Errorf("expected only sp2 unindexed, got %v", unindexed)
		}
	})

	t.Run("SearchByTitle", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		popular := testTrack(models.PlatformSpotify, "sp1", "Hey Jude", "The Beatles")
		popular.Popularity = 90
		obscure := testTrack(models.PlatformSpotify, "sp2", "Hey Jude (Live)", "The Beatles")
		obscure.Popularity = 40
		other := testTrack(models.PlatformYouTube, "yt1", "Hey Jude", "The Beatles")

		for _, dto := range []models.Track{popular, obscure, other} {
			if _, err := repo.Upsert(dto); err != nil {
				t.Fatalf("failed to upsert: %v", err)
			}
		}

		results, err := repo.SearchByTitle(models.PlatformSpotify, "Hey Jude", 5)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].TrackID() != "sp1" {
			t.Errorf("expected most popular first, got %s", results[0].TrackID())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewCatalogTrack(0, testTrack(models.PlatformSpotify, "sp1", "Hey Jude", "The Beatles"))

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}

		if _, err := repo.Get(track.ID()); err == nil {
			t.Error("expected error when getting deleted track")
		}
	})
}

func TestLinkRepository(t *testing.T) {
	t.Run("UpsertInsertsAndRefreshes", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		link := models.NewTrackLink("sp1", "yt1", false)

		if err := repo.Upsert(link); err != nil {
			t.Fatalf("failed to upsert link: %v", err)
		}

		again := models.NewTrackLink("sp1", "yt1", true)
		if err := repo.Upsert(again); err != nil {
			t.Fatalf("failed to re-upsert link: %v", err)
		}

		stored, err := repo.Get(models.LinkID("sp1", "yt1"))
		if err != nil {
			t.Fatalf("failed to get link: %v", err)
		}
		if !stored.IsRemix {
			t.Error("re-upsert should refresh the remix flag")
		}
		if !stored.CreatedAt().Equal(link.CreatedAt()) {
			t.Error("re-upsert should preserve created_at")
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count links: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 link, got %d", count)
		}
	})

	t.Run("UpsertReplacesConflictingLink", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		if err := repo.Upsert(models.NewTrackLink("sp1", "yt1", false)); err != nil {
			t.Fatalf("failed to upsert link: %v", err)
		}

		// sp1 resolves to a different video; the old link must go
		if err := repo.Upsert(models.NewTrackLink("sp1", "yt2", false)); err != nil {
			t.Fatalf("failed to upsert replacement: %v", err)
		}

		stored, err := repo.GetBySide(models.PlatformSpotify, "sp1")
		if err != nil {
			t.Fatalf("failed to get link by side: %v", err)
		}
		if stored.YouTubeTrackID != "yt2" {
			t.Errorf("expected sp1 linked to yt2, got %s", stored.YouTubeTrackID)
		}

		if _, err := repo.GetBySide(models.PlatformYouTube, "yt1"); err != sql.ErrNoRows {
			t.Errorf("expected stale link gone, got %v", err)
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count links: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 link after replacement, got %d", count)
		}
	})

	t.Run("GetBySideBothDirections", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		if err := repo.Upsert(models.NewTrackLink("sp1", "yt1", true)); err != nil {
			t.Fatalf("failed to upsert link: %v", err)
		}

		fromSpotify, err := repo.GetBySide(models.PlatformSpotify, "sp1")
		if err != nil {
			t.Fatalf("failed to get from spotify side: %v", err)
		}
		if fromSpotify.TargetFor(models.PlatformSpotify) != "yt1" {
			t.Errorf("expected target yt1, got %s", fromSpotify.TargetFor(models.PlatformSpotify))
		}

		fromYouTube, err := repo.GetBySide(models.PlatformYouTube, "yt1")
		if err != nil {
			t.Fatalf("failed to get from youtube side: %v", err)
		}
		if fromYouTube.TargetFor(models.PlatformYouTube) != "sp1" {
			t.Errorf("expected target sp1, got %s", fromYouTube.TargetFor(models.PlatformYouTube))
		}
		if !fromYouTube.IsRemix {
			t.Error("remix flag should survive the round trip")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkRepository(db)
		if err := repo.Upsert(models.NewTrackLink("sp1", "yt1", false)); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Upsert(models.NewTrackLink("sp2", "yt2", true)); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		remixes, err := repo.List(map[string]any{"is_remix": true})
		if err != nil {
			t.Fatalf("failed to list links: %v", err)
		}
		if len(remixes) != 1 || remixes[0].SpotifyTrackID != "sp2" {
			t.Errorf("expected only the sp2 remix link, got %v", remixes)
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	playlist := models.Playlist{
		ID:         "pl1",
		Platform:   models.PlatformSpotify,
		Name:       "Road Trip",
		OwnerID:    "user1",
		TrackCount: 2,
		Public:     true,
	}

	t.Run("SnapshotAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		record, err := repo.Snapshot(playlist, []string{"sp1", "sp2"})
		if err != nil {
			t.Fatalf("failed to snapshot playlist: %v", err)
		}

		retrieved, err := repo.GetByPlatformID(models.PlatformSpotify, "pl1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if retrieved.ID() != record.ID() {
			t.Errorf("expected ID %s, got %s", record.ID(), retrieved.ID())
		}
		if len(retrieved.TrackIDs) != 2 || retrieved.TrackIDs[0] != "sp1" {
			t.Errorf("expected stored track ids, got %v", retrieved.TrackIDs)
		}
	})

	t.Run("SnapshotReplaces", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		if _, err := repo.Snapshot(playlist, []string{"sp1", "sp2"}); err != nil {
			t.Fatalf("failed to snapshot playlist: %v", err)
		}
		if _, err := repo.Snapshot(playlist, []string{"sp3"}); err != nil {
			t.Fatalf("failed to re-snapshot playlist: %v", err)
		}

		records, err := repo.List(map[string]any{"platform": "spotify"})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 snapshot, got %d", len(records))
		}
		if len(records[0].TrackIDs) != 1 || records[0].TrackIDs[0] != "sp3" {
			t.Errorf("expected replacement snapshot, got %v", records[0].TrackIDs)
		}
	})
}

func TestConversionRepository(t *testing.T) {
	t.Run("CreateAndUpdate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		run := models.NewConversionRun(0, "pl1", models.PlatformSpotify)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		run.DestPlaylist = "yt-pl1"
		run.TotalTracks = 10
		run.ResolvedTracks = 8
		run.Status = "completed"

		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update conversion: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get conversion: %v", err)
		}
		if retrieved.Status != "completed" || retrieved.ResolvedTracks != 8 {
			t.Errorf("unexpected conversion state: %+v", retrieved)
		}
	})

	t.Run("ListByStatus", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		running := models.NewConversionRun(0, "pl1", models.PlatformSpotify)
		if err := repo.Create(running); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		done := models.NewConversionRun(0, "pl2", models.PlatformYouTube)
		if err := repo.Create(done); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}
		done.Status = "completed"
		if err := repo.Update(done); err != nil {
			t.Fatalf("failed to update conversion: %v", err)
		}

		completed, err := repo.List(map[string]any{"status": "completed"})
		if err != nil {
			t.Fatalf("failed to list conversions: %v", err)
		}
		if len(completed) != 1 || completed[0].SourcePlaylist != "pl2" {
			t.Errorf("expected only pl2 completed, got %v", completed)
		}
	})
}
