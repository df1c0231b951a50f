package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tracklink/internal/models"
)

func samplePlaylist() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          "test123",
			Platform:    models.PlatformSpotify,
			Name:        "Test Playlist",
			Description: "A test playlist",
			TrackCount:  2,
			Public:      true,
		},
		Tracks: []models.Track{
			{
				ID:         "track1",
				Platform:   models.PlatformSpotify,
				Title:      "Song One",
				Artist:     "Artist One",
				Album:      "Album One",
				DurationMS: 180000,
				ISRC:       "USRC12345678",
			},
			{
				ID:         "track2",
				Platform:   models.PlatformSpotify,
				Title:      "Song Two",
				Artist:     "Artist Two",
				DurationMS: 240000,
				ISRC:       "USRC87654321",
			},
		},
	}
}

func sampleOutcomes() []models.MatchOutcome {
	return []models.MatchOutcome{
		{
			Status:        models.StatusResolved,
			Source:        models.SourceVector,
			TrackID:       "sp1",
			Platform:      models.PlatformSpotify,
			TargetTrackID: "yt1",
			Score:         0.97,
		},
		{
			Status:        models.StatusResolved,
			Source:        models.SourceAPI,
			TrackID:       "sp2",
			Platform:      models.PlatformSpotify,
			TargetTrackID: "yt2",
			IsRemix:       true,
			Score:         0.82,
		},
		{
			Status:   models.StatusUnresolved,
			TrackID:  "sp3",
			Platform: models.PlatformSpotify,
		},
		{
			Status:   models.StatusFailed,
			TrackID:  "sp4",
			Platform: models.PlatformSpotify,
			Err:      errors.New("missing title"),
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Title,Artist,Album,Duration,ISRC") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "track1,Song One,Artist One,Album One,180000,USRC12345678") {
			t.Errorf("CSV missing track1 row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist(), "")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Test Playlist") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Description**: A test playlist") {
			t.Errorf("Markdown missing description")
		}
		if !strings.Contains(output, "**Visibility**: Public") {
			t.Errorf("Markdown missing visibility")
		}
		if !strings.Contains(output, "1. Artist One - Song One (Album One) [3:00]") {
			t.Errorf("Markdown missing first track line, got: %s", output)
		}
		// no album means no parenthetical
		if !strings.Contains(output, "2. Artist Two - Song Two [4:00]") {
			t.Errorf("Markdown missing second track line, got: %s", output)
		}
	})

	t.Run("ExportToMarkdownWithCover", func(t *testing.T) {
		data, err := ExportToMarkdown(samplePlaylist(), "cover.jpg")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.Contains(string(data), "![Cover](cover.jpg)") {
			t.Errorf("Markdown missing cover image reference")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(samplePlaylist())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("text missing playlist name")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("text missing track line, got: %s", output)
		}
	})
}

func TestMatchReports(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		data, err := MatchReportCSV(sampleOutcomes())
		if err != nil {
			t.Fatalf("MatchReportCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Track ID,Platform,Status,Source,Target ID,Remix,Score") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "sp1,spotify,resolved,vector,yt1,false,0.9700") {
			t.Errorf("CSV missing resolved row, got: %s", output)
		}
		if !strings.Contains(output, "sp2,spotify,resolved,api,yt2,true,0.8200") {
			t.Errorf("CSV missing remix row, got: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		data, err := MatchReportMarkdown("Road Trip", sampleOutcomes())
		if err != nil {
			t.Fatalf("MatchReportMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Match Report: Road Trip") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Total**: 4 | **Resolved**: 2 | **Unresolved**: 1 | **Failed**: 1") {
			t.Errorf("Markdown missing summary, got: %s", output)
		}
		if !strings.Contains(output, "| sp1 | resolved | vector | yt1 |  | 0.97 |") {
			t.Errorf("Markdown missing resolved row, got: %s", output)
		}
		if !strings.Contains(output, "| sp2 | resolved | api | yt2 | yes | 0.82 |") {
			t.Errorf("Markdown missing remix row, got: %s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := MatchReportJSON(sampleOutcomes())
		if err != nil {
			t.Fatalf("MatchReportJSON failed: %v", err)
		}

		var rows []map[string]any
		if err := json.Unmarshal(data, &rows); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows, got %d", len(rows))
		}
		if rows[0]["track_id"] != "sp1" || rows[0]["source"] != "vector" {
			t.Errorf("unexpected first row: %v", rows[0])
		}
		if rows[3]["error"] != "missing title" {
			t.Errorf("expected error surfaced as string, got %v", rows[3]["error"])
		}
	})
}

func TestFileExports(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "export")

		result, err := WriteCSVExport(samplePlaylist(), base)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		if result.TracksFile != base+"_tracks.csv" {
			t.Errorf("unexpected tracks file: %s", result.TracksFile)
		}
		if _, err := os.Stat(result.TracksFile); err != nil {
			t.Errorf("tracks file not written: %v", err)
		}
		if _, err := os.Stat(result.MetadataFile); err != nil {
			t.Errorf("metadata file not written: %v", err)
		}
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "playlist")

		result, err := WriteMarkdownExport(samplePlaylist(), dir, "")
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.Directory != dir {
			t.Errorf("unexpected directory: %s", result.Directory)
		}
		readme := filepath.Join(dir, "README.md")
		if _, err := os.Stat(readme); err != nil {
			t.Errorf("README not written: %v", err)
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracks.txt")

		written, err := WriteTextExport(samplePlaylist(), path)
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if written != path {
			t.Errorf("unexpected path: %s", written)
		}
	})

	t.Run("WriteMatchReport", func(t *testing.T) {
		for _, format := range []string{"csv", "json", "md"} {
			path := filepath.Join(t.TempDir(), "report."+format)
			written, err := WriteMatchReport("Road Trip", sampleOutcomes(), format, path)
			if err != nil {
				t.Fatalf("WriteMatchReport(%s) failed: %v", format, err)
			}
			if written != path {
				t.Errorf("unexpected path: %s", written)
			}
		}
	})

	t.Run("WriteMatchReportUnknownFormat", func(t *testing.T) {
		if _, err := WriteMatchReport("x", nil, "xml", ""); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
