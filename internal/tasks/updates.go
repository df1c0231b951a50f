package tasks

import (
	"fmt"

	"github.com/desertthunder/tracklink/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	Compare
	CacheLookup
	VectorSearch
	LexicalSearch
	Persist
	CreatePlaylist
	IndexVectors
	UpdatePayloads
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case Compare:
		return "compare"
	case CacheLookup:
		return "cache_lookup"
	case VectorSearch:
		return "vector_search"
	case LexicalSearch:
		return "lexical_search"
	case Persist:
		return "persist"
	case CreatePlaylist:
		return "create_playlist"
	case IndexVectors:
		return "index_vectors"
	case UpdatePayloads:
		return "update_payloads"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching source playlist (%s)...", name),
	}
}

func foundPlaylistUpdate(step, total int, export *models.PlaylistExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", export.Playlist.Name, total),
		Data:    export,
	}
}

func fetchDestUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching destination playlist (%s)...", name),
	}
}

func compareUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: "Comparing tracks...",
	}
}

func resolveTrackUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheLookup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, tr.Artist, tr.Title),
	}
}

func resolvedUpdate(step, total int, outcome models.MatchOutcome) ProgressUpdate {
	phase := VectorSearch
	switch outcome.Source {
	case models.SourceCache:
		phase = CacheLookup
	case models.SourceAPI:
		phase = LexicalSearch
	}

	message := fmt.Sprintf("[%d/%d] ✓ %s → %s (%s)", step, total, outcome.TrackID, outcome.TargetTrackID, outcome.Source)
	if outcome.Status != models.StatusResolved {
		message = fmt.Sprintf("[%d/%d] ✗ %s (%s)", step, total, outcome.TrackID, outcome.Status)
	}

	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    outcome,
	}
}

func createDestinationUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist (%s)...", name),
	}
}

func createPlaylistUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func persistUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persist,
		Step:    step,
		Total:   total,
		Message: "Recording conversion results...",
	}
}

func indexVectorsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IndexVectors,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Indexing track vectors...", step, total),
	}
}

func updatePayloadsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdatePayloads,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Rewriting vector payloads...", step, total),
	}
}
