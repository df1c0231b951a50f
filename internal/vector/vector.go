// Package vector stores track embeddings in a similarity index and
// answers nearest-neighbor queries scoped to one platform. The concrete
// index is Qdrant; tests substitute an in-memory implementation.
package vector

import (
	"context"

	"github.com/google/uuid"

	"github.com/desertthunder/tracklink/internal/models"
)

// pointNamespace seeds deterministic point ids so re-indexing the same
// track overwrites its point instead of duplicating it.
var pointNamespace = uuid.MustParse("7d0bd4f0-63d5-4b5c-8f1e-2a9a6cf3b0d1")

// PointID derives the stable index id for a platform-scoped track.
func PointID(platform models.Platform, trackID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(string(platform)+":"+trackID)).String()
}

// Payload is the metadata stored alongside each vector, echoed back in
// search results so callers never need a second catalog lookup.
type Payload struct {
	Platform   models.Platform `json:"platform"`
	TrackID    string          `json:"track_id"`
	Title      string          `json:"title"`
	Artist     string          `json:"artist"`
	Album      string          `json:"album,omitempty"`
	Normalized string          `json:"normalized"`
}

// Entry is a vector plus its payload, ready to upsert.
type Entry struct {
	Vector  []float32
	Payload Payload
}

// Result is one search hit with its cosine similarity score.
type Result struct {
	Score   float64
	Payload Payload
}

// SearchOpts scopes a similarity query. Platform restricts hits to one
// side of the catalog. Zero TopK and MinScore fall back to the index
// defaults.
type SearchOpts struct {
	Platform models.Platform
	TopK     int
	MinScore float64
}

// Index is a platform-scoped nearest-neighbor store over track vectors.
type Index interface {
	// EnsureCollection creates the collection if absent. With recreate
	// set, an existing collection is dropped first. Destructive.
	EnsureCollection(ctx context.Context, recreate bool) error
	// Upsert writes entries, batching large inputs. Re-upserting a
	// track overwrites its previous point.
	Upsert(ctx context.Context, entries []Entry) error
	// Search returns hits ordered by descending score.
	Search(ctx context.Context, vec []float32, opts SearchOpts) ([]Result, error)
	// UpdatePayload rewrites the stored payload for one track without
	// touching its vector.
	UpdatePayload(ctx context.Context, platform models.Platform, trackID string, payload Payload) error
	// Count reports how many points the collection holds.
	Count(ctx context.Context) (uint64, error)
}
