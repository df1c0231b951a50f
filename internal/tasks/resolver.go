package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/strutil"
	strmetrics "github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/tracklink/internal/embeddings"
	"github.com/desertthunder/tracklink/internal/metrics"
	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/repositories"
	"github.com/desertthunder/tracklink/internal/services"
	"github.com/desertthunder/tracklink/internal/shared"
	"github.com/desertthunder/tracklink/internal/vector"
)

// ResolverConfig holds the tunables for a MatchResolver.
type ResolverConfig struct {
	StageTimeout time.Duration // Per-stage deadline; zero disables
	LexicalLimit int           // Candidates fetched in the lexical stage
	MinRatio     float64       // Lexical similarity floor
	TopK         int           // Vector candidates per query
	MinScore     float64       // Vector similarity floor
	Workers      int           // Batch resolution concurrency
}

// ResolverConfigFrom assembles a ResolverConfig from the loaded app config.
func ResolverConfigFrom(cfg *shared.Config) ResolverConfig {
	return ResolverConfig{
		StageTimeout: cfg.Resolver.StageTimeout(),
		LexicalLimit: cfg.Resolver.LexicalLimit,
		MinRatio:     cfg.Resolver.MinRatio,
		TopK:         cfg.Vector.TopK,
		MinScore:     cfg.Vector.MinScore,
		Workers:      cfg.Resolver.Workers,
	}
}

// MatchResolver resolves tracks against the opposite platform through a
// staged pipeline: durable link lookup, vector similarity search, then
// lexical search against the platform API. Every observed track is
// persisted to the catalog and vector index regardless of outcome, so
// the index grows with use and future resolutions get cheaper.
type MatchResolver struct {
	embedder  embeddings.Embedder
	index     vector.Index
	links     *repositories.LinkRepository
	tracks    *repositories.TrackRepository
	platforms map[models.Platform]services.Service
	config    ResolverConfig
	logger    *log.Logger
}

// NewMatchResolver wires a resolver from its dependencies. The spotify
// and youtube services back the lexical stage for their platform.
func NewMatchResolver(
	embedder embeddings.Embedder,
	index vector.Index,
	links *repositories.LinkRepository,
	tracks *repositories.TrackRepository,
	spotify, youtube services.Service,
	config ResolverConfig,
	logger *log.Logger,
) *MatchResolver {
	return &MatchResolver{
		embedder: embedder,
		index:    index,
		links:    links,
		tracks:   tracks,
		platforms: map[models.Platform]services.Service{
			models.PlatformSpotify: spotify,
			models.PlatformYouTube: youtube,
		},
		config: config,
		logger: logger,
	}
}

// ResolveAndLink resolves a single track and, when a match is found,
// writes the durable link. The returned outcome is terminal: resolved
// with a source stage, unresolved, or failed for invalid input.
func (r *MatchResolver) ResolveAndLink(ctx context.Context, track models.Track) models.MatchOutcome {
	if err := track.Validate(); err != nil {
		metrics.Default().Increment("resolver.failed", 1)
		return models.MatchOutcome{
			Status:   models.StatusFailed,
			TrackID:  track.ID,
			Platform: track.Platform,
			Err:      fmt.Errorf("%w: %v", shared.ErrInvalidTrack, err),
		}
	}

	// Catalog write happens no matter how resolution ends.
	if _, err := r.tracks.Upsert(track); err != nil {
		r.logger.Warn("catalog upsert failed", "track", track.ID, "error", err)
	}

	if outcome, ok := r.lookupCache(track); ok {
		metrics.Default().Increment("resolver.resolved", 1)
		return outcome
	}

	outcome, ok, demoted := r.vectorMatch(ctx, track)
	if ok {
		return r.finish(ctx, track, outcome, nil)
	}
	if demoted {
		r.logger.Warn("vector stage unavailable, falling back to lexical search", "track", track.ID)
	}

	if outcome, match, ok := r.lexicalMatch(ctx, track); ok {
		return r.finish(ctx, track, outcome, &match)
	}

	metrics.Default().Increment("resolver.unresolved", 1)
	return models.MatchOutcome{
		Status:   models.StatusUnresolved,
		TrackID:  track.ID,
		Platform: track.Platform,
	}
}

// ResolveBatch resolves tracks concurrently, preserving input order in
// the returned outcomes.
func (r *MatchResolver) ResolveBatch(ctx context.Context, tracks []models.Track) []models.MatchOutcome {
	workers := r.config.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tracks) {
		workers = len(tracks)
	}

	outcomes := make([]models.MatchOutcome, len(tracks))
	jobs := make(chan int)

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				outcomes[i] = r.ResolveAndLink(ctx, tracks[i])
			}
			done <- struct{}{}
		}()
	}

	for i := range tracks {
		jobs <- i
	}
	close(jobs)

	for w := 0; w < workers; w++ {
		<-done
	}

	return outcomes
}

// lookupCache checks the durable link store for an existing resolution.
func (r *MatchResolver) lookupCache(track models.Track) (models.MatchOutcome, bool) {
	link, err := r.links.GetBySide(track.Platform, track.ID)
	if err != nil {
		if err != sql.ErrNoRows {
			r.logger.Warn("link lookup failed", "track", track.ID, "error", err)
		}
		metrics.Default().TrackCacheAccess("link", false)
		return models.MatchOutcome{}, false
	}

	metrics.Default().TrackCacheAccess("link", true)
	return models.MatchOutcome{
		Status:        models.StatusResolved,
		Source:        models.SourceCache,
		TrackID:       track.ID,
		Platform:      track.Platform,
		TargetTrackID: link.TargetFor(track.Platform),
		IsRemix:       link.IsRemix,
	}, true
}

// vectorMatch embeds the track, indexes it, and searches the opposite
// platform for the nearest neighbor above the score floor. The third
// return reports stage demotion: embedding or index failure sends
// resolution to the lexical stage instead of ending it.
func (r *MatchResolver) vectorMatch(ctx context.Context, track models.Track) (models.MatchOutcome, bool, bool) {
	ctx, cancel := r.stageContext(ctx)
	defer cancel()

	normalized := shared.NormalizeTrack(track)

	vec, err := r.embedder.Embed(ctx, normalized)
	if err != nil {
		r.logger.Warn("embedding failed", "track", track.ID, "error", err)
		return models.MatchOutcome{}, false, true
	}

	entry := vector.Entry{
		Vector: vec,
		Payload: vector.Payload{
			Platform:   track.Platform,
			TrackID:    track.ID,
			Title:      track.Title,
			Artist:     track.Artist,
			Album:      track.Album,
			Normalized: normalized,
		},
	}
	if err := r.index.Upsert(ctx, []vector.Entry{entry}); err != nil {
		r.logger.Warn("vector upsert failed", "track", track.ID, "error", err)
		return models.MatchOutcome{}, false, true
	}
	if err := r.tracks.MarkIndexed(track.Platform, []string{track.ID}); err != nil {
		r.logger.Warn("marking track indexed failed", "track", track.ID, "error", err)
	}

	start := time.Now()
	results, err := r.index.Search(ctx, vec, vector.SearchOpts{
		Platform: track.Platform.Opposite(),
		TopK:     r.config.TopK,
		MinScore: r.config.MinScore,
	})
	if err != nil {
		metrics.Default().TrackVectorSearch(time.Since(start), false)
		if errors.Is(err, shared.ErrVectorUnavailable) {
			return models.MatchOutcome{}, false, true
		}
		r.logger.Error("vector search failed", "track", track.ID, "error", err)
		return models.MatchOutcome{}, false, true
	}
	metrics.Default().TrackVectorSearch(time.Since(start), len(results) > 0)

	if len(results) == 0 {
		return models.MatchOutcome{}, false, false
	}

	best := results[0]
	return models.MatchOutcome{
		Status:        models.StatusResolved,
		Source:        models.SourceVector,
		TrackID:       track.ID,
		Platform:      track.Platform,
		TargetTrackID: best.Payload.TrackID,
		IsRemix:       isRemixPair(track.Title, best.Payload.Title),
		Score:         best.Score,
	}, true, false
}

// lexicalMatch queries the opposite platform's API and scores candidates
// by string similarity against the normalized source track. Ties keep
// the first candidate seen, honoring the platform's own relevance order.
func (r *MatchResolver) lexicalMatch(ctx context.Context, track models.Track) (models.MatchOutcome, models.Track, bool) {
	target, ok := r.platforms[track.Platform.Opposite()]
	if !ok || target == nil {
		return models.MatchOutcome{}, models.Track{}, false
	}

	ctx, cancel := r.stageContext(ctx)
	defer cancel()

	// Spotify metadata is clean, so title plus artist makes the best
	// query. Video titles carry noise and often embed the artist, so
	// they search as the cleaned title alone.
	var query string
	if track.Platform == models.PlatformYouTube {
		query = strings.TrimSpace(shared.CleanVideoTitle(track.Title))
	} else {
		query = strings.TrimSpace(track.Title + " " + track.Artist)
	}
	candidates, err := target.SearchTracks(ctx, query, r.config.LexicalLimit)
	if err != nil {
		r.logger.Warn("lexical search failed", "track", track.ID, "error", err)
		return models.MatchOutcome{}, models.Track{}, false
	}
	metrics.Default().Increment("lexical.searches", 1)

	want := shared.NormalizeTrackKey(track.Title, track.Artist)
	similarity := strmetrics.NewJaroWinkler()

	var best models.Track
	var bestScore float64
	for _, cand := range candidates {
		got := shared.NormalizeTrackKey(cand.Title, cand.Artist)
		score := strutil.Similarity(want, got, similarity)
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}

	if best.ID == "" || bestScore < r.config.MinRatio {
		return models.MatchOutcome{}, models.Track{}, false
	}

	metrics.Default().Increment("lexical.matches", 1)
	return models.MatchOutcome{
		Status:        models.StatusResolved,
		Source:        models.SourceAPI,
		TrackID:       track.ID,
		Platform:      track.Platform,
		TargetTrackID: best.ID,
		IsRemix:       isRemixPair(track.Title, best.Title),
		Score:         bestScore,
	}, best, true
}

// finish persists the link for a resolved outcome and, when the match
// came from a platform API, feeds the counterpart into the catalog and
// vector index.
func (r *MatchResolver) finish(ctx context.Context, track models.Track, outcome models.MatchOutcome, counterpart *models.Track) models.MatchOutcome {
	var link *models.TrackLink
	if track.Platform == models.PlatformSpotify {
		link = models.NewTrackLink(track.ID, outcome.TargetTrackID, outcome.IsRemix)
	} else {
		link = models.NewTrackLink(outcome.TargetTrackID, track.ID, outcome.IsRemix)
	}

	if err := r.links.Upsert(link); err != nil {
		r.logger.Error("link upsert failed", "track", track.ID, "target", outcome.TargetTrackID, "error", err)
	}

	if counterpart != nil {
		if _, err := r.tracks.Upsert(*counterpart); err != nil {
			r.logger.Warn("counterpart catalog upsert failed", "track", counterpart.ID, "error", err)
		}
		r.indexCounterpart(ctx, *counterpart)
	}

	metrics.Default().Increment("resolver.resolved", 1)
	metrics.Default().Increment("resolver.resolved."+string(outcome.Source), 1)
	return outcome
}

// indexCounterpart embeds and indexes an API-sourced match, best effort.
func (r *MatchResolver) indexCounterpart(ctx context.Context, track models.Track) {
	normalized := shared.NormalizeTrack(track)
	vec, err := r.embedder.Embed(ctx, normalized)
	if err != nil {
		r.logger.Warn("counterpart embedding failed", "track", track.ID, "error", err)
		return
	}

	entry := vector.Entry{
		Vector: vec,
		Payload: vector.Payload{
			Platform:   track.Platform,
			TrackID:    track.ID,
			Title:      track.Title,
			Artist:     track.Artist,
			Album:      track.Album,
			Normalized: normalized,
		},
	}
	if err := r.index.Upsert(ctx, []vector.Entry{entry}); err != nil {
		r.logger.Warn("counterpart vector upsert failed", "track", track.ID, "error", err)
		return
	}
	if err := r.tracks.MarkIndexed(track.Platform, []string{track.ID}); err != nil {
		r.logger.Warn("marking counterpart indexed failed", "track", track.ID, "error", err)
	}
}

func (r *MatchResolver) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.StageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.config.StageTimeout)
}

// isRemixPair flags likely remix relationships: exactly one of the two
// titles mentions a remix.
func isRemixPair(a, b string) bool {
	return strings.Contains(strings.ToLower(a), "remix") != strings.Contains(strings.ToLower(b), "remix")
}
