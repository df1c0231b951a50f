package vector

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/qdrant/go-client/qdrant"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/shared"
)

// upsertBatchSize caps how many points go to Qdrant in one request.
const upsertBatchSize = 100

// QdrantIndex implements Index on a Qdrant collection with cosine
// distance. Failures are wrapped in [shared.ErrVectorUnavailable] so the
// resolver can demote to its lexical stage.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
	topK       int
	minScore   float64
	logger     *log.Logger
}

func NewQdrantIndex(cfg shared.VectorConfig, dimension int, logger *log.Logger) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrVectorUnavailable, err)
	}

	return &QdrantIndex{
		client:     client,
		collection: cfg.Collection,
		dimension:  dimension,
		topK:       cfg.TopK,
		minScore:   cfg.MinScore,
		logger:     logger,
	}, nil
}

func (q *QdrantIndex) EnsureCollection(ctx context.Context, recreate bool) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", shared.ErrVectorUnavailable, err)
	}

	if exists && !recreate {
		return nil
	}
	if exists {
		q.logger.Warn("dropping existing collection", "collection", q.collection)
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("%w: dropping collection: %v", shared.ErrVectorUnavailable, err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection: %v", shared.ErrVectorUnavailable, err)
	}

	q.logger.Info("created collection", "collection", q.collection, "dimension", q.dimension)
	return nil
}

func (q *QdrantIndex) Upsert(ctx context.Context, entries []Entry) error {
	for start := 0; start < len(entries); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(entries))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, e := range entries[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewID(PointID(e.Payload.Platform, e.Payload.TrackID)),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: payloadMap(e.Payload),
			})
		}

		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("%w: upserting %d points: %v", shared.ErrVectorUnavailable, len(points), err)
		}
	}

	return nil
}

func (q *QdrantIndex) Search(ctx context.Context, vec []float32, opts SearchOpts) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = q.topK
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = q.minScore
	}

	query := &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(float32(minScore)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if opts.Platform != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("platform", string(opts.Platform)),
			},
		}
	}

	points, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", shared.ErrVectorUnavailable, err)
	}

	results := make([]Result, 0, len(points))
	for _, p := range points {
		results = append(results, Result{
			Score:   float64(p.GetScore()),
			Payload: payloadFromMap(p.GetPayload()),
		})
	}
	return results, nil
}

func (q *QdrantIndex) UpdatePayload(ctx context.Context, platform models.Platform, trackID string, payload Payload) error {
	_, err := q.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: q.collection,
		Payload:        payloadMap(payload),
		PointsSelector: qdrant.NewPointsSelector(qdrant.NewID(PointID(platform, trackID))),
	})
	if err != nil {
		return fmt.Errorf("%w: setting payload: %v", shared.ErrVectorUnavailable, err)
	}
	return nil
}

func (q *QdrantIndex) Count(ctx context.Context) (uint64, error) {
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting points: %v", shared.ErrVectorUnavailable, err)
	}
	return count, nil
}

func payloadMap(p Payload) map[string]*qdrant.Value {
	return qdrant.NewValueMap(map[string]any{
		"platform":   string(p.Platform),
		"track_id":   p.TrackID,
		"title":      p.Title,
		"artist":     p.Artist,
		"album":      p.Album,
		"normalized": p.Normalized,
	})
}

func payloadFromMap(m map[string]*qdrant.Value) Payload {
	str := func(key string) string {
		if v, ok := m[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}

	return Payload{
		Platform:   models.Platform(str("platform")),
		TrackID:    str("track_id"),
		Title:      str("title"),
		Artist:     str("artist"),
		Album:      str("album"),
		Normalized: str("normalized"),
	}
}
