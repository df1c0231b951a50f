// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/desertthunder/tracklink/internal/models"
	"github.com/desertthunder/tracklink/internal/vector"
)

// MockService is a configurable test double for [services.Service].
type MockService struct {
	mu              sync.Mutex
	ServicePlatform models.Platform
	Playlists       []models.Playlist
	Exports         map[string]*models.PlaylistExport
	SearchResults   map[string][]models.Track // keyed by query; empty key is the fallback
	SearchErr       error
	ImportedExports []*models.PlaylistExport
	AddedTracks     map[string][]string
	SearchCalls     []string
}

func NewMockService(platform models.Platform) *MockService {
	return &MockService{
		ServicePlatform: platform,
		Exports:         make(map[string]*models.PlaylistExport),
		SearchResults:   make(map[string][]models.Track),
		AddedTracks:     make(map[string][]string),
	}
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockService) Platform() models.Platform { return m.ServicePlatform }

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return m.Playlists, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if export, ok := m.Exports[playlistID]; ok {
		pl := export.Playlist
		return &pl, nil
	}
	return nil, errors.New("playlist not found: " + playlistID)
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if export, ok := m.Exports[playlistID]; ok {
		return export, nil
	}
	return nil, errors.New("playlist not found: " + playlistID)
}

func (m *MockService) ImportPlaylist(ctx context.Context, playlist *models.PlaylistExport) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImportedExports = append(m.ImportedExports, playlist)
	created := playlist.Playlist
	created.ID = "created-" + playlist.Playlist.Name
	created.Platform = m.ServicePlatform
	created.TrackCount = len(playlist.Tracks)
	return &created, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddedTracks[playlistID] = append(m.AddedTracks[playlistID], trackIDs...)
	return nil
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	results, ok := m.SearchResults[query]
	if !ok {
		results = m.SearchResults[""]
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockService) Name() string { return "mock " + string(m.ServicePlatform) }

// StubEmbedder is a deterministic [embeddings.Embedder] test double. Each
// text embeds to a vector derived from its bytes, so equal texts produce
// equal vectors.
type StubEmbedder struct {
	mu    sync.Mutex
	Dim   int
	Err   error
	Calls int
}

func (s *StubEmbedder) dim() int {
	if s.Dim <= 0 {
		return 4
	}
	return s.Dim
}

func (s *StubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *StubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	s.Calls++
	err := s.Err
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, s.dim())
		for j, r := range text {
			vec[j%s.dim()] += float32(r)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (s *StubEmbedder) Dimensions() int { return s.dim() }

func (s *StubEmbedder) Model() string { return "stub-model" }

// MemoryIndex is an in-memory [vector.Index]. By default it scores by
// exact vector equality (1.0) and inequality (0.0); Scores overrides the
// score per point id so fractional thresholds can be exercised. Err fails
// every operation, SearchErr fails only Search. Safe for concurrent use
// so batch resolution can run against it.
type MemoryIndex struct {
	mu        sync.Mutex
	Entries   map[string]vector.Entry
	Scores    map[string]float64
	Err       error
	SearchErr error
	Upserts   int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{Entries: make(map[string]vector.Entry)}
}

func (m *MemoryIndex) EnsureCollection(ctx context.Context, recreate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if recreate {
		m.Entries = make(map[string]vector.Entry)
	}
	return nil
}

func (m *MemoryIndex) Upsert(ctx context.Context, entries []vector.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Upserts += len(entries)
	for _, e := range entries {
		m.Entries[vector.PointID(e.Payload.Platform, e.Payload.TrackID)] = e
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, vec []float32, opts vector.SearchOpts) ([]vector.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	var results []vector.Result
	for id, e := range m.Entries {
		if opts.Platform != "" && e.Payload.Platform != opts.Platform {
			continue
		}

		score := 0.0
		if vectorsEqual(vec, e.Vector) {
			score = 1.0
		}
		if s, ok := m.Scores[id]; ok {
			score = s
		}
		if score < opts.MinScore {
			continue
		}
		results = append(results, vector.Result{Score: score, Payload: e.Payload})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Payload.TrackID < results[j].Payload.TrackID
	})

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

func (m *MemoryIndex) UpdatePayload(ctx context.Context, platform models.Platform, trackID string, payload vector.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	id := vector.PointID(platform, trackID)
	entry, ok := m.Entries[id]
	if !ok {
		return errors.New("point not found: " + id)
	}
	entry.Payload = payload
	m.Entries[id] = entry
	return nil
}

func (m *MemoryIndex) Count(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return uint64(len(m.Entries)), nil
}

func vectorsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
