package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()

	c.Increment("resolver.resolved", 1)
	c.Increment("resolver.resolved", 2)
	c.Increment("resolver.unresolved", 1)

	if got := c.Counter("resolver.resolved"); got != 3 {
		t.Errorf("Counter(resolver.resolved) = %d, want 3", got)
	}
	if got := c.Counter("resolver.unresolved"); got != 1 {
		t.Errorf("Counter(resolver.unresolved) = %d, want 1", got)
	}
	if got := c.Counter("missing"); got != 0 {
		t.Errorf("Counter(missing) = %d, want 0", got)
	}
}

func TestCollectorTimerSummary(t *testing.T) {
	c := NewCollector()

	c.RecordTime("vector.search", 10*time.Millisecond)
	c.RecordTime("vector.search", 30*time.Millisecond)
	c.RecordTime("vector.search", 20*time.Millisecond)

	s := c.Snapshot()
	timer, ok := s.Timers["vector.search"]
	if !ok {
		t.Fatal("expected vector.search timer in snapshot")
	}
	if timer.Count != 3 {
		t.Errorf("Count = %d, want 3", timer.Count)
	}
	if timer.TotalMS != 60 {
		t.Errorf("TotalMS = %f, want 60", timer.TotalMS)
	}
	if timer.AvgMS != 20 {
		t.Errorf("AvgMS = %f, want 20", timer.AvgMS)
	}
	if timer.MinMS != 10 {
		t.Errorf("MinMS = %f, want 10", timer.MinMS)
	}
	if timer.MaxMS != 30 {
		t.Errorf("MaxMS = %f, want 30", timer.MaxMS)
	}
}

func TestCollectorGauges(t *testing.T) {
	c := NewCollector()

	c.SetGauge("queue.depth", 5)
	c.SetGauge("queue.depth", 2)

	s := c.Snapshot()
	if got := s.Gauges["queue.depth"]; got != 2 {
		t.Errorf("Gauges[queue.depth] = %f, want 2", got)
	}
}

func TestCollectorReset(t *testing.T) {
	c := NewCollector()
	c.Increment("n", 1)
	c.RecordTime("t", time.Millisecond)
	c.SetGauge("g", 1)

	c.Reset()

	s := c.Snapshot()
	if len(s.Counters) != 0 || len(s.Timers) != 0 || len(s.Gauges) != 0 {
		t.Errorf("expected empty snapshot after reset, got %+v", s)
	}
}

func TestCollectorHelpers(t *testing.T) {
	c := NewCollector()

	c.TrackCacheAccess("embedding", true)
	c.TrackCacheAccess("embedding", true)
	c.TrackCacheAccess("embedding", false)
	c.TrackVectorSearch(5*time.Millisecond, true)
	c.TrackVectorSearch(5*time.Millisecond, false)
	c.TrackEmbedding(5*time.Millisecond, 100)

	if got := c.Counter("embedding.cache.hits"); got != 2 {
		t.Errorf("embedding.cache.hits = %d, want 2", got)
	}
	if got := c.Counter("embedding.cache.misses"); got != 1 {
		t.Errorf("embedding.cache.misses = %d, want 1", got)
	}
	if got := c.Counter("vector.searches"); got != 2 {
		t.Errorf("vector.searches = %d, want 2", got)
	}
	if got := c.Counter("vector.matches"); got != 1 {
		t.Errorf("vector.matches = %d, want 1", got)
	}
	if got := c.Counter("embedding.texts"); got != 100 {
		t.Errorf("embedding.texts = %d, want 100", got)
	}
}

func TestCollectorConcurrency(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Increment("n", 1)
				c.RecordTime("t", time.Microsecond)
				c.SetGauge("g", 1)
			}
		}()
	}
	wg.Wait()

	if got := c.Counter("n"); got != 5000 {
		t.Errorf("Counter(n) = %d, want 5000", got)
	}
	s := c.Snapshot()
	if s.Timers["t"].Count != 5000 {
		t.Errorf("timer count = %d, want 5000", s.Timers["t"].Count)
	}
}
