package harvest

import (
	"maps"
	"sync"
	"time"

	"github.com/srikandi-id/harvester/internal/types"
)

// Stats counts what a run did with its candidates.
type Stats struct {
	mu sync.Mutex

	AdapterCalls int
	Candidates   int
	Accepted     int
	Duplicates   int
	Irrelevant   int
	Invalid      int
	Merged       int
	Seeded       int

	StartTime time.Time
	EndTime   time.Time

	perSource  map[types.SourceName]int
	perKeyword map[string]int
}

func newStats(start time.Time) *Stats {
	return &Stats{
		StartTime:  start,
		perSource:  make(map[types.SourceName]int),
		perKeyword: make(map[string]int),
	}
}

func (s *Stats) accept(src types.SourceName, keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accepted++
	s.perSource[src]++
	s.perKeyword[keyword]++
}

func (s *Stats) add(field *int, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*field += n
}

// AcceptedBySource returns accepted counts per source.
func (s *Stats) AcceptedBySource() map[types.SourceName]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.perSource)
}

// AcceptedByKeyword returns accepted counts per driving keyword.
func (s *Stats) AcceptedByKeyword() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.perKeyword)
}

// Snapshot returns a copy of stats safe for reading.
func (s *Stats) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return map[string]any{
		"adapter_calls": s.AdapterCalls,
		"candidates":    s.Candidates,
		"accepted":      s.Accepted,
		"duplicates":    s.Duplicates,
		"irrelevant":    s.Irrelevant,
		"invalid":       s.Invalid,
		"merged":        s.Merged,
		"seeded":        s.Seeded,
		"elapsed":       end.Sub(s.StartTime).String(),
	}
}
