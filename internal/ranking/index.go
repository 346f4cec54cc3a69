// Package ranking provides the in-process global ranking index: a sharded
// concurrent structure mapping content ids to their latest score, with
// snapshot-style ordered reads for the promotion sweep and the read API.
package ranking

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

const shardCount = 32

// Entry is one ranked item: the latest computed score plus the creation
// timestamp used for tie-breaking.
type Entry struct {
	ContentID string
	Score     float64
	CreatedAt time.Time
}

// Less defines the total ranking order: score desc, then creation time
// desc (newer wins), then id asc. Being total, repeated reads of an
// unchanged index produce identical sequences.
func Less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ContentID < b.ContentID
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// Index is the global ranking structure. Mutations touch only the shard
// owning the id, so concurrent updates to unrelated items do not
// serialize; ordered reads copy shard contents under read locks and sort
// the copy, never exposing a live-mutating view.
type Index struct {
	shards [shardCount]*shard
}

// New creates an empty ranking index.
func New() *Index {
	idx := &Index{}
	for i := range idx.shards {
		idx.shards[i] = &shard{entries: make(map[string]Entry)}
	}
	return idx
}

func (idx *Index) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return idx.shards[h.Sum32()%shardCount]
}

// Upsert inserts or replaces the entry for a content id. The index never
// holds two entries for the same id.
func (idx *Index) Upsert(contentID string, score float64, createdAt time.Time) {
	s := idx.shardFor(contentID)
	s.mu.Lock()
	s.entries[contentID] = Entry{ContentID: contentID, Score: score, CreatedAt: createdAt}
	s.mu.Unlock()
}

// Remove drops a content id from the index. Idempotent. Items leave the
// index only on deletion/archival signals; decay lowers score, not
// membership.
func (idx *Index) Remove(contentID string) {
	s := idx.shardFor(contentID)
	s.mu.Lock()
	delete(s.entries, contentID)
	s.mu.Unlock()
}

// Get returns the entry for a content id.
func (idx *Index) Get(contentID string) (Entry, bool) {
	s := idx.shardFor(contentID)
	s.mu.RLock()
	e, ok := s.entries[contentID]
	s.mu.RUnlock()
	return e, ok
}

// Len returns the number of tracked items.
func (idx *Index) Len() int {
	n := 0
	for _, s := range idx.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Snapshot returns an unordered copy of all entries.
func (idx *Index) Snapshot() []Entry {
	out := make([]Entry, 0, idx.Len())
	for _, s := range idx.shards {
		s.mu.RLock()
		for _, e := range s.entries {
			out = append(out, e)
		}
		s.mu.RUnlock()
	}
	return out
}

// TopN returns the n highest-ranked entries in ranking order. Passing
// n <= 0 or n greater than the tracked count returns everything.
func (idx *Index) TopN(n int) []Entry {
	all := idx.Snapshot()
	sort.Slice(all, func(i, j int) bool { return Less(all[i], all[j]) })
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// PercentileRank returns the item's standing among all tracked items:
// the fraction of other items with a strictly lower score. 1.0 means the
// top item; a sole tracked item ranks 1.0. The second return value is
// false for untracked ids.
func (idx *Index) PercentileRank(contentID string) (float64, bool) {
	target, ok := idx.Get(contentID)
	if !ok {
		return 0, false
	}
	return Percentile(idx.Snapshot(), target), true
}

// Percentile computes the fraction of entries (excluding the target
// itself) scoring strictly below target. Used directly by the promotion
// sweep to rank an item within a sub-population, e.g. spot-tier items
// only.
func Percentile(entries []Entry, target Entry) float64 {
	lower, others := 0, 0
	for _, e := range entries {
		if e.ContentID == target.ContentID {
			continue
		}
		others++
		if e.Score < target.Score {
			lower++
		}
	}
	if others == 0 {
		return 1.0
	}
	return float64(lower) / float64(others)
}
