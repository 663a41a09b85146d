package henkan

import (
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// userModelShards bounds lock contention between in-flight score reads
// and acceptance writes. Keys are spread by FNV-1a.
const userModelShards = 16

// UserModel is the mutable per-user overlay of n-gram counts. It is
// the only mutable shared state in the engine: reads (scoring) and
// writes (learning) may run concurrently, synchronized per shard so a
// reader observes either the pre- or post-update count of an entry,
// never a torn value. Counts only grow.
type UserModel struct {
	shards [userModelShards]userShard

	// unigramTotal is the global event count, read lock-free when
	// turning a count into a probability.
	unigramTotal atomic.Int64
}

type userShard struct {
	mu sync.RWMutex
	// unigram maps token key → acceptance count.
	unigram map[string]int64
	// bigram maps "key1\tkey2" → count; bigramTotal maps key1 → the
	// number of recorded successors, the denominator for the pair.
	bigram      map[string]int64
	bigramTotal map[string]int64
}

// NewUserModel returns an empty user model.
func NewUserModel() *UserModel {
	m := &UserModel{}
	for i := range m.shards {
		m.shards[i].unigram = make(map[string]int64)
		m.shards[i].bigram = make(map[string]int64)
		m.shards[i].bigramTotal = make(map[string]int64)
	}
	return m
}

func (m *UserModel) shardFor(key string) *userShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &m.shards[h.Sum32()%userModelShards]
}

// RecordAcceptance learns from an accepted conversion: every token's
// unigram count is incremented, and every adjacent pair's bigram
// count. Pair entries live in the shard of their first token.
func (m *UserModel) RecordAcceptance(path []Candidate) {
	for _, c := range path {
		key := c.Key()
		sh := m.shardFor(key)
		sh.mu.Lock()
		sh.unigram[key]++
		sh.mu.Unlock()
		m.unigramTotal.Add(1)
	}
	for i := 1; i < len(path); i++ {
		k1, k2 := path[i-1].Key(), path[i].Key()
		sh := m.shardFor(k1)
		sh.mu.Lock()
		sh.bigram[k1+"\t"+k2]++
		sh.bigramTotal[k1]++
		sh.mu.Unlock()
	}
}

// UnigramScore returns log10(count/total) for key, or ok=false when
// the user has never accepted it.
func (m *UserModel) UnigramScore(key string) (float64, bool) {
	sh := m.shardFor(key)
	sh.mu.RLock()
	count := sh.unigram[key]
	sh.mu.RUnlock()
	if count == 0 {
		return 0, false
	}
	total := m.unigramTotal.Load()
	if total < count {
		// A concurrent writer has bumped the count before the total;
		// clamp rather than produce a positive log-probability.
		total = count
	}
	return math.Log10(float64(count) / float64(total)), true
}

// BigramScore returns log10(count / successors(prev)) for the pair.
func (m *UserModel) BigramScore(prev, key string) (float64, bool) {
	sh := m.shardFor(prev)
	sh.mu.RLock()
	count := sh.bigram[prev+"\t"+key]
	total := sh.bigramTotal[prev]
	sh.mu.RUnlock()
	if count == 0 || total == 0 {
		return 0, false
	}
	return math.Log10(float64(count) / float64(total)), true
}

// UserSnapshot is a point-in-time copy of the user model, the unit of
// persistence.
type UserSnapshot struct {
	Unigrams map[string]int64
	// Bigrams is keyed "key1\tkey2".
	Bigrams map[string]int64
}

// Snapshot copies the counts shard by shard. It never holds more than
// one shard lock at a time, so concurrent learning is only briefly
// delayed and concurrent scoring on other shards not at all.
func (m *UserModel) Snapshot() UserSnapshot {
	snap := UserSnapshot{
		Unigrams: make(map[string]int64),
		Bigrams:  make(map[string]int64),
	}
	for i := range m.shards {
		sh := &m.shards[i]
		sh.mu.RLock()
		for k, v := range sh.unigram {
			snap.Unigrams[k] = v
		}
		for k, v := range sh.bigram {
			snap.Bigrams[k] = v
		}
		sh.mu.RUnlock()
	}
	return snap
}

// LoadSnapshot replaces the model's counts with snap. Called once at
// startup before the model is shared.
func (m *UserModel) LoadSnapshot(snap UserSnapshot) {
	var total int64
	for key, count := range snap.Unigrams {
		sh := m.shardFor(key)
		sh.unigram[key] = count
		total += count
	}
	m.unigramTotal.Store(total)
	for pair, count := range snap.Bigrams {
		k1, _, ok := strings.Cut(pair, "\t")
		if !ok {
			continue
		}
		sh := m.shardFor(k1)
		sh.bigram[pair] = count
		sh.bigramTotal[k1] += count
	}
}
