// Package mastery tracks per-topic completion counts and derives levels.
package mastery

import (
	"sort"

	"github.com/abelbrown/brief/internal/store"
)

// GeneralTopic is the bucket used for stories without a topic label.
const GeneralTopic = "General"

// TopicMastery is one row of the read-only snapshot.
type TopicMastery struct {
	Topic string
	Count int
	Level int
}

// Ledger reads and mutates the per-topic completion counters.
type Ledger struct {
	store *store.Store
}

// New creates a Ledger backed by the given store.
func New(st *store.Store) *Ledger {
	return &Ledger{store: st}
}

// LevelForCount maps a completion count to a level: 1 for 0-4, 2 for
// 5-9, 3 for 10-14, and so on. Pure; never touches the store.
func LevelForCount(count int) int {
	level := 1 + count/5
	if level < 1 {
		return 1
	}
	return level
}

// RecordCompletion increments the topic's counter by exactly one and
// persists. An empty topic falls into the General bucket.
func (l *Ledger) RecordCompletion(topic string) error {
	if topic == "" {
		topic = GeneralTopic
	}

	counts := map[string]int{}
	l.store.Get(store.KeyMastery, &counts)
	counts[topic]++

	return l.store.Set(store.KeyMastery, counts)
}

// LevelOf returns the level for a topic; an unknown topic is level 1.
func (l *Ledger) LevelOf(topic string) int {
	if topic == "" {
		topic = GeneralTopic
	}

	counts := map[string]int{}
	l.store.Get(store.KeyMastery, &counts)
	return LevelForCount(counts[topic])
}

// Snapshot returns every topic with its count and level, ordered by
// count descending with lexical ties so the projection is deterministic.
func (l *Ledger) Snapshot() []TopicMastery {
	counts := map[string]int{}
	l.store.Get(store.KeyMastery, &counts)

	out := make([]TopicMastery, 0, len(counts))
	for topic, count := range counts {
		out = append(out, TopicMastery{Topic: topic, Count: count, Level: LevelForCount(count)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}
