package engine

import (
	"math/rand"
	"sort"
)

// Selection is the finalized working set for one attempt plus the fixed
// per-question option permutations for ordering items. Both are computed once
// at bootstrap and never change for the lifetime of the session.
type Selection struct {
	Questions   []Question
	OptionOrder map[uint][]string
}

// Select builds the working set for one attempt.
//
// Items whose ID appears in solved are excluded first; when that leaves fewer
// than targetCount the exclusion is dropped and the whole pool is used, so a
// full-length session is produced whenever the pool itself is large enough.
// Ordering is either a uniform shuffle (rand.Shuffle, Fisher-Yates) or
// ascending by ID, then the set is truncated to targetCount.
//
// Malformed questions (no canonical answer, or choice/ordering with no
// options) are dropped from the pool before selection.
func Select(pool []Question, solved map[uint]bool, targetCount int, randomOrder bool, rng *rand.Rand) Selection {
	valid := make([]Question, 0, len(pool))
	for _, q := range pool {
		if q.Valid() {
			valid = append(valid, q)
		}
	}

	fresh := make([]Question, 0, len(valid))
	for _, q := range valid {
		if !solved[q.ID] {
			fresh = append(fresh, q)
		}
	}

	chosen := fresh
	if len(fresh) < targetCount {
		chosen = valid
	}

	working := make([]Question, len(chosen))
	copy(working, chosen)

	if randomOrder {
		rng.Shuffle(len(working), func(i, j int) {
			working[i], working[j] = working[j], working[i]
		})
	} else {
		sort.Slice(working, func(i, j int) bool { return working[i].ID < working[j].ID })
	}

	if len(working) > targetCount {
		working = working[:targetCount]
	}

	order := make(map[uint][]string, len(working))
	for _, q := range working {
		if q.Type != Ordering {
			continue
		}
		shuffled := make([]string, len(q.Options))
		copy(shuffled, q.Options)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		order[q.ID] = shuffled
	}

	return Selection{Questions: working, OptionOrder: order}
}
