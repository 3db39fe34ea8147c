package store

import "github.com/google/btree"

// zsetEntry is one member/score pair as stored in the ordering btree.
type zsetEntry struct {
	member string
	score  float64
}

// SortedSetValue is a set of members each carrying a float64 score (§3,
// §4.2). Unlike the usual score-ordered sorted set, this module's read
// commands iterate "ordered by member" — an ordered index keyed by member is
// exactly what btree.BTreeG gives us, so membership order comes for free
// from the tree's Ascend walk and scores live in a side map for O(1)
// lookup (an update also rewrites the tree entry, O(log n)).
type SortedSetValue struct {
	tree   *btree.BTreeG[zsetEntry]
	scores map[string]float64
}

// NewSortedSetValue returns an empty sorted set.
func NewSortedSetValue() *SortedSetValue {
	return &SortedSetValue{
		tree: btree.NewG(32, func(a, b zsetEntry) bool {
			return a.member < b.member
		}),
		scores: make(map[string]float64),
	}
}

func (*SortedSetValue) Kind() Kind { return KindSortedSet }

// Add inserts or updates member with score, reporting whether member is new.
// Callers must reject NaN scores before calling Add (see ErrNaNScore).
func (z *SortedSetValue) Add(member string, score float64) bool {
	_, existed := z.scores[member]
	z.scores[member] = score
	z.tree.ReplaceOrInsert(zsetEntry{member: member, score: score})
	return !existed
}

// Remove deletes member, reporting whether it was present.
func (z *SortedSetValue) Remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.tree.Delete(zsetEntry{member: member, score: score})
	return true
}

// Score returns the score of member.
func (z *SortedSetValue) Score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

// Len returns the number of members.
func (z *SortedSetValue) Len() int { return len(z.scores) }

// ScoredMember is a member/score pair returned by iteration.
type ScoredMember struct {
	Member string
	Score  float64
}

// Iter walks every member in ascending member order.
func (z *SortedSetValue) Iter() []ScoredMember {
	out := make([]ScoredMember, 0, z.tree.Len())
	z.tree.Ascend(func(e zsetEntry) bool {
		out = append(out, ScoredMember{Member: e.member, Score: e.score})
		return true
	})
	return out
}
