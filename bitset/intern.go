package bitset

import "github.com/aledsdavies/lowgen/internal/structhash"

// Interner deduplicates Intervals by structural hash so that
// equivalent byte-classes share a single emitted bitmap table (spec
// §4.1: "intervals are interned... so equivalent classes share a
// single emitted table"). Insertion order is preserved and determines
// the index handed back, because the back-end embeds that index in
// generated identifiers (bitmap0, bitmap1, ...) and spec §5 requires
// that numbering be deterministic and reproducible.
//
// Unlike the teacher's core/types/registry.go, this carries no mutex:
// per spec §5 a compile is a single-threaded batch transform over one
// Grammar, and an Interner belongs to exactly one compile.
type Interner struct {
	index   map[structhash.Sum]int
	entries []Interval
}

// NewInterner creates an empty, insertion-ordered Interval interner.
func NewInterner() *Interner {
	return &Interner{index: make(map[structhash.Sum]int)}
}

// Intern returns the stable index for iv, assigning it a fresh index
// the first time an Interval with this canonical structure is seen.
func (in *Interner) Intern(iv Interval) int {
	key := structhash.Of(iv.ranges)
	if idx, ok := in.index[key]; ok {
		return idx
	}
	idx := len(in.entries)
	in.index[key] = idx
	in.entries = append(in.entries, iv)
	return idx
}

// Entries returns the interned Intervals in insertion (index) order.
func (in *Interner) Entries() []Interval {
	return in.entries
}

// Len returns the number of distinct Intervals interned so far.
func (in *Interner) Len() int {
	return len(in.entries)
}
