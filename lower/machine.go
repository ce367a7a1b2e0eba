package lower

import (
	"github.com/aledsdavies/lowgen/bitset"
	"github.com/aledsdavies/lowgen/grammar"
	"github.com/aledsdavies/lowgen/internal/structhash"
)

// Inst is one entry in a Machine's node array: the compiled body plus
// whether that body is a consumer (and therefore a valid node entry).
type Inst struct {
	IsCheck bool
	Body    Instruction
}

// Machine is the core's output (spec §3): a flat, indexed array of
// instruction nodes plus the grammar's storage descriptor, node names,
// and the name-to-index lookup for named states. Once translated it is
// read-only input to a back-end emitter.
type Machine struct {
	Storage grammar.Storage
	Names   []string
	Nodes   []Inst
	Mapper  map[string]int
	Bitmaps []bitset.Interval
}

// Fingerprint computes a deterministic structural hash of the whole
// Machine, suitable for build-cache keys: identical grammars translate
// to byte-identical Machines (spec §5 "Ordering guarantees"), so equal
// fingerprints mean a downstream emitter can skip re-rendering.
func (m *Machine) Fingerprint() structhash.Sum {
	return structhash.Of(m)
}
