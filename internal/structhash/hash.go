// Package structhash computes deterministic structural hashes of the
// lowering pipeline's intermediate values: byte-set Intervals (for
// bitmap interning, spec §4.1/§9) and compiled instruction
// continuations (for the branch-arm grouping key, spec §4.2/§4.3).
//
// The hash must be a pure, stable fold over structure - the same value
// encoded twice must hash identically, and structurally different
// values should (with overwhelming probability) hash differently. It
// is explicitly not a cryptographic integrity check, so the 256-bit
// blake2b digest is truncated to a 128-bit tag.
package structhash

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Sum is a 128-bit structural hash, compact enough to use as a map key
// or to embed in generated identifier names.
type Sum [16]byte

func (s Sum) String() string {
	return fmt.Sprintf("%x", [16]byte(s))
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("structhash: building canonical CBOR encoder: %v", err))
	}
	return m
}()

// Of computes the structural hash of v. v must be built only from
// CBOR-encodable types (structs, slices, maps with string keys,
// primitives) - the same discipline the caller already follows to
// build canonical, comparable intermediate values.
func Of(v interface{}) Sum {
	data, err := encMode.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("structhash: marshaling %T: %v", v, err))
	}
	digest := blake2b.Sum256(data)
	var sum Sum
	copy(sum[:], digest[:16])
	return sum
}
