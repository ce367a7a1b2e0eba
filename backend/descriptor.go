// Package backend defines the read-only contract a code-emitting back
// end needs out of a translated Machine: storage layout, callback
// signatures, named entry points, and the interned bitmap table. It
// does not render anything to source - that is left entirely to the
// emitter, the same split the corpus draws between its IR and its
// codegen hint layer (codegen.GenOps builds structural results, never
// source text itself).
package backend

import (
	"sort"

	"github.com/aledsdavies/lowgen/bitset"
	"github.com/aledsdavies/lowgen/grammar"
	"github.com/aledsdavies/lowgen/internal/invariant"
	"github.com/aledsdavies/lowgen/lower"
)

// PropDescriptor describes one named storage slot an emitter must
// allocate space for.
type PropDescriptor struct {
	Index int
	Name  string
	Typ   grammar.Typ
}

// CallbackDescriptor describes one host-side callback an emitter must
// generate a call site for, naming which storage props feed it.
type CallbackDescriptor struct {
	Index    int
	Name     string
	ArgProps []PropDescriptor
}

// EntryPoint names one addressable node in the Machine's node array -
// every named state from the source grammar, in source order.
type EntryPoint struct {
	Name  string
	Index int
}

// BitmapTable describes one interned byte-class bitmap, in the stable
// order the Machine assigned them, for an emitter to materialize as a
// 256-entry constant table.
type BitmapTable struct {
	Index    int
	Interval bitset.Interval
	Bitmap   bitset.Bitmap
}

// Descriptor is the complete, render-agnostic view of a Machine handed
// to a back end. It is built once per Machine and is safe to read
// concurrently from multiple emitter goroutines, since it never
// aliases Machine's own mutable slices.
type Descriptor struct {
	Props       []PropDescriptor
	Callbacks   []CallbackDescriptor
	EntryPoints []EntryPoint
	Bitmaps     []BitmapTable
	NodeCount   int
}

// Describe projects a translated Machine into the minimal view an
// emitter needs, without exposing Machine's internal Instruction graph.
func Describe(m *lower.Machine) *Descriptor {
	invariant.NotNil(m, "machine")

	props := make([]PropDescriptor, len(m.Storage.Props))
	for i, p := range m.Storage.Props {
		props[i] = PropDescriptor{Index: i, Name: p.Name, Typ: p.Typ}
	}

	callbacks := make([]CallbackDescriptor, len(m.Storage.Callbacks))
	for i, cb := range m.Storage.Callbacks {
		args := make([]PropDescriptor, len(cb.ArgProps))
		for j, propIx := range cb.ArgProps {
			args[j] = props[propIx]
		}
		callbacks[i] = CallbackDescriptor{Index: i, Name: cb.Name, ArgProps: args}
	}

	entries := make([]EntryPoint, 0, len(m.Mapper))
	for name, ix := range m.Mapper {
		entries = append(entries, EntryPoint{Name: name, Index: ix})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })

	bitmaps := make([]BitmapTable, len(m.Bitmaps))
	for i, iv := range m.Bitmaps {
		bitmaps[i] = BitmapTable{Index: i, Interval: iv, Bitmap: iv.Bitmap()}
	}

	return &Descriptor{
		Props:       props,
		Callbacks:   callbacks,
		EntryPoints: entries,
		Bitmaps:     bitmaps,
		NodeCount:   len(m.Nodes),
	}
}
