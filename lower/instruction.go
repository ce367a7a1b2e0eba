// Package lower implements the translator (spec §4.3): it walks a
// specialized Tree per grammar state and emits a flat Machine - an
// array of numbered nodes, each holding one Instruction, with jumps
// across nodes by index and control within a node expressed as a
// finite instruction sub-graph.
package lower

import (
	"github.com/aledsdavies/lowgen/bitset"
	"github.com/aledsdavies/lowgen/specialize"
)

// InstructionKind discriminates the closed sum of Instruction shapes
// (spec §3). A consumer is the only variant permitted as a node's root
// instruction; the rest are tail instructions that flow or jump.
type InstructionKind string

const (
	InstConsumer InstructionKind = "consumer"
	InstSelect   InstructionKind = "select"
	InstNext     InstructionKind = "next"
	InstStore    InstructionKind = "store"
	InstCapture  InstructionKind = "capture"
	InstClose    InstructionKind = "close"
	InstCall     InstructionKind = "call"
	InstGoto     InstructionKind = "goto"
	InstError    InstructionKind = "error"
)

// SelectArm is one (value -> Instruction) arm of a select Instruction.
type SelectArm struct {
	Value uint64
	Inst  *Instruction
}

// Instruction is the tagged union of compiled instructions. Only the
// fields relevant to Kind are populated.
type Instruction struct {
	Kind InstructionKind

	// InstConsumer
	Consumer *Consumer

	// InstSelect
	SelectOn   specialize.SelectKind
	SelectCall specialize.Call
	SelectProp int
	SelectArms []SelectArm
	Otherwise  *Instruction

	// InstNext
	N int

	// InstStore, InstCapture, InstClose, InstCall, InstNext: continuation
	Next *Instruction

	// InstStore, InstCapture, InstClose: target property index
	Prop int

	// InstStore: explicit byte to write, nil means "current byte"
	Data *byte

	// InstCall
	Call specialize.Call

	// InstGoto
	Target int

	// InstError
	Code uint64
}

// ConsumerKind discriminates the closed sum of Consumer shapes.
type ConsumerKind string

const (
	ConsumerIs      ConsumerKind = "is"
	ConsumerChar    ConsumerKind = "char"
	ConsumerRange   ConsumerKind = "range"
	ConsumerMap     ConsumerKind = "map"
	ConsumerChars   ConsumerKind = "chars"
	ConsumerMixed   ConsumerKind = "mixed"
	ConsumerConsume ConsumerKind = "consume"
)

// CharArm is one (byte -> Instruction) arm of a dense ConsumerChars switch.
type CharArm struct {
	Byte byte
	Inst *Instruction
}

// CheckKind discriminates the closed sum of Check shapes used by a
// ConsumerMixed arm.
type CheckKind string

const (
	CheckChar  CheckKind = "char"
	CheckRange CheckKind = "range"
	CheckMap   CheckKind = "map"
)

// Check is a single heterogeneous test used in a ConsumerMixed arm.
type Check struct {
	Kind     CheckKind
	Byte     byte
	Range    bitset.Range
	Interval bitset.Interval
	BitmapIx int
}

// MixedArm is one (Check -> Instruction) arm of a ConsumerMixed chain.
type MixedArm struct {
	Check Check
	Inst  *Instruction
}

// Consumer is an instruction that inspects (and may commit to
// advancing past) the current input byte(s); it is the only
// Instruction variant permitted as a node's entry.
type Consumer struct {
	Kind ConsumerKind

	// ConsumerIs
	Subject string

	// ConsumerChar
	Byte byte

	// ConsumerRange
	Range bitset.Range

	// ConsumerMap
	Interval bitset.Interval
	BitmapIx int

	// ConsumerIs, ConsumerChar, ConsumerRange, ConsumerMap
	Ok *Instruction

	// ConsumerIs, ConsumerChar, ConsumerRange, ConsumerMap, ConsumerChars, ConsumerMixed
	Err       *Instruction
	Otherwise *Instruction

	// ConsumerChars
	Chars []CharArm

	// ConsumerMixed
	Arms []MixedArm

	// ConsumerConsume
	ConsumeProp int
	ConsumeOk   *Instruction
}
