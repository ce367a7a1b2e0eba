// Package grammar defines the input data model to the lowering
// pipeline: a validated Grammar value describing a byte-oriented
// protocol or textual format as named states with pattern/action
// cases, plus the storage descriptor backing it. See spec §3 and §6.
package grammar

// Typ is the type of a named storage slot.
type Typ string

const (
	TypU8   Typ = "u8"
	TypChar Typ = "char"
	TypU16  Typ = "u16"
	TypU32  Typ = "u32"
	TypU64  Typ = "u64"
	TypSpan Typ = "span"
)

// Prop is one named slot in Storage.props.
type Prop struct {
	Name string
	Typ  Typ
}

// Callback describes one host-side callback entry in Storage.callback.
type Callback struct {
	Name     string
	ArgProps []int // indices into Storage.Props
	IsSpan   bool  // true for span-close callbacks: (start, end, buffer, user_state)
}

// Storage is the grammar's declaration of persistent parser state:
// named, typed property slots plus the callbacks that read them.
type Storage struct {
	Props     []Prop
	Callbacks []Callback
}

// PropIndex returns the index of the named prop, or -1 if absent.
func (s Storage) PropIndex(name string) int {
	for i, p := range s.Props {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// PatternKind discriminates the closed set of Pattern shapes.
type PatternKind string

const (
	PatternByte      PatternKind = "byte"
	PatternRange     PatternKind = "range"
	PatternSet       PatternKind = "set"
	PatternLiteral   PatternKind = "literal"
	PatternOtherwise PatternKind = "otherwise"

	// PatternConsume is not part of spec §6's Pattern BNF, which omits
	// any consume variant, but it is the only way to reach spec §3's
	// Tree.consume / §8 scenario 5 ("Consume-N"): a case whose pattern
	// is consume(lenProp) does not test the next byte at all, it skips
	// data[lenProp] bytes then performs its action. It must be the sole
	// case in its state (see specialize.Specialize). See DESIGN.md for
	// this §3/§8-vs-§6 resolution.
	PatternConsume PatternKind = "consume"
)

// Pattern is one of: byte(b) | range(lo,hi) | set([b..]) | literal(s) |
// otherwise | consume(lenProp).
type Pattern struct {
	Kind    PatternKind
	Byte    byte   // PatternByte
	Lo, Hi  byte   // PatternRange
	Set     []byte // PatternSet
	Literal string // PatternLiteral
	LenProp int    // PatternConsume: prop index holding the byte count
}

// Base is the numeric base a mulAdd Call accumulates in.
type Base string

const (
	BaseOctal   Base = "octal"
	BaseDecimal Base = "decimal"
	BaseHex     Base = "hex"
)

// CallKind discriminates the closed set of Call shapes.
type CallKind string

const (
	CallArbitrary  CallKind = "arbitrary"
	CallMulAdd     CallKind = "mulAdd"
	CallLoadNum    CallKind = "loadNum"
	CallCallStore  CallKind = "callStore"
	CallStoreConst CallKind = "store"
)

// Call describes a computation invoked by a call(...) Action.
type Call struct {
	Kind CallKind

	ArbitraryIx int // CallArbitrary: host callback index

	Base Base // CallMulAdd
	Prop int  // CallMulAdd, CallLoadNum, CallCallStore, CallStoreConst: target prop index

	CallStoreCallIx int // CallCallStore: nested call index (host callback index)

	StoreValue uint64 // CallStoreConst: literal value to store
}

// Capture discriminates which span boundary an Action.Store action records.
type Capture string

const (
	CaptureData  Capture = "data"  // store the current byte into a numeric prop
	CaptureBegin Capture = "begin" // record current position as a span's start
	CaptureClose Capture = "close" // invoke the span callback and clear its start
)

// ActionKind discriminates the closed set of Action shapes.
type ActionKind string

const (
	ActionStore  ActionKind = "store"
	ActionCall   ActionKind = "call"
	ActionGoto   ActionKind = "goto"
	ActionError  ActionKind = "error"
	ActionSelect ActionKind = "select"
)

// SelectOn discriminates what a select Action dispatches on.
type SelectOn string

const (
	SelectOnCall   SelectOn = "call"   // dispatch on a host callback's return value
	SelectOnMethod SelectOn = "method" // dispatch on a stored numeric prop's value
)

// SelectArm is one (value -> Action) arm of a select Action.
type SelectArm struct {
	Value  uint64
	Action Action
}

// Action is the closed sum of grammar-level actions attached to a
// case, per the §6 BNF:
//
//	Action := store(Capture, prop, Action)
//	        | call(Call, Action)
//	        | goto(state_name)
//	        | error(code)
//	        | select(Call|method(prop), [(u64, Action)], Action)
type Action struct {
	Kind ActionKind

	// ActionStore
	StoreCapture Capture
	StoreProp    int
	Next         *Action // ActionStore, ActionCall: continuation

	// ActionCall
	Call Call

	// ActionGoto
	GotoState string

	// ActionError
	ErrorCode uint64

	// ActionSelect
	SelectOn        SelectOn
	SelectCall      Call // when SelectOn == SelectOnCall
	SelectProp      int  // when SelectOn == SelectOnMethod
	SelectArms      []SelectArm
	SelectOtherwise *Action
}

// Case is one (Pattern, Action) alternative at a grammar state.
type Case struct {
	Pattern Pattern
	Action  Action
}

// Node is a single named state: a list of cases tried in source order.
type Node struct {
	Name  string
	Cases []Case
}

// Grammar is the validated input to the lowering pipeline.
type Grammar struct {
	Storage Storage
	Nodes   []Node
}

// NodeIndex returns the index of the named state, or -1 if absent.
func (g Grammar) NodeIndex(name string) int {
	for i, n := range g.Nodes {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// StateNames returns the grammar's node names in declaration order.
func (g Grammar) StateNames() []string {
	names := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		names[i] = n.Name
	}
	return names
}
