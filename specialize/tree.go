// Package specialize implements the specializer (spec §4.2): given a
// grammar state's ordered list of cases, it produces a Tree that
// resolves an input prefix to exactly one action, factoring common
// prefixes, grouping disjoint alternatives, and checking that no two
// cases accept the same byte or literal prefix.
package specialize

// TreeKind discriminates the closed set of Tree shapes (spec §3).
type TreeKind string

const (
	TreeFail    TreeKind = "fail"
	TreeDone    TreeKind = "done"
	TreeConsume TreeKind = "consume"
	TreeBranch  TreeKind = "branch"
)

// Tree is the specialized decision tree produced for one grammar
// state (or for a sub-prefix thereof).
type Tree struct {
	Kind TreeKind

	// TreeDone
	Step Step

	// TreeConsume
	ConsumeProp int
	ConsumeStep Step

	// TreeBranch
	Branches BranchSet
	Default  *Tree
}

// Fail returns the unconditional-failure Tree.
func Fail() Tree { return Tree{Kind: TreeFail} }

// Done returns a terminal Tree performing step.
func Done(step Step) Tree { return Tree{Kind: TreeDone, Step: step} }

// Consume returns a Tree that consumes data[prop] bytes, then performs step.
func Consume(prop int, step Step) Tree {
	return Tree{Kind: TreeConsume, ConsumeProp: prop, ConsumeStep: step}
}

// Branch returns a Tree that picks by leading byte(s).
func Branch(branches BranchSet, def Tree) Tree {
	return Tree{Kind: TreeBranch, Branches: branches, Default: &def}
}

// BranchShape discriminates the two BranchSet shapes.
type BranchShape string

const (
	BranchString BranchShape = "string" // literal-prefix specialization
	BranchChars  BranchShape = "chars"  // leading-byte dispatch
)

// BranchSet is either a single literal-prefix specialization or a list
// of per-byte CharBranches.
type BranchSet struct {
	Shape BranchShape

	// BranchString
	Prefix StringBranch

	// BranchChars
	Chars []CharBranch
}

// StringBranch is a literal-prefix branch: if the input starts with
// Subject, continue with Next; Capture is true when Next's action is a
// store (of any Capture kind).
type StringBranch struct {
	Subject string
	Capture bool
	Next    Step
}

// CharBranch is one leading-byte alternative inside a BranchChars set.
type CharBranch struct {
	Byte    byte
	Capture bool
	Next    Step
}

// NextKind discriminates the two Next shapes.
type NextKind string

const (
	NextSingle NextKind = "single"
	NextSelect NextKind = "select"

	// NextTree is not in the spec's prose description of Next but is
	// required to implement §4.2 step 3 precisely: "pull b out into a
	// chars branch with a sub-tree holding the residuals" only makes
	// sense if a branch arm's continuation can itself be an unresolved
	// Tree - needed for literals that share more than one leading byte,
	// e.g. "GET" and "GOT" sharing 'G' then diverging at 'E'/'O'. See
	// DESIGN.md for this Open Question's resolution.
	NextTree NextKind = "tree"
)

// SelectArm is one (value -> Next) arm of a multi-way switch.
type SelectArm struct {
	Value uint64
	Next  Step
}

// Next is either a single action, a multi-way switch on a call/method
// return value (spec §3: "select(call, alternatives, otherwise)"), or
// an unresolved residual Tree (NextTree, see above).
type Next struct {
	Kind NextKind

	// NextSingle
	Action Action

	// NextSelect
	SelectOn   SelectKind
	SelectCall Call
	SelectProp int
	Arms       []SelectArm
	Otherwise  *Step

	// NextTree
	Tree *Tree
}

// SelectKind discriminates what a select Next dispatches on.
type SelectKind string

const (
	SelectOnCall   SelectKind = "call"
	SelectOnMethod SelectKind = "method"
)

// Step carries what happens once a Tree position is reached: whether
// its action is a store (data, begin or close), the literal byte consumed to get here
// (if any), and what comes Next.
type Step struct {
	Capture bool
	Data    *byte
	Next    Next
}

// ---- specialized Action (spec §4.2 step 5: "Action lowering") ----

// ActionKind mirrors grammar.ActionKind, preserved through specialization.
type ActionKind string

const (
	ActionStore ActionKind = "store"
	ActionCall  ActionKind = "call"
	ActionGoto  ActionKind = "goto"
	ActionError ActionKind = "error"
)

// Capture mirrors grammar.Capture.
type Capture string

const (
	CaptureData  Capture = "data"
	CaptureBegin Capture = "begin"
	CaptureClose Capture = "close"
)

// CallKind mirrors grammar.CallKind.
type CallKind string

const (
	CallArbitrary  CallKind = "arbitrary"
	CallMulAdd     CallKind = "mulAdd"
	CallLoadNum    CallKind = "loadNum"
	CallCallStore  CallKind = "callStore"
	CallStoreConst CallKind = "store"
)

// Base mirrors grammar.Base.
type Base string

const (
	BaseOctal   Base = "octal"
	BaseDecimal Base = "decimal"
	BaseHex     Base = "hex"
)

// Call describes a computation invoked by a call(...) action.
type Call struct {
	Kind            CallKind
	ArbitraryIx     int
	Base            Base
	Prop            int
	CallStoreCallIx int
	StoreValue      uint64
}

// Action is the specialized form of grammar.Action: store, call, goto,
// or error. goto targets are still names here; the translator (§4.3)
// resolves them to node indices.
type Action struct {
	Kind ActionKind

	StoreCapture Capture
	StoreProp    int
	Next         *Action

	Call Call

	GotoState string

	ErrorCode uint64
}
