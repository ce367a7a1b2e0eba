package lower

import (
	"fmt"
	"sort"

	"github.com/aledsdavies/lowgen/bitset"
	"github.com/aledsdavies/lowgen/grammar"
	"github.com/aledsdavies/lowgen/internal/invariant"
	"github.com/aledsdavies/lowgen/internal/structhash"
	"github.com/aledsdavies/lowgen/specialize"
)

type compiler struct {
	g       grammar.Grammar
	nodes   []Inst
	names   []string
	mapper  map[string]int
	bitmaps *bitset.Interner
	err     error
}

// Translate compiles a validated Grammar into a Machine (spec §4.3).
// It is a pure function of g: identical grammars translate to
// byte-identical Machines (spec §5).
func Translate(g grammar.Grammar) (*Machine, error) {
	c := &compiler{
		g:       g,
		mapper:  make(map[string]int),
		bitmaps: bitset.NewInterner(),
	}

	for _, n := range g.Nodes {
		c.addNode(n.Name)
	}

	for i, n := range g.Nodes {
		if len(n.Cases) == 0 {
			return nil, fmt.Errorf("state %q has no cases", n.Name)
		}
		tree, err := specialize.Specialize(n.Name, n.Cases)
		if err != nil {
			return nil, wrapSpecializeErr(n.Name, err)
		}
		body := c.compileTree(0, true, tree)
		if c.err != nil {
			return nil, c.err
		}
		c.nodes[i] = Inst{IsCheck: body.Kind == InstConsumer, Body: *body}
	}

	if err := checkBadCapture(c.nodes); err != nil {
		return nil, err
	}

	return &Machine{
		Storage: g.Storage,
		Names:   c.names,
		Nodes:   c.nodes,
		Mapper:  c.mapper,
		Bitmaps: c.bitmaps.Entries(),
	}, nil
}

func wrapSpecializeErr(state string, err error) error {
	switch e := err.(type) {
	case *specialize.ConflictError:
		return &GrammarConflict{State: e.State, Detail: e.Detail}
	case *specialize.EmptyPatternError:
		return &EmptyPattern{State: e.State}
	default:
		return fmt.Errorf("state %q: %w", state, err)
	}
}

// addNode appends a placeholder node (a generic failure, replaced once
// its real body is compiled) and returns its index. Named states are
// reserved up front in declaration order so that forward goto(name)
// references resolve to the grammar's own node order (spec §4.3).
// Nodes materialized during translation (consume nodes, hoisted
// branch consumers) have no source name, so they get the generated
// "stateN" label spec §3 calls for.
func (c *compiler) addNode(name string) int {
	ix := len(c.nodes)
	c.nodes = append(c.nodes, Inst{IsCheck: false, Body: Instruction{Kind: InstError, Code: 0}})
	if name == "" {
		name = fmt.Sprintf("state%d", ix)
	} else {
		c.mapper[name] = ix
	}
	c.names = append(c.names, name)
	return ix
}

func (c *compiler) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// gotoNext returns next(jump, inst) when jump > 0, else inst unchanged
// (spec §4.3: "a convenience so that advance elision is uniform").
func (c *compiler) gotoNext(jump int, inst *Instruction) *Instruction {
	if jump <= 0 {
		return inst
	}
	return &Instruction{Kind: InstNext, N: jump, Next: inst}
}

// compileTree compiles one specialized Tree node (spec §4.3
// "Compilation of a Tree"). jump is the number of bytes already
// committed by whatever dispatched here; isEntry is true exactly when
// this call is filling a top-level state's own entry slot rather than
// producing an interior continuation that must be hoisted into its own
// node plus a goto. A consume tree always materializes a fresh node and
// returns a goto to it, whatever isEntry says.
func (c *compiler) compileTree(jump int, isEntry bool, tree specialize.Tree) *Instruction {
	if c.err != nil {
		return &Instruction{Kind: InstError, Code: 0}
	}

	switch tree.Kind {
	case specialize.TreeFail:
		return &Instruction{Kind: InstError, Code: 0}

	case specialize.TreeDone:
		return c.compileStep(jump, tree.Step)

	case specialize.TreeConsume:
		okInst := c.compileStep(jump, tree.ConsumeStep)
		newIx := c.addNode("")
		c.nodes[newIx] = Inst{IsCheck: true, Body: Instruction{
			Kind: InstConsumer,
			Consumer: &Consumer{
				Kind:        ConsumerConsume,
				ConsumeProp: tree.ConsumeProp,
				ConsumeOk:   okInst,
			},
		}}
		return c.gotoNext(jump, &Instruction{Kind: InstGoto, Target: newIx})

	case specialize.TreeBranch:
		return c.compileBranch(jump, isEntry, tree)

	default:
		invariant.Invariant(false, "compileTree: unknown Tree.Kind %q", tree.Kind)
		panic("unreachable")
	}
}

func (c *compiler) compileBranch(jump int, isEntry bool, tree specialize.Tree) *Instruction {
	defaultInst := c.compileTree(0, false, *tree.Default)

	var consumer *Consumer
	switch tree.Branches.Shape {
	case specialize.BranchString:
		b := tree.Branches.Prefix
		innerJump := 0
		if b.Capture {
			innerJump = len(b.Subject)
		}
		okInst := c.compileStep(innerJump, b.Next)
		consumer = &Consumer{Kind: ConsumerIs, Subject: b.Subject, Ok: okInst, Err: defaultInst}

	case specialize.BranchChars:
		consumer = c.compileCharBranches(tree.Branches.Chars, defaultInst)

	default:
		invariant.Invariant(false, "compileBranch: unknown BranchShape %q", tree.Branches.Shape)
	}

	body := &Instruction{Kind: InstConsumer, Consumer: consumer}
	if isEntry {
		return body
	}
	newIx := c.addNode("")
	c.nodes[newIx] = Inst{IsCheck: true, Body: *body}
	return c.gotoNext(jump, &Instruction{Kind: InstGoto, Target: newIx})
}

type compiledArm struct {
	bytes []byte
	inst  *Instruction
}

// compileCharBranches compiles every CharBranch arm and groups arms
// whose compiled continuation is structurally identical (spec §4.2/
// §4.3: "Grouping is keyed by the hash of the translated target
// instruction"), so that identical continuations share one emitted
// instruction. Because the specializer has already exploded every
// byte/range/set case down to individual CharBranch entries (spec
// §4.2 step 1's interval normalization), the branch stays byte-keyed
// here: when grouping collapses everything to a single continuation,
// §4.2 step 4 applies ("exactly one alternative remains under the
// branch") and a direct char|range|map consumer is emitted over the
// union interval; otherwise every original byte keeps its own chars
// arm, with arms that share a continuation pointing at the same
// compiled instruction. ConsumerMixed exists for the Instruction
// model's completeness (spec §3) but is never produced by this
// translator, since it would require an un-exploded Check arm - a
// specializer shape this implementation does not construct.
func (c *compiler) compileCharBranches(arms []specialize.CharBranch, otherwise *Instruction) *Consumer {
	order := make([]byte, 0, len(arms))
	byHash := make(map[structhash.Sum]*compiledArm)

	for _, arm := range arms {
		var inst *Instruction
		if arm.Next.Next.Kind == specialize.NextTree {
			innerJump := 0
			if arm.Capture {
				innerJump = 1
			}
			inst = c.compileTree(innerJump, false, *arm.Next.Next.Tree)
		} else {
			jump := 0
			if arm.Capture {
				jump = 1
			}
			inst = c.compileStep(jump, arm.Next)
		}

		key := structhash.Of(*inst)
		if existing, ok := byHash[key]; ok {
			existing.bytes = append(existing.bytes, arm.Byte)
			continue
		}
		byHash[key] = &compiledArm{bytes: []byte{arm.Byte}, inst: inst}
		order = append(order, arm.Byte)
	}

	// Groups are emitted in first-occurrence order (ranging a map is
	// unordered, so walk `order` and emit each group exactly once,
	// keyed by its first byte) - spec §4.2 "original source order is
	// preserved" for ties, approximated here as ascending byte order
	// since CharBranch arms already arrive byte-sorted.
	groups := make([]*compiledArm, 0, len(order))
	emitted := make(map[*compiledArm]bool)
	for _, b := range order {
		for _, g := range byHash {
			if g.bytes[0] == b && !emitted[g] {
				groups = append(groups, g)
				emitted[g] = true
			}
		}
	}

	if len(groups) == 1 {
		g := groups[0]
		iv := bitset.Of(g.bytes...)
		// A single char/range/map consumer compiles its continuation
		// with jump 1 whether or not the step captures.
		inst := g.inst
		if first := arms[0]; !first.Capture {
			if first.Next.Next.Kind == specialize.NextTree {
				inst = c.gotoNext(1, inst)
			} else {
				inst = c.compileStep(1, first.Next)
			}
		}
		return c.singletonConsumer(iv, inst, otherwise)
	}

	chars := make([]CharArm, 0, len(arms))
	for _, g := range groups {
		for _, b := range g.bytes {
			chars = append(chars, CharArm{Byte: b, Inst: g.inst})
		}
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i].Byte < chars[j].Byte })
	return &Consumer{Kind: ConsumerChars, Chars: chars, Otherwise: otherwise}
}

// singletonConsumer implements §4.2 step 4's "If exactly one
// alternative remains under the branch, emit a single char|range|map
// consumer directly."
func (c *compiler) singletonConsumer(iv bitset.Interval, ok, err *Instruction) *Consumer {
	if b, isSingle := iv.Single(); isSingle {
		return &Consumer{Kind: ConsumerChar, Byte: b, Ok: ok, Err: err}
	}
	if r, isRange := iv.SingleRange(); isRange {
		return &Consumer{Kind: ConsumerRange, Range: r, Ok: ok, Err: err}
	}
	ix := c.bitmaps.Intern(iv)
	return &Consumer{Kind: ConsumerMap, Interval: iv, BitmapIx: ix, Ok: ok, Err: err}
}

// compileStep compiles a Step (spec §4.3 "Compilation of a Step").
// jump starts as the bytes already committed by the dispatching
// consumer (1 for a single char/range/map consumer, 0 for a
// non-capturing arm of a chars switch or a non-capturing literal
// prefix, len(subject) for a capturing literal prefix); a capturing
// step raises it to at least 1 so the recorded span start reflects the
// position before the consumed byte.
func (c *compiler) compileStep(jump int, step specialize.Step) *Instruction {
	if step.Capture && jump < 1 {
		jump = 1
	}

	switch step.Next.Kind {
	case specialize.NextSingle:
		return c.compileAction(jump, step.Data, step.Next.Action)

	case specialize.NextSelect:
		arms := make([]SelectArm, len(step.Next.Arms))
		for i, a := range step.Next.Arms {
			arms[i] = SelectArm{Value: a.Value, Inst: c.compileStep(jump, a.Next)}
		}
		var otherwise *Instruction
		if step.Next.Otherwise != nil {
			otherwise = c.compileStep(jump, *step.Next.Otherwise)
		}
		inst := &Instruction{
			Kind:       InstSelect,
			SelectOn:   step.Next.SelectOn,
			SelectCall: step.Next.SelectCall,
			SelectProp: step.Next.SelectProp,
			SelectArms: arms,
			Otherwise:  otherwise,
		}
		return inst

	default:
		invariant.Invariant(false, "compileStep: unexpected Next.Kind %q for a terminal step", step.Next.Kind)
		panic("unreachable")
	}
}

// compileAction lowers a specialized Action chain into its instruction
// stream (spec §4.3). For store(Capture.data, …) and call(…) the
// advance is placed after the store/call so the stored byte is the one
// under the cursor (spec §9 open question: "a data-capture reads the
// current byte, then advances"); for goto/error - the chain's only
// terminals - jump wraps the instruction directly.
func (c *compiler) compileAction(jump int, data *byte, action specialize.Action) *Instruction {
	switch action.Kind {
	case specialize.ActionStore:
		cont := c.gotoNext(jump, c.compileAction(0, nil, *action.Next))
		kind := InstStore
		var d *byte
		switch action.StoreCapture {
		case specialize.CaptureBegin:
			kind = InstCapture
		case specialize.CaptureClose:
			kind = InstClose
		case specialize.CaptureData:
			d = data
		}
		return &Instruction{Kind: kind, Prop: action.StoreProp, Data: d, Next: cont}

	case specialize.ActionCall:
		cont := c.gotoNext(jump, c.compileAction(0, nil, *action.Next))
		return &Instruction{Kind: InstCall, Call: action.Call, Next: cont}

	case specialize.ActionGoto:
		ix, ok := c.mapper[action.GotoState]
		if !ok {
			c.fail(newUnknownState(action.GotoState, c.g.StateNames()))
			return &Instruction{Kind: InstError, Code: 0}
		}
		return c.gotoNext(jump, &Instruction{Kind: InstGoto, Target: ix})

	case specialize.ActionError:
		return c.gotoNext(jump, &Instruction{Kind: InstError, Code: action.ErrorCode})

	default:
		invariant.Invariant(false, "compileAction: unexpected action kind %q", action.Kind)
		panic("unreachable")
	}
}

// checkBadCapture is the static, advisory check from spec §7: it walks
// every compiled instruction looking for a close(prop) that is never
// paired with any capture(prop) anywhere in the machine. It cannot
// prove every *path* opens the span before closing it - only a full
// data-flow analysis could - so it only catches spans that are never
// begun at all.
func checkBadCapture(nodes []Inst) error {
	begun := make(map[int]bool)
	closed := make(map[int]bool)
	visited := make(map[*Instruction]bool)

	var walk func(inst *Instruction)
	walk = func(inst *Instruction) {
		if inst == nil || visited[inst] {
			return
		}
		visited[inst] = true
		switch inst.Kind {
		case InstCapture:
			begun[inst.Prop] = true
		case InstClose:
			closed[inst.Prop] = true
		}
		walk(inst.Next)
		walk(inst.Otherwise)
		if inst.Consumer != nil {
			walk(inst.Consumer.Ok)
			walk(inst.Consumer.Err)
			walk(inst.Consumer.Otherwise)
			walk(inst.Consumer.ConsumeOk)
			for _, ca := range inst.Consumer.Chars {
				walk(ca.Inst)
			}
			for _, ma := range inst.Consumer.Arms {
				walk(ma.Inst)
			}
		}
		for _, sa := range inst.SelectArms {
			walk(sa.Inst)
		}
	}

	for i := range nodes {
		walk(&nodes[i].Body)
	}

	props := make([]int, 0, len(closed))
	for p := range closed {
		if !begun[p] {
			props = append(props, p)
		}
	}
	sort.Ints(props)
	if len(props) > 0 {
		return &BadCapture{Prop: props[0]}
	}
	return nil
}
