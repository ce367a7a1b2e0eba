package specialize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aledsdavies/lowgen/bitset"
	"github.com/aledsdavies/lowgen/grammar"
	"github.com/aledsdavies/lowgen/internal/invariant"
)

// ConflictError reports two cases at a state that accept an
// overlapping byte or a conflicting literal prefix (spec §4.2 step 2,
// §7 GrammarConflict).
type ConflictError struct {
	State  string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("state %q: %s", e.State, e.Detail)
}

// EmptyPatternError reports a literal pattern of length zero (spec §7).
type EmptyPatternError struct {
	State string
}

func (e *EmptyPatternError) Error() string {
	return fmt.Sprintf("state %q: empty literal pattern", e.State)
}

type litCase struct {
	subject string
	action  grammar.Action
}

type ivCase struct {
	iv     bitset.Interval
	action grammar.Action
}

// Specialize builds the specialized Tree for one grammar state's cases,
// per spec §4.2: normalizing patterns, checking disjointness, factoring
// common literal prefixes, and choosing a branch shape.
func Specialize(state string, cases []grammar.Case) (Tree, error) {
	invariant.Precondition(len(cases) > 0, "state %q must have at least one case", state)

	for _, c := range cases {
		if c.Pattern.Kind == grammar.PatternConsume {
			if len(cases) != 1 {
				return Tree{}, &ConflictError{State: state, Detail: "consume pattern must be the sole case in its state"}
			}
			return Consume(c.Pattern.LenProp, stepFromAction(c.Action)), nil
		}
	}

	var lits []litCase
	var ivs []ivCase
	var otherwise *grammar.Action

	for _, c := range cases {
		switch c.Pattern.Kind {
		case grammar.PatternByte:
			ivs = append(ivs, ivCase{iv: bitset.Of(c.Pattern.Byte), action: c.Action})
		case grammar.PatternRange:
			ivs = append(ivs, ivCase{iv: bitset.OfRange(c.Pattern.Lo, c.Pattern.Hi), action: c.Action})
		case grammar.PatternSet:
			ivs = append(ivs, ivCase{iv: bitset.Of(c.Pattern.Set...), action: c.Action})
		case grammar.PatternLiteral:
			if c.Pattern.Literal == "" {
				return Tree{}, &EmptyPatternError{State: state}
			}
			lits = append(lits, litCase{subject: c.Pattern.Literal, action: c.Action})
		case grammar.PatternOtherwise:
			if otherwise != nil {
				return Tree{}, &ConflictError{State: state, Detail: "more than one 'otherwise' case"}
			}
			a := c.Action
			otherwise = &a
		default:
			return Tree{}, fmt.Errorf("state %q: unknown pattern kind %q", state, c.Pattern.Kind)
		}
	}

	if err := checkDisjoint(state, ivs, lits); err != nil {
		return Tree{}, err
	}

	// No explicit byte/range/set/literal case: the sole "otherwise"
	// case must itself gate on input availability, so it is normalized
	// to the full byte range rather than left as a bare terminal.
	if len(ivs) == 0 && len(lits) == 0 {
		ivs = []ivCase{{iv: bitset.OfRange(0, 255), action: *otherwise}}
		otherwise = nil
	}

	defaultTree := Fail()
	if otherwise != nil {
		defaultTree = Done(stepFromAction(*otherwise))
	}

	if len(ivs) == 0 && len(lits) == 1 {
		step := stepFromAction(lits[0].action)
		branch := BranchSet{
			Shape:  BranchString,
			Prefix: StringBranch{Subject: lits[0].subject, Capture: step.Capture, Next: step},
		}
		return Branch(branch, defaultTree), nil
	}

	chars, err := mergeChars(state, lits, ivs)
	if err != nil {
		return Tree{}, err
	}
	return Branch(BranchSet{Shape: BranchChars, Chars: chars}, defaultTree), nil
}

func checkDisjoint(state string, ivs []ivCase, lits []litCase) error {
	for i := 0; i < len(ivs); i++ {
		for j := i + 1; j < len(ivs); j++ {
			if ivs[i].iv.Intersects(ivs[j].iv) {
				return &ConflictError{State: state, Detail: fmt.Sprintf("overlapping byte classes %s and %s", ivs[i].iv, ivs[j].iv)}
			}
		}
	}
	for i := 0; i < len(lits); i++ {
		for j := i + 1; j < len(lits); j++ {
			a, b := lits[i].subject, lits[j].subject
			if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
				return &ConflictError{State: state, Detail: fmt.Sprintf("literal %q conflicts with %q (one is a prefix of the other)", a, b)}
			}
		}
	}
	for _, l := range lits {
		first := l.subject[0]
		for _, iv := range ivs {
			if iv.iv.Contains(first) {
				return &ConflictError{State: state, Detail: fmt.Sprintf("literal %q conflicts with byte class %s at 0x%02x", l.subject, iv.iv, first)}
			}
		}
	}
	return nil
}

// mergeChars builds the byte-keyed CharBranch list for every state
// other than one holding a lone literal case: literal cases are
// recursively prefix-factored (factorLiterals), and byte/range/set
// cases are exploded byte-by-byte so the translator can re-group
// identical continuations by structural hash, emitting a single
// char/range/map consumer when every byte shares one continuation
// (spec §4.2 "Grouping is keyed by the hash of the translated target
// instruction").
func mergeChars(state string, lits []litCase, ivs []ivCase) ([]CharBranch, error) {
	byByte := make(map[byte]CharBranch)

	for b, cb := range factorLiterals(lits) {
		byByte[b] = cb
	}

	for _, iv := range ivs {
		step := stepFromAction(iv.action)
		for _, r := range iv.iv.Ranges() {
			for b := int(r.Lo); b <= int(r.Hi); b++ {
				if _, exists := byByte[byte(b)]; exists {
					return nil, &ConflictError{State: state, Detail: fmt.Sprintf("overlapping at 0x%02x", b)}
				}
				byByte[byte(b)] = CharBranch{Byte: byte(b), Capture: step.Capture, Next: step}
			}
		}
	}

	out := make([]CharBranch, 0, len(byByte))
	for _, cb := range byByte {
		out = append(out, cb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Byte < out[j].Byte })
	return out, nil
}

// factorLiterals groups literal cases by their leading byte, yielding
// one CharBranch per byte. Literals that alone claim a byte become a
// direct terminal Step (length 1) or a nested BranchString residual
// (length > 1). Literals that share a leading byte with siblings are
// recursively factored on their next byte, producing a nested
// BranchChars residual (spec §4.2 step 3).
func factorLiterals(lits []litCase) map[byte]CharBranch {
	out := make(map[byte]CharBranch, len(lits))
	if len(lits) == 0 {
		return out
	}

	groups := make(map[byte][]litCase)
	for _, l := range lits {
		b := l.subject[0]
		groups[b] = append(groups[b], l)
	}

	for b, members := range groups {
		if len(members) == 1 && len(members[0].subject) == 1 {
			step := stepFromAction(members[0].action)
			out[b] = CharBranch{Byte: b, Capture: step.Capture, Next: step}
			continue
		}
		if len(members) == 1 {
			m := members[0]
			step := stepFromAction(m.action)
			residual := Branch(BranchSet{
				Shape:  BranchString,
				Prefix: StringBranch{Subject: m.subject[1:], Capture: step.Capture, Next: step},
			}, Fail())
			out[b] = CharBranch{Byte: b, Capture: step.Capture, Next: Step{Next: Next{Kind: NextTree, Tree: &residual}}}
			continue
		}

		sub := make([]litCase, len(members))
		for i, m := range members {
			sub[i] = litCase{subject: m.subject[1:], action: m.action}
		}
		subMap := factorLiterals(sub)
		subChars := make([]CharBranch, 0, len(subMap))
		for _, cb := range subMap {
			subChars = append(subChars, cb)
		}
		sort.Slice(subChars, func(i, j int) bool { return subChars[i].Byte < subChars[j].Byte })
		residual := Branch(BranchSet{Shape: BranchChars, Chars: subChars}, Fail())
		out[b] = CharBranch{Byte: b, Next: Step{Next: Next{Kind: NextTree, Tree: &residual}}}
	}

	return out
}

// stepFromAction converts a grammar Action into the Step that a Tree
// leaf performs once its pattern has matched.
func stepFromAction(action grammar.Action) Step {
	return Step{
		Capture: action.Kind == grammar.ActionStore,
		Next:    buildNext(action),
	}
}

func buildNext(action grammar.Action) Next {
	if action.Kind == grammar.ActionSelect {
		arms := make([]SelectArm, len(action.SelectArms))
		for i, a := range action.SelectArms {
			arms[i] = SelectArm{Value: a.Value, Next: stepFromAction(a.Action)}
		}
		var otherwise *Step
		if action.SelectOtherwise != nil {
			s := stepFromAction(*action.SelectOtherwise)
			otherwise = &s
		}
		n := Next{Kind: NextSelect, Arms: arms, Otherwise: otherwise}
		if action.SelectOn == grammar.SelectOnCall {
			n.SelectOn = SelectOnCall
			n.SelectCall = mapCall(action.SelectCall)
		} else {
			n.SelectOn = SelectOnMethod
			n.SelectProp = action.SelectProp
		}
		return n
	}
	return Next{Kind: NextSingle, Action: lowerAction(action)}
}

func lowerAction(action grammar.Action) Action {
	switch action.Kind {
	case grammar.ActionStore:
		next := lowerAction(*action.Next)
		return Action{Kind: ActionStore, StoreCapture: Capture(action.StoreCapture), StoreProp: action.StoreProp, Next: &next}
	case grammar.ActionCall:
		next := lowerAction(*action.Next)
		return Action{Kind: ActionCall, Call: mapCall(action.Call), Next: &next}
	case grammar.ActionGoto:
		return Action{Kind: ActionGoto, GotoState: action.GotoState}
	case grammar.ActionError:
		return Action{Kind: ActionError, ErrorCode: action.ErrorCode}
	default:
		invariant.Invariant(false, "lowerAction: unexpected top-level action kind %q (select must be handled by buildNext)", action.Kind)
		panic("unreachable")
	}
}

func mapCall(c grammar.Call) Call {
	return Call{
		Kind:            CallKind(c.Kind),
		ArbitraryIx:     c.ArbitraryIx,
		Base:            Base(c.Base),
		Prop:            c.Prop,
		CallStoreCallIx: c.CallStoreCallIx,
		StoreValue:      c.StoreValue,
	}
}
