package specialize_test

import (
	"testing"

	"github.com/aledsdavies/lowgen/grammar"
	"github.com/aledsdavies/lowgen/specialize"
	"github.com/stretchr/testify/require"
)

func gotoCase(pat grammar.Pattern, target string) grammar.Case {
	return grammar.Case{Pattern: pat, Action: grammar.Action{Kind: grammar.ActionGoto, GotoState: target}}
}

func errCase(pat grammar.Pattern, code uint64) grammar.Case {
	return grammar.Case{Pattern: pat, Action: grammar.Action{Kind: grammar.ActionError, ErrorCode: code}}
}

func TestSpecializeSingleLiteralCollapsesToStringBranch(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GET"}, "done"),
	}
	tree, err := specialize.Specialize("start", cases)
	require.NoError(t, err)
	require.Equal(t, specialize.TreeBranch, tree.Kind)
	require.Equal(t, specialize.BranchString, tree.Branches.Shape)
	require.Equal(t, "GET", tree.Branches.Prefix.Subject)
	require.Equal(t, specialize.NextSingle, tree.Branches.Prefix.Next.Next.Kind)
	require.Equal(t, specialize.ActionGoto, tree.Branches.Prefix.Next.Next.Action.Kind)
	require.Equal(t, "done", tree.Branches.Prefix.Next.Next.Action.GotoState)
	require.Equal(t, specialize.TreeFail, tree.Default.Kind)
}

func TestSpecializeSingleRangeCollapsesToChars(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternRange, Lo: '0', Hi: '9'}, "digit"),
	}
	tree, err := specialize.Specialize("start", cases)
	require.NoError(t, err)
	require.Equal(t, specialize.BranchChars, tree.Branches.Shape)
	require.Len(t, tree.Branches.Chars, 10)
	require.Equal(t, byte('0'), tree.Branches.Chars[0].Byte)
	require.Equal(t, byte('9'), tree.Branches.Chars[9].Byte)
}

func TestSpecializeOtherwiseBecomesFullRangeWhenSole(t *testing.T) {
	cases := []grammar.Case{
		errCase(grammar.Pattern{Kind: grammar.PatternOtherwise}, 7),
	}
	tree, err := specialize.Specialize("start", cases)
	require.NoError(t, err)
	require.Equal(t, specialize.BranchChars, tree.Branches.Shape)
	require.Len(t, tree.Branches.Chars, 256)
	require.Equal(t, specialize.TreeFail, tree.Default.Kind)
}

func TestSpecializeOtherwiseBesideCasesBecomesDefault(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternByte, Byte: 'A'}, "a"),
		errCase(grammar.Pattern{Kind: grammar.PatternOtherwise}, 1),
	}
	tree, err := specialize.Specialize("start", cases)
	require.NoError(t, err)
	require.Len(t, tree.Branches.Chars, 1)
	require.Equal(t, specialize.TreeDone, tree.Default.Kind)
	require.Equal(t, specialize.ActionError, tree.Default.Step.Next.Action.Kind)
}

func TestSpecializeSharedPrefixLiteralsFactorIntoResidualTree(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GET"}, "get"),
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GOT"}, "got"),
	}
	tree, err := specialize.Specialize("start", cases)
	require.NoError(t, err)
	require.Equal(t, specialize.BranchChars, tree.Branches.Shape)
	require.Len(t, tree.Branches.Chars, 1)
	require.Equal(t, byte('G'), tree.Branches.Chars[0].Byte)

	residualStep := tree.Branches.Chars[0].Next
	require.Equal(t, specialize.NextTree, residualStep.Next.Kind)
	residual := residualStep.Next.Tree
	require.Equal(t, specialize.BranchChars, residual.Branches.Shape)
	require.Len(t, residual.Branches.Chars, 2)

	byByte := map[byte]specialize.CharBranch{}
	for _, cb := range residual.Branches.Chars {
		byByte[cb.Byte] = cb
	}
	eStep := byByte['E'].Next
	require.Equal(t, specialize.NextTree, eStep.Next.Kind)
	require.Equal(t, specialize.BranchString, eStep.Next.Tree.Branches.Shape)
	require.Equal(t, "T", eStep.Next.Tree.Branches.Prefix.Subject)
}

func TestSpecializeDisjointLiteralsDoNotShareAByte(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GET"}, "get"),
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "PUT"}, "put"),
	}
	tree, err := specialize.Specialize("start", cases)
	require.NoError(t, err)
	require.Len(t, tree.Branches.Chars, 2)
}

func TestSpecializeRejectsOverlappingRanges(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternRange, Lo: '0', Hi: '9'}, "digit"),
		gotoCase(grammar.Pattern{Kind: grammar.PatternRange, Lo: '5', Hi: 'F'}, "other"),
	}
	_, err := specialize.Specialize("start", cases)
	require.Error(t, err)
	var conflict *specialize.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestSpecializeRejectsPrefixingLiterals(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GET"}, "get"),
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GETALL"}, "getall"),
	}
	_, err := specialize.Specialize("start", cases)
	require.Error(t, err)
}

func TestSpecializeRejectsLiteralOverlappingByteClass(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternRange, Lo: 'A', Hi: 'Z'}, "letter"),
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: "GET"}, "get"),
	}
	_, err := specialize.Specialize("start", cases)
	require.Error(t, err)
}

func TestSpecializeRejectsEmptyLiteral(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternLiteral, Literal: ""}, "x"),
	}
	_, err := specialize.Specialize("start", cases)
	require.Error(t, err)
	var empty *specialize.EmptyPatternError
	require.ErrorAs(t, err, &empty)
}

func TestSpecializeRejectsMultipleOtherwise(t *testing.T) {
	cases := []grammar.Case{
		errCase(grammar.Pattern{Kind: grammar.PatternOtherwise}, 1),
		errCase(grammar.Pattern{Kind: grammar.PatternOtherwise}, 2),
	}
	_, err := specialize.Specialize("start", cases)
	require.Error(t, err)
}

func TestSpecializeStoreActionLowersCaptureAndChains(t *testing.T) {
	cases := []grammar.Case{
		{
			Pattern: grammar.Pattern{Kind: grammar.PatternRange, Lo: '0', Hi: '9'},
			Action: grammar.Action{
				Kind:         grammar.ActionStore,
				StoreCapture: grammar.CaptureData,
				StoreProp:    0,
				Next: &grammar.Action{
					Kind: grammar.ActionCall,
					Call: grammar.Call{Kind: grammar.CallMulAdd, Base: grammar.BaseDecimal, Prop: 0},
					Next: &grammar.Action{Kind: grammar.ActionGoto, GotoState: "digit"},
				},
			},
		},
	}
	tree, err := specialize.Specialize("digit", cases)
	require.NoError(t, err)
	step := tree.Branches.Chars[0].Next
	require.True(t, step.Capture)
	act := step.Next.Action
	require.Equal(t, specialize.ActionStore, act.Kind)
	require.Equal(t, specialize.CaptureData, act.StoreCapture)
	require.Equal(t, specialize.ActionCall, act.Next.Kind)
	require.Equal(t, specialize.CallMulAdd, act.Next.Call.Kind)
	require.Equal(t, specialize.ActionGoto, act.Next.Next.Kind)
}

// Scenario 5: consume-N. A sole consume(lenProp) case yields a
// TreeConsume directly, not a branch.
func TestSpecializeConsumePatternYieldsTreeConsume(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternConsume, LenProp: 0}, "done"),
	}
	tree, err := specialize.Specialize("skip", cases)
	require.NoError(t, err)
	require.Equal(t, specialize.TreeConsume, tree.Kind)
	require.Equal(t, 0, tree.ConsumeProp)
	require.Equal(t, specialize.NextSingle, tree.ConsumeStep.Next.Kind)
	require.Equal(t, specialize.ActionGoto, tree.ConsumeStep.Next.Action.Kind)
	require.Equal(t, "done", tree.ConsumeStep.Next.Action.GotoState)
}

func TestSpecializeRejectsConsumeAlongsideOtherCases(t *testing.T) {
	cases := []grammar.Case{
		gotoCase(grammar.Pattern{Kind: grammar.PatternConsume, LenProp: 0}, "done"),
		errCase(grammar.Pattern{Kind: grammar.PatternOtherwise}, 1),
	}
	_, err := specialize.Specialize("skip", cases)
	require.Error(t, err)
	var conflict *specialize.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestSpecializeSelectActionLowersArmsAndOtherwise(t *testing.T) {
	cases := []grammar.Case{
		{
			Pattern: grammar.Pattern{Kind: grammar.PatternByte, Byte: ' '},
			Action: grammar.Action{
				Kind:       grammar.ActionSelect,
				SelectOn:   grammar.SelectOnCall,
				SelectCall: grammar.Call{Kind: grammar.CallArbitrary, ArbitraryIx: 2},
				SelectArms: []grammar.SelectArm{
					{Value: 1, Action: grammar.Action{Kind: grammar.ActionGoto, GotoState: "a"}},
					{Value: 2, Action: grammar.Action{Kind: grammar.ActionGoto, GotoState: "b"}},
				},
				SelectOtherwise: &grammar.Action{Kind: grammar.ActionError, ErrorCode: 9},
			},
		},
	}
	tree, err := specialize.Specialize("s", cases)
	require.NoError(t, err)
	next := tree.Branches.Chars[0].Next.Next
	require.Equal(t, specialize.NextSelect, next.Kind)
	require.Equal(t, specialize.SelectOnCall, next.SelectOn)
	require.Equal(t, specialize.CallArbitrary, next.SelectCall.Kind)
	require.Len(t, next.Arms, 2)
	require.NotNil(t, next.Otherwise)
	require.Equal(t, specialize.ActionError, next.Otherwise.Next.Action.Kind)
}
