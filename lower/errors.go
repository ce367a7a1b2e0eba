package lower

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// GrammarConflict reports two cases at the same state that accept an
// overlapping byte or conflicting literal prefix (spec §6, §7).
type GrammarConflict struct {
	State  string
	Detail string
}

func (e *GrammarConflict) Error() string {
	return fmt.Sprintf("grammar conflict in state %q: %s", e.State, e.Detail)
}

// UnknownState reports a goto(name) whose target is not among the
// grammar's named states (spec §6, §7). Suggest carries the closest
// known name, found via fuzzy matching, to guide the grammar author.
type UnknownState struct {
	Name    string
	Suggest string
}

func (e *UnknownState) Error() string {
	if e.Suggest == "" {
		return fmt.Sprintf("goto target %q is not a known state", e.Name)
	}
	return fmt.Sprintf("goto target %q is not a known state (did you mean %q?)", e.Name, e.Suggest)
}

func newUnknownState(name string, known []string) *UnknownState {
	return &UnknownState{Name: name, Suggest: closestName(name, known)}
}

func closestName(target string, candidates []string) string {
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// BadCapture reports a span close(prop) with no matching begin(prop)
// anywhere in the translated grammar. This is the static, advisory
// check described in spec §7: it cannot prove every *path* opens the
// span before closing it, only that the grammar never opens it at all.
type BadCapture struct {
	Prop int
}

func (e *BadCapture) Error() string {
	return fmt.Sprintf("span property %d is closed but never begun in this grammar", e.Prop)
}

// EmptyPattern reports a literal pattern of length zero (spec §7).
type EmptyPattern struct {
	State string
}

func (e *EmptyPattern) Error() string {
	return fmt.Sprintf("state %q: empty literal pattern", e.State)
}
