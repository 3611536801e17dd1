package eval

import (
	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/path/ast"
	"github.com/agentic-research/otquery/path/predicate"
)

// Run compiles p against root (the document this path is evaluated
// over) and returns the result as a "multi" array Node: a container
// whose children are, in order, every candidate the step list matches.
// docRoot is the node absolute sub-paths ("$...") inside any attached
// predicate resolve against; it is usually the same as root, but when
// Run is invoked recursively to answer a relative sub-path ("@...") root
// is the candidate under test while docRoot stays fixed at the overall
// query root.
func Run(root ot.Node, p *ast.Path, docRoot ot.Node) ot.Node {
	if p == nil || len(p.Steps) == 0 {
		return singleton(root)
	}
	e := &engine{steps: p.Steps, docRoot: docRoot}
	return ot.Node{Kind: ot.KindArray, Flags: ot.MultiFlag, Produce: e.produce(root)}
}

// EvalPath is the predicate.SubPathEvaluator Run installs for nested
// sub-path expressions, closing over the overall document root so a
// "$..." sub-path inside a deeply-nested "@..." predicate still resolves
// against the true root rather than the innermost candidate.
func EvalPath(docRoot ot.Node) predicate.SubPathEvaluator {
	return func(sub *ast.Path, candidate ot.Node) ot.Node {
		if sub.Relative {
			return Run(candidate, sub, docRoot)
		}
		return Run(docRoot, sub, docRoot)
	}
}

// singleton wraps a single node as a one-element multi array, used when
// a path has no steps (bare "$" or "@") — it evaluates to the input
// itself.
func singleton(n ot.Node) ot.Node {
	return ot.Node{
		Kind:  ot.KindArray,
		Flags: ot.MultiFlag,
		Produce: func(cur *ot.Key, out *ot.Node) (int, error) {
			// A cursor at {0, ∅} — whether this is the very first call or
			// a deliberate restart — yields the one element; any other
			// cursor value means that element was already consumed.
			if cur.Index != 0 || cur.HasStr {
				return 0, nil
			}
			*out = n
			cur.Index = 1
			return 1, nil
		},
	}
}

// engine drives the depth-pointer algorithm of spec §4.5 via an explicit
// stack of per-depth frames, pushed on descent and popped on exhaustion —
// the idiomatic Go shape for a multi-level nested generator without
// recursion-induced goroutines or channels.
type engine struct {
	steps   []ast.Step
	docRoot ot.Node
}

type frame struct {
	depth int
	state stepState
}

// produce returns a fresh, independently-restartable Producer closure
// rooted at input: resetting the caller's cursor back to {0, ∅} reinitialises
// the frame stack from scratch, satisfying the general restartability
// invariant (spec §3) even though each frame's own stepState is
// single-pass internally.
func (e *engine) produce(input ot.Node) ot.Producer {
	var frames []*frame
	reset := func() {
		st, err := e.newState(e.steps[0], input)
		frames = []*frame{{depth: 0, state: st}}
		if err != nil {
			frames = []*frame{{depth: 0, state: errState{err}}}
		}
	}
	started := false
	yielded := 0

	return func(cur *ot.Key, out *ot.Node) (int, error) {
		if !started || (cur.Index == 0 && !cur.HasStr) {
			reset()
			started = true
			yielded = 0
		}
		for len(frames) > 0 {
			top := frames[len(frames)-1]
			cand, ok, err := top.state.next()
			if err != nil {
				return 0, err
			}
			if !ok {
				frames = frames[:len(frames)-1]
				continue
			}
			step := e.steps[top.depth]
			if step.Predicate != nil {
				ctx := predicate.Context{Candidate: cand, RunPath: EvalPath(e.docRoot)}
				if !predicate.EvalBool(step.Predicate, ctx) {
					continue
				}
			}
			if top.depth+1 < len(e.steps) {
				st, err := e.newState(e.steps[top.depth+1], cand)
				if err != nil {
					return 0, err
				}
				frames = append(frames, &frame{depth: top.depth + 1, state: st})
				continue
			}
			*out = cand
			yielded++
			cur.Index = yielded
			cur.HasStr = false
			return 1, nil
		}
		return 0, nil
	}
}

// newState builds the stepState for one compiled step against a fixed
// input node, dispatching on match kind.
func (e *engine) newState(step ast.Step, input ot.Node) (stepState, error) {
	switch step.Kind {
	case ast.MatchDeep:
		return newDeepState(input), nil
	case ast.MatchSlice:
		return newSliceState(input, slice{Start: step.Slice.Start, End: step.Slice.End, Step: step.Slice.Step})
	case ast.MatchIndex, ast.MatchIndexes:
		return newIndexState(input, step.Indexes)
	case ast.MatchKey, ast.MatchKeys:
		return newKeyState(input, step.Keys)
	default:
		return &listState{}, nil
	}
}

// errState is a stepState that fails on its first next() call, used to
// surface a materialize error encountered while building a frame without
// complicating engine.produce's control flow.
type errState struct{ err error }

func (s errState) next() (ot.Node, bool, error) { return ot.Node{}, false, s.err }
