// Package eval implements the path evaluator of spec §4.5: compiled
// path/ast steps are driven against an ot.Node tree, producing the
// result as another ot.Node (a "multi" array) whose Producer is the
// step engine itself. That result node can be consumed iteratively by a
// caller, or passed straight back into path/predicate as a sub-path
// value — the two packages never import each other; Run supplies
// predicate.SubPathEvaluator as a plain function value.
//
// Grounded on the teacher's internal/graph.Walker (a depth-tracked,
// stack-of-frames traversal over lazily-resolved content) generalised
// from "walk a content-addressed blob tree" to "walk an arbitrary step
// list over any ot.Node source".
package eval

import "github.com/agentic-research/otquery/ot"

// stepState advances one compiled step against a fixed input node,
// yielding its match candidates one at a time. next returns ok=false
// once the step's candidates are exhausted for this input.
type stepState interface {
	next() (ot.Node, bool, error)
}

// materialize fully drains a container node's children into a slice.
// slice/index/key steps need random access (negative-index translation
// requires knowing the child count, and "keys" lookups may revisit
// earlier children), so they buffer once per frame rather than assuming
// the backing Producer supports seeking — only the deep step relies on
// pure forward iteration, since its subtrees are visited exactly once
// each regardless.
func materialize(input ot.Node) ([]ot.Node, error) {
	if !input.IsContainer() {
		return nil, nil
	}
	var out []ot.Node
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		n, err := ot.Iterate(&input, &cur, &child)
		if err != nil {
			return out, err
		}
		if n == 0 {
			return out, nil
		}
		out = append(out, child)
	}
}

// listState serves slice/index/indexes/key/keys: every one of these
// reduces to "compute the ordered match list once, then yield it
// one-by-one", differing only in how the list is computed.
type listState struct {
	matches []ot.Node
	pos     int
}

func (s *listState) next() (ot.Node, bool, error) {
	if s.pos >= len(s.matches) {
		return ot.Node{}, false, nil
	}
	n := s.matches[s.pos]
	s.pos++
	return n, true, nil
}

func newSliceState(input ot.Node, sl slice) (stepState, error) {
	children, err := materialize(input)
	if err != nil {
		return nil, err
	}
	return &listState{matches: selectSlice(children, sl)}, nil
}

// slice mirrors ast.Slice to keep this file import-light; engine.go
// converts at the boundary.
type slice struct{ Start, End, Step int }

// selectSlice implements spec §4.5: "iterate children, yield those at
// ordinals start, start+step, …, stopping when ordinal ≥ end (or ≤ end
// when step < 0)."
func selectSlice(children []ot.Node, sl slice) []ot.Node {
	n := len(children)
	step := sl.Step
	if step == 0 {
		step = 1
	}
	start := translateOrdinal(sl.Start, n)
	end := sl.End
	switch {
	case end == -1 && step > 0:
		end = n
	case end == -1 && step < 0:
		end = -1 // run through ordinal 0 inclusive
	case end < 0:
		end = translateOrdinal(end, n)
	}

	var out []ot.Node
	if step > 0 {
		for ord := start; ord < end; ord += step {
			if ord >= 0 && ord < n {
				out = append(out, children[ord])
			}
		}
	} else {
		for ord := start; ord > end; ord += step {
			if ord >= 0 && ord < n {
				out = append(out, children[ord])
			}
		}
	}
	return out
}

func translateOrdinal(v, n int) int {
	if v < 0 {
		return v + n
	}
	return v
}

func newIndexState(input ot.Node, indexes []int) (stepState, error) {
	children, err := materialize(input)
	if err != nil {
		return nil, err
	}
	n := len(children)
	var matches []ot.Node
	for _, raw := range indexes {
		i := translateOrdinal(raw, n)
		if i >= 0 && i < n {
			matches = append(matches, children[i])
		}
	}
	return &listState{matches: matches}, nil
}

func newKeyState(input ot.Node, keys []string) (stepState, error) {
	if input.Kind != ot.KindObject {
		return &listState{}, nil
	}
	children, err := materialize(input)
	if err != nil {
		return nil, err
	}
	var matches []ot.Node
	for _, k := range keys {
		for _, c := range children {
			if c.HasStrKey && c.StrKey == k {
				matches = append(matches, c)
				break
			}
		}
	}
	return &listState{matches: matches}, nil
}

// deepState implements recursive descent via an explicit walk stack of
// (node, cursor, selfYielded) frames, producing document pre-order
// including the step's own input (descendant-or-self), per spec §4.5.
type deepState struct {
	stack []*deepFrame
}

type deepFrame struct {
	node        ot.Node
	cur         ot.Key
	selfYielded bool
}

func newDeepState(input ot.Node) *deepState {
	return &deepState{stack: []*deepFrame{{node: input}}}
}

func (d *deepState) next() (ot.Node, bool, error) {
	for len(d.stack) > 0 {
		top := d.stack[len(d.stack)-1]
		if !top.selfYielded {
			top.selfYielded = true
			return top.node, true, nil
		}
		var child ot.Node
		n, err := ot.Iterate(&top.node, &top.cur, &child)
		if err != nil {
			return ot.Node{}, false, err
		}
		if n == 0 {
			d.stack = d.stack[:len(d.stack)-1]
			continue
		}
		if child.IsContainer() {
			d.stack = append(d.stack, &deepFrame{node: child})
			continue
		}
		return child, true, nil
	}
	return ot.Node{}, false, nil
}
