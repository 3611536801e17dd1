// Package source exposes a tree-sitter-parsed source file as a read-only
// OT tree, demonstrating spec §4.3's "more adaptors may be added
// analogously" clause over a fourth backing kind: parsed source code.
//
// Grounded on internal/ingest/sitter_walker.go's SitterWalker/SitterRoot:
// the same *sitter.Node + source-bytes + *sitter.Language triple anchors
// a Root here, but where SitterWalker answers ad hoc tree-sitter queries
// against that triple, this package instead walks the AST exhaustively
// into an OT tree so path expressions (`$.children[0]...`) can
// address it the same way they address any other adaptor.
package source

import (
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/otquery/ot"
)

// Root is one parsed source file: its AST plus the bytes it was parsed
// from (needed to slice out leaf text, exactly as SitterRoot carries
// Source alongside Node for the same reason).
type Root struct {
	Node   *sitter.Node
	Source []byte
	Lang   string // "go", "python", ... — carried through for the "lang" field only
}

// Node converts r into the OT tree rooted at r.Node.
func Node(r Root) ot.Node {
	return nodeOf(r.Node, r.Source, r.Lang)
}

func nodeOf(n *sitter.Node, src []byte, lang string) ot.Node {
	named := namedChildren(n)

	fields := []struct {
		key   string
		build func() ot.Node
	}{
		{"kind", func() ot.Node { return ot.StringNode(n.Type()) }},
		{"lang", func() ot.Node { return ot.StringNode(lang) }},
		{"start", func() ot.Node { return ot.Int(int64(n.StartByte())) }},
		{"end", func() ot.Node { return ot.Int(int64(n.EndByte())) }},
	}
	if len(named) == 0 {
		fields = append(fields, struct {
			key   string
			build func() ot.Node
		}{"text", func() ot.Node { return ot.StringNode(leafText(n, src)) }})
	} else {
		fields = append(fields, struct {
			key   string
			build func() ot.Node
		}{"children", func() ot.Node { return childrenNode(named, src, lang) }})
	}

	return ot.Object(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(fields) {
			return 0, nil
		}
		f := fields[i]
		*out = f.build().WithKey(f.key)
		cur.Index = i + 1
		cur.HasStr = false
		return 1, nil
	})
}

// namedChildren mirrors sitter_walker.go's preference for named nodes
// over the full (punctuation-cluttered) child list: an AST leaf like an
// identifier or literal has no named children and projects its text
// instead of an empty children array.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, count)
	for i := 0; i < count; i++ {
		out[i] = n.NamedChild(i)
	}
	return out
}

func leafText(n *sitter.Node, src []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(start) > len(src) || int(end) > len(src) || start > end {
		return ""
	}
	return string(src[start:end])
}

func childrenNode(named []*sitter.Node, src []byte, lang string) ot.Node {
	return ot.Array(func(cur *ot.Key, out *ot.Node) (int, error) {
		i := cur.Index
		if i < 0 || i >= len(named) {
			return 0, nil
		}
		*out = nodeOf(named[i], src, lang).WithIndex(i)
		cur.Index = i + 1
		return 1, nil
	})
}

// FieldName resolves the grammar field name a child was parsed under
// (e.g. "name", "body"), for callers that want to label children beyond
// positional index — tree-sitter's FieldNameForChild is keyed by the
// position among *all* children, not named ones, so this re-derives that
// index the way ExtractContext's capture-name lookup does.
func FieldName(parent *sitter.Node, namedIndex int) string {
	target := parent.NamedChild(namedIndex)
	if target == nil {
		return ""
	}
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		if parent.Child(i) == target {
			return parent.FieldNameForChild(i)
		}
	}
	return ""
}

// Path returns a stable identifier for n within its file, "kind@start",
// useful as a map key when correlating OT children back to AST nodes.
func Path(n *sitter.Node) string {
	return n.Type() + "@" + strconv.Itoa(int(n.StartByte()))
}
