// Package mount projects the result of a path expression — an ot.Node —
// onto a real, read-only filesystem, supplementing spec.md's dump-only
// output model (§6) with a second consumption mode. Grounded on the
// teacher's own "mount as output" precedent: internal/fs/root.go (FUSE)
// and internal/nfsmount (NFS over go-billy), both of which mount a
// graph.Graph; this package mounts an ot.Node tree instead, with the
// OT container/scalar distinction standing in for the teacher's
// directory/file distinction.
package mount

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/agentic-research/otquery/ot"
)

// Entry is one named child exposed by List, mirroring the (name, isDir,
// size) triple nodeToFileInfo derives from a graph.Node.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Tree resolves "/"-separated filesystem paths against a root ot.Node,
// caching the node each path resolves to (not its children) so repeated
// Getattr/Readdir/Open calls for the same path (the norm under FUSE's
// attribute-cache-disabled mount options, mirroring the teacher's
// entry_timeout=0.0 / attr_timeout=0.0 choice) don't re-walk the
// producer chain from the root every time.
type Tree struct {
	root ot.Node

	mu    sync.Mutex
	nodes map[string]ot.Node
}

// New builds a Tree rooted at root.
func New(root ot.Node) *Tree {
	return &Tree{root: root, nodes: map[string]ot.Node{"/": root}}
}

// Resolve returns the ot.Node addressed by path ("/" for the root).
func (t *Tree) Resolve(path string) (ot.Node, error) {
	path = clean(path)

	t.mu.Lock()
	if n, ok := t.nodes[path]; ok {
		t.mu.Unlock()
		return n, nil
	}
	t.mu.Unlock()

	n := t.root
	if path != "/" {
		segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
		for _, seg := range segs {
			child, err := childByName(n, seg)
			if err != nil {
				return ot.Node{}, err
			}
			n = child
		}
	}

	t.mu.Lock()
	t.nodes[path] = n
	t.mu.Unlock()
	return n, nil
}

// childByName walks n's immediate children looking for one matching
// name: an object child by its StrKey, an array child by its decimal
// index.
func childByName(n ot.Node, name string) (ot.Node, error) {
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		if err != nil {
			return ot.Node{}, err
		}
		if count == 0 {
			return ot.Node{}, fmt.Errorf("mount: no such entry %q", name)
		}
		if child.HasStrKey && child.StrKey == name {
			return child, nil
		}
		if !child.HasStrKey && strconv.Itoa(child.Index) == name {
			return child, nil
		}
	}
}

// List returns n's immediate children as directory entries, in
// iteration order.
func List(n ot.Node) ([]Entry, error) {
	var out []Entry
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return out, nil
		}
		name := child.StrKey
		if !child.HasStrKey {
			name = strconv.Itoa(child.Index)
		}
		content := Render(child)
		out = append(out, Entry{
			Name:  name,
			IsDir: IsContainer(child),
			Size:  int64(len(content)),
		})
	}
}

// IsContainer reports whether n is an object or array — a "directory" in
// the mounted projection — as opposed to a scalar "file".
func IsContainer(n ot.Node) bool {
	return n.Kind == ot.KindObject || n.Kind == ot.KindArray
}

// Render renders a scalar node's file content, the way the dump package
// renders a leaf value, but as raw bytes rather than a quoted JSON-style
// token — a mounted file's content is meant to be read directly (`cat`),
// not re-parsed.
func Render(n ot.Node) []byte {
	switch n.Kind {
	case ot.KindNull:
		return []byte("null\n")
	case ot.KindBool:
		if n.Bool {
			return []byte("true\n")
		}
		return []byte("false\n")
	case ot.KindNumber:
		if n.Flags&ot.IntFlag != 0 {
			return []byte(strconv.FormatInt(int64(n.Num), 10) + "\n")
		}
		return []byte(strconv.FormatFloat(n.Num, 'g', -1, 64) + "\n")
	case ot.KindString:
		return []byte(n.Str + "\n")
	default:
		return nil
	}
}

func clean(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	if path == "" {
		return "/"
	}
	return path
}
