// sql.go implements the --sql escape hatch: flatten the resolved tree's
// scalar leaves into (object_id, key, value) rows, register them under
// ot/adaptor/pod's otq_pod virtual table module, and run the user's raw
// query against it. Grounded on internal/graph/sqlite_graph.go's
// "CREATE VIRTUAL TABLE IF NOT EXISTS ... USING mache_refs(%s)" wiring,
// substituting pod.Module's row-set ID for mache_refs' dbID.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/otquery/ot"
	"github.com/agentic-research/otquery/ot/adaptor/pod"
)

const sqlRowSetID = "otq"

func runSQL(root ot.Node, query string) error {
	fields := flattenToFields(root)

	mod, err := pod.RegisterModule()
	if err != nil {
		return fmt.Errorf("otq --sql: %w", err)
	}
	mod.RegisterRows(sqlRowSetID, fields)
	defer mod.UnregisterRows(sqlRowSetID)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("otq --sql: open sqlite: %w", err)
	}
	defer db.Close()

	create := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS otq_rows USING otq_pod(%s)", sqlRowSetID)
	if _, err := db.Exec(create); err != nil {
		return fmt.Errorf("otq --sql: create virtual table: %w", err)
	}

	rows, err := db.Query(query)
	if err != nil {
		return fmt.Errorf("otq --sql: %w", err)
	}
	defer rows.Close()

	return printRows(rows)
}

// flattenToFields walks root via ot.Iterate, projecting each scalar leaf
// as a pod.Field keyed by its "/"-joined path from the root, the same
// shape pod.FieldsOf produces for a decoded POD value tree.
func flattenToFields(root ot.Node) []pod.Field {
	var out []pod.Field
	flattenNode("", root, &out)
	return out
}

func flattenNode(prefix string, n ot.Node, out *[]pod.Field) {
	if !n.IsContainer() {
		*out = append(*out, pod.Field{ObjectID: sqlRowSetID, Key: prefix, Value: scalarString(n)})
		return
	}
	cur := ot.ZeroKey()
	for {
		var child ot.Node
		count, err := ot.Iterate(&n, &cur, &child)
		if err != nil || count == 0 {
			return
		}
		flattenNode(joinKey(prefix, child), child, out)
	}
}

func joinKey(prefix string, child ot.Node) string {
	var seg string
	if child.HasStrKey {
		seg = child.StrKey
	} else {
		seg = strconv.Itoa(child.Index)
	}
	if prefix == "" {
		return seg
	}
	return prefix + "/" + seg
}

func scalarString(n ot.Node) string {
	switch n.Kind {
	case ot.KindNull:
		return ""
	case ot.KindBool:
		return strconv.FormatBool(n.Bool)
	case ot.KindNumber:
		if n.Flags&ot.IntFlag != 0 {
			return strconv.FormatInt(int64(n.Num), 10)
		}
		return strconv.FormatFloat(n.Num, 'g', -1, 64)
	case ot.KindString:
		return n.Str
	default:
		return ""
	}
}

// printRows renders a *sql.Rows result as a tab-aligned table, reading
// columns generically since the shape of a user's own query is unknown
// ahead of time.
func printRows(rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(cols, "\t"))

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		cells := make([]string, len(cols))
		for i, v := range vals {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}
