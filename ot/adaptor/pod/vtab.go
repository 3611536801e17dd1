// vtab.go exposes decoded POD object fields as a SQLite virtual table, for
// the `otq --sql` escape hatch over structured values that the path/
// predicate language cannot conveniently filter (nested choice ranges,
// cross-field comparisons).
//
// Grounded on internal/refsvtab/refs_module.go's Module/Table/Cursor
// triad (modernc.org/sqlite/vtab): a process-wide module singleton
// registered once, fed per-query row sets through an ID argument passed
// in the CREATE VIRTUAL TABLE statement, the same shape as refsvtab's
// RegisterDB/UnregisterDB — except here the row set is a flattened slice
// of decoded fields held in memory rather than a sqlite-backed bitmap
// index, since POD values are already fully decoded before this package
// ever sees them.
package pod

import (
	"fmt"
	"sync"

	"modernc.org/sqlite/vtab"
)

// Field is one flattened (object, property, value) row surfaced to SQL.
// Value is rendered as its OT scalar form (ot.Node's Str/Num/Bool
// printed representation); structured values (arrays, nested objects)
// are flattened recursively by FieldsOf, with Key carrying a "/"-joined
// path from the object root.
type Field struct {
	ObjectID string
	Key      string
	Value    string
}

// FieldsOf flattens a decoded POD value into Fields rooted at objectID,
// walking nested Struct/Array/Object/Choice values and joining keys with
// "/": array/struct elements by index, object properties by name,
// rectangles as width/height and fractions as num/denom (the keys their
// OT projection uses), choice items as "choice0", "choice1", ....
func FieldsOf(objectID string, v Value) []Field {
	var out []Field
	flatten(objectID, "", v, &out)
	return out
}

func flatten(objectID, prefix string, v Value, out *[]Field) {
	switch v.Kind {
	case KindArray, KindStruct:
		items := v.Array
		if v.Kind == KindStruct {
			items = v.Struct
		}
		for i, item := range items {
			flatten(objectID, joinKey(prefix, fmt.Sprintf("%d", i)), item, out)
		}
	case KindObject:
		for _, p := range v.Object.Props {
			key := p.Key
			if key == "" {
				key = "*unknown*"
			}
			flatten(objectID, joinKey(prefix, key), p.Value, out)
		}
	case KindChoice:
		for i, item := range v.Choice.Items {
			flatten(objectID, joinKey(prefix, fmt.Sprintf("choice%d", i)), item, out)
		}
	case KindRectangle:
		*out = append(*out,
			Field{ObjectID: objectID, Key: joinKey(prefix, "width"), Value: fmt.Sprintf("%d", v.Rect.Width)},
			Field{ObjectID: objectID, Key: joinKey(prefix, "height"), Value: fmt.Sprintf("%d", v.Rect.Height)})
	case KindFraction:
		*out = append(*out,
			Field{ObjectID: objectID, Key: joinKey(prefix, "num"), Value: fmt.Sprintf("%d", v.Frac.Num)},
			Field{ObjectID: objectID, Key: joinKey(prefix, "denom"), Value: fmt.Sprintf("%d", v.Frac.Denom)})
	default:
		*out = append(*out, Field{ObjectID: objectID, Key: prefix, Value: scalarString(v)})
	}
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func scalarString(v Value) string {
	switch v.Kind {
	case KindNone:
		return ""
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindLong:
		return fmt.Sprintf("%d", v.Long)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindDouble:
		return fmt.Sprintf("%g", v.Double)
	case KindString:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(v.Bytes))
	case KindRectangle:
		return fmt.Sprintf("%dx%d", v.Rect.Width, v.Rect.Height)
	case KindFraction:
		return fmt.Sprintf("%d/%d", v.Frac.Num, v.Frac.Denom)
	default:
		return ""
	}
}

var (
	once      sync.Once
	singleton *Module
	initErr   error
)

// Module implements vtab.Module, registered process-wide exactly once
// (modernc.org/sqlite registers modules at the driver level, not per
// connection), mirroring refsvtab.RefsModule's Register singleton.
type Module struct {
	mu   sync.RWMutex
	sets map[string][]Field
}

// RegisterModule registers the otq_pod module with the global SQLite
// driver. Safe to call more than once; only the first call registers.
func RegisterModule() (*Module, error) {
	once.Do(func() {
		singleton = &Module{sets: make(map[string][]Field)}
		if err := vtab.RegisterModule(nil, "otq_pod", singleton); err != nil {
			initErr = fmt.Errorf("pod: register vtab module: %w", err)
			singleton = nil
		}
	})
	return singleton, initErr
}

// RegisterRows makes fields available under id, for a subsequent
// `CREATE VIRTUAL TABLE x USING otq_pod(id)` to pick up.
func (m *Module) RegisterRows(id string, fields []Field) {
	m.mu.Lock()
	m.sets[id] = fields
	m.mu.Unlock()
}

// UnregisterRows drops a previously registered row set, once its table
// is no longer needed.
func (m *Module) UnregisterRows(id string) {
	m.mu.Lock()
	delete(m.sets, id)
	m.mu.Unlock()
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("otq_pod: missing row-set ID argument (expected USING otq_pod(id))")
	}
	id := args[3]

	m.mu.RLock()
	fields, ok := m.sets[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("otq_pod: unknown row-set ID %q", id)
	}

	if err := ctx.Declare("CREATE TABLE x(object_id TEXT, key TEXT, value TEXT)"); err != nil {
		return nil, err
	}
	return &table{fields: fields}, nil
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Create(ctx, args)
}

type table struct {
	fields []Field
}

// BestIndex offers no index — a decoded POD row set is expected to be
// small enough (a single dumped object's fields) that a full scan per
// query is the right default, unlike refsvtab's token-indexed lookup
// over a whole project's references.
func (t *table) BestIndex(info *vtab.IndexInfo) error {
	info.IdxNum = 0
	info.EstimatedCost = float64(len(t.fields) + 1)
	info.EstimatedRows = int64(len(t.fields))
	return nil
}

func (t *table) Open() (vtab.Cursor, error) {
	return &cursor{fields: t.fields}, nil
}

func (t *table) Disconnect() error { return nil }
func (t *table) Destroy() error    { return nil }

type cursor struct {
	fields []Field
	pos    int
}

func (c *cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.pos = 0
	return nil
}

func (c *cursor) Next() error {
	c.pos++
	return nil
}

func (c *cursor) Eof() bool {
	return c.pos >= len(c.fields)
}

func (c *cursor) Column(col int) (vtab.Value, error) {
	if c.pos >= len(c.fields) {
		return nil, nil
	}
	f := c.fields[c.pos]
	switch col {
	case 0:
		return f.ObjectID, nil
	case 1:
		return f.Key, nil
	case 2:
		return f.Value, nil
	default:
		return nil, nil
	}
}

func (c *cursor) Rowid() (int64, error) {
	return int64(c.pos), nil
}

func (c *cursor) Close() error {
	c.fields = nil
	return nil
}
