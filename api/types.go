// Package api holds the small set of wire-ish types shared between
// cmd/otq and the adaptors it wires up: a remote registry's directory
// listing (the JSON shape an HTTP registry transport exchanges) and the
// MCP query request/response pair cmd/otq serve-mcp exposes.
//
// Grounded on the teacher's api/schema.go, which played the same role
// (types shared between cmd/mount.go and internal/fs) for its Topology/
// Node/Leaf schema; that schema described a directory-projection
// configuration format this module has no equivalent of (path
// expressions replace it), so it is not carried over — only the
// package's purpose ("wire-ish types shared across a CLI/adaptor
// boundary") survives.
package api

// DirectoryEntry is the JSON shape an HTTP registry transport returns
// for one object in its directory listing, mirroring
// ot/adaptor/registry.DirectoryEntry field-for-field so an HTTP fetcher
// can unmarshal directly into it before handing entries to
// registry.Registry.Directory.
type DirectoryEntry struct {
	ID          uint32            `json:"id"`
	Type        string            `json:"type"`
	Version     uint32            `json:"version"`
	Permissions map[string]string `json:"permissions,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// InfoResponse is the JSON body an HTTP registry transport returns for
// GET /objects/{id}/info: the object's info fields plus the set of
// param ids it currently advertises, matching
// registry.Fetcher.FetchInfo's return shape.
type InfoResponse struct {
	Info     map[string]string `json:"info"`
	ParamIDs []uint32          `json:"param_ids"`
}

// QueryRequest is the argument shape for the serve-mcp "query" tool:
// path is a path expression (spec §4.4), source selects the backing
// document the same way cmd/otq's --remote flag does (empty means the
// server's own --remote value, and stdin JSON when that is empty too).
type QueryRequest struct {
	Path   string `json:"path"`
	Source string `json:"source,omitempty"`
}

// QueryResponse wraps a query's dumped result. Paths holds a
// matched-path list; the serve-mcp query tool only fills Result, since
// QueryRequest has no option to ask for locations.
type QueryResponse struct {
	Result string   `json:"result,omitempty"`
	Paths  []string `json:"paths,omitempty"`
}
