// serve_mcp.go exposes the same query operation root.go's RunE performs
// interactively as an MCP tool over stdio, for agent callers that want
// path-expression access to a tree without shelling out to the CLI.
//
// No repository in the retrieval pack actually calls mark3labs/mcp-go
// despite declaring it in go.mod (confirmed by a pack-wide grep) — this
// file's use of server.NewMCPServer/mcp.NewTool/server.ServeStdio is
// grounded on the library's own documented API surface rather than on
// an in-pack call site, recorded in DESIGN.md.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/otquery/api"
	"github.com/agentic-research/otquery/dump"
	"github.com/agentic-research/otquery/path/eval"
	"github.com/agentic-research/otquery/path/parser"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve a \"query\" tool over MCP stdio for agent callers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveMCP()
	},
}

func serveMCP() error {
	s := server.NewMCPServer("otq", Version)

	tool := mcp.NewTool("query",
		mcp.WithDescription("Evaluate a path expression against a tree and return the matches as JSON"),
		mcp.WithString("path", mcp.Required(), mcp.Description("A path expression, e.g. \"$.children[*].info.name\"")),
		mcp.WithString("source", mcp.Description("Data source: http(s):// registry, git:<path>, or a file path; defaults to --remote")),
	)
	s.AddTool(tool, handleQueryTool)

	return server.ServeStdio(s)
}

func handleQueryTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPath, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	qreq := api.QueryRequest{Path: rawPath, Source: req.GetString("source", "")}

	source := qreq.Source
	if source == "" {
		source = optRemote
	}
	root, err := resolveSource(source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("otq: resolve source: %v", err)), nil
	}

	p, err := parser.ParseString(qreq.Path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("otq: parse path: %v", err)), nil
	}

	result := eval.Run(root, p, root)

	var buf bytes.Buffer
	w := dump.New(&buf)
	if err := w.Dump(result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("otq: dump result: %v", err)), nil
	}

	resp := api.QueryResponse{Result: buf.String()}
	body, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("otq: marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
