// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes CaseFile tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/casefile/internal/caseservice"
	"github.com/starford/casefile/internal/models"
)

const notesFormatURI = "casefile://notes-format"

// Server wraps the MCP server with CaseFile tools.
type Server struct {
	mcp *server.MCPServer
	svc *caseservice.Service
}

// New creates a new MCP server with all CaseFile tools registered.
func New(svc *caseservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"CaseFile",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_cases",
		mcp.WithDescription("List every case with its summary, one per line as '<case>: <summary>'."),
		mcp.WithBoolean("sort", mcp.Description("Sort by date bucket then serial")),
	), s.listCases)

	s.mcp.AddTool(mcp.NewTool("read_case",
		mcp.WithDescription("Read a case: its summary, opening time and full log."),
		mcp.WithString("case", mcp.Required(), mcp.Description("Case reference, e.g. 2024-01-01/A")),
	), s.readCase)

	s.mcp.AddTool(mcp.NewTool("new_case",
		mcp.WithDescription("Open a new case under the first free serial of its day. "+
			"Read the casefile://notes-format resource first."),
		mcp.WithString("summary", mcp.Required(), mcp.Description("One-line summary of the case")),
		mcp.WithString("date", mcp.Description("Day to file the case under: a date or an expression such as 'yesterday'. Defaults to today.")),
	), s.newCase)

	s.mcp.AddTool(mcp.NewTool("log_case",
		mcp.WithDescription("Append a time-stamped note to an existing case."),
		mcp.WithString("case", mcp.Required(), mcp.Description("Case reference, e.g. 2024-01-01/A")),
		mcp.WithString("note", mcp.Required(), mcp.Description("Single-line note to append")),
	), s.logCase)

	s.mcp.AddTool(mcp.NewTool("latest_case",
		mcp.WithDescription("Return the most recently opened case."),
	), s.latestCase)

	s.mcp.AddTool(mcp.NewTool("search_cases",
		mcp.WithDescription("Full-text search through case summaries and logs."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCases)

	s.mcp.AddTool(mcp.NewTool("get_notes_format",
		mcp.WithDescription("Returns the CaseFile layout and notes format. "+
			"Call this before opening or logging to cases."),
	), s.getNotesFormat)

	s.mcp.AddResource(
		mcp.NewResource(notesFormatURI, "Notes Format",
			mcp.WithResourceDescription("Case layout and notes file format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNotesFormatResource,
	)

	return s
}

// Serve speaks the MCP stdio transport over in and out until ctx is done or
// in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func caseArg(req mcp.CallToolRequest) (models.CaseRef, error) {
	raw, err := req.RequireString("case")
	if err != nil {
		return models.CaseRef{}, err
	}
	return models.ParseRef(raw)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListCases(ctx, req.GetBool("sort", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no cases"), nil
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(it.ID)
		b.WriteString(": ")
		b.WriteString(it.Summary)
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := caseArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.GetCase(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

func (s *Server) newCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := req.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.CreateCase(ctx, summary, req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("opened: " + c.ID), nil
}

func (s *Server) logCase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := caseArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.LogCase(ctx, ref, note); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("logged: " + ref.String()), nil
}

func (s *Server) latestCase(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.svc.LatestCase(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

func (s *Server) searchCases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getNotesFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NotesFormatContract), nil
}

func (s *Server) readNotesFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      notesFormatURI,
			MIMEType: "text/markdown",
			Text:     NotesFormatContract,
		},
	}, nil
}
