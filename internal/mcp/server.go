package mcp

import (
	"context"
	"database/sql"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/obspack/obspack/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"vault_pack": {
		def:     packToolDef(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePack },
	},
	"vault_estimate": {
		def:     estimateToolDef(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEstimate },
	},
	"vault_list": {
		def:     listToolDef(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"vault_history": {
		def:     historyToolDef(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory },
	},
}

func packToolDef() mcp.Tool {
	return mcp.NewTool("vault_pack",
		mcp.WithDescription("Concatenate all markdown notes of an Obsidian vault into one "+
			"annotated document with an instructional preamble, per-note source markers, "+
			"and a sorted table of contents."),
		mcp.WithString("vault", mcp.Required(), mcp.Description("Vault directory path, or a vault name under the configured root")),
		mcp.WithString("source", mcp.Description("Output file path (default: <vault>.md in the working directory)")),
		mcp.WithString("instructions", mcp.Description("Replacement preamble: a file path or literal text")),
		mcp.WithString("additional_instructions", mcp.Description("Extra rules appended after the preamble: a file path or literal text")),
		mcp.WithArray("include", mcp.Description("Glob patterns over vault-relative paths; only matching notes are packed"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("exclude", mcp.Description("Glob patterns over vault-relative paths; matching notes are skipped"),
			mcp.Items(map[string]any{"type": "string"})),
	)
}

func estimateToolDef() mcp.Tool {
	return mcp.NewTool("vault_estimate",
		mcp.WithDescription("Report the word and model-token estimate for packing a vault, without writing anything."),
		mcp.WithString("vault", mcp.Required(), mcp.Description("Vault directory path, or a vault name under the configured root")),
		mcp.WithString("instructions", mcp.Description("Replacement preamble: a file path or literal text")),
		mcp.WithString("additional_instructions", mcp.Description("Extra rules appended after the preamble: a file path or literal text")),
		mcp.WithArray("include", mcp.Description("Glob patterns over vault-relative paths"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("exclude", mcp.Description("Glob patterns over vault-relative paths"),
			mcp.Items(map[string]any{"type": "string"})),
	)
}

func listToolDef() mcp.Tool {
	return mcp.NewTool("vault_list",
		mcp.WithDescription("List a vault's notes with word counts and frontmatter title/tags."),
		mcp.WithString("vault", mcp.Required(), mcp.Description("Vault directory path, or a vault name under the configured root")),
		mcp.WithArray("include", mcp.Description("Glob patterns over vault-relative paths"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("exclude", mcp.Description("Glob patterns over vault-relative paths"),
			mcp.Items(map[string]any{"type": "string"})),
	)
}

func historyToolDef() mcp.Tool {
	return mcp.NewTool("vault_history",
		mcp.WithDescription("List recorded pack runs, newest first."),
		mcp.WithString("id", mcp.Description("Show a single run by its ULID")),
		mcp.WithString("vault", mcp.Description("Filter by resolved vault directory")),
		mcp.WithNumber("limit", mcp.Description("Maximum runs to return (default: all)")),
	)
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with obspack tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"obspack",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(db, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
