package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/errors"
	"github.com/obspack/obspack/internal/source"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// PackRequest represents the arguments for vault_pack.
type PackRequest struct {
	Vault                  string   `json:"vault"`
	Source                 string   `json:"source,omitempty"`
	Instructions           string   `json:"instructions,omitempty"`
	AdditionalInstructions string   `json:"additional_instructions,omitempty"`
	Include                []string `json:"include,omitempty"`
	Exclude                []string `json:"exclude,omitempty"`
}

// EstimateRequest represents the arguments for vault_estimate.
type EstimateRequest struct {
	Vault                  string   `json:"vault"`
	Instructions           string   `json:"instructions,omitempty"`
	AdditionalInstructions string   `json:"additional_instructions,omitempty"`
	Include                []string `json:"include,omitempty"`
	Exclude                []string `json:"exclude,omitempty"`
}

// ListRequest represents the arguments for vault_list.
type ListRequest struct {
	Vault   string   `json:"vault"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// HistoryRequest represents the arguments for vault_history.
type HistoryRequest struct {
	ID    string `json:"id,omitempty"`
	Vault string `json:"vault,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// HandlePack handles the vault_pack tool call.
func (h *Handlers) HandlePack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PackRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Vault == "" {
		return errorResult(errors.NewInvalidRequest("vault is required")), nil
	}

	result, err := source.Pack(h.cfg, source.PackInput{
		VaultRef:               input.Vault,
		OutputPath:             input.Source,
		Instructions:           input.Instructions,
		AdditionalInstructions: input.AdditionalInstructions,
		Include:                input.Include,
		Exclude:                input.Exclude,
	})
	if err != nil {
		return errorResult(err), nil
	}

	// History failure never fails the pack
	if h.db != nil && !h.cfg.DisableHistory {
		_ = source.RecordRun(h.db, result)
	}

	return successResult(result)
}

// HandleEstimate handles the vault_estimate tool call.
func (h *Handlers) HandleEstimate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EstimateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Vault == "" {
		return errorResult(errors.NewInvalidRequest("vault is required")), nil
	}

	result, err := source.Estimate(h.cfg, source.EstimateInput{
		VaultRef:               input.Vault,
		Instructions:           input.Instructions,
		AdditionalInstructions: input.AdditionalInstructions,
		Include:                input.Include,
		Exclude:                input.Exclude,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the vault_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Vault == "" {
		return errorResult(errors.NewInvalidRequest("vault is required")), nil
	}

	result, err := source.List(h.cfg, source.ListInput{
		VaultRef: input.Vault,
		Include:  input.Include,
		Exclude:  input.Exclude,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleHistory handles the vault_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := source.History(h.db, source.HistoryInput{
		ID:    input.ID,
		Vault: input.Vault,
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult builds an error tool result with a structured payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if opErr, ok := err.(*errors.ObspackError); ok {
		errorObj := map[string]any{
			"code":    opErr.Code,
			"message": opErr.Message,
			"status":  opErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if opErr.Code != errors.ErrInternal && opErr.Details != nil {
			errorObj["details"] = opErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult builds a JSON tool result from data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
