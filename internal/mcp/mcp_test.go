package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/obspack/obspack/internal/config"
	"github.com/obspack/obspack/internal/db"
	"github.com/obspack/obspack/internal/source"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.VaultRoot = filepath.Join(os.TempDir(), "obspack-no-such-root")

	return database, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// testVault creates a vault directory with the given relative files.
func testVault(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return root
}

// resultText extracts the text payload from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return text.Text
}

func TestHandlePack(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	vault := testVault(t, map[string]string{
		"a.md": "alpha",
		"b.md": "beta",
	})
	outPath := filepath.Join(t.TempDir(), "out.md")

	result, err := h.HandlePack(context.Background(), makeRequest(map[string]any{
		"vault":  vault,
		"source": outPath,
	}))
	if err != nil {
		t.Fatalf("HandlePack returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("HandlePack returned error result: %s", resultText(t, result))
	}

	var output source.PackOutput
	if err := json.Unmarshal([]byte(resultText(t, result)), &output); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if output.Notes != 2 {
		t.Errorf("notes = %d, want 2", output.Notes)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output document not written: %v", err)
	}

	// Pack via MCP records history too
	runs, err := db.ListRuns(database, "", 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("len(runs) = %d, want 1", len(runs))
	}
}

func TestHandlePack_MissingVault(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	result, err := h.HandlePack(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandlePack returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing vault argument")
	}
}

func TestHandlePack_VaultNotFound(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	result, err := h.HandlePack(context.Background(), makeRequest(map[string]any{
		"vault": "no-such-vault",
	}))
	if err != nil {
		t.Fatalf("HandlePack returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing vault")
	}

	var payload struct {
		Error struct {
			Code   string `json:"code"`
			Status int    `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &payload); err != nil {
		t.Fatalf("failed to parse error payload: %v", err)
	}
	if payload.Error.Code != "VAULT_NOT_FOUND" || payload.Error.Status != 404 {
		t.Errorf("error = %+v, want VAULT_NOT_FOUND/404", payload.Error)
	}
}

func TestHandleEstimate(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	vault := testVault(t, map[string]string{"note.md": "Hello world"})

	result, err := h.HandleEstimate(context.Background(), makeRequest(map[string]any{
		"vault": vault,
	}))
	if err != nil {
		t.Fatalf("HandleEstimate returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("HandleEstimate returned error result: %s", resultText(t, result))
	}

	var output source.EstimateOutput
	if err := json.Unmarshal([]byte(resultText(t, result)), &output); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	want := source.CountWords(source.Preamble) + 2 + cfg.TOCOverhead()
	if output.Words != want {
		t.Errorf("words = %d, want %d", output.Words, want)
	}
}

func TestHandleList(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	vault := testVault(t, map[string]string{
		"a.md":            "---\ntitle: Alpha\n---\nbody",
		"templates/t.md":  "template",
		"attachments/x.y": "not markdown",
	})

	result, err := h.HandleList(context.Background(), makeRequest(map[string]any{
		"vault":   vault,
		"exclude": []any{"templates/**"},
	}))
	if err != nil {
		t.Fatalf("HandleList returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("HandleList returned error result: %s", resultText(t, result))
	}

	var output source.ListOutput
	if err := json.Unmarshal([]byte(resultText(t, result)), &output); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if output.Count != 1 || output.Items[0].Title != "Alpha" {
		t.Errorf("output = %+v, want one note titled Alpha", output)
	}
}

func TestHandleHistory(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	if err := db.InsertRun(database, &db.Run{Vault: "/vaults/a", OutputPath: "a.md"}); err != nil {
		t.Fatalf("InsertRun failed: %v", err)
	}

	result, err := h.HandleHistory(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleHistory returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("HandleHistory returned error result: %s", resultText(t, result))
	}

	var output source.HistoryOutput
	if err := json.Unmarshal([]byte(resultText(t, result)), &output); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if output.Count != 1 {
		t.Errorf("count = %d, want 1", output.Count)
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"vault_pack", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}
}

func TestNewServer_DisabledTools(t *testing.T) {
	database, cfg := testSetup(t)
	cfg.DisabledTools = []string{"vault_pack"}

	s := NewServer(database, cfg, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}
