package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ark-forge/mcp-eu-ai-act/internal/checker"
	"github.com/ark-forge/mcp-eu-ai-act/internal/config"
	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"

	"github.com/mark3labs/mcp-go/server"
)

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	cfg := config.DefaultConfig()
	logger, _ := logging.NewTestLogger()
	return New(checker.New(&cfg, logger), logger)
}

// call sends a tools/call message straight into the protocol layer and
// returns the marshalled JSON-RPC response.
func call(t *testing.T, s *server.MCPServer, tool string, args map[string]any) map[string]any {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": tool, "arguments": args},
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := s.HandleMessage(context.Background(), raw)
	if resp == nil {
		t.Fatal("HandleMessage returned nil for a request")
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	return parsed
}

// toolText extracts the first text content block from a tools/call response.
func toolText(t *testing.T, parsed map[string]any) (text string, isError bool) {
	t.Helper()
	result, ok := parsed["result"].(map[string]any)
	if !ok {
		t.Fatalf("response has no result: %v", parsed)
	}
	isError, _ = result["isError"].(bool)
	content, ok := result["content"].([]any)
	if !ok || len(content) == 0 {
		t.Fatalf("result has no content: %v", result)
	}
	block := content[0].(map[string]any)
	text, _ = block["text"].(string)
	return text, isError
}

func TestListToolsExposesAllFour(t *testing.T) {
	s := newTestServer(t)

	raw := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp := s.HandleMessage(context.Background(), raw)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}

	for _, tool := range []string{"scan_project", "check_compliance", "generate_report", "scan_remote"} {
		if !strings.Contains(string(data), fmt.Sprintf("%q", tool)) {
			t.Errorf("tools/list response lacks %s", tool)
		}
	}
}

func TestScanProjectTool(t *testing.T) {
	s := newTestServer(t)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "app.py"), []byte("import openai\n"), 0644); err != nil {
		t.Fatal(err)
	}

	text, isError := toolText(t, call(t, s, "scan_project", map[string]any{"project_path": project}))
	if isError {
		t.Fatalf("tool reported error: %s", text)
	}

	var res struct {
		FilesScanned   int                 `json:"files_scanned"`
		DetectedModels map[string][]string `json:"detected_models"`
	}
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("result is not valid JSON: %v\n%s", err, text)
	}
	if res.FilesScanned != 1 || len(res.DetectedModels["openai"]) != 1 {
		t.Errorf("unexpected scan result: %+v", res)
	}
}

func TestCheckComplianceTool(t *testing.T) {
	s := newTestServer(t)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "README.md"), []byte("# ok\n"), 0644); err != nil {
		t.Fatal(err)
	}

	text, isError := toolText(t, call(t, s, "check_compliance",
		map[string]any{"project_path": project, "category": "minimal"}))
	if isError {
		t.Fatalf("tool reported error: %s", text)
	}
	if !strings.Contains(text, `"compliance_score": "1/1"`) {
		t.Errorf("result lacks expected score: %s", text)
	}
}

func TestDomainErrorsReturnedInBand(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"denied path", "scan_project", map[string]any{"project_path": "/etc"}},
		{"missing path", "scan_project", map[string]any{"project_path": filepath.Join(t.TempDir(), "nope")}},
		{"unknown category", "check_compliance", map[string]any{"project_path": t.TempDir(), "category": "bogus"}},
		{"missing argument", "generate_report", map[string]any{"project_path": t.TempDir()}},
		{"empty repo url", "scan_remote", map[string]any{"repo_url": "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isError := toolText(t, call(t, s, tt.tool, tt.args))
			if !isError {
				t.Fatalf("expected an error result, got %s", text)
			}
			var payload struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal([]byte(text), &payload); err != nil || payload.Error == "" {
				t.Errorf("error payload is not {\"error\": ...}: %s", text)
			}
		})
	}
}
