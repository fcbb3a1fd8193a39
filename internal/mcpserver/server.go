// Package mcpserver exposes the compliance checker as MCP tools using the
// mcp-go library. Tool handlers communicate via JSON-RPC 2.0 as specified
// by the MCP standard; the session gateway feeds messages in over HTTP and
// the CLI can serve the same tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ark-forge/mcp-eu-ai-act/internal/checker"
	"github.com/ark-forge/mcp-eu-ai-act/internal/compliance"
	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName    = "eu-ai-act-compliance"
	ServerVersion = "1.0.0"
)

// Factory produces a fresh MCP server instance. The session gateway calls
// it once per session so protocol state is never shared across clients.
type Factory func() *server.MCPServer

// NewFactory returns a Factory bound to one checker.
func NewFactory(chk *checker.Checker, logger *logging.AppLogger) Factory {
	return func() *server.MCPServer {
		return New(chk, logger)
	}
}

// New builds an MCP server with the four compliance tools registered.
func New(chk *checker.Checker, logger *logging.AppLogger) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	categoryDesc := fmt.Sprintf("Risk tier or processing role to evaluate (one of: %s)",
		strings.Join(compliance.CategoryNames(), ", "))

	s.AddTool(
		mcp.NewTool("scan_project",
			mcp.WithDescription("Scan a project directory for AI framework usage (imports, model references, dependency manifests)"),
			mcp.WithString("project_path",
				mcp.Required(),
				mcp.Description("Absolute path of the project directory to scan"),
			),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("project_path")
			if err != nil {
				return errorResult(err), nil
			}
			res, err := chk.ScanProject(path)
			if err != nil {
				logger.Warn("scan_project failed", "path", path, "error", err)
				return errorResult(err), nil
			}
			return jsonResult(res)
		},
	)

	s.AddTool(
		mcp.NewTool("check_compliance",
			mcp.WithDescription("Evaluate a project against the EU AI Act or GDPR checklist for a given category"),
			mcp.WithString("project_path",
				mcp.Required(),
				mcp.Description("Absolute path of the project directory to evaluate"),
			),
			mcp.WithString("category",
				mcp.Required(),
				mcp.Description(categoryDesc),
			),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("project_path")
			if err != nil {
				return errorResult(err), nil
			}
			category, err := request.RequireString("category")
			if err != nil {
				return errorResult(err), nil
			}
			res, err := chk.CheckCompliance(path, category)
			if err != nil {
				logger.Warn("check_compliance failed", "path", path, "category", category, "error", err)
				return errorResult(err), nil
			}
			return jsonResult(res)
		},
	)

	s.AddTool(
		mcp.NewTool("generate_report",
			mcp.WithDescription("Generate a timestamped compliance report combining scan results, checklist evaluation and recommendations"),
			mcp.WithString("project_path",
				mcp.Required(),
				mcp.Description("Absolute path of the project directory to report on"),
			),
			mcp.WithString("category",
				mcp.Required(),
				mcp.Description(categoryDesc),
			),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			path, err := request.RequireString("project_path")
			if err != nil {
				return errorResult(err), nil
			}
			category, err := request.RequireString("category")
			if err != nil {
				return errorResult(err), nil
			}
			res, err := chk.GenerateReport(path, category)
			if err != nil {
				logger.Warn("generate_report failed", "path", path, "category", category, "error", err)
				return errorResult(err), nil
			}
			return jsonResult(res)
		},
	)

	s.AddTool(
		mcp.NewTool("scan_remote",
			mcp.WithDescription("Shallow-clone a git repository and scan it for AI framework usage"),
			mcp.WithString("repo_url",
				mcp.Required(),
				mcp.Description("Clone URL of the repository to scan"),
			),
		),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			url, err := request.RequireString("repo_url")
			if err != nil {
				return errorResult(err), nil
			}
			res, err := chk.ScanRemote(ctx, url)
			if err != nil {
				logger.Warn("scan_remote failed", "url", url, "error", err)
				return errorResult(err), nil
			}
			return jsonResult(res)
		},
	)

	return s
}

// jsonResult marshals a tool result as pretty-printed JSON text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("failed to encode result: %w", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult converts a domain error into a tool-level error payload.
// The result carries IsError and a JSON body with the message, never a
// partial result alongside an error.
func errorResult(err error) *mcp.CallToolResult {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(payload))},
		IsError: true,
	}
}

