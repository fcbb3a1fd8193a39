// Package gateway is the HTTP session layer in front of the MCP tool
// server. It owns session lifecycle (initialize creates one, DELETE closes
// it) and admission control (API key plans and the free-tier rate limit),
// then forwards JSON-RPC messages to the per-session MCP server.
//
// Admission happens between session routing and tool dispatch: only
// tools/call messages consume quota, and a pro API key bypasses the
// limiter entirely.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/ark-forge/mcp-eu-ai-act/internal/keystore"
	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"
	"github.com/ark-forge/mcp-eu-ai-act/internal/mcpserver"
	"github.com/ark-forge/mcp-eu-ai-act/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
)

const sessionHeader = "Mcp-Session-Id"

// maxBodySize caps a single JSON-RPC request body.
const maxBodySize = 4 << 20

// JSON-RPC error codes. Parse and internal errors are standard; the
// session and rate limit codes live in the implementation-defined range.
const (
	codeParseError     = -32700
	codeInternalError  = -32603
	codeInvalidSession = -32001
	codeRateLimited    = -32002
)

// Gateway routes HTTP traffic to per-session MCP servers.
type Gateway struct {
	registry *Registry
	factory  mcpserver.Factory
	keys     *keystore.Store
	limiter  *ratelimit.Limiter
	logger   *logging.AppLogger
}

// New assembles a gateway. The registry is passed in rather than created
// here so callers can share or inspect it.
func New(registry *Registry, factory mcpserver.Factory, keys *keystore.Store, limiter *ratelimit.Limiter, logger *logging.AppLogger) *Gateway {
	return &Gateway{
		registry: registry,
		factory:  factory,
		keys:     keys,
		limiter:  limiter,
		logger:   logger,
	}
}

// Handler returns the gateway's HTTP routes.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /mcp", g.handlePost)
	mux.HandleFunc("DELETE /mcp", g.handleDelete)
	mux.HandleFunc("GET /healthz", g.handleHealth)
	mux.HandleFunc("POST /api/verify-key", g.handleVerifyKey)
	mux.HandleFunc("GET /api/usage", g.handleUsage)
	return mux
}

// rpcEnvelope is the subset of a JSON-RPC message the gateway needs to
// route and admit a request before handing it to the MCP server.
type rpcEnvelope struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
}

func (g *Gateway) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, codeParseError, "cannot read request body", nil)
		return
	}

	var env rpcEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Method == "" {
		writeRPCError(w, http.StatusBadRequest, nil, codeParseError, "malformed JSON-RPC request", nil)
		return
	}

	var srv *server.MCPServer
	if env.Method == "initialize" {
		id := uuid.NewString()
		srv = g.factory()
		g.registry.Put(id, srv)
		w.Header().Set(sessionHeader, id)
		g.logger.Info("Session opened", "session", id, "client", clientIdentity(r))
	} else {
		id := r.Header.Get(sessionHeader)
		s, ok := g.registry.Get(id)
		if id == "" || !ok {
			writeRPCError(w, http.StatusNotFound, env.ID, codeInvalidSession,
				"invalid or expired session: send initialize first", nil)
			return
		}
		srv = s
	}

	// Only tool invocations consume quota; protocol plumbing (initialize,
	// tools/list, notifications) stays free.
	if env.Method == "tools/call" && !g.admit(w, r, env.ID) {
		return
	}

	g.dispatch(w, r, srv, env, body)
}

// admit applies API key and rate limit checks, writing the rate-limit
// error itself when the request is denied. It reports whether the request
// may proceed.
func (g *Gateway) admit(w http.ResponseWriter, r *http.Request, id json.RawMessage) bool {
	if key := apiKey(r); key != "" {
		if plan, ok := g.keys.Verify(key); ok && plan == keystore.PlanPro {
			return true
		}
	}

	client := clientIdentity(r)
	decision := g.limiter.Check(client)
	if decision.Allowed {
		return true
	}

	g.logger.Warn("Rate limit exceeded", "client", client)
	writeRPCError(w, http.StatusTooManyRequests, id, codeRateLimited,
		fmt.Sprintf("rate limit exceeded: free tier allows %d requests per 24h", g.limiter.Limit()),
		map[string]any{
			"remaining": 0,
			"resetAt":   decision.ResetAt,
			"upgrade":   "provide a pro API key via X-Api-Key to remove this limit",
		})
	return false
}

// dispatch forwards the raw message to the session's MCP server and
// relays the JSON-RPC response. A panic inside the protocol layer is
// contained here so one request cannot take the gateway down.
func (g *Gateway) dispatch(w http.ResponseWriter, r *http.Request, srv *server.MCPServer, env rpcEnvelope, body []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.Error("Panic while handling message", "method", env.Method, "panic", rec)
			writeRPCError(w, http.StatusInternalServerError, env.ID, codeInternalError, "internal error", nil)
		}
	}()

	resp := srv.HandleMessage(r.Context(), body)
	if resp == nil {
		// Notification: nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (g *Gateway) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		http.Error(w, "missing "+sessionHeader+" header", http.StatusBadRequest)
		return
	}
	if !g.registry.Delete(id) {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	g.logger.Info("Session closed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth is deliberately static: it reports liveness without
// reading the session table or the limiter.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": mcpserver.ServerName,
		"version": mcpserver.ServerVersion,
	})
}

// handleVerifyKey lets a client check a key without spending quota. The
// key comes from the request body or, failing that, the usual headers.
func (g *Gateway) handleVerifyKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
	}
	key := req.Key
	if key == "" {
		key = apiKey(r)
	}
	if key == "" {
		http.Error(w, "missing API key", http.StatusBadRequest)
		return
	}

	rec, ok := g.keys.Lookup(key)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  rec.Active,
		"plan":   rec.Plan,
		"active": rec.Active,
	})
}

// handleUsage reports the caller's quota state without consuming it.
func (g *Gateway) handleUsage(w http.ResponseWriter, r *http.Request) {
	if key := apiKey(r); key != "" {
		if plan, ok := g.keys.Verify(key); ok && plan == keystore.PlanPro {
			writeJSON(w, http.StatusOK, map[string]any{
				"plan":    keystore.PlanPro,
				"limited": false,
			})
			return
		}
	}

	client := clientIdentity(r)
	usage := g.limiter.Usage(client)
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":      keystore.PlanFree,
		"limited":   true,
		"limit":     g.limiter.Limit(),
		"remaining": usage.Remaining,
		"resetAt":   usage.ResetAt,
	})
}

// clientIdentity derives the rate-limit identity for a request: the first
// X-Forwarded-For hop when present (the gateway is expected to run behind
// a proxy), otherwise the connection's remote address.
func clientIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// apiKey extracts the caller's API key from X-Api-Key or, failing that,
// a bearer Authorization header.
func apiKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-Api-Key")); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcErrorResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Error   rpcError        `json:"error"`
}

func writeRPCError(w http.ResponseWriter, status int, id json.RawMessage, code int, msg string, data any) {
	writeJSON(w, status, rpcErrorResponse{
		Jsonrpc: "2.0",
		ID:      id,
		Error:   rpcError{Code: code, Message: msg, Data: data},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
