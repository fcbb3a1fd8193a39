package gateway

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"
)

// Registry tracks live MCP sessions. Each session owns a dedicated server
// instance so protocol state never leaks between clients. The registry is
// injectable so tests can inspect and pre-seed it.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*server.MCPServer
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*server.MCPServer)}
}

func (r *Registry) Get(id string) (*server.MCPServer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Put(id string, s *server.MCPServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = s
}

// Delete removes a session, reporting whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
