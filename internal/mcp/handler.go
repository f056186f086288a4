package mcp

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/outfitswitch/internal/svc"
)

// Handler serves the outfit tools over streamable HTTP. The service is
// local, so requests are not authenticated.
type Handler struct {
	svc         *svc.ServiceContext
	httpHandler http.Handler
}

func NewHandler(svc *svc.ServiceContext) *Handler {
	h := &Handler{svc: svc}

	// Stateless: the tools keep no per-session state.
	h.httpHandler = h.sessionMiddleware(mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return NewServer(h.svc, r) },
		&mcp.StreamableHTTPOptions{Stateless: true},
	))
	return h
}

// sessionMiddleware makes sure every request carries a session ID and
// echoes it back.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("Mcp-Session-Id")
		if sessionID == "" {
			sessionID = uuid.New().String()
			r.Header.Set("Mcp-Session-Id", sessionID)
		}
		w.Header().Set("Mcp-Session-Id", sessionID)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.httpHandler.ServeHTTP(w, r)
}
