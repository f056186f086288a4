package mcp

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/outfitswitch/internal/mcp/mcpctx"
	"github.com/neboloop/outfitswitch/internal/mcp/tools"
	"github.com/neboloop/outfitswitch/internal/svc"
)

// NewServer creates an MCP server with the outfit tools registered.
func NewServer(svc *svc.ServiceContext, r *http.Request) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "outfitswitch",
		Version: svc.Version,
	}, nil)

	toolCtx := mcpctx.NewToolContext(svc, uuid.New().String(), r.Header.Get("Mcp-Session-Id"))
	tools.RegisterOutfitTools(server, toolCtx)
	return server
}
