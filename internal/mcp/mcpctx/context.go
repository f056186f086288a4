package mcpctx

import (
	"context"

	"github.com/neboloop/outfitswitch/internal/svc"
)

// ToolContext carries what every MCP tool needs.
type ToolContext struct {
	svc       *svc.ServiceContext
	requestID string
	sessionID string
}

func NewToolContext(svc *svc.ServiceContext, requestID, sessionID string) *ToolContext {
	return &ToolContext{svc: svc, requestID: requestID, sessionID: sessionID}
}

// SessionID returns the MCP session ID.
func (t *ToolContext) SessionID() string {
	return t.sessionID
}

// RequestID returns the request ID for tracing.
func (t *ToolContext) RequestID() string {
	return t.requestID
}

// Svc returns the service context.
func (t *ToolContext) Svc() *svc.ServiceContext {
	return t.svc
}

// ToolError is a structured error for MCP tool responses.
type ToolError struct {
	Code    string `json:"code"` // "not_found", "validation", "conflict", "disabled"
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (e *ToolError) Error() string {
	if e.Field != "" {
		return e.Code + ": " + e.Message + " (field: " + e.Field + ")"
	}
	return e.Code + ": " + e.Message
}

func NewValidationError(message, field string) *ToolError {
	return &ToolError{Code: "validation", Message: message, Field: field}
}

func NewNotFoundError(message string) *ToolError {
	return &ToolError{Code: "not_found", Message: message}
}

func NewConflictError(message string) *ToolError {
	return &ToolError{Code: "conflict", Message: message}
}

type toolContextKey struct{}

// WithToolContext adds ToolContext to a context.
func WithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves ToolContext from a context.
func ToolContextFromContext(ctx context.Context) *ToolContext {
	if tc, ok := ctx.Value(toolContextKey{}).(*ToolContext); ok {
		return tc
	}
	return nil
}
