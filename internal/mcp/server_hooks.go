package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/nicosearch/library/nico"
)

// newMCPHooks logs every MCP call. Search tool calls are logged with their
// tool name, keyword and the status the search ended with.
func newMCPHooks(logger logSDK.Logger) *srv.Hooks {
	if logger == nil {
		return nil
	}

	hooks := &srv.Hooks{}

	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		logger.Debug("mcp request received", hookLogFields(ctx, id, method, message)...)
	})

	hooks.AddOnSuccess(func(ctx context.Context, id any, method mcp.MCPMethod, message any, result any) {
		fields := hookLogFields(ctx, id, method, message)

		toolResult, ok := result.(*mcp.CallToolResult)
		if !ok {
			logger.Debug("mcp request succeeded", fields...)
			return
		}

		status := toolResultStatus(toolResult)
		fields = append(fields, zap.Int("status", status))
		if toolResult.IsError {
			logger.Warn("search tool rejected", fields...)
			return
		}
		logger.Info("search tool succeeded", fields...)
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		fields := append(hookLogFields(ctx, id, method, message), zap.Error(err))
		if shouldDowngradeMCPErrorLog(method, err) {
			logger.Debug("mcp request failed (non-critical)", fields...)
			return
		}
		logger.Error("mcp request failed", fields...)
	})

	return hooks
}

// shouldDowngradeMCPErrorLog reports whether a request failure is a client
// probing for resources, which this server does not offer.
func shouldDowngradeMCPErrorLog(method mcp.MCPMethod, err error) bool {
	if err == nil {
		return false
	}
	if !strings.Contains(strings.ToLower(err.Error()), "resources not supported") {
		return false
	}
	return method == mcp.MethodResourcesList || method == mcp.MethodResourcesTemplatesList
}

func hookLogFields(ctx context.Context, id any, method mcp.MCPMethod, message any) []zap.Field {
	fields := []zap.Field{
		zap.Any("request_id", id),
		zap.String("method", string(method)),
	}

	if session := srv.ClientSessionFromContext(ctx); session != nil {
		fields = append(fields, zap.String("session_id", session.SessionID()))
	}

	if req, ok := message.(*mcp.CallToolRequest); ok && req != nil {
		fields = append(fields, zap.String("tool", req.Params.Name))
		if args, ok := req.Params.Arguments.(map[string]any); ok {
			if keyword, ok := args["keyword"].(string); ok {
				fields = append(fields, zap.String("keyword", keyword))
			}
		}
	}

	return fields
}

// toolResultStatus returns 200 for a successful tool result, or the status
// of the rejection carried by an error result.
func toolResultStatus(result *mcp.CallToolResult) int {
	if result == nil {
		return http.StatusInternalServerError
	}
	if !result.IsError {
		return http.StatusOK
	}

	for _, content := range result.Content {
		text, ok := content.(mcp.TextContent)
		if !ok {
			continue
		}
		var rej nico.Rejection
		if err := json.Unmarshal([]byte(text.Text), &rej); err == nil && rej.Status != 0 {
			return rej.Status
		}
	}
	return http.StatusInternalServerError
}
