package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

// toolLoggerFromContext returns a request-scoped logger when available.
func toolLoggerFromContext(ctx context.Context, fallback logSDK.Logger) logSDK.Logger {
	if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
		return ctxLogger
	}
	if fallback != nil {
		return fallback
	}
	return log.Logger.Named("mcp_tools")
}

// toolErrorResult builds a structured MCP error response.
func toolErrorResult(status int, message, description string) *mcp.CallToolResult {
	payload := map[string]any{
		"status":            status,
		"error":             message,
		"error_description": description,
	}
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError(message)
	}
	result.IsError = true
	return result
}

// toolErrorFromErr converts search errors into tool responses.
func toolErrorFromErr(err error) *mcp.CallToolResult {
	if err == nil {
		return nil
	}

	var cfgErr *nico.ConfigurationError
	switch {
	case errors.Is(err, search.ErrInvalidRequest):
		return toolErrorResult(400, "Bad Request", err.Error())
	case errors.As(err, &cfgErr):
		return toolErrorResult(400, "Bad Request", cfgErr.Error())
	}

	if rej, ok := nico.AsRejection(err); ok {
		return toolErrorResult(rej.Status, rej.Message, rej.ErrorDescription)
	}
	return toolErrorResult(500, "Internal Server Error", "search failed")
}

// readStringArg extracts an optional string argument from the request.
func readStringArg(req mcp.CallToolRequest, key string) string {
	if req.Params.Arguments == nil {
		return ""
	}
	if raw, ok := req.Params.Arguments.(map[string]any); ok {
		if value, ok := raw[key].(string); ok {
			return value
		}
	}
	return ""
}

// readOptionalIntArg extracts an optional integer argument, nil when absent.
func readOptionalIntArg(req mcp.CallToolRequest, key string) *int {
	raw, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}

	var value int
	switch v := raw[key].(type) {
	case int:
		value = v
	case int64:
		value = int(v)
	case float64:
		value = int(v)
	default:
		return nil
	}
	return &value
}

// readStringSliceArg extracts a string list given either as an array or as a comma separated string.
func readStringSliceArg(req mcp.CallToolRequest, key string) []string {
	raw, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}

	var out []string
	switch v := raw[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// readJSONArg re-encodes an argument as raw JSON. A string argument is taken as JSON text.
func readJSONArg(req mcp.CallToolRequest, key string) (json.RawMessage, error) {
	raw, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, nil
	}

	switch v := raw[key].(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return json.RawMessage(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encode argument %s", key)
		}
		return data, nil
	}
}

// credentialsFromArgs reads the optional per-call API parameters.
func credentialsFromArgs(req mcp.CallToolRequest) search.Credentials {
	c := search.Credentials{
		Issuer: strings.TrimSpace(readStringArg(req, "issuer")),
		Reason: strings.TrimSpace(readStringArg(req, "reason")),
	}
	if timeout := readOptionalIntArg(req, "timeout"); timeout != nil {
		c.Timeout = *timeout
	}
	return c
}
