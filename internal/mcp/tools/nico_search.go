package tools

import (
	"context"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

// ContentsSearcher runs contents searches.
type ContentsSearcher interface {
	Contents(ctx context.Context, req search.ContentsRequest) (*nico.ContentsResult, error)
}

// TagsSearcher runs related tags searches.
type TagsSearcher interface {
	Tags(ctx context.Context, req search.TagsRequest) (*nico.TagsResult, error)
}

// ContentsSearchTool implements the nico_contents_search MCP tool.
type ContentsSearchTool struct {
	searcher ContentsSearcher
	logger   logSDK.Logger
}

// NewContentsSearchTool constructs a ContentsSearchTool.
func NewContentsSearchTool(searcher ContentsSearcher, logger logSDK.Logger) (*ContentsSearchTool, error) {
	if searcher == nil {
		return nil, errors.New("contents searcher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &ContentsSearchTool{searcher: searcher, logger: logger}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *ContentsSearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"nico_contents_search",
		mcp.WithDescription("Search niconico videos or live programs and return the hit count and the selected fields of each hit."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Search keyword.")),
		mcp.WithString("service", mcp.Description("Searched service, video by default.")),
		mcp.WithArray("targets",
			mcp.Description("Fields matched against the keyword, title by default."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("fields",
			mcp.Description("Fields returned for every hit, cmsid by default."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("filters",
			mcp.Description(`Filters like {"type":"equal","field":"ppv_type","value":"free"} or {"type":"range","field":"view_counter","from":1000}.`),
		),
		mcp.WithString("sort_by", mcp.Description("Sort field, view_counter by default.")),
		mcp.WithString("order", mcp.Description("asc or desc."), mcp.Enum("asc", "desc")),
		mcp.WithNumber("from", mcp.Description("Offset of the first hit.")),
		mcp.WithNumber("size", mcp.Description("Number of hits, 10 by default.")),
		mcp.WithString("issuer", mcp.Description("Overrides the configured issuer.")),
		mcp.WithString("reason", mcp.Description("Overrides the configured reason.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle runs the contents search.
func (t *ContentsSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return mcp.NewToolResultError("keyword cannot be empty"), nil
	}

	filters, err := readJSONArg(req, "filters")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	logger := toolLoggerFromContext(ctx, t.logger).With(zap.String("tool", "nico_contents_search"))
	start := time.Now()

	result, err := t.searcher.Contents(ctx, search.ContentsRequest{
		Keyword:     keyword,
		Service:     strings.TrimSpace(readStringArg(req, "service")),
		Targets:     readStringSliceArg(req, "targets"),
		Fields:      readStringSliceArg(req, "fields"),
		Filters:     filters,
		SortBy:      strings.TrimSpace(readStringArg(req, "sort_by")),
		Order:       strings.TrimSpace(readStringArg(req, "order")),
		From:        readOptionalIntArg(req, "from"),
		Size:        readOptionalIntArg(req, "size"),
		Credentials: credentialsFromArgs(req),
	})
	if err != nil {
		logger.Warn("contents search failed", zap.Error(err))
		return toolErrorFromErr(err), nil
	}

	logger.Debug("contents search completed",
		zap.Int64("hits", result.Hits),
		zap.Int("values", len(result.Values)),
		zap.Duration("duration", time.Since(start)),
	)

	toolResult, err := mcp.NewToolResultJSON(result)
	if err != nil {
		logger.Error("encode contents result", zap.Error(err))
		return mcp.NewToolResultError("failed to encode search result"), nil
	}
	return toolResult, nil
}

// TagsSearchTool implements the nico_tags_search MCP tool.
type TagsSearchTool struct {
	searcher TagsSearcher
	logger   logSDK.Logger
}

// NewTagsSearchTool constructs a TagsSearchTool.
func NewTagsSearchTool(searcher TagsSearcher, logger logSDK.Logger) (*TagsSearchTool, error) {
	if searcher == nil {
		return nil, errors.New("tags searcher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &TagsSearchTool{searcher: searcher, logger: logger}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *TagsSearchTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"nico_tags_search",
		mcp.WithDescription("List the niconico tags related to a keyword."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Search keyword.")),
		mcp.WithString("service", mcp.Description("Service whose tags are searched, video by default.")),
		mcp.WithNumber("from", mcp.Description("Offset of the first tag.")),
		mcp.WithNumber("size", mcp.Description("Number of tags, 10 by default.")),
		mcp.WithString("issuer", mcp.Description("Overrides the configured issuer.")),
		mcp.WithString("reason", mcp.Description("Overrides the configured reason.")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Handle runs the related tags search.
func (t *TagsSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return mcp.NewToolResultError("keyword cannot be empty"), nil
	}

	service := strings.TrimSpace(readStringArg(req, "service"))
	if service == "" {
		service = "video"
	}

	logger := toolLoggerFromContext(ctx, t.logger).With(zap.String("tool", "nico_tags_search"))
	result, err := t.searcher.Tags(ctx, search.TagsRequest{
		Keyword:     keyword,
		Service:     service,
		From:        readOptionalIntArg(req, "from"),
		Size:        readOptionalIntArg(req, "size"),
		Credentials: credentialsFromArgs(req),
	})
	if err != nil {
		logger.Warn("tags search failed", zap.Error(err))
		return toolErrorFromErr(err), nil
	}

	toolResult, err := mcp.NewToolResultJSON(result)
	if err != nil {
		logger.Error("encode tags result", zap.Error(err))
		return mcp.NewToolResultError("failed to encode search result"), nil
	}
	return toolResult, nil
}
