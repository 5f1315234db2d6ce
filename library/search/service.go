// Package search runs niconico searches on behalf of the CLI, the HTTP gateway and the MCP tools.
package search

import (
	"bytes"
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"

	appLog "github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/nico"
)

// defaultRelatedService is the tag service queried by Related when the request names none.
const defaultRelatedService = "video"

// ErrInvalidRequest marks a request rejected before any API call.
var ErrInvalidRequest = errors.New("invalid search request")

// Provider is the search capability used by handlers and tools.
type Provider interface {
	Contents(ctx context.Context, req ContentsRequest) (*nico.ContentsResult, error)
	Tags(ctx context.Context, req TagsRequest) (*nico.TagsResult, error)
	Related(ctx context.Context, req ContentsRequest) (*RelatedResult, error)
}

// ServiceOption customises a Service during construction.
type ServiceOption func(*Service)

// WithLogger overrides the fallback logger used when no contextual logger is available.
func WithLogger(logger logSDK.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClientOptions appends options passed to every search builder.
func WithClientOptions(opts ...nico.ClientOption) ServiceOption {
	return func(s *Service) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// Service builds one search builder per request from its defaults.
type Service struct {
	defaults   nico.Options
	clientOpts []nico.ClientOption
	logger     logSDK.Logger
}

// NewService constructs a Service. defaults may lack issuer or reason
// as long as every request supplies them.
func NewService(defaults nico.Options, opts ...ServiceOption) *Service {
	s := &Service{
		defaults: defaults,
		logger:   appLog.Logger.Named("search_service"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// options merges per-request credentials over the defaults.
func (s *Service) options(c Credentials) (nico.Options, error) {
	opts := s.defaults
	if err := copier.CopyWithOption(&opts, &c, copier.Option{IgnoreEmpty: true}); err != nil {
		return opts, errors.Wrap(err, "copy credentials")
	}
	return opts, nil
}

func (s *Service) ctxLogger(ctx context.Context) logSDK.Logger {
	if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
		return ctxLogger.Named("search_service")
	}
	return s.logger
}

// Contents runs a contents search and waits for its result.
func (s *Service) Contents(ctx context.Context, req ContentsRequest) (*nico.ContentsResult, error) {
	builder, err := s.contentsSearch(req)
	if err != nil {
		return nil, err
	}

	s.ctxLogger(ctx).Debug("contents search",
		zap.String("keyword", req.Keyword),
		zap.String("service", req.Service))
	return builder.Fetch(ctx).Wait(ctx)
}

// Tags runs a related tags search and waits for its result.
func (s *Service) Tags(ctx context.Context, req TagsRequest) (*nico.TagsResult, error) {
	builder, err := s.tagsSearch(req)
	if err != nil {
		return nil, err
	}

	s.ctxLogger(ctx).Debug("tags search",
		zap.String("keyword", req.Keyword),
		zap.String("service", req.Service))
	return builder.Fetch(ctx).Wait(ctx)
}

// Related runs a contents search and a tags search for the same keyword concurrently.
// It fails if either search fails.
func (s *Service) Related(ctx context.Context, req ContentsRequest) (*RelatedResult, error) {
	contents, err := s.contentsSearch(req)
	if err != nil {
		return nil, err
	}
	tagService := req.Service
	if tagService == "" {
		tagService = defaultRelatedService
	}
	tags, err := s.tagsSearch(TagsRequest{
		Keyword:     req.Keyword,
		Service:     tagService,
		Credentials: req.Credentials,
	})
	if err != nil {
		return nil, err
	}

	result := new(RelatedResult)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		result.Contents, err = contents.Fetch(gctx).Wait(gctx)
		return err
	})
	g.Go(func() (err error) {
		result.Tags, err = tags.Fetch(gctx).Wait(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) contentsSearch(req ContentsRequest) (*nico.ContentsSearch, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "keyword cannot be empty")
	}

	order := nico.Order(strings.ToLower(strings.TrimSpace(req.Order)))
	switch order {
	case "", nico.OrderAsc, nico.OrderDesc:
	default:
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown order %q", req.Order)
	}

	var filters []nico.Filter
	if raw := bytes.TrimSpace(req.Filters); len(raw) != 0 && string(raw) != "null" {
		var err error
		if filters, err = nico.ParseFilters(raw); err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "parse filters: %v", err)
		}
	}

	opts, err := s.options(req.Credentials)
	if err != nil {
		return nil, err
	}
	builder, err := nico.NewContentsSearch(opts, s.clientOpts...)
	if err != nil {
		return nil, err
	}

	builder.Keyword(keyword)
	if req.Service != "" {
		builder.Service(req.Service)
	}
	if len(req.Targets) != 0 {
		builder.Target(req.Targets)
	}
	if len(req.Fields) != 0 {
		builder.Select(req.Fields)
	}
	if filters != nil {
		builder.Filter(filters)
	}
	if req.SortBy != "" {
		builder.Sort(req.SortBy, order)
	}
	if req.From != nil {
		builder.From(*req.From)
	}
	if req.Size != nil {
		builder.Size(*req.Size)
	}

	return builder, nil
}

func (s *Service) tagsSearch(req TagsRequest) (*nico.TagsSearch, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "keyword cannot be empty")
	}

	opts, err := s.options(req.Credentials)
	if err != nil {
		return nil, err
	}
	builder, err := nico.NewTagsSearch(opts, s.clientOpts...)
	if err != nil {
		return nil, err
	}

	builder.Keyword(keyword)
	if req.Service != "" {
		builder.Service(req.Service)
	}
	if req.From != nil {
		builder.From(*req.From)
	}
	if req.Size != nil {
		builder.Size(*req.Size)
	}

	return builder, nil
}
