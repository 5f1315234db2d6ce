// Package web is the HTTP gateway in front of the search service.
package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

// Option customises the gateway engine.
type Option func(*options)

type options struct {
	logger         logSDK.Logger
	gatherer       prometheus.Gatherer
	mcpHandler     http.Handler
	allowedDomains []string
	throttle       Throttle
}

// Throttle decides whether a client may search now.
type Throttle interface {
	Allow(key string) bool
}

// WithThrottle rate limits the search routes per client IP.
func WithThrottle(throttle Throttle) Option {
	return func(o *options) {
		o.throttle = throttle
	}
}

// WithLogger overrides the logger attached to every request.
func WithLogger(logger logSDK.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics exposes the collectors of gatherer on /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = gatherer
	}
}

// WithMCPHandler mounts handler on /mcp.
func WithMCPHandler(handler http.Handler) Option {
	return func(o *options) {
		o.mcpHandler = handler
	}
}

// WithAllowedDomains enables CORS for the given domains and their subdomains.
func WithAllowedDomains(domains ...string) Option {
	return func(o *options) {
		for _, d := range domains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				o.allowedDomains = append(o.allowedDomains, d)
			}
		}
	}
}

// NewEngine builds the gateway routes around provider.
func NewEngine(provider search.Provider, opts ...Option) (*gin.Engine, error) {
	if provider == nil {
		return nil, errors.New("search provider is required")
	}

	o := &options{logger: log.Logger.Named("gin")}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(o.logger.Level().String()),
			gmw.WithLogger(o.logger),
		),
		allowCORS(o.allowedDomains),
	)

	server.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "hello, world")
	})

	if o.gatherer != nil {
		server.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{provider: provider}
	api := server.Group("/api")
	if o.throttle != nil {
		api.Use(throttleMiddleware(o.throttle))
	}
	api.POST("/contents", h.contents)
	api.POST("/tags", h.tags)
	api.POST("/related", h.related)

	if o.mcpHandler != nil {
		server.Any("/mcp", gmw.FromStd(o.mcpHandler.ServeHTTP))
	}

	return server, nil
}

// RunServer serves engine on addr until it fails.
func RunServer(addr string, engine *gin.Engine) error {
	log.Logger.Info("listening on http", zap.String("addr", addr))
	return errors.Wrap(engine.Run(addr), "http server exit")
}

// allowCORS answers cross-origin requests from the allowed domains and their subdomains.
func allowCORS(domains []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		allowedOrigin := ""

		if origin != "" {
			if parsedOriginURL, err := url.Parse(origin); err == nil {
				host := strings.ToLower(parsedOriginURL.Hostname())
				for _, d := range domains {
					if host == d || strings.HasSuffix(host, "."+d) {
						allowedOrigin = origin
						break
					}
				}
			}
		}

		if allowedOrigin != "" {
			ctx.Header("Access-Control-Allow-Origin", allowedOrigin)
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Mcp-Session-Id")
			ctx.Header("Access-Control-Max-Age", "86400")
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			// preflight from a disallowed origin
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}

// throttleMiddleware rejects clients that exceed their search rate with 429.
func throttleMiddleware(throttle Throttle) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if throttle.Allow(ctx.ClientIP()) {
			ctx.Next()
			return
		}

		gmw.GetLogger(ctx).Debug("search throttled", zap.String("client", ctx.ClientIP()))
		ctx.AbortWithStatusJSON(http.StatusTooManyRequests, nico.Rejection{
			Status:           http.StatusTooManyRequests,
			Message:          http.StatusText(http.StatusTooManyRequests),
			ErrorDescription: "too many search requests, retry later",
		})
	}
}
