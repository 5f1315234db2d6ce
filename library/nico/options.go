package nico

import (
	"net/http"
	"strings"
	"time"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Laisky/nicosearch/library/log"
)

// Options are the API parameters every search request carries.
type Options struct {
	// Issuer names the service or application sending the request. Required.
	Issuer string `json:"issuer"`
	// Reason names the contest or event the request is made for. Required.
	Reason string `json:"reason"`
	// Timeout is the request timeout in milliseconds, DefaultTimeout when <= 0.
	Timeout int `json:"timeout"`
}

func (o Options) timeout() int {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// validate reports the missing credentials as a *ConfigurationError.
func (o Options) validate() error {
	var missing []string
	if strings.TrimSpace(o.Issuer) == "" {
		missing = append(missing, "issuer")
	}
	if strings.TrimSpace(o.Reason) == "" {
		missing = append(missing, "reason")
	}
	if len(missing) != 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ClientOption customises how a search builder talks to the API.
type ClientOption func(*clientConfig)

type clientConfig struct {
	transport  Transport
	baseURL    string
	httpClient *http.Client
	logger     logSDK.Logger
	metricsReg prometheus.Registerer
}

// WithTransport replaces the HTTP transport, primarily for testing.
func WithTransport(t Transport) ClientOption {
	return func(c *clientConfig) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithBaseURL overrides the API host used by the default transport.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithHTTPClient overrides the HTTP client used by the default transport.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger overrides the fallback logger used when no contextual logger is present.
func WithLogger(logger logSDK.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrometheus registers request metrics on reg.
func WithPrometheus(reg prometheus.Registerer) ClientOption {
	return func(c *clientConfig) {
		c.metricsReg = reg
	}
}

// client is the transport side shared by both builder kinds.
type client struct {
	transport Transport
	logger    logSDK.Logger
	obs       *observer
}

func newClient(opts []ClientOption) (*client, error) {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		logger:  log.Logger.Named("nico"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	transport := cfg.transport
	if transport == nil {
		httpTransport, err := NewHTTPTransport(cfg.baseURL,
			WithTransportHTTPClient(cfg.httpClient),
			WithTransportLogger(cfg.logger.Named("transport")),
		)
		if err != nil {
			return nil, err
		}
		transport = httpTransport
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &client{
		transport: transport,
		logger:    cfg.logger,
		obs:       obs,
	}, nil
}

func timeoutDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
