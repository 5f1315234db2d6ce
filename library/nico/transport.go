package nico

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/nicosearch/library/log"
)

const (
	// DefaultBaseURL is the host of the niconico search API.
	DefaultBaseURL = "http://api.search.nicovideo.jp"

	// PathContents is the contents search endpoint.
	PathContents = "/api/"
	// PathTags is the related tags search endpoint.
	PathTags = "/api/tag/"

	// httpClientTimeout only bounds requests posted without a timeout.
	httpClientTimeout = 30 * time.Second
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit = 4096
)

// Transport posts a serialized query and returns the raw response body.
// Implementations fail with a *TransportError on network failure or a non-200 status.
type Transport interface {
	Post(ctx context.Context, path string, body []byte, timeout time.Duration) ([]byte, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, path string, body []byte, timeout time.Duration) ([]byte, error)

// Post calls f.
func (f TransportFunc) Post(ctx context.Context, path string, body []byte, timeout time.Duration) ([]byte, error) {
	return f(ctx, path, body, timeout)
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithTransportHTTPClient overrides the HTTP client.
func WithTransportHTTPClient(client *http.Client) TransportOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTransportLogger overrides the logger used when no contextual logger is present.
func WithTransportLogger(logger logSDK.Logger) TransportOption {
	return func(t *HTTPTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// HTTPTransport posts queries to the search API over HTTP.
type HTTPTransport struct {
	baseURL *url.URL
	client  *http.Client
	logger  logSDK.Logger
}

// NewHTTPTransport builds a transport for the API host at baseURL.
func NewHTTPTransport(baseURL string, opts ...TransportOption) (*HTTPTransport, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base url %q", baseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	t := &HTTPTransport{
		baseURL: u,
		logger:  log.Logger.Named("nico_transport"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	if t.client == nil {
		if t.client, err = gutils.NewHTTPClient(
			gutils.WithHTTPClientTimeout(httpClientTimeout),
		); err != nil {
			return nil, errors.Wrap(err, "new http client")
		}
	}

	return t, nil
}

// Post sends body to path and returns the response body of a 200 response.
func (t *HTTPTransport) Post(ctx context.Context, path string, body []byte, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	endpoint := t.baseURL.JoinPath(path)
	// JoinPath drops the trailing slash the API paths rely on
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(endpoint.Path, "/") {
		endpoint.Path += "/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "create request to `%s`", endpoint.String())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson, application/json")

	logger := t.logger
	logger.Debug("outgoing http request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.ByteString("body", body),
		zap.Duration("timeout", timeout),
	)

	startAt := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.WithStack(networkError(err))
	}
	defer gutils.CloseWithLog(resp.Body, logger)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WithStack(networkError(err))
	}

	truncatedBody, truncated := truncateForLog(respBody, logBodyLimit)
	logger.Debug("incoming http response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncatedBody),
		zap.Bool("body_truncated", truncated),
		zap.Duration("cost", time.Since(startAt)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithStack(
			newTransportError(resp.StatusCode, statusText(resp), nil))
	}

	return respBody, nil
}

// networkError classifies a failed round trip. Timeouts map to 504,
// every other failure to 503.
func networkError(err error) *TransportError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return newTransportError(http.StatusGatewayTimeout,
			http.StatusText(http.StatusGatewayTimeout), err)
	}
	return newTransportError(http.StatusServiceUnavailable,
		http.StatusText(http.StatusServiceUnavailable), err)
}

// statusText returns the reason phrase sent by the server.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// truncateForLog limits the payload logged for debugging and reports whether truncation occurred.
func truncateForLog(body []byte, limit int) (string, bool) {
	if len(body) <= limit {
		return string(body), false
	}
	return string(body[:limit]), true
}
