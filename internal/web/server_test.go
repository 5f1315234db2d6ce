package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

var (
	ginModeOnce sync.Once
)

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

type stubProvider struct {
	mu          sync.Mutex
	contentsReq search.ContentsRequest
	tagsReq     search.TagsRequest

	contents *nico.ContentsResult
	tags     *nico.TagsResult
	err      error
}

func (s *stubProvider) Contents(_ context.Context, req search.ContentsRequest) (*nico.ContentsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentsReq = req
	return s.contents, s.err
}

func (s *stubProvider) Tags(_ context.Context, req search.TagsRequest) (*nico.TagsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagsReq = req
	return s.tags, s.err
}

func (s *stubProvider) Related(ctx context.Context, req search.ContentsRequest) (*search.RelatedResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &search.RelatedResult{Contents: s.contents, Tags: s.tags}, nil
}

func newTestEngine(t *testing.T, provider search.Provider, opts ...Option) *gin.Engine {
	t.Helper()
	setupGinTestMode()

	engine, err := NewEngine(provider, opts...)
	require.NoError(t, err)
	return engine
}

func doJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewEngineRequiresProvider(t *testing.T) {
	_, err := NewEngine(nil)
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t, &stubProvider{})

	w := doJSON(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "hello, world", w.Body.String())
}

func TestContentsHandler(t *testing.T) {
	provider := &stubProvider{
		contents: &nico.ContentsResult{Status: 200, Hits: 42, Values: []nico.Content{{"title": "a"}}},
	}
	engine := newTestEngine(t, provider)

	w := doJSON(engine, http.MethodPost, "/api/contents", `{
		"keyword": "vocaloid",
		"fields": ["cmsid", "title"],
		"filters": [{"type":"equal","field":"ppv_type","value":"free"}],
		"size": 0,
		"issuer": "gateway-user"
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":200,"hits":42,"values":[{"title":"a"}]}`, w.Body.String())

	req := provider.contentsReq
	require.Equal(t, "vocaloid", req.Keyword)
	require.Equal(t, []string{"cmsid", "title"}, req.Fields)
	require.JSONEq(t, `[{"type":"equal","field":"ppv_type","value":"free"}]`, string(req.Filters))
	require.Nil(t, req.From)
	require.NotNil(t, req.Size)
	require.Equal(t, 0, *req.Size)
	require.Equal(t, "gateway-user", req.Issuer)
}

type denyAfter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func (d *denyAfter) Allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]int{}
	}
	d.seen[key]++
	return d.seen[key] <= d.limit
}

func TestThrottledSearch(t *testing.T) {
	provider := &stubProvider{tags: &nico.TagsResult{Status: 200, Values: []string{}}}
	throttle := &denyAfter{limit: 1}
	engine := newTestEngine(t, provider, WithThrottle(throttle))

	w := doJSON(engine, http.MethodPost, "/api/tags", `{"keyword":"a"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(engine, http.MethodPost, "/api/tags", `{"keyword":"a"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var rej nico.Rejection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rej))
	require.Equal(t, http.StatusTooManyRequests, rej.Status)
	require.Equal(t, "Too Many Requests", rej.Message)

	w = doJSON(engine, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code, "health is not throttled")
	require.Len(t, throttle.seen, 1)
}

func TestTagsHandler(t *testing.T) {
	provider := &stubProvider{tags: &nico.TagsResult{Status: 200, Values: []string{"x", "y"}}}
	engine := newTestEngine(t, provider)

	w := doJSON(engine, http.MethodPost, "/api/tags", `{"keyword":"miku","service":"video"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":200,"values":["x","y"]}`, w.Body.String())
	require.Equal(t, "video", provider.tagsReq.Service)
}

func TestRelatedHandler(t *testing.T) {
	provider := &stubProvider{
		contents: &nico.ContentsResult{Status: 200, Hits: 1, Values: []nico.Content{}},
		tags:     &nico.TagsResult{Status: 200, Values: []string{"x"}},
	}
	engine := newTestEngine(t, provider)

	w := doJSON(engine, http.MethodPost, "/api/related", `{"keyword":"miku"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{
		"contents": {"status":200,"hits":1,"values":[]},
		"tags": {"status":200,"values":["x"]}
	}`, w.Body.String())
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed body",
			body:       `{"keyword":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad Request",
		},
		{
			name:       "invalid request",
			body:       `{"keyword":"a"}`,
			err:        errors.Wrap(search.ErrInvalidRequest, "unknown order"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad Request",
		},
		{
			name:       "missing credentials",
			body:       `{"keyword":"a"}`,
			err:        &nico.ConfigurationError{Missing: []string{"reason"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "Bad Request",
		},
		{
			name: "api error",
			body: `{"keyword":"a"}`,
			err: errors.WithStack(&nico.APIError{
				Rejection: nico.Rejection{Status: 503, Message: "Service Unavailable", ErrorDescription: "An error has occurred while requesting api"},
				Code:      101,
			}),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Service Unavailable",
		},
		{
			name:       "decode error",
			body:       `{"keyword":"a"}`,
			err:        &nico.DecodeError{Line: 2, Err: errors.New("unexpected end of JSON input")},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
		{
			name:       "unknown error",
			body:       `{"keyword":"a"}`,
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, &stubProvider{err: tt.err})

			w := doJSON(engine, http.MethodPost, "/api/contents", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)

			var rej nico.Rejection
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rej))
			require.Equal(t, tt.wantStatus, rej.Status)
			require.Equal(t, tt.wantError, rej.Message)
			require.NotEmpty(t, rej.ErrorDescription)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "nicosearch_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	engine := newTestEngine(t, &stubProvider{}, WithMetrics(reg))
	w := doJSON(engine, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "nicosearch_test_total 1")
}

func TestMCPMount(t *testing.T) {
	engine := newTestEngine(t, &stubProvider{}, WithMCPHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})))

	w := doJSON(engine, http.MethodPost, "/mcp", `{}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(newTestEngine(t, &stubProvider{}), http.MethodPost, "/mcp", `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAllowCORS(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectedCORS   bool
	}{
		{name: "No origin header", method: "GET", expectedStatus: http.StatusOK},
		{name: "Allowed subdomain", method: "GET", origin: "https://app.example.com", expectedStatus: http.StatusOK, expectedCORS: true},
		{name: "Allowed main domain", method: "POST", origin: "https://example.com", expectedStatus: http.StatusOK, expectedCORS: true},
		{name: "Allowed preflight", method: "OPTIONS", origin: "https://app.example.com", expectedStatus: http.StatusNoContent, expectedCORS: true},
		{name: "Disallowed preflight", method: "OPTIONS", origin: "https://evil.com", expectedStatus: http.StatusForbidden},
		{name: "Disallowed GET", method: "GET", origin: "https://evil.com", expectedStatus: http.StatusOK},
		{name: "Suffix lookalike", method: "GET", origin: "https://notexample.com", expectedStatus: http.StatusOK},
		{name: "Case insensitive", method: "GET", origin: "https://App.EXAMPLE.com", expectedStatus: http.StatusOK, expectedCORS: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(allowCORS([]string{"example.com"}))
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch")
			if tt.expectedCORS {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "Origin", w.Header().Get("Vary"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
