package nico

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportPost(t *testing.T) {
	var gotPath, gotMethod, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		_, _ = io.WriteString(w, `{"type":"stats","values":[{"total":1}]}`+"\n")
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL + "/")
	require.NoError(t, err)

	body, err := tr.Post(context.Background(), PathTags, []byte(`{"query":"x"}`), time.Second)
	require.NoError(t, err)
	require.Contains(t, string(body), `"total":1`)

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/api/tag/", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, `{"query":"x"}`, gotBody)
}

func TestHTTPTransportNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)

	_, err = tr.Post(context.Background(), PathContents, []byte(`{}`), time.Second)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, http.StatusBadGateway, transportErr.Status)
	require.Equal(t, "Bad Gateway", transportErr.Message)
	require.Equal(t, requestErrorDescription, transportErr.ErrorDescription)
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr, err := NewHTTPTransport(srv.URL)
	require.NoError(t, err)

	_, err = tr.Post(context.Background(), PathContents, []byte(`{}`), 50*time.Millisecond)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, http.StatusGatewayTimeout, transportErr.Status)
}

func TestHTTPTransportUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	tr, err := NewHTTPTransport(addr)
	require.NoError(t, err)

	_, err = tr.Post(context.Background(), PathContents, []byte(`{}`), time.Second)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, http.StatusServiceUnavailable, rej.Status)
}

func TestNewHTTPTransportRejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPTransport("api.search.nicovideo.jp")
	require.Error(t, err)
}

func TestContentsSearchOverHTTP(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"type":"hits","values":[{"_rowid":7,"cmsid":"sm1"}]}`+"\n"+
			`{"type":"stats","values":[{"total":1}]}`+"\n")
	}))
	defer srv.Close()

	s, err := NewContentsSearch(testOptions, WithBaseURL(srv.URL))
	require.NoError(t, err)

	res, err := s.Fetch(context.Background()).Wait(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Hits)
	require.Equal(t, []Content{{"cmsid": "sm1"}}, res.Values)
	require.Equal(t, "/api/", gotPath)
}

func TestTruncateForLog(t *testing.T) {
	s, truncated := truncateForLog([]byte("abcdef"), 3)
	require.Equal(t, "abc", s)
	require.True(t, truncated)

	s, truncated = truncateForLog([]byte("ab"), 3)
	require.Equal(t, "ab", s)
	require.False(t, truncated)
}
