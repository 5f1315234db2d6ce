package mcp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/nicosearch/library/log"
	"github.com/Laisky/nicosearch/library/nico"
	"github.com/Laisky/nicosearch/library/search"
)

type stubProvider struct{}

func (stubProvider) Contents(context.Context, search.ContentsRequest) (*nico.ContentsResult, error) {
	return &nico.ContentsResult{Status: 200, Values: []nico.Content{}}, nil
}

func (stubProvider) Tags(context.Context, search.TagsRequest) (*nico.TagsResult, error) {
	return &nico.TagsResult{Status: 200, Values: []string{}}, nil
}

func (stubProvider) Related(context.Context, search.ContentsRequest) (*search.RelatedResult, error) {
	return &search.RelatedResult{}, nil
}

func TestNewServerRequiresProvider(t *testing.T) {
	_, err := NewServer(nil, log.Logger)
	require.Error(t, err)
}

func TestServerInitialize(t *testing.T) {
	s, err := NewServer(stubProvider{}, log.Logger.Named("test_mcp"))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2025-03-26","capabilities":{},` +
		`"clientInfo":{"name":"test","version":"1.0.0"}}}`
	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.Contains(t, string(data), serverName)
}
