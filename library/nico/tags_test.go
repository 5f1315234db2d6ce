package nico

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestNewTagsSearchRequiresCredentials(t *testing.T) {
	tr := &captureTransport{}
	s, err := NewTagsSearch(Options{Issuer: "app"}, WithTransport(tr))
	require.Nil(t, s)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, []string{"reason"}, cfgErr.Missing)
	require.Zero(t, tr.calls.Load())
}

func TestTagsSearchDefaults(t *testing.T) {
	s, err := NewTagsSearch(testOptions, WithTransport(&captureTransport{}))
	require.NoError(t, err)

	data, err := json.Marshal(s.Query())
	require.NoError(t, err)
	require.JSONEq(t, `{
		"query": "keyword",
		"service": ["video"],
		"from": 0,
		"size": 10,
		"timeout": 3000,
		"issuer": "test-app",
		"reason": "unit-test"
	}`, string(data))
}

func TestTagsSearchServicePrefix(t *testing.T) {
	s, err := NewTagsSearch(testOptions, WithTransport(&captureTransport{}))
	require.NoError(t, err)

	require.Same(t, s, s.Service("video").Keyword("vocaloid").From(5).Size(3))

	q := s.Query()
	require.Equal(t, []string{"tag_video"}, q.Service)
	require.Equal(t, "vocaloid", q.Query)
	require.Equal(t, 5, q.From)
	require.Equal(t, 3, q.Size)

	s.Service("live")
	require.Equal(t, []string{"tag_live"}, s.Query().Service)
}

func TestTagsSearchFetch(t *testing.T) {
	tr := &captureTransport{
		respBody: `{"type":"tags","values":[{"tag":"x"},{"tag":"y"}]}` + "\n",
	}
	s, err := NewTagsSearch(Options{Issuer: "a", Reason: "b", Timeout: 1500}, WithTransport(tr))
	require.NoError(t, err)

	res, err := s.Service("video").Fetch(context.Background()).Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
	require.Equal(t, []string{"x", "y"}, res.Values)

	require.Equal(t, PathTags, tr.path)
	require.Equal(t, 1500*time.Millisecond, tr.timeout)
	require.Contains(t, string(tr.body), `"service":["tag_video"]`)
}

func TestTagsSearchFetchAPIError(t *testing.T) {
	tr := &captureTransport{respBody: `{"errid":1001}`}
	s, err := NewTagsSearch(testOptions, WithTransport(tr))
	require.NoError(t, err)

	_, err = s.Fetch(context.Background()).Wait(context.Background())
	rej, ok := AsRejection(err)
	require.True(t, ok)
	require.Equal(t, 504, rej.Status)
	require.Equal(t, "Gateway Timeout", rej.Message)
}
