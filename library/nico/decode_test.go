package nico

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestDecodeContentsStripsRowID(t *testing.T) {
	body := `{"type":"stats","values":[{"total":42}]}` + "\n" +
		`{"type":"hits","values":[{"_rowid":1,"title":"a"}]}` + "\n"

	res, err := DecodeContents(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
	require.Empty(t, res.StatusText)
	require.EqualValues(t, 42, res.Hits)
	require.Equal(t, []Content{{"title": "a"}}, res.Values)
}

func TestDecodeContentsKeepsServerOrderAndNumbers(t *testing.T) {
	body := `{"type":"hits","values":[` +
		`{"_rowid":3,"cmsid":"sm9","view_counter":12345678901234},` +
		`{"_rowid":1,"cmsid":"sm1","view_counter":7}]}`

	res, err := DecodeContents(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Values, 2)
	require.Equal(t, "sm9", res.Values[0]["cmsid"])
	require.Equal(t, json.Number("12345678901234"), res.Values[0]["view_counter"])
	require.Equal(t, "sm1", res.Values[1]["cmsid"])
	require.EqualValues(t, 0, res.Hits)
}

func TestDecodeContentsErrorChunkOverridesStatus(t *testing.T) {
	body := strings.Join([]string{
		`{"type":"stats","values":[{"total":3}]}`,
		`{"errid":101}`,
		`{"type":"hits","values":[{"title":"a"}]}`,
	}, "\n")

	res, err := DecodeContents(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 503, res.Status)
	require.Equal(t, "Service Unavailable", res.StatusText)
	st, code := res.translated()
	require.Equal(t, 503, st.Code)
	require.Equal(t, 101, code)
}

func TestDecodeContentsLastErrorChunkWins(t *testing.T) {
	body := `{"errid":300}` + "\n" + `{"errid":"1001"}` + "\n"

	res, err := DecodeContents(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 504, res.Status)
	require.Equal(t, "Gateway Timeout", res.StatusText)
}

func TestDecodeContentsUnknownErrID(t *testing.T) {
	res, err := DecodeContents(strings.NewReader(`{"errid":9999}`))
	require.NoError(t, err)
	require.Equal(t, 500, res.Status)
	require.Equal(t, "Internal Server Error", res.StatusText)
}

func TestDecodeContentsFalsyErrIDIgnored(t *testing.T) {
	res, err := DecodeContents(strings.NewReader(`{"errid":0}` + "\n" + `{"errid":""}`))
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
}

func TestDecodeContentsEmptyBody(t *testing.T) {
	res, err := DecodeContents(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
	require.EqualValues(t, 0, res.Hits)
	require.NotNil(t, res.Values)
	require.Empty(t, res.Values)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":200,"hits":0,"values":[]}`, string(data))
}

func TestDecodeContentsSkipsBlankLines(t *testing.T) {
	body := "\n\r\n   \n" + `{"type":"stats","values":[{"total":1}]}` + "\r\n\n"

	res, err := DecodeContents(strings.NewReader(body))
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Hits)
}

func TestDecodeContentsMalformedLine(t *testing.T) {
	body := `{"type":"stats","values":[{"total":1}]}` + "\n" + `{"type":"hits",` + "\n"

	res, err := DecodeContents(strings.NewReader(body))
	require.Error(t, err)
	require.Nil(t, res)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 2, decodeErr.Line)
}

func TestDecodeContentsLongLine(t *testing.T) {
	title := strings.Repeat("x", 200*1024)
	body := `{"type":"hits","values":[{"title":"` + title + `"}]}`

	res, err := DecodeContents(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, title, res.Values[0]["title"])
}

func TestDecodeTagsFlattens(t *testing.T) {
	body := `{"type":"tags","values":[{"tag":"x"},{"tag":"y"}]}` + "\n"

	res, err := DecodeTags(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 200, res.Status)
	require.Equal(t, []string{"x", "y"}, res.Values)
}

func TestDecodeTagsDefaultsAndErrors(t *testing.T) {
	res, err := DecodeTags(strings.NewReader(`{"type":"stats","values":[{"total":1}]}`))
	require.NoError(t, err)
	require.Equal(t, []string{}, res.Values)

	res, err = DecodeTags(strings.NewReader(`{"errid":300}`))
	require.NoError(t, err)
	require.Equal(t, 400, res.Status)
	require.Equal(t, "Bad Request", res.StatusText)

	_, err = DecodeTags(strings.NewReader(`not json`))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 1, decodeErr.Line)
}

func TestDecodeContentsToleratesUnexpectedShapes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantHits   int64
		wantValues []Content
	}{
		{
			name:       "unknown chunk with object values",
			body:       `{"type":"other","values":{"a":1}}`,
			wantStatus: 200,
			wantValues: []Content{},
		},
		{
			name:       "array line",
			body:       "[1,2]\n" + `{"type":"stats","values":[{"total":7}]}`,
			wantStatus: 200,
			wantHits:   7,
			wantValues: []Content{},
		},
		{
			name:       "scalar lines",
			body:       "5\n\"text\"\nnull\ntrue",
			wantStatus: 200,
			wantValues: []Content{},
		},
		{
			name:       "numeric type",
			body:       `{"type":5,"values":[{"total":3}]}`,
			wantStatus: 200,
			wantValues: []Content{},
		},
		{
			name:       "stats values not an array",
			body:       `{"type":"stats","values":{"total":3}}`,
			wantStatus: 200,
			wantValues: []Content{},
		},
		{
			name:       "quoted stats total",
			body:       `{"type":"stats","values":[{"total":"42"}]}`,
			wantStatus: 200,
			wantHits:   42,
			wantValues: []Content{},
		},
		{
			name:       "exponent stats total",
			body:       `{"type":"stats","values":[{"total":1.5e3}]}`,
			wantStatus: 200,
			wantHits:   1500,
			wantValues: []Content{},
		},
		{
			name:       "unusable stats total",
			body:       `{"type":"stats","values":[{"total":"many"}]}` + "\n" + `{"type":"stats","values":[5]}`,
			wantStatus: 200,
			wantValues: []Content{},
		},
		{
			name:       "hits that are not objects are dropped",
			body:       `{"type":"hits","values":[1,"x",null,{"_rowid":2,"title":"a"}]}`,
			wantStatus: 200,
			wantValues: []Content{{"title": "a"}},
		},
		{
			name:       "integral float errid",
			body:       `{"errid":101.0}`,
			wantStatus: 503,
			wantValues: []Content{},
		},
		{
			name:       "fractional errid",
			body:       `{"errid":101.5}`,
			wantStatus: 500,
			wantValues: []Content{},
		},
		{
			name:       "zero float errid is falsy",
			body:       `{"errid":0.0}`,
			wantStatus: 200,
			wantValues: []Content{},
		},
		{
			name:       "boolean errid",
			body:       `{"errid":true}`,
			wantStatus: 500,
			wantValues: []Content{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeContents(strings.NewReader(tt.body))
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, res.Status)
			require.Equal(t, tt.wantHits, res.Hits)
			require.Equal(t, tt.wantValues, res.Values)
		})
	}
}

func TestDecodeContentsInvalidNonObjectLine(t *testing.T) {
	_, err := DecodeContents(strings.NewReader(`{"type":"stats","values":[]}` + "\n" + `[1,`))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 2, decodeErr.Line)
}

func TestDecodeTagsToleratesUnexpectedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "tags values not an array",
			body: `{"type":"tags","values":{"tag":"x"}}`,
			want: []string{},
		},
		{
			name: "items without a usable tag are dropped",
			body: `{"type":"tags","values":[{"tag":"x"},5,{"tag":null},{"name":"y"},{"tag":39}]}`,
			want: []string{"x", "39"},
		},
		{
			name: "array line",
			body: "[\"tag\"]\n" + `{"type":"tags","values":[{"tag":"y"}]}`,
			want: []string{"y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeTags(strings.NewReader(tt.body))
			require.NoError(t, err)
			require.Equal(t, 200, res.Status)
			require.Equal(t, tt.want, res.Values)
		})
	}
}
