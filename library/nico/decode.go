package nico

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
)

// rowIDField is the internal row identifier stripped from every hit.
const rowIDField = "_rowid"

// Content is one search hit, keyed by the joined field names.
type Content map[string]any

// ContentsResult is the normalized outcome of a contents search.
type ContentsResult struct {
	Status     int       `json:"status"`
	StatusText string    `json:"statusText,omitempty"`
	Hits       int64     `json:"hits"`
	Values     []Content `json:"values"`

	errID int
}

// TagsResult is the normalized outcome of a related tags search.
type TagsResult struct {
	Status     int      `json:"status"`
	StatusText string   `json:"statusText,omitempty"`
	Values     []string `json:"values"`

	errID int
}

type chunkKind int

const (
	chunkOther chunkKind = iota
	chunkStats
	chunkHits
	chunkTags
	chunkError
)

// rawChunk is one line of the response body. Fields stay raw so that
// well-formed lines of an unexpected shape are ignored rather than rejected.
type rawChunk struct {
	Type   json.RawMessage `json:"type"`
	Values json.RawMessage `json:"values"`
	ErrID  json.RawMessage `json:"errid"`
}

// kind resolves the chunk variant and, for typed chunks, its values.
// A typed chunk without a values array falls through to the errid check.
func (c *rawChunk) kind() (chunkKind, []json.RawMessage) {
	var typ string
	if err := json.Unmarshal(c.Type, &typ); err == nil {
		var k chunkKind
		switch typ {
		case "stats":
			k = chunkStats
		case "hits":
			k = chunkHits
		case "tags":
			k = chunkTags
		}

		var values []json.RawMessage
		if k != chunkOther && json.Unmarshal(c.Values, &values) == nil && values != nil {
			return k, values
		}
	}

	if c.hasErrID() {
		return chunkError, nil
	}
	return chunkOther, nil
}

// hasErrID reports whether errid is present and truthy.
func (c *rawChunk) hasErrID() bool {
	raw := bytes.TrimSpace(c.ErrID)
	switch string(raw) {
	case "", "null", "false", `""`:
		return false
	}

	var n json.Number
	if len(raw) != 0 && raw[0] != '"' && json.Unmarshal(raw, &n) == nil {
		if f, err := n.Float64(); err == nil && f == 0 {
			return false
		}
	}
	return true
}

// errCode parses errid. Numbers must be integral and strings must spell an
// integer; anything else yields 0, which translates to the generic server error.
func (c *rawChunk) errCode() int {
	raw := bytes.TrimSpace(c.ErrID)

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		code, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0
		}
		return code
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return integral(n)
}

// integral converts n to an int when it holds a whole number, else 0.
func integral(n json.Number) int {
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// eachChunk calls fn for every object line of r, in order. Blank lines and
// well-formed lines that are not objects are skipped.
func eachChunk(r io.Reader, fn func(c *rawChunk) error) error {
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return errors.Wrap(readErr, "read response body")
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) != 0 {
			if trimmed[0] != '{' {
				if !json.Valid(trimmed) {
					return &DecodeError{Line: lineNo, Err: errors.New("invalid json")}
				}
			} else {
				c := new(rawChunk)
				if err := json.Unmarshal(trimmed, c); err != nil {
					return &DecodeError{Line: lineNo, Err: err}
				}
				if err := fn(c); err != nil {
					return err
				}
			}
		}

		if readErr == io.EOF {
			return nil
		}
	}
}

// DecodeContents folds a contents search response body into a ContentsResult.
// A line that is not valid JSON fails the whole body with a *DecodeError.
func DecodeContents(r io.Reader) (*ContentsResult, error) {
	ok := TranslateStatus(APICodeOK)
	res := &ContentsResult{Status: ok.Code}
	var sawHits bool

	err := eachChunk(r, func(c *rawChunk) error {
		kind, chunkValues := c.kind()
		switch kind {
		case chunkStats:
			if total, ok := statsTotal(chunkValues); ok {
				res.Hits = total
			}
		case chunkHits:
			values := make([]Content, 0, len(chunkValues))
			for _, raw := range chunkValues {
				item, ok := decodeContent(raw)
				if !ok {
					continue
				}
				delete(item, rowIDField)
				values = append(values, item)
			}
			res.Values = values
			sawHits = true
		case chunkError:
			res.errID = c.errCode()
			st := TranslateStatus(res.errID)
			res.Status, res.StatusText = st.Code, st.Text
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !sawHits {
		res.Values = []Content{}
	}
	return res, nil
}

// statsTotal reads the hit count from the first stats value. Quoted and
// exponent forms are accepted; fractions are truncated.
func statsTotal(values []json.RawMessage) (int64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	var stats struct {
		Total json.Number `json:"total"`
	}
	if err := json.Unmarshal(values[0], &stats); err != nil || stats.Total == "" {
		return 0, false
	}
	if i, err := stats.Total.Int64(); err == nil {
		return i, true
	}
	f, err := stats.Total.Float64()
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// decodeContent keeps numbers as json.Number so ids and counters survive unchanged.
// Hits that are not objects are dropped.
func decodeContent(raw json.RawMessage) (Content, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	item := Content{}
	if err := dec.Decode(&item); err != nil || item == nil {
		return nil, false
	}
	return item, true
}

// DecodeTags folds a related tags response body into a TagsResult.
// A line that is not valid JSON fails the whole body with a *DecodeError.
func DecodeTags(r io.Reader) (*TagsResult, error) {
	ok := TranslateStatus(APICodeOK)
	res := &TagsResult{Status: ok.Code}

	err := eachChunk(r, func(c *rawChunk) error {
		kind, chunkValues := c.kind()
		switch kind {
		case chunkTags:
			values := make([]string, 0, len(chunkValues))
			for _, raw := range chunkValues {
				if tag, ok := tagName(raw); ok {
					values = append(values, tag)
				}
			}
			res.Values = values
		case chunkError:
			res.errID = c.errCode()
			st := TranslateStatus(res.errID)
			res.Status, res.StatusText = st.Code, st.Text
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Values == nil {
		res.Values = []string{}
	}
	return res, nil
}

// tagName extracts the tag of one tags value. Numeric tags keep their
// literal text; values without a usable tag are dropped.
func tagName(raw json.RawMessage) (string, bool) {
	var item struct {
		Tag json.RawMessage `json:"tag"`
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return "", false
	}
	if t := bytes.TrimSpace(item.Tag); len(t) == 0 || string(t) == "null" {
		return "", false
	}

	var tag string
	if err := json.Unmarshal(item.Tag, &tag); err == nil {
		return tag, true
	}
	var n json.Number
	if err := json.Unmarshal(item.Tag, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// translated returns the final status and the errid that produced it.
func (r *ContentsResult) translated() (Status, int) {
	return Status{Code: r.Status, Text: r.StatusText}, r.errID
}

func (r *TagsResult) translated() (Status, int) {
	return Status{Code: r.Status, Text: r.StatusText}, r.errID
}
