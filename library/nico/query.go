package nico

import "slices"

// DefaultTimeout is the request timeout in milliseconds used when Options.Timeout is unset.
const DefaultTimeout = 3000

// Order is the sort direction of a contents search.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ContentsQuery is the request body of a contents search.
type ContentsQuery struct {
	Query   string   `json:"query"`
	Service []string `json:"service"`
	Search  []string `json:"search"`
	Join    []string `json:"join"`
	Filters []Filter `json:"filters"`
	From    int      `json:"from"`
	Size    int      `json:"size"`
	SortBy  string   `json:"sort_by"`
	// Order stays empty, and off the wire, until a sort is requested.
	Order   Order  `json:"order,omitempty"`
	Timeout int    `json:"timeout"`
	Issuer  string `json:"issuer"`
	Reason  string `json:"reason"`
}

func defaultContentsQuery(opts Options) ContentsQuery {
	return ContentsQuery{
		Query:   "keyword",
		Service: []string{"video"},
		Search:  []string{"title"},
		Join:    []string{"cmsid"},
		Filters: []Filter{},
		From:    0,
		Size:    10,
		SortBy:  "view_counter",
		Timeout: opts.timeout(),
		Issuer:  opts.Issuer,
		Reason:  opts.Reason,
	}
}

// clone returns a copy that shares no slices with q.
func (q ContentsQuery) clone() ContentsQuery {
	q.Service = slices.Clone(q.Service)
	q.Search = slices.Clone(q.Search)
	q.Join = slices.Clone(q.Join)
	q.Filters = slices.Clone(q.Filters)
	return q
}

// TagsQuery is the request body of a related tags search.
type TagsQuery struct {
	Query   string   `json:"query"`
	Service []string `json:"service"`
	From    int      `json:"from"`
	Size    int      `json:"size"`
	Timeout int      `json:"timeout"`
	Issuer  string   `json:"issuer"`
	Reason  string   `json:"reason"`
}

func defaultTagsQuery(opts Options) TagsQuery {
	return TagsQuery{
		Query:   "keyword",
		Service: []string{"video"},
		From:    0,
		Size:    10,
		Timeout: opts.timeout(),
		Issuer:  opts.Issuer,
		Reason:  opts.Reason,
	}
}

func (q TagsQuery) clone() TagsQuery {
	q.Service = slices.Clone(q.Service)
	return q
}
