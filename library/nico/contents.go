package nico

import (
	"context"
	"slices"
)

// ContentsSearch builds and sends contents search requests.
//
// Every mutator overwrites its field and returns the same builder,
// so calls can be chained. A ContentsSearch is not safe for concurrent mutation.
type ContentsSearch struct {
	cli   *client
	query ContentsQuery
}

// NewContentsSearch creates a contents search builder.
// It fails with a *ConfigurationError when issuer or reason is missing.
func NewContentsSearch(opts Options, clientOpts ...ClientOption) (*ContentsSearch, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cli, err := newClient(clientOpts)
	if err != nil {
		return nil, err
	}

	return &ContentsSearch{
		cli:   cli,
		query: defaultContentsQuery(opts),
	}, nil
}

// Service sets the searched service, e.g. "video" or "live".
func (s *ContentsSearch) Service(name string) *ContentsSearch {
	s.query.Service = []string{name}
	return s
}

// Keyword sets the search keyword.
func (s *ContentsSearch) Keyword(keyword string) *ContentsSearch {
	s.query.Query = keyword
	return s
}

// Target sets the fields the keyword is matched against.
func (s *ContentsSearch) Target(names []string) *ContentsSearch {
	s.query.Search = slices.Clone(names)
	return s
}

// Filter sets the filter list.
func (s *ContentsSearch) Filter(filters []Filter) *ContentsSearch {
	s.query.Filters = slices.Clone(filters)
	return s
}

// Sort sets the sort field. order defaults to OrderDesc.
func (s *ContentsSearch) Sort(name string, order ...Order) *ContentsSearch {
	s.query.SortBy = name
	s.query.Order = OrderDesc
	if len(order) > 0 && order[0] != "" {
		s.query.Order = order[0]
	}
	return s
}

// Select sets the fields returned for every hit.
func (s *ContentsSearch) Select(names []string) *ContentsSearch {
	s.query.Join = slices.Clone(names)
	return s
}

// From sets the offset of the first hit.
func (s *ContentsSearch) From(from int) *ContentsSearch {
	s.query.From = from
	return s
}

// Size sets the number of hits to return.
func (s *ContentsSearch) Size(size int) *ContentsSearch {
	s.query.Size = size
	return s
}

// EqualFilter builds an equal filter. It does not touch the builder.
func (s *ContentsSearch) EqualFilter(field string, value any) Filter {
	return EqualFilter(field, value)
}

// RangeFilter builds a range filter. It does not touch the builder.
// See the package level RangeFilter for the include flags.
func (s *ContentsSearch) RangeFilter(field string, from, to any, include ...bool) Filter {
	return RangeFilter(field, from, to, include...)
}

// Query returns a copy of the query as it would be sent now.
func (s *ContentsSearch) Query() ContentsQuery {
	return s.query.clone()
}

// Fetch sends the current query. The builder keeps its state and can be fetched again.
func (s *ContentsSearch) Fetch(ctx context.Context) *Future[*ContentsResult] {
	q := s.query.clone()
	return fetch(ctx, s.cli, "contents", PathContents, q,
		timeoutDuration(q.Timeout), DecodeContents)
}
