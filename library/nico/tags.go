package nico

import "context"

// tagServicePrefix is prepended to the service name of related tag searches.
const tagServicePrefix = "tag_"

// TagsSearch builds and sends related tags search requests.
type TagsSearch struct {
	cli   *client
	query TagsQuery
}

// NewTagsSearch creates a related tags search builder.
// It fails with a *ConfigurationError when issuer or reason is missing.
func NewTagsSearch(opts Options, clientOpts ...ClientOption) (*TagsSearch, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	cli, err := newClient(clientOpts)
	if err != nil {
		return nil, err
	}

	return &TagsSearch{
		cli:   cli,
		query: defaultTagsQuery(opts),
	}, nil
}

// Service sets the service whose tags are searched; "video" becomes "tag_video".
func (s *TagsSearch) Service(name string) *TagsSearch {
	s.query.Service = []string{tagServicePrefix + name}
	return s
}

// Keyword sets the search keyword.
func (s *TagsSearch) Keyword(keyword string) *TagsSearch {
	s.query.Query = keyword
	return s
}

// From sets the offset of the first tag.
func (s *TagsSearch) From(from int) *TagsSearch {
	s.query.From = from
	return s
}

// Size sets the number of tags to return.
func (s *TagsSearch) Size(size int) *TagsSearch {
	s.query.Size = size
	return s
}

// Query returns a copy of the query as it would be sent now.
func (s *TagsSearch) Query() TagsQuery {
	return s.query.clone()
}

// Fetch sends the current query. The builder keeps its state.
func (s *TagsSearch) Fetch(ctx context.Context) *Future[*TagsResult] {
	q := s.query.clone()
	return fetch(ctx, s.cli, "tags", PathTags, q,
		timeoutDuration(q.Timeout), DecodeTags)
}
