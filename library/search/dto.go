package search

import (
	"encoding/json"

	"github.com/Laisky/nicosearch/library/nico"
)

// Credentials override the configured API parameters for a single request.
// Empty fields fall back to the service defaults.
type Credentials struct {
	Issuer  string `json:"issuer,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// ContentsRequest describes a contents search.
type ContentsRequest struct {
	Keyword string `json:"keyword"`
	// Service is the searched service, "video" when empty.
	Service string   `json:"service,omitempty"`
	Targets []string `json:"targets,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	// Filters is a JSON array of equal and range filters.
	Filters json.RawMessage `json:"filters,omitempty"`
	SortBy  string          `json:"sort_by,omitempty"`
	Order   string          `json:"order,omitempty"`
	From    *int            `json:"from,omitempty"`
	Size    *int            `json:"size,omitempty"`

	Credentials
}

// TagsRequest describes a related tags search.
type TagsRequest struct {
	Keyword string `json:"keyword"`
	// Service is the service whose tags are searched, without the tag_ prefix.
	Service string `json:"service,omitempty"`
	From    *int   `json:"from,omitempty"`
	Size    *int   `json:"size,omitempty"`

	Credentials
}

// RelatedResult pairs the contents hits of a keyword with its related tags.
type RelatedResult struct {
	Contents *nico.ContentsResult `json:"contents"`
	Tags     *nico.TagsResult     `json:"tags"`
}
