package nico

import (
	"bytes"
	"encoding/json"

	errors "github.com/Laisky/errors/v2"
)

// FilterType discriminates filter values on the wire.
type FilterType string

const (
	FilterTypeEqual FilterType = "equal"
	FilterTypeRange FilterType = "range"
)

// Filter is a search filter. It is either an Equal or a Range value.
type Filter interface {
	// FilterType returns the wire discriminator.
	FilterType() FilterType
	isFilter()
}

// Equal matches documents whose field equals Value.
type Equal struct {
	Field string
	Value any
}

// FilterType returns FilterTypeEqual.
func (Equal) FilterType() FilterType { return FilterTypeEqual }
func (Equal) isFilter()              {}

// MarshalJSON encodes the filter with its type tag.
func (f Equal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  FilterType `json:"type"`
		Field string     `json:"field"`
		Value any        `json:"value"`
	}{FilterTypeEqual, f.Field, f.Value})
}

// Range matches documents whose field lies between From and To.
// A nil bound is left open and omitted on the wire.
type Range struct {
	Field        string
	From         any
	To           any
	IncludeUpper bool
	IncludeLower bool
}

// FilterType returns FilterTypeRange.
func (Range) FilterType() FilterType { return FilterTypeRange }
func (Range) isFilter()              {}

// MarshalJSON encodes the filter with its type tag.
func (f Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         FilterType `json:"type"`
		Field        string     `json:"field"`
		From         any        `json:"from,omitempty"`
		To           any        `json:"to,omitempty"`
		IncludeUpper bool       `json:"include_upper"`
		IncludeLower bool       `json:"include_lower"`
	}{FilterTypeRange, f.Field, f.From, f.To, f.IncludeUpper, f.IncludeLower})
}

// EqualFilter builds an equal filter.
func EqualFilter(field string, value any) Filter {
	return Equal{Field: field, Value: value}
}

// RangeFilter builds a range filter. Pass nil for an open bound.
//
// include optionally carries includeUpper then includeLower, in that order.
// Omitted flags default to true.
func RangeFilter(field string, from, to any, include ...bool) Filter {
	f := Range{
		Field:        field,
		From:         from,
		To:           to,
		IncludeUpper: true,
		IncludeLower: true,
	}
	if len(include) > 0 {
		f.IncludeUpper = include[0]
	}
	if len(include) > 1 {
		f.IncludeLower = include[1]
	}
	return f
}

// rawFilter is the union of all filter wire fields.
type rawFilter struct {
	Type         FilterType `json:"type"`
	Field        string     `json:"field"`
	Value        any        `json:"value"`
	From         any        `json:"from"`
	To           any        `json:"to"`
	IncludeUpper *bool      `json:"include_upper"`
	IncludeLower *bool      `json:"include_lower"`
}

// ParseFilter decodes one filter from its wire JSON.
// Missing include flags default to true, as with RangeFilter.
func ParseFilter(data []byte) (Filter, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw rawFilter
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode filter")
	}
	if raw.Field == "" {
		return nil, errors.New("filter field is required")
	}

	switch raw.Type {
	case FilterTypeEqual:
		return EqualFilter(raw.Field, raw.Value), nil
	case FilterTypeRange:
		f := RangeFilter(raw.Field, raw.From, raw.To).(Range)
		if raw.IncludeUpper != nil {
			f.IncludeUpper = *raw.IncludeUpper
		}
		if raw.IncludeLower != nil {
			f.IncludeLower = *raw.IncludeLower
		}
		return f, nil
	default:
		return nil, errors.Errorf("unknown filter type %q", raw.Type)
	}
}

// ParseFilters decodes a JSON array of filters.
func ParseFilters(data []byte) ([]Filter, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Wrap(err, "decode filters")
	}

	filters := make([]Filter, 0, len(raws))
	for i, raw := range raws {
		f, err := ParseFilter(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %d", i)
		}
		filters = append(filters, f)
	}
	return filters, nil
}
