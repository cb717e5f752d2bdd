package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

// SortOrder is the direction results are sorted in.
type SortOrder string

const (
	Ascending  SortOrder = "Ascending"
	Descending SortOrder = "Descending"
)

const (
	// DefaultSortBy is the property results are sorted by when SortBy is empty.
	DefaultSortBy = catalog.PropCreationTime

	DefaultMaxResults = 50
	MaxResultsLimit   = 100
)

// Request is a search over one resource type.
type Request struct {
	Resource         catalog.ResourceType     `json:"Resource"`
	SearchExpression *filter.SearchExpression `json:"SearchExpression,omitempty"`
	SortBy           string                   `json:"SortBy,omitempty"`
	SortOrder        SortOrder                `json:"SortOrder,omitempty"`
	// MaxResults is the page size, 1..100. Zero uses the searcher default.
	MaxResults int    `json:"MaxResults,omitempty"`
	NextToken  string `json:"NextToken,omitempty"`
}

// Response is one page of search results.
type Response struct {
	Results []*catalog.Resource `json:"Results"`
	// NextToken is empty on the last page.
	NextToken string `json:"NextToken,omitempty"`
}

// ParseRequest decodes a JSON search request. The resource type is matched
// case-insensitively and filter values may be JSON strings or numbers.
func ParseRequest(data []byte) (*Request, error) {
	var raw struct {
		Resource         string          `json:"Resource"`
		SearchExpression json.RawMessage `json:"SearchExpression"`
		SortBy           string          `json:"SortBy"`
		SortOrder        string          `json:"SortOrder"`
		MaxResults       int             `json:"MaxResults"`
		NextToken        string          `json:"NextToken"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	rt, ok := catalog.ParseResourceType(raw.Resource)
	if !ok {
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrInvalidRequest, raw.Resource)
	}
	req := &Request{
		Resource:   rt,
		SortBy:     raw.SortBy,
		SortOrder:  SortOrder(raw.SortOrder),
		MaxResults: raw.MaxResults,
		NextToken:  raw.NextToken,
	}

	if body := bytes.TrimSpace(raw.SearchExpression); len(body) > 0 && !bytes.Equal(body, []byte("null")) {
		expr, err := filter.Parse(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		req.SearchExpression = expr
	}
	return req, nil
}

func (o SortOrder) resolve() (SortOrder, error) {
	switch {
	case o == "":
		return Descending, nil
	case strings.EqualFold(string(o), string(Ascending)):
		return Ascending, nil
	case strings.EqualFold(string(o), string(Descending)):
		return Descending, nil
	}
	return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidRequest, o)
}
