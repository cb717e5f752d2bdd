// Package search executes SageMaker-style Search requests against a
// catalog: it compiles the search expression, evaluates it over candidate
// resources concurrently, sorts and paginates the matches.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
	"github.com/hugr-lab/sagesearch/internal/recovery"
)

// matchBatchSize is the number of candidates one goroutine evaluates.
const matchBatchSize = 256

// Options configures a Searcher.
type Options struct {
	// Parallelism bounds concurrent expression evaluation.
	// OPTIONAL: 0 uses GOMAXPROCS.
	Parallelism int

	// DefaultMaxResults is the page size when a request sets none.
	// OPTIONAL: 0 uses DefaultMaxResults (50). Must not exceed 100.
	DefaultMaxResults int

	// Logger for search diagnostics.
	// OPTIONAL: nil uses slog.Default().
	Logger *slog.Logger
}

// Searcher answers search requests against one catalog.
// Safe for concurrent use.
type Searcher struct {
	cat         catalog.Catalog
	parallelism int
	defaultMax  int
	logger      *slog.Logger
	tokens      *tokenCodec
}

// New creates a Searcher. Close releases its resources.
func New(cat catalog.Catalog, opts Options) (*Searcher, error) {
	if cat == nil {
		return nil, errors.New("search: catalog is required")
	}
	if opts.DefaultMaxResults < 0 || opts.DefaultMaxResults > MaxResultsLimit {
		return nil, fmt.Errorf("search: default max results %d out of range 1..%d", opts.DefaultMaxResults, MaxResultsLimit)
	}

	s := &Searcher{
		cat:         cat,
		parallelism: opts.Parallelism,
		defaultMax:  opts.DefaultMaxResults,
		logger:      opts.Logger,
	}
	if s.parallelism <= 0 {
		s.parallelism = runtime.GOMAXPROCS(0)
	}
	if s.defaultMax == 0 {
		s.defaultMax = DefaultMaxResults
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	tokens, err := newTokenCodec()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	s.tokens = tokens
	return s, nil
}

// Close releases the page token codec.
func (s *Searcher) Close() {
	s.tokens.close()
}

// Catalog returns the catalog searched.
func (s *Searcher) Catalog() catalog.Catalog {
	return s.cat
}

// query is a validated request.
type query struct {
	rt          catalog.ResourceType
	schema      *filter.Schema
	expr        *filter.Compiled
	sortBy      string
	sortType    filter.PropertyType
	order       SortOrder
	limit       int
	offset      int
	fingerprint uint64
}

// Search runs one page of a search.
//
// Errors:
//   - ErrInvalidRequest for a malformed request (also wraps the filter error)
//   - filter.ErrInvalidFilter (via typed errors) for an invalid expression
//   - ErrResourceTypeNotFound if the catalog does not serve the type
//   - ErrInvalidNextToken for a bad or foreign NextToken
//   - ctx.Err() when cancelled
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	q, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	matched, err := s.match(ctx, q.expr, candidates)
	if err != nil {
		return nil, err
	}
	sortResources(matched, q.sortBy, q.sortType, q.order)

	s.logger.Debug("Search evaluated",
		"resource_type", q.rt,
		"candidates", len(candidates),
		"matched", len(matched),
		"offset", q.offset,
	)

	resp := &Response{Results: []*catalog.Resource{}}
	if q.offset >= len(matched) {
		return resp, nil
	}
	end := min(q.offset+q.limit, len(matched))
	resp.Results = matched[q.offset:end]
	if end < len(matched) {
		tok, err := s.tokens.encode(pageToken{Offset: end, Fingerprint: q.fingerprint})
		if err != nil {
			return nil, fmt.Errorf("search: next token: %w", err)
		}
		resp.NextToken = tok
	}
	return resp, nil
}

// Validate checks a request without running it: the resource type is
// served, the expression compiles and the sort and page options are valid.
// It returns the same errors as Search.
func (s *Searcher) Validate(ctx context.Context, req Request) error {
	_, err := s.prepare(ctx, req)
	return err
}

func (s *Searcher) prepare(ctx context.Context, req Request) (*query, error) {
	if !req.Resource.IsValid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrInvalidRequest, req.Resource)
	}
	schema, err := s.schema(ctx, req.Resource)
	if err != nil {
		return nil, err
	}

	if req.SearchExpression == nil {
		req.SearchExpression = &filter.SearchExpression{}
	}
	expr, err := filter.CompileExpression(*req.SearchExpression, schema)
	if err != nil {
		return nil, err
	}

	q := &query{rt: req.Resource, schema: schema, expr: expr, limit: s.defaultMax}
	if req.MaxResults != 0 {
		if req.MaxResults < 1 || req.MaxResults > MaxResultsLimit {
			return nil, fmt.Errorf("%w: MaxResults %d out of range 1..%d", ErrInvalidRequest, req.MaxResults, MaxResultsLimit)
		}
		q.limit = req.MaxResults
	}

	q.sortBy = req.SortBy
	if q.sortBy == "" {
		q.sortBy = DefaultSortBy
	}
	if err := filter.ValidateName(q.sortBy); err != nil {
		return nil, fmt.Errorf("%w: SortBy: %w", ErrInvalidRequest, err)
	}
	if q.sortType, err = schema.Resolve(q.sortBy); err != nil {
		return nil, fmt.Errorf("%w: SortBy: %w", ErrInvalidRequest, err)
	}
	if q.order, err = req.SortOrder.resolve(); err != nil {
		return nil, err
	}

	q.fingerprint = fingerprint(req, q.sortBy, q.order)
	if req.NextToken != "" {
		tok, err := s.tokens.decode(req.NextToken, q.fingerprint)
		if err != nil {
			return nil, err
		}
		q.offset = tok.Offset
	}
	return q, nil
}

// schema returns the schema of a served resource type.
func (s *Searcher) schema(ctx context.Context, rt catalog.ResourceType) (*filter.Schema, error) {
	schema, err := recovery.RecoverToValue(s.logger, "Schema", func() (*filter.Schema, error) {
		return s.cat.Schema(ctx, rt)
	})
	if err != nil {
		return nil, fmt.Errorf("search: schema %s: %w", rt, err)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceTypeNotFound, rt)
	}
	return schema, nil
}

// candidates fetches the resources to evaluate, pre-filtered by the
// catalog when it supports pushdown.
func (s *Searcher) candidates(ctx context.Context, q *query) ([]*catalog.Resource, error) {
	if pd, ok := s.cat.(catalog.FilterPushdown); ok {
		res, err := recovery.RecoverToValue(s.logger, "SearchResources", func() ([]*catalog.Resource, error) {
			return pd.SearchResources(ctx, q.rt, q.expr)
		})
		if err != nil {
			return nil, fmt.Errorf("search: pushdown %s: %w", q.rt, err)
		}
		return res, nil
	}

	res, err := recovery.RecoverToValue(s.logger, "Resources", func() ([]*catalog.Resource, error) {
		return s.cat.Resources(ctx, q.rt)
	})
	if err != nil {
		return nil, fmt.Errorf("search: resources %s: %w", q.rt, err)
	}
	return res, nil
}

// match evaluates expr over candidates in parallel batches and returns the
// matches in candidate order.
func (s *Searcher) match(ctx context.Context, expr *filter.Compiled, candidates []*catalog.Resource) ([]*catalog.Resource, error) {
	keep := make([]bool, len(candidates))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism)
	for start := 0; start < len(candidates); start += matchBatchSize {
		if egCtx.Err() != nil {
			break
		}
		end := min(start+matchBatchSize, len(candidates))
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				keep[i] = expr.Match(candidates[i])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*catalog.Resource, 0, len(candidates))
	for i, ok := range keep {
		if ok {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// Evaluate decides a single filter against one resource, resolving the
// property through the catalog.
func (s *Searcher) Evaluate(ctx context.Context, arn string, f filter.Filter) (bool, error) {
	if err := filter.ValidateName(f.Name); err != nil {
		return false, err
	}
	lookup, err := recovery.RecoverToValue(s.logger, "LookupProperty", func() (catalog.PropertyLookup, error) {
		return catalog.LookupProperty(ctx, s.cat, arn, f.Name)
	})
	if err != nil {
		return false, err
	}
	return filter.EvaluateValue(f, lookup.Declared, lookup.Value, lookup.Present)
}
