package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/internal/recovery"
)

// DefaultSuggestionLimit caps Suggest results when limit is not positive.
const DefaultSuggestionLimit = 10

// Suggest returns searchable property names of a resource type that start
// with hint: the declared names, declared prefixes, and the prefixed names
// observed on stored resources (e.g. "Metrics.accuracy"). Results are
// sorted and deduplicated.
func (s *Searcher) Suggest(ctx context.Context, rt catalog.ResourceType, hint string, limit int) ([]string, error) {
	if !rt.IsValid() {
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrInvalidRequest, rt)
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	schema, err := s.schema(ctx, rt)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	add := func(name string) {
		if strings.HasPrefix(name, hint) {
			seen[name] = struct{}{}
		}
	}
	for _, name := range schema.Names() {
		add(name)
	}
	prefixes := schema.Prefixes()
	for _, p := range prefixes {
		add(p)
	}

	// Observed names only matter under a declared prefix; exact names are
	// already covered by the schema.
	if len(prefixes) > 0 {
		res, err := recovery.RecoverToValue(s.logger, "Resources", func() ([]*catalog.Resource, error) {
			return s.cat.Resources(ctx, rt)
		})
		if err != nil {
			return nil, fmt.Errorf("search: resources %s: %w", rt, err)
		}
		for _, r := range res {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for name := range r.Properties {
				if _, err := schema.Resolve(name); err == nil {
					add(name)
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
