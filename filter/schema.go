package filter

import (
	"sort"
	"strings"
)

// Schema declares the searchable properties of one resource type.
// Properties are declared by exact name or by dotted prefix ("Metrics."),
// the latter covering open-ended maps such as metrics, hyperparameters
// and tags. Exact names win over prefixes; the longest prefix wins among
// prefixes. A Schema is immutable once built and safe for concurrent use.
type Schema struct {
	exact    map[string]PropertyType
	prefixes []prefixType
}

type prefixType struct {
	prefix string
	typ    PropertyType
}

// SchemaBuilder accumulates property declarations for a Schema.
// Not thread-safe.
type SchemaBuilder struct {
	exact    map[string]PropertyType
	prefixes map[string]PropertyType
}

// NewSchemaBuilder returns an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{
		exact:    make(map[string]PropertyType),
		prefixes: make(map[string]PropertyType),
	}
}

// Property declares an exact property name.
func (b *SchemaBuilder) Property(name string, typ PropertyType) *SchemaBuilder {
	b.exact[name] = typ
	return b
}

// Prefix declares every property under prefix, e.g. "Metrics." or "Tags.".
// A missing trailing dot is added.
func (b *SchemaBuilder) Prefix(prefix string, typ PropertyType) *SchemaBuilder {
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	b.prefixes[prefix] = typ
	return b
}

// Build returns the immutable Schema.
func (b *SchemaBuilder) Build() *Schema {
	s := &Schema{
		exact:    make(map[string]PropertyType, len(b.exact)),
		prefixes: make([]prefixType, 0, len(b.prefixes)),
	}
	for name, typ := range b.exact {
		s.exact[name] = typ
	}
	for prefix, typ := range b.prefixes {
		s.prefixes = append(s.prefixes, prefixType{prefix: prefix, typ: typ})
	}
	// Longest prefix first so the most specific declaration wins.
	sort.Slice(s.prefixes, func(i, j int) bool {
		if len(s.prefixes[i].prefix) != len(s.prefixes[j].prefix) {
			return len(s.prefixes[i].prefix) > len(s.prefixes[j].prefix)
		}
		return s.prefixes[i].prefix < s.prefixes[j].prefix
	})
	return s
}

// Resolve returns the declared type of name.
// Returns UnknownPropertyError when nothing declares it.
func (s *Schema) Resolve(name string) (PropertyType, error) {
	if s != nil {
		if typ, ok := s.exact[name]; ok {
			return typ, nil
		}
		for _, p := range s.prefixes {
			if len(name) > len(p.prefix) && strings.HasPrefix(name, p.prefix) {
				return p.typ, nil
			}
		}
	}
	return 0, &UnknownPropertyError{Name: name}
}

// Names returns the exact property names, sorted.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.exact))
	for name := range s.exact {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prefixes returns the declared prefixes, sorted.
func (s *Schema) Prefixes() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.prefixes))
	for _, p := range s.prefixes {
		out = append(out, p.prefix)
	}
	sort.Strings(out)
	return out
}

// Declarations returns every exact name and prefix with its type.
// Prefix keys keep their trailing dot.
func (s *Schema) Declarations() map[string]PropertyType {
	if s == nil {
		return nil
	}
	out := make(map[string]PropertyType, len(s.exact)+len(s.prefixes))
	for name, typ := range s.exact {
		out[name] = typ
	}
	for _, p := range s.prefixes {
		out[p.prefix] = p.typ
	}
	return out
}
