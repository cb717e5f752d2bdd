package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hugr-lab/sagesearch/filter"
)

// Resource is one searchable record: an ARN, its type and a flat bag of
// dotted-name properties ("Metrics.accuracy", "Tags.owner").
// Resources are treated as immutable once handed to a catalog.
type Resource struct {
	ARN        string
	Type       ResourceType
	Properties filter.Properties
}

var _ filter.PropertySource = (*Resource)(nil)

// Property implements filter.PropertySource.
func (r *Resource) Property(name string) (filter.Value, bool) {
	if r == nil {
		return filter.Value{}, false
	}
	return r.Properties.Property(name)
}

// PropertyNames returns the property names of r, sorted.
func (r *Resource) PropertyNames() []string {
	names := make([]string, 0, len(r.Properties))
	for name := range r.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the ARN and type, and that status properties hold one
// of their allowed values.
func (r *Resource) Validate() error {
	if r == nil {
		return errors.New("resource is nil")
	}
	if r.ARN == "" {
		return errors.New("resource ARN is required")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("resource %s: unknown resource type %q", r.ARN, r.Type)
	}
	for name, enum := range Enums(r.Type) {
		v, ok := r.Properties[name]
		if ok && !enum.IsValid(v.String()) {
			return fmt.Errorf("resource %s: %s %q is not one of %v", r.ARN, name, v.String(), enum.Values())
		}
	}
	return nil
}

// MarshalJSON encodes r as {"Arn":..., "ResourceType":..., "Properties":{name: literal}}.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ARN        string            `json:"Arn"`
		Type       ResourceType      `json:"ResourceType"`
		Properties map[string]string `json:"Properties"`
	}{
		ARN:        r.ARN,
		Type:       r.Type,
		Properties: r.PropertyStrings(),
	})
}

// PropertyStrings returns the literal text of every property.
func (r *Resource) PropertyStrings() map[string]string {
	out := make(map[string]string, len(r.Properties))
	for name, v := range r.Properties {
		out[name] = v.String()
	}
	return out
}

// NewResource builds a Resource from a nested document such as a decoded
// Describe* response. Nested objects flatten to dotted names. Leaves are
// typed by schema: declared names are parsed as their declared type,
// undeclared names are kept as Text. Arrays and nulls are skipped.
func NewResource(arn string, rt ResourceType, doc map[string]any, schema *filter.Schema) (*Resource, error) {
	props := make(filter.Properties)
	if err := flatten("", doc, schema, props); err != nil {
		return nil, fmt.Errorf("resource %s: %w", arn, err)
	}
	return &Resource{ARN: arn, Type: rt, Properties: props}, nil
}

func flatten(prefix string, doc map[string]any, schema *filter.Schema, out filter.Properties) error {
	for key, raw := range doc {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}

		if nested, ok := raw.(map[string]any); ok {
			if err := flatten(name, nested, schema, out); err != nil {
				return err
			}
			continue
		}

		lit, ok := leafLiteral(raw)
		if !ok {
			continue
		}
		typ, err := schema.Resolve(name)
		if err != nil {
			out[name] = filter.Text(lit)
			continue
		}
		if t, isTime := raw.(time.Time); isTime && typ == filter.TypeTimestamp {
			out[name] = filter.Timestamp(t)
			continue
		}
		v, err := filter.ParseValue(typ, lit)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		out[name] = v
	}
	return nil
}

// leafLiteral renders a scalar document value as its literal text.
func leafLiteral(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int8:
		return strconv.FormatInt(int64(x), 10), true
	case int16:
		return strconv.FormatInt(int64(x), 10), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), true
	}
	return "", false
}
