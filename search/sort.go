package search

import (
	"sort"

	"github.com/hugr-lab/sagesearch/catalog"
	"github.com/hugr-lab/sagesearch/filter"
)

type sortKey struct {
	res     *catalog.Resource
	value   filter.Value
	present bool
}

// sortResources orders res by the named property. Values are compared as
// the declared type; resources without the property, or whose value does
// not read as that type, sort last in either direction. Ties order by ARN.
func sortResources(res []*catalog.Resource, name string, typ filter.PropertyType, order SortOrder) {
	keys := make([]sortKey, len(res))
	for i, r := range res {
		keys[i] = sortKey{res: r}
		v, ok := r.Property(name)
		if !ok {
			continue
		}
		if v.Type() != typ {
			cv, err := filter.ParseValue(typ, v.String())
			if err != nil {
				continue
			}
			v = cv
		}
		keys[i].value, keys[i].present = v, true
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.present != b.present {
			return a.present
		}
		if a.present {
			c := filter.Compare(a.value, b.value)
			if order == Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return a.res.ARN < b.res.ARN
	})

	for i := range keys {
		res[i] = keys[i].res
	}
}
