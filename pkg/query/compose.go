package query

import (
	"net/url"
	"slices"
	"strings"

	"github.com/matst80/slask-browse/pkg/types"
)

// TextParam carries the free text query to the backend.
const TextParam = "text"

// Predicate narrows a result set on facets the backend did not apply.
type Predicate func(item *types.ResultItem) bool

// Composition is everything derived from one filter snapshot and query text.
type Composition struct {
	Params          map[string]string
	Predicate       Predicate
	UseRemoteSearch bool
	Text            string
}

// Values renders the remote params as a query string.
func (c *Composition) Values() url.Values {
	ret := url.Values{}
	for k, v := range c.Params {
		ret.Set(k, v)
	}
	return ret
}

// Compose translates a filter snapshot and query text into remote params and
// a local predicate. Filters is copied, later mutations do not leak in.
func Compose(filters types.Filters, text string) *Composition {
	filters = filters.Clone()
	text = strings.TrimSpace(text)
	params := make(map[string]string)
	if text != "" {
		params[TextParam] = text
	}
	for _, spec := range types.Facets() {
		if !spec.IsBackendSearchable() {
			continue
		}
		v, ok := filters[spec.Key]
		if !ok {
			continue
		}
		// the backend takes one value per facet, extra selections are
		// narrowed locally
		first, ok := v.First()
		if !ok {
			continue
		}
		if spec.Transform != nil {
			first = spec.Transform(first)
		}
		params[spec.BackendParam] = first
	}
	return &Composition{
		Params:          params,
		Predicate:       makePredicate(filters),
		UseRemoteSearch: len(params) > 0,
		Text:            text,
	}
}

type check func(item *types.ResultItem) bool

func makePredicate(filters types.Filters) Predicate {
	checks := make([]check, 0, 8)

	if price, ok := filters.RangeOf(types.FacetMinPrice, types.FacetMaxPrice, types.DefaultPriceRange); ok {
		checks = append(checks, func(item *types.ResultItem) bool {
			return price.Contains(item.GetPrice())
		})
	}
	if priceType, ok := filters.Text(types.FacetPriceType); ok {
		switch priceType {
		case types.PriceTypeFree:
			checks = append(checks, func(item *types.ResultItem) bool {
				return item.GetPrice() == 0
			})
		case types.PriceTypePaid:
			checks = append(checks, func(item *types.ResultItem) bool {
				return item.GetPrice() > 0
			})
		}
	}
	if pages, ok := filters.RangeOf(types.FacetMinPages, types.FacetMaxPages, types.DefaultPagesRange); ok {
		checks = append(checks, func(item *types.ResultItem) bool {
			return pages.Contains(float64(item.PageCount))
		})
	}
	if minRating, ok := filters.Number(types.FacetMinRating); ok {
		checks = append(checks, func(item *types.ResultItem) bool {
			return item.GetRating() >= minRating
		})
	}
	if listing, ok := filters.Text(types.FacetListingType); ok {
		checks = append(checks, func(item *types.ResultItem) bool {
			return item.ListingKind == listing
		})
	}
	for _, spec := range types.Facets() {
		if !spec.MultiSelect {
			continue
		}
		v, ok := filters[spec.Key]
		if !ok || v.Kind != types.ListValue || len(v.List) < 2 {
			continue
		}
		key := spec.Key
		accepted := make(map[string]struct{}, len(v.List))
		for _, s := range v.List {
			accepted[s] = struct{}{}
		}
		checks = append(checks, func(item *types.ResultItem) bool {
			return slices.ContainsFunc(item.FieldValues(key), func(s string) bool {
				_, ok := accepted[s]
				return ok
			})
		})
	}

	return func(item *types.ResultItem) bool {
		for _, c := range checks {
			if !c(item) {
				return false
			}
		}
		return true
	}
}

// Apply returns the items matching the predicate, in their original order.
func (p Predicate) Apply(items []types.ResultItem) []types.ResultItem {
	ret := make([]types.ResultItem, 0, len(items))
	for i := range items {
		if p(&items[i]) {
			ret = append(ret, items[i])
		}
	}
	return ret
}
