package filter

import "github.com/matst80/slask-browse/pkg/types"

// grouped keys are counted through their range group, not one by one
var grouped = map[types.FacetKey]struct{}{
	types.FacetMinPrice:  {},
	types.FacetMaxPrice:  {},
	types.FacetPriceType: {},
	types.FacetMinPages:  {},
	types.FacetMaxPages:  {},
}

// ActiveCount counts user visible filters: the price group (range and price
// type) and the pages range count at most once each, and only when they
// differ from their defaults.
func ActiveCount(f types.Filters) int {
	count := 0
	for key := range f {
		if _, isGrouped := grouped[key]; !isGrouped {
			count++
		}
	}
	if hasPriceFilter(f) {
		count++
	}
	if pages, ok := f.RangeOf(types.FacetMinPages, types.FacetMaxPages, types.DefaultPagesRange); ok && pages != types.DefaultPagesRange {
		count++
	}
	return count
}

func hasPriceFilter(f types.Filters) bool {
	if price, ok := f.RangeOf(types.FacetMinPrice, types.FacetMaxPrice, types.DefaultPriceRange); ok && price != types.DefaultPriceRange {
		return true
	}
	priceType, ok := f.Text(types.FacetPriceType)
	return ok && priceType != types.PriceTypeAll
}
