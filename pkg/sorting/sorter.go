package sorting

import (
	"cmp"

	"github.com/matst80/slask-browse/pkg/types"
)

type compareFunc func(a, b *types.ResultItem) int

// Sorter orders items by a numeric score derived from each item.
type Sorter struct {
	name       string
	fn         func(item *types.ResultItem) float64
	isReversed bool
}

func NewSorter(name string, fn func(item *types.ResultItem) float64, isReversed bool) *Sorter {
	return &Sorter{
		name:       name,
		fn:         fn,
		isReversed: isReversed,
	}
}

func (s *Sorter) Name() string {
	return s.name
}

func (s *Sorter) compare(a, b *types.ResultItem) int {
	if s.isReversed {
		return cmp.Compare(s.fn(b), s.fn(a))
	}
	return cmp.Compare(s.fn(a), s.fn(b))
}

func ratingScore(item *types.ResultItem) float64 {
	return item.GetRating()
}

func priceScore(item *types.ResultItem) float64 {
	return item.GetPrice()
}

func uploadScore(item *types.ResultItem) float64 {
	return float64(item.UploadedAt.Millis())
}

var numericSorters = map[types.OrderKey]*Sorter{
	types.OrderReviews:      NewSorter("reviews", ratingScore, true),
	types.OrderDateNewest:   NewSorter("date-newest", uploadScore, true),
	types.OrderDateOldest:   NewSorter("date-oldest", uploadScore, false),
	types.OrderPriceLowest:  NewSorter("price-lowest", priceScore, false),
	types.OrderPriceHighest: NewSorter("price-highest", priceScore, true),
}
