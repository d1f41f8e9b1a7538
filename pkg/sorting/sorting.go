package sorting

import (
	"log"
	"slices"

	"github.com/matst80/slask-browse/pkg/types"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale is used for title collation when none is configured.
var DefaultLocale = language.Italian

// Orderer applies a result ordering. It never mutates its input.
type Orderer struct {
	locale language.Tag
}

func NewOrderer(locale language.Tag) *Orderer {
	return &Orderer{locale: locale}
}

// ParseLocale falls back to DefaultLocale for empty or unknown tags.
func ParseLocale(s string) language.Tag {
	if s == "" {
		return DefaultLocale
	}
	tag, err := language.Parse(s)
	if err != nil {
		log.Printf("unknown locale %q, using %s", s, DefaultLocale)
		return DefaultLocale
	}
	return tag
}

// Order returns a stably sorted copy of items. Relevance and unknown keys
// keep the upstream order.
func (o *Orderer) Order(items []types.ResultItem, key types.OrderKey) []types.ResultItem {
	ret := slices.Clone(items)
	if ret == nil {
		ret = []types.ResultItem{}
	}
	compare := o.comparator(key)
	if compare == nil {
		return ret
	}
	slices.SortStableFunc(ret, func(a, b types.ResultItem) int {
		return compare(&a, &b)
	})
	return ret
}

func (o *Orderer) comparator(key types.OrderKey) compareFunc {
	if s, ok := numericSorters[key]; ok {
		return s.compare
	}
	switch key {
	case types.OrderNameAsc, types.OrderNameDesc:
		// a collator keeps internal buffers, one per ordering call
		c := collate.New(o.locale, collate.IgnoreCase)
		if key == types.OrderNameDesc {
			return func(a, b *types.ResultItem) int {
				return c.CompareString(b.Title, a.Title)
			}
		}
		return func(a, b *types.ResultItem) int {
			return c.CompareString(a.Title, b.Title)
		}
	case types.OrderRelevance:
		return nil
	}
	log.Printf("unknown order key %q, keeping relevance order", key)
	return nil
}

var defaultOrderer = NewOrderer(DefaultLocale)

// Order sorts with the default locale.
func Order(items []types.ResultItem, key types.OrderKey) []types.ResultItem {
	return defaultOrderer.Order(items, key)
}
