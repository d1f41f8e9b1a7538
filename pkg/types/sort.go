package types

type OrderKey string

const (
	OrderRelevance    OrderKey = "relevance"
	OrderReviews      OrderKey = "reviews"
	OrderNameAsc      OrderKey = "name-asc"
	OrderNameDesc     OrderKey = "name-desc"
	OrderDateNewest   OrderKey = "date-newest"
	OrderDateOldest   OrderKey = "date-oldest"
	OrderPriceLowest  OrderKey = "price-lowest"
	OrderPriceHighest OrderKey = "price-highest"
)

var orderKeys = []OrderKey{
	OrderRelevance,
	OrderReviews,
	OrderNameAsc,
	OrderNameDesc,
	OrderDateNewest,
	OrderDateOldest,
	OrderPriceLowest,
	OrderPriceHighest,
}

func OrderKeys() []OrderKey {
	return append([]OrderKey(nil), orderKeys...)
}

func ParseOrderKey(s string) (OrderKey, bool) {
	if s == "" {
		return OrderRelevance, true
	}
	for _, k := range orderKeys {
		if string(k) == s {
			return k, true
		}
	}
	return OrderRelevance, false
}
