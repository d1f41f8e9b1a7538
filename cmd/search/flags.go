package main

import (
	"fmt"
	"strings"

	"github.com/matst80/slask-browse/pkg/browser"
	"github.com/matst80/slask-browse/pkg/types"
)

// filterFlags collects repeated -f key=value flags into filter requests.
type filterFlags []types.FilterRequest

func (f *filterFlags) String() string {
	parts := make([]string, 0, len(*f))
	for _, r := range *f {
		parts = append(parts, r.Key+"="+strings.Join(r.Value, "||"))
	}
	return strings.Join(parts, ",")
}

func (f *filterFlags) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	req := types.FilterRequest{Key: key, Value: []string{value}}
	if min, max, isRange := strings.Cut(value, ".."); isRange {
		req.Value = nil
		if err := parseBound(min, &req.Min); err != nil {
			return err
		}
		if err := parseBound(max, &req.Max); err != nil {
			return err
		}
	}
	req.Sanitize()
	*f = append(*f, req)
	return nil
}

func parseBound(s string, dst **float64) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return fmt.Errorf("invalid bound %q", s)
	}
	*dst = &v
	return nil
}

func bounds(req types.FilterRequest, defaults types.NumberRange) (float64, float64) {
	min, max := defaults.Min, defaults.Max
	if req.Min != nil {
		min = *req.Min
	}
	if req.Max != nil {
		max = *req.Max
	}
	return min, max
}

func (f filterFlags) apply(b *browser.Browser) error {
	for _, req := range f {
		switch req.Key {
		case "price":
			b.SetPriceRange(bounds(req, types.DefaultPriceRange))
			continue
		case "pages":
			b.SetPagesRange(bounds(req, types.DefaultPagesRange))
			continue
		}
		key, ok := types.ParseFacetKey(req.Key)
		if !ok {
			return fmt.Errorf("unknown facet %q", req.Key)
		}
		spec, _ := types.LookupFacet(key)
		value, err := req.ToValue(spec)
		if err != nil {
			return err
		}
		if err := b.SetFilter(key, value); err != nil {
			return err
		}
	}
	return nil
}
