package types

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

type EndpointKind uint8

const (
	StandardSearch EndpointKind = iota
	SemanticSearch
)

func (k EndpointKind) String() string {
	if k == SemanticSearch {
		return "semantic"
	}
	return "standard"
}

// FacultyToCourseMap maps faculty names to the courses they offer.
type FacultyToCourseMap map[string][]string

type ResultPage struct {
	Items []ResultItem `json:"documents"`
	Total int          `json:"total"`
}

// SearchTransport is the remote side of the search core. Cancelling ctx
// aborts the request when the transport supports it.
type SearchTransport interface {
	Search(ctx context.Context, kind EndpointKind, params map[string]string) (*ResultPage, error)
	FetchHierarchy(ctx context.Context) (FacultyToCourseMap, error)
}

// FilterRequest is a facet mutation as sent over http.
type FilterRequest struct {
	Key   string   `json:"key" schema:"key,required"`
	Value []string `json:"value" schema:"value"`
	Min   *float64 `json:"min" schema:"min"`
	Max   *float64 `json:"max" schema:"max"`
}

type QueryRequest struct {
	Query string `json:"query" schema:"q"`
	Sort  string `json:"sort" schema:"sort"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func GetFilterRequest(r *http.Request) (*FilterRequest, error) {
	fr := &FilterRequest{}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if err := decoder.Decode(fr, r.Form); err != nil {
		return nil, err
	}
	fr.Sanitize()
	return fr, nil
}

func GetQueryRequest(r *http.Request) (*QueryRequest, error) {
	qr := &QueryRequest{}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if err := decoder.Decode(qr, r.Form); err != nil {
		return nil, err
	}
	return qr, nil
}

// Sanitize drops blank values and splits "a||b" the same way the facet
// query strings do.
func (f *FilterRequest) Sanitize() {
	f.Key = strings.TrimSpace(f.Key)
	values := make([]string, 0, len(f.Value))
	for _, v := range f.Value {
		for part := range strings.SplitSeq(v, "||") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	f.Value = values
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		*f.Min, *f.Max = *f.Max, *f.Min
	}
}

// ToValue converts the request into the value kind the facet stores.
func (f *FilterRequest) ToValue(spec FacetSpec) (FilterValue, error) {
	switch spec.Kind {
	case ListValue:
		return List(f.Value...), nil
	case TextValue:
		if len(f.Value) == 0 {
			return FilterValue{}, nil
		}
		return Text(f.Value[0]), nil
	case NumberValue:
		var n float64
		switch {
		case f.Min != nil:
			n = *f.Min
		case len(f.Value) == 0:
			return FilterValue{}, nil
		default:
			parsed, err := strconv.ParseFloat(f.Value[0], 64)
			if err != nil {
				return FilterValue{}, fmt.Errorf("facet %s: %w", spec.Key, err)
			}
			n = parsed
		}
		if spec.Key == FacetMinRating {
			n = clamp(n, 0, 5)
		}
		return Number(n), nil
	}
	return FilterValue{}, fmt.Errorf("facet %s has no request form", spec.Key)
}

type ModeRequest struct {
	Semantic bool `json:"semantic" schema:"semantic"`
}

func GetModeRequest(r *http.Request) (*ModeRequest, error) {
	mr := &ModeRequest{}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if err := decoder.Decode(mr, r.Form); err != nil {
		return nil, err
	}
	return mr, nil
}
