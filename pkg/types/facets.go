package types

import "strings"

type FacetKey string

const (
	FacetFaculty      FacetKey = "faculty"
	FacetCourse       FacetKey = "course"
	FacetChannel      FacetKey = "channel"
	FacetTag          FacetKey = "tag"
	FacetDocumentType FacetKey = "documentType"
	FacetLanguage     FacetKey = "language"
	FacetAcademicYear FacetKey = "academicYear"
	FacetCourseYear   FacetKey = "courseYear"
	FacetMinPrice     FacetKey = "minPrice"
	FacetMaxPrice     FacetKey = "maxPrice"
	FacetPriceType    FacetKey = "priceType"
	FacetMinPages     FacetKey = "minPages"
	FacetMaxPages     FacetKey = "maxPages"
	FacetMinRating    FacetKey = "minRating"
	FacetListingType  FacetKey = "listingType"
)

const (
	PriceTypeAll  = "all"
	PriceTypeFree = "free"
	PriceTypePaid = "paid"

	ListingSingle   = "single"
	ListingMultiple = "multiple"

	// SingleChannel is the label used for courses that are not split into channels.
	SingleChannel = "Canale Unico"
)

// Default spans for the range facets; a range equal to its span is not a filter.
var (
	DefaultPriceRange = NumberRange{Min: 0, Max: 100}
	DefaultPagesRange = NumberRange{Min: 1, Max: 1000}
)

type ValueKind uint8

const (
	NoValue ValueKind = iota
	TextValue
	ListValue
	NumberValue
	RangeValue
)

func (k ValueKind) String() string {
	switch k {
	case TextValue:
		return "text"
	case ListValue:
		return "list"
	case NumberValue:
		return "number"
	case RangeValue:
		return "range"
	default:
		return "none"
	}
}

// FacetSpec describes how a facet is stored, sent to the backend and shown.
type FacetSpec struct {
	Key          FacetKey
	Kind         ValueKind
	MultiSelect  bool
	BackendParam string
	Label        string
	// Transform rewrites a value before it is sent to the backend.
	Transform func(string) string
}

func (s FacetSpec) IsBackendSearchable() bool {
	return s.BackendParam != ""
}

func channelParam(v string) string {
	if v == SingleChannel {
		return "0"
	}
	return v
}

// academicYearParam keeps the start year of "2024/2025".
func academicYearParam(v string) string {
	if idx := strings.Index(v, "/"); idx > 0 {
		return strings.TrimSpace(v[:idx])
	}
	return strings.TrimSpace(v)
}

var facetTable = []FacetSpec{
	{Key: FacetFaculty, Kind: ListValue, MultiSelect: true, BackendParam: "faculty", Label: "Facoltà"},
	{Key: FacetCourse, Kind: ListValue, MultiSelect: true, BackendParam: "course", Label: "Corso"},
	{Key: FacetChannel, Kind: ListValue, MultiSelect: true, BackendParam: "canale", Label: "Canale", Transform: channelParam},
	{Key: FacetTag, Kind: ListValue, MultiSelect: true, BackendParam: "tag", Label: "Tag"},
	{Key: FacetDocumentType, Kind: ListValue, MultiSelect: true, BackendParam: "document_type", Label: "Tipo"},
	{Key: FacetLanguage, Kind: ListValue, MultiSelect: true, BackendParam: "language", Label: "Lingua"},
	{Key: FacetAcademicYear, Kind: ListValue, MultiSelect: true, BackendParam: "academic_year", Label: "Anno accademico", Transform: academicYearParam},
	{Key: FacetCourseYear, Kind: TextValue, BackendParam: "course_year", Label: "Anno di corso"},
	{Key: FacetMinPrice, Kind: NumberValue, Label: "Prezzo min"},
	{Key: FacetMaxPrice, Kind: NumberValue, Label: "Prezzo max"},
	{Key: FacetPriceType, Kind: TextValue, Label: "Prezzo"},
	{Key: FacetMinPages, Kind: NumberValue, Label: "Pagine min"},
	{Key: FacetMaxPages, Kind: NumberValue, Label: "Pagine max"},
	{Key: FacetMinRating, Kind: NumberValue, Label: "Valutazione"},
	{Key: FacetListingType, Kind: TextValue, Label: "Tipo vetrina"},
}

var facetsByKey = func() map[FacetKey]FacetSpec {
	m := make(map[FacetKey]FacetSpec, len(facetTable))
	for _, f := range facetTable {
		m[f.Key] = f
	}
	return m
}()

func LookupFacet(key FacetKey) (FacetSpec, bool) {
	f, ok := facetsByKey[key]
	return f, ok
}

// Facets returns the facet table in display order.
func Facets() []FacetSpec {
	ret := make([]FacetSpec, len(facetTable))
	copy(ret, facetTable)
	return ret
}

func ParseFacetKey(s string) (FacetKey, bool) {
	_, ok := facetsByKey[FacetKey(s)]
	return FacetKey(s), ok
}
