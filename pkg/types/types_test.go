package types

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterValueJson(t *testing.T) {
	cases := map[string]FilterValue{
		`"it"`:                Text("it"),
		`["a","b"]`:           List("a", "b"),
		`12.5`:                Number(12.5),
		`{"min":1,"max":300}`: Between(1, 300),
		`null`:                {},
	}
	for raw, expected := range cases {
		var v FilterValue
		require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
		assert.True(t, expected.Equal(v), raw)

		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}

	var v FilterValue
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"min":1}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`true`), &v))
}

func TestFilterValueEmptyAndValues(t *testing.T) {
	assert.True(t, FilterValue{}.IsEmpty())
	assert.True(t, Text("  ").IsEmpty())
	assert.True(t, List().IsEmpty())
	assert.False(t, Number(0).IsEmpty())

	first, ok := List("Ingegneria", "Economia").First()
	assert.True(t, ok)
	assert.Equal(t, "Ingegneria", first)
	_, ok = FilterValue{}.First()
	assert.False(t, ok)
	assert.Equal(t, []string{"4.5"}, Number(4.5).Values())
	assert.Equal(t, "1-300", Between(1, 300).String())
}

func TestClonedListsAreIndependent(t *testing.T) {
	v := List("a", "b")
	c := v.Clone()
	c.List[0] = "z"
	assert.Equal(t, "a", v.List[0])
}

func TestCoerce(t *testing.T) {
	faculty, _ := LookupFacet(FacetFaculty)
	year, _ := LookupFacet(FacetCourseYear)
	rating, _ := LookupFacet(FacetMinRating)

	v, err := Text("Ingegneria").Coerce(faculty)
	require.NoError(t, err)
	assert.Equal(t, List("Ingegneria"), v)

	v, err = Number(2).Coerce(year)
	require.NoError(t, err)
	assert.Equal(t, Text("2"), v)

	v, err = Text(" 3.5 ").Coerce(rating)
	require.NoError(t, err)
	assert.Equal(t, Number(3.5), v)

	_, err = Text("many").Coerce(rating)
	assert.Error(t, err)
	_, err = Between(1, 2).Coerce(faculty)
	assert.Error(t, err)

	v, err = List().Coerce(faculty)
	require.NoError(t, err)
	assert.Equal(t, FilterValue{}, v)
}

func TestFacetTable(t *testing.T) {
	facets := Facets()
	assert.Equal(t, FacetFaculty, facets[0].Key)
	for _, f := range facets {
		got, ok := LookupFacet(f.Key)
		require.True(t, ok)
		assert.Equal(t, f.Kind, got.Kind)
	}
	_, ok := ParseFacetKey("colour")
	assert.False(t, ok)

	channel, _ := LookupFacet(FacetChannel)
	assert.Equal(t, "0", channel.Transform(SingleChannel))
	assert.Equal(t, "A-L", channel.Transform("A-L"))

	year, _ := LookupFacet(FacetAcademicYear)
	assert.Equal(t, "2024", year.Transform("2024/2025"))
	assert.Equal(t, "2023", year.Transform(" 2023 "))

	price, _ := LookupFacet(FacetMinPrice)
	assert.False(t, price.IsBackendSearchable())
}

func TestFiltersRange(t *testing.T) {
	f := Filters{FacetMinPrice: Number(10)}
	r, ok := f.RangeOf(FacetMinPrice, FacetMaxPrice, DefaultPriceRange)
	assert.True(t, ok)
	assert.Equal(t, NumberRange{Min: 10, Max: 100}, r)
	assert.True(t, r.Contains(100))
	assert.False(t, r.Contains(9.99))

	_, ok = Filters{}.RangeOf(FacetMinPages, FacetMaxPages, DefaultPagesRange)
	assert.False(t, ok)
}

func TestLenientNumber(t *testing.T) {
	cases := map[string]float64{
		`12.5`:   12.5,
		`"7"`:    7,
		`"3,5"`:  3.5,
		`null`:   0,
		`"free"`: 0,
		`true`:   0,
	}
	for raw, expected := range cases {
		var n LenientNumber
		require.NoError(t, json.Unmarshal([]byte(raw), &n), raw)
		assert.Equal(t, expected, n.Float(), raw)
	}
}

func TestLenientTimestamp(t *testing.T) {
	var item ResultItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","uploaded_at":"2024-05-01T10:00:00Z","price":"4"}`), &item))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli(), item.UploadedAt.Millis())
	assert.Equal(t, 4.0, item.GetPrice())

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &ts))
	assert.Equal(t, int64(1700000000000), ts.Millis())
	require.NoError(t, json.Unmarshal([]byte(`1700000000`), &ts))
	assert.Equal(t, int64(1700000000000), ts.Millis())
	assert.Equal(t, 2023, ts.Year())
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-02"`), &ts))
	assert.Equal(t, 2024, ts.Year())
	require.NoError(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Equal(t, int64(0), ts.Millis())

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestFieldValues(t *testing.T) {
	item := ResultItem{FacultyName: "Economia", Tags: []string{"esame", "riassunto"}}
	assert.Equal(t, []string{"Economia"}, item.FieldValues(FacetFaculty))
	assert.Nil(t, item.FieldValues(FacetCourse))
	assert.Equal(t, []string{"esame", "riassunto"}, item.FieldValues(FacetTag))
	assert.Nil(t, item.FieldValues(FacetMinPrice))
}

func TestFilterRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/filter?key=+tag+&value=esame||+riassunto&value=&min=50&max=10", nil)
	req, err := GetFilterRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "tag", req.Key)
	assert.Equal(t, []string{"esame", "riassunto"}, req.Value)
	assert.Equal(t, 10.0, *req.Min)
	assert.Equal(t, 50.0, *req.Max)

	tag, _ := LookupFacet(FacetTag)
	v, err := req.ToValue(tag)
	require.NoError(t, err)
	assert.Equal(t, List("esame", "riassunto"), v)

	_, err = GetFilterRequest(httptest.NewRequest("GET", "/api/filter?value=x", nil))
	assert.Error(t, err)
}

func TestFilterRequestRating(t *testing.T) {
	rating, _ := LookupFacet(FacetMinRating)
	v, err := (&FilterRequest{Value: []string{"9"}}).ToValue(rating)
	require.NoError(t, err)
	assert.Equal(t, Number(5), v)

	high := -2.0
	v, err = (&FilterRequest{Min: &high}).ToValue(rating)
	require.NoError(t, err)
	assert.Equal(t, Number(0), v)

	v, err = (&FilterRequest{}).ToValue(rating)
	require.NoError(t, err)
	assert.Equal(t, FilterValue{}, v)

	_, err = (&FilterRequest{Value: []string{"x"}}).ToValue(rating)
	assert.Error(t, err)
}

func TestQueryAndModeRequests(t *testing.T) {
	qr, err := GetQueryRequest(httptest.NewRequest("GET", "/api/query?q=analisi&sort=reviews", nil))
	require.NoError(t, err)
	assert.Equal(t, "analisi", qr.Query)
	assert.Equal(t, "reviews", qr.Sort)

	mr, err := GetModeRequest(httptest.NewRequest("POST", "/api/mode?semantic=true", nil))
	require.NoError(t, err)
	assert.True(t, mr.Semantic)
}

func TestParseOrderKey(t *testing.T) {
	k, ok := ParseOrderKey("")
	assert.True(t, ok)
	assert.Equal(t, OrderRelevance, k)
	k, ok = ParseOrderKey("date-oldest")
	assert.True(t, ok)
	assert.Equal(t, OrderDateOldest, k)
	_, ok = ParseOrderKey("cheapest")
	assert.False(t, ok)
	assert.Len(t, OrderKeys(), 8)
	assert.Equal(t, "semantic", SemanticSearch.String())
}
