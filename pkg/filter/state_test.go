package filter

import (
	"testing"

	"github.com/matst80/slask-browse/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetEmptyValuesDeleteKey(t *testing.T) {
	empties := []types.FilterValue{
		{},
		types.Text(""),
		types.Text("   "),
		types.List(),
		{Kind: types.ListValue, List: []string{}},
	}
	for _, spec := range types.Facets() {
		for _, empty := range empties {
			s := NewState()
			if spec.Kind == types.NumberValue {
				require.NoError(t, s.Set(spec.Key, types.Number(3)))
			} else {
				require.NoError(t, s.Set(spec.Key, types.Text("x")))
			}
			require.True(t, s.Has(spec.Key), "facet %s", spec.Key)

			assert.NoError(t, s.Set(spec.Key, empty))
			assert.False(t, s.Has(spec.Key), "facet %s with %v", spec.Key, empty)
			assert.Equal(t, 0, s.Len())
		}
	}
}

func TestSetStoresListVerbatim(t *testing.T) {
	s := NewState()
	values := []string{"Ingegneria", "Economia"}
	require.NoError(t, s.Set(types.FacetFaculty, types.List(values...)))
	values[0] = "changed"

	v, ok := s.Get(types.FacetFaculty)
	require.True(t, ok)
	assert.Equal(t, []string{"Ingegneria", "Economia"}, v.List)
}

func TestSetCoercesTextToList(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Set(types.FacetTag, types.Text("analisi")))
	v, _ := s.Get(types.FacetTag)
	assert.Equal(t, types.ListValue, v.Kind)
	assert.Equal(t, []string{"analisi"}, v.List)
}

func TestSetUnknownFacet(t *testing.T) {
	s := NewState()
	assert.Error(t, s.Set("colour", types.Text("red")))
}

func TestRemoveFacultyCascadesToCourse(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria")))
	require.NoError(t, s.Set(types.FacetCourse, types.List("Analisi 1")))
	require.NoError(t, s.Set(types.FacetTag, types.List("esame")))

	s.Remove(types.FacetFaculty)

	assert.False(t, s.Has(types.FacetFaculty))
	assert.False(t, s.Has(types.FacetCourse))
	assert.True(t, s.Has(types.FacetTag))
}

func TestChangeFacultyCascadesToCourse(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria")))
	require.NoError(t, s.Set(types.FacetCourse, types.List("Analisi 1")))

	// same value is not a change
	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria")))
	assert.True(t, s.Has(types.FacetCourse))

	require.NoError(t, s.Set(types.FacetFaculty, types.List("Economia")))
	assert.False(t, s.Has(types.FacetCourse))

	require.NoError(t, s.Set(types.FacetCourse, types.List("Microeconomia")))
	require.NoError(t, s.Set(types.FacetFaculty, types.List()))
	assert.False(t, s.Has(types.FacetFaculty))
	assert.False(t, s.Has(types.FacetCourse))
}

func TestClear(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Set(types.FacetLanguage, types.List("it")))
	s.SetPriceRange(5, 20)
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.ActiveCount())
}

func TestSetRangeDropsDefaultSpan(t *testing.T) {
	s := NewState()
	s.SetPriceRange(10, 50)
	assert.True(t, s.Has(types.FacetMinPrice))
	assert.True(t, s.Has(types.FacetMaxPrice))

	s.SetPriceRange(0, 100)
	assert.False(t, s.Has(types.FacetMinPrice))
	assert.False(t, s.Has(types.FacetMaxPrice))

	s.SetPagesRange(1000, 1)
	assert.False(t, s.Has(types.FacetMinPages))

	s.SetPagesRange(200, 10)
	v, _ := s.Get(types.FacetMinPages)
	assert.Equal(t, float64(10), v.Number)
}

func TestSetDropsDefaultSpanPerKey(t *testing.T) {
	s := NewState()
	calls := 0
	s.Subscribe(func(types.Filters) { calls++ })

	require.NoError(t, s.Set(types.FacetMinPrice, types.Number(0)))
	require.NoError(t, s.Set(types.FacetMaxPrice, types.Number(100)))
	assert.False(t, s.Has(types.FacetMinPrice))
	assert.False(t, s.Has(types.FacetMaxPrice))
	assert.Empty(t, s.Entries())
	assert.Equal(t, 0, calls)

	require.NoError(t, s.Set(types.FacetMinPages, types.Number(20)))
	require.NoError(t, s.Set(types.FacetMaxPages, types.Number(1000)))
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Set(types.FacetMinPages, types.Number(1)))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Entries())
	assert.Equal(t, 0, s.ActiveCount())
	assert.Equal(t, 3, calls)
}

func TestRestoreDropsDefaultSpan(t *testing.T) {
	s := NewState()
	s.Restore([]byte(`{"minPages":1,"maxPages":1000,"minPrice":0,"maxPrice":40,"tag":["esame"]}`))
	assert.False(t, s.Has(types.FacetMinPages))
	assert.False(t, s.Has(types.FacetMaxPages))
	assert.True(t, s.Has(types.FacetMinPrice))
	assert.Len(t, s.Entries(), 3)
	assert.Equal(t, 2, s.ActiveCount())

	values, err := Decode([]byte(`{"maxPrice":100}`))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestActiveCount(t *testing.T) {
	tests := []struct {
		name    string
		filters types.Filters
		want    int
	}{
		{"empty", types.Filters{}, 0},
		{"example", types.Filters{
			types.FacetFaculty:   types.List("Ingegneria"),
			types.FacetMinPrice:  types.Number(10),
			types.FacetMaxPrice:  types.Number(50),
			types.FacetPriceType: types.Text(types.PriceTypePaid),
		}, 2},
		{"price type all", types.Filters{types.FacetPriceType: types.Text(types.PriceTypeAll)}, 0},
		{"price type free", types.Filters{types.FacetPriceType: types.Text(types.PriceTypeFree)}, 1},
		{"default price span", types.Filters{
			types.FacetMinPrice: types.Number(0),
			types.FacetMaxPrice: types.Number(100),
		}, 0},
		{"only min price", types.Filters{types.FacetMinPrice: types.Number(5)}, 1},
		{"pages range", types.Filters{
			types.FacetMinPages: types.Number(10),
			types.FacetMaxPages: types.Number(200),
		}, 1},
		{"default pages span", types.Filters{
			types.FacetMinPages: types.Number(1),
			types.FacetMaxPages: types.Number(1000),
		}, 0},
		{"every group", types.Filters{
			types.FacetCourse:      types.List("Analisi 1", "Analisi 2"),
			types.FacetTag:         types.List("esame"),
			types.FacetMinRating:   types.Number(4),
			types.FacetListingType: types.Text(types.ListingSingle),
			types.FacetMaxPrice:    types.Number(30),
			types.FacetPriceType:   types.Text(types.PriceTypeAll),
			types.FacetMaxPages:    types.Number(50),
		}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActiveCount(tt.filters); got != tt.want {
				t.Errorf("Expected %d active filters, got %d", tt.want, got)
			}
		})
	}
}

func TestSubscribeReceivesEffectiveChanges(t *testing.T) {
	s := NewState()
	var snapshots []types.Filters
	unsubscribe := s.Subscribe(func(snapshot types.Filters) {
		snapshots = append(snapshots, snapshot)
	})

	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria")))
	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria")))
	s.Remove(types.FacetLanguage)
	s.Remove(types.FacetFaculty)
	assert.Len(t, snapshots, 2)
	assert.True(t, snapshots[0].HasField(types.FacetFaculty))
	assert.False(t, snapshots[1].HasField(types.FacetFaculty))

	unsubscribe()
	require.NoError(t, s.Set(types.FacetTag, types.List("esame")))
	assert.Len(t, snapshots, 2)
}

func TestInstancesAreIsolated(t *testing.T) {
	a := NewState()
	b := NewState()
	require.NoError(t, a.Set(types.FacetFaculty, types.List("Ingegneria")))
	assert.False(t, b.Has(types.FacetFaculty))
}

func TestRestoreRoundTrip(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria", "Economia")))
	require.NoError(t, s.Set(types.FacetPriceType, types.Text(types.PriceTypePaid)))
	s.SetPriceRange(10, 50)

	data, err := s.MarshalJSON()
	require.NoError(t, err)

	restored := NewState()
	restored.Restore(data)
	assert.Equal(t, s.Snapshot(), restored.Snapshot())
	assert.Equal(t, 2, restored.ActiveCount())
}

func TestRestoreMalformedResetsToEmpty(t *testing.T) {
	inputs := []string{
		`{not json`,
		`["faculty"]`,
		`{"colour":"red"}`,
		`{"faculty":[1,2]}`,
		`{"minPrice":"cheap"}`,
		`{"minPrice":{"min":1}}`,
	}
	for _, input := range inputs {
		s := NewState()
		require.NoError(t, s.Set(types.FacetTag, types.List("esame")))
		s.Restore([]byte(input))
		assert.Equal(t, 0, s.Len(), "input %s", input)
	}
}

func TestRestoreDropsEmptyEntries(t *testing.T) {
	s := NewState()
	s.Restore([]byte(`{"faculty":[],"course":"Analisi 1","language":"","minRating":"4"}`))
	assert.False(t, s.Has(types.FacetFaculty))
	assert.False(t, s.Has(types.FacetLanguage))
	course, _ := s.Get(types.FacetCourse)
	assert.Equal(t, []string{"Analisi 1"}, course.List)
	rating, _ := s.Get(types.FacetMinRating)
	assert.Equal(t, float64(4), rating.Number)
}

func TestEntriesFollowFacetOrder(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Set(types.FacetMinRating, types.Number(3)))
	require.NoError(t, s.Set(types.FacetFaculty, types.List("Ingegneria")))
	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, types.FacetFaculty, entries[0].Key)
	assert.Equal(t, types.FacetMinRating, entries[1].Key)
}
