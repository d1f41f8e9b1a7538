package browser

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matst80/slask-browse/pkg/dispatch"
	"github.com/matst80/slask-browse/pkg/storage"
	"github.com/matst80/slask-browse/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	mu     sync.Mutex
	params []map[string]string
	kinds  []types.EndpointKind
}

func (m *mockTransport) Search(ctx context.Context, kind types.EndpointKind, params map[string]string) (*types.ResultPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = append(m.params, params)
	m.kinds = append(m.kinds, kind)
	return &types.ResultPage{Items: []types.ResultItem{
		{Id: "1", Title: "Analisi", FacultyName: "Ingegneria"},
		{Id: "2", Title: "Bilancio", FacultyName: "Economia", Price: 3},
	}}, nil
}

func (m *mockTransport) FetchHierarchy(ctx context.Context) (types.FacultyToCourseMap, error) {
	return types.FacultyToCourseMap{
		"Ingegneria": {"Fisica", "Analisi 1"},
		"Economia":   {"Ragioneria"},
	}, nil
}

func (m *mockTransport) searches() []map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]string(nil), m.params...)
}

type snapshotRenderer struct {
	renders chan []types.ResultItem
	active  chan int
}

func newSnapshotRenderer() *snapshotRenderer {
	return &snapshotRenderer{renders: make(chan []types.ResultItem, 16), active: make(chan int, 16)}
}

func (s *snapshotRenderer) Render(items []types.ResultItem, activeFilters int) {
	s.renders <- items
	s.active <- activeFilters
}

func (s *snapshotRenderer) ReportError(err error) {}

func (s *snapshotRenderer) next(t *testing.T) ([]types.ResultItem, int) {
	t.Helper()
	select {
	case items := <-s.renders:
		return items, <-s.active
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for results")
	}
	return nil, 0
}

func newBrowser(t *testing.T, id string, store types.KeyValueStore, clk clock.Clock, r types.Renderer) (*Browser, *mockTransport) {
	tr := &mockTransport{}
	b := New(Options{
		InstanceId: id,
		Transport:  tr,
		Store:      store,
		Renderer:   r,
		Clock:      clk,
		Config:     dispatch.DefaultConfig(),
	})
	t.Cleanup(b.Close)
	return b, tr
}

func TestNewGeneratesInstanceId(t *testing.T) {
	a, _ := newBrowser(t, "", nil, clock.NewMock(), newSnapshotRenderer())
	b, _ := newBrowser(t, "", nil, clock.NewMock(), newSnapshotRenderer())
	assert.NotEmpty(t, a.Id())
	assert.NotEqual(t, a.Id(), b.Id())
}

func TestFilterChangesArePersistedAndDispatched(t *testing.T) {
	store := storage.NewMemoryStore()
	clk := clock.NewMock()
	r := newSnapshotRenderer()
	b, tr := newBrowser(t, "panel-1", store, clk, r)

	require.NoError(t, b.SetFilter(types.FacetFaculty, types.List("Ingegneria", "Economia")))
	b.SetPriceRange(0, 100)
	clk.Add(500 * time.Millisecond)

	items, active := r.next(t)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, active)
	assert.Equal(t, []map[string]string{{"faculty": "Ingegneria"}}, tr.searches())

	raw, ok, err := store.Get("browse_panel-1_filters")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"faculty":["Ingegneria","Economia"]}`, string(raw))
}

func TestStateIsRestoredForSameInstance(t *testing.T) {
	store := storage.NewMemoryStore()
	first, _ := newBrowser(t, "panel-1", store, clock.NewMock(), newSnapshotRenderer())
	require.NoError(t, first.SetFilter(types.FacetLanguage, types.List("it")))
	first.SetPriceRange(10, 50)
	first.SetSemantic(true)
	first.Close()

	again, _ := newBrowser(t, "panel-1", store, clock.NewMock(), newSnapshotRenderer())
	assert.Equal(t, types.Filters{
		types.FacetLanguage: types.List("it"),
		types.FacetMinPrice: types.Number(10),
		types.FacetMaxPrice: types.Number(50),
	}, again.Filters())
	assert.True(t, again.Semantic())
	assert.Equal(t, 2, again.ActiveCount())
}

func TestInstancesDoNotShareState(t *testing.T) {
	store := storage.NewMemoryStore()
	a, _ := newBrowser(t, "a", store, clock.NewMock(), newSnapshotRenderer())
	b, _ := newBrowser(t, "b", store, clock.NewMock(), newSnapshotRenderer())

	require.NoError(t, a.SetFilter(types.FacetTag, types.List("esame")))
	assert.Empty(t, b.Filters())
	assert.Equal(t, 1, a.ActiveCount())

	a.Hierarchy(context.Background())
	assert.ElementsMatch(t, []string{"browse_a_filters", "browse_a_hierarchy"}, store.Keys())
}

func TestMalformedPersistedFiltersStartEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set("browse_x_filters", []byte(`{"faculty":`)))
	require.NoError(t, store.Set("browse_x_ai_search", []byte("false")))

	b, _ := newBrowser(t, "x", store, clock.NewMock(), newSnapshotRenderer())
	assert.Empty(t, b.Filters())
	assert.False(t, b.Semantic())
}

func TestCoursesFollowSelectedFaculty(t *testing.T) {
	b, _ := newBrowser(t, "c", nil, clock.NewMock(), newSnapshotRenderer())
	ctx := context.Background()

	assert.Equal(t, []string{"Analisi 1", "Fisica", "Ragioneria"}, b.Courses(ctx))
	require.NoError(t, b.SetFilter(types.FacetFaculty, types.List("Ingegneria")))
	assert.Equal(t, []string{"Analisi 1", "Fisica"}, b.Courses(ctx))

	require.NoError(t, b.SetFilter(types.FacetCourse, types.List("Fisica")))
	b.RemoveFilter(types.FacetFaculty)
	assert.False(t, b.filters.Has(types.FacetCourse))
	assert.Len(t, b.Courses(ctx), 3)
}

func TestQueryAndOrder(t *testing.T) {
	clk := clock.NewMock()
	r := newSnapshotRenderer()
	b, tr := newBrowser(t, "q", nil, clk, r)

	b.SetQuery("bilancio")
	clk.Add(300 * time.Millisecond)
	items, _ := r.next(t)
	assert.Equal(t, "1", items[0].Id)
	assert.Equal(t, "bilancio", tr.searches()[0]["text"])
	assert.Equal(t, "bilancio", b.Query())

	b.SetOrder(types.OrderPriceHighest)
	items, _ = r.next(t)
	assert.Equal(t, "2", items[0].Id)
	assert.Equal(t, types.OrderPriceHighest, b.Order())
	assert.Len(t, tr.searches(), 1)
}

func TestClearFiltersDispatches(t *testing.T) {
	clk := clock.NewMock()
	r := newSnapshotRenderer()
	b, _ := newBrowser(t, "clear", nil, clk, r)
	b.SetCollection([]types.ResultItem{{Id: "a"}, {Id: "b", Price: 2}})
	r.next(t)

	require.NoError(t, b.SetFilter(types.FacetPriceType, types.Text(types.PriceTypePaid)))
	clk.Add(500 * time.Millisecond)
	items, active := r.next(t)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, active)

	b.ClearFilters()
	clk.Add(500 * time.Millisecond)
	items, active = r.next(t)
	assert.Len(t, items, 2)
	assert.Equal(t, 0, active)
	assert.Empty(t, b.Entries())
}
