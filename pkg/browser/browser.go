package browser

import (
	"context"
	"log"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/matst80/slask-browse/pkg/dispatch"
	"github.com/matst80/slask-browse/pkg/filter"
	"github.com/matst80/slask-browse/pkg/hierarchy"
	"github.com/matst80/slask-browse/pkg/sorting"
	"github.com/matst80/slask-browse/pkg/storage"
	"github.com/matst80/slask-browse/pkg/types"
	"golang.org/x/text/language"
)

type Options struct {
	// InstanceId keys persisted state. A new id is generated when empty.
	InstanceId string
	Transport  types.SearchTransport
	Store      types.KeyValueStore
	Renderer   types.Renderer
	Tracking   types.Tracking
	Clock      clock.Clock
	Locale     language.Tag
	Config     dispatch.Config
}

// Browser is one browsing instance. Instances share nothing but the
// underlying store, where every key carries the instance prefix.
type Browser struct {
	id          string
	filters     *filter.State
	persistence *storage.StatePersistence
	hierarchy   *hierarchy.Provider
	dispatcher  *dispatch.Dispatcher
	unsubscribe func()
}

func New(opts Options) *Browser {
	id := opts.InstanceId
	if id == "" {
		id = uuid.NewString()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Locale == language.Und {
		opts.Locale = sorting.DefaultLocale
	}
	store := storage.WithPrefix(opts.Store, storage.InstancePrefix(id))
	persistence := storage.NewStatePersistence(store)

	filters := filter.NewState()
	if data, ok := persistence.LoadFilters(); ok {
		filters.Restore(data)
	}
	config := opts.Config
	config.Semantic = persistence.LoadSearchMode(config.Semantic)

	b := &Browser{
		id:          id,
		filters:     filters,
		persistence: persistence,
		hierarchy:   hierarchy.NewProvider(hierarchy.NewCache(store, opts.Clock), opts.Transport),
		dispatcher: dispatch.NewDispatcher(dispatch.Options{
			InstanceId: id,
			Transport:  opts.Transport,
			Filters:    filters,
			Renderer:   opts.Renderer,
			Orderer:    sorting.NewOrderer(opts.Locale),
			Modes:      persistence,
			Tracking:   opts.Tracking,
			Clock:      opts.Clock,
		}, config),
	}
	b.unsubscribe = filters.Subscribe(b.filtersChanged)
	return b
}

func (b *Browser) filtersChanged(snapshot types.Filters) {
	if err := b.persistence.SaveFilters(b.filters); err != nil {
		log.Printf("[%s] failed to persist filters: %v", b.id, err)
	}
	b.dispatcher.FiltersChanged()
}

func (b *Browser) Id() string {
	return b.id
}

func (b *Browser) SetFilter(key types.FacetKey, value types.FilterValue) error {
	return b.filters.Set(key, value)
}

func (b *Browser) RemoveFilter(key types.FacetKey) {
	b.filters.Remove(key)
}

func (b *Browser) ClearFilters() {
	b.filters.Clear()
}

func (b *Browser) SetPriceRange(min, max float64) {
	b.filters.SetPriceRange(min, max)
}

func (b *Browser) SetPagesRange(min, max float64) {
	b.filters.SetPagesRange(min, max)
}

func (b *Browser) Filters() types.Filters {
	return b.filters.Snapshot()
}

func (b *Browser) Entries() []types.FilterEntry {
	return b.filters.Entries()
}

func (b *Browser) ActiveCount() int {
	return b.filters.ActiveCount()
}

func (b *Browser) SetQuery(text string) {
	b.dispatcher.QueryChanged(text)
}

func (b *Browser) Query() string {
	return b.dispatcher.Query()
}

func (b *Browser) SetOrder(key types.OrderKey) {
	b.dispatcher.OrderChanged(key)
}

func (b *Browser) Order() types.OrderKey {
	return b.dispatcher.Order()
}

func (b *Browser) SetSemantic(semantic bool) {
	b.dispatcher.SetSemantic(semantic)
}

func (b *Browser) Semantic() bool {
	return b.dispatcher.Semantic()
}

func (b *Browser) SetCollection(items []types.ResultItem) {
	b.dispatcher.SetCollection(items)
}

// Refresh searches with the current selection right away.
func (b *Browser) Refresh() {
	b.dispatcher.Refresh()
}

func (b *Browser) State() dispatch.State {
	return b.dispatcher.State()
}

func (b *Browser) Hierarchy(ctx context.Context) types.FacultyToCourseMap {
	return b.hierarchy.Get(ctx)
}

// Courses lists the course options for the selected faculties.
func (b *Browser) Courses(ctx context.Context) []string {
	faculties, _ := b.filters.Get(types.FacetFaculty)
	return b.hierarchy.Courses(ctx, faculties.Values()...)
}

func (b *Browser) InvalidateHierarchy() {
	b.hierarchy.Invalidate()
}

func (b *Browser) Close() {
	b.unsubscribe()
	b.dispatcher.Close()
}
