package hierarchy

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/matst80/slask-browse/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	hierarchyLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskbrowse_hierarchy_lookups_total",
		Help: "Hierarchy lookups by the source that answered them",
	}, []string{"source"})
	hierarchyFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskbrowse_hierarchy_fetch_errors_total",
		Help: "The total number of failed hierarchy fetches",
	})
)

// FetchTimeout bounds the shared remote fetch.
const FetchTimeout = 10 * time.Second

type memoryEntry struct {
	data      types.FacultyToCourseMap
	fetchedAt time.Time
}

// Provider answers faculty to course lookups from memory, the cache or the
// remote side, in that order. Concurrent fetches are collapsed into one.
type Provider struct {
	cache     *Cache
	transport types.SearchTransport
	mu        sync.RWMutex
	memory    *memoryEntry
	group     singleflight.Group
}

func NewProvider(cache *Cache, transport types.SearchTransport) *Provider {
	return &Provider{
		cache:     cache,
		transport: transport,
	}
}

func (p *Provider) fromMemory() (types.FacultyToCourseMap, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.memory == nil || p.cache.clock.Since(p.memory.fetchedAt) > p.cache.ttl {
		return nil, false
	}
	return p.memory.data, true
}

func (p *Provider) remember(data types.FacultyToCourseMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memory = &memoryEntry{data: data, fetchedAt: p.cache.clock.Now()}
}

// Get never fails: when the remote side is unavailable an expired entry is
// served, and an empty map when there is none.
func (p *Provider) Get(ctx context.Context) types.FacultyToCourseMap {
	if data, ok := p.fromMemory(); ok {
		hierarchyLookups.WithLabelValues("memory").Inc()
		return clone(data)
	}
	p.cache.dropMismatched()
	if data, ok := p.cache.Read(); ok {
		hierarchyLookups.WithLabelValues("cache").Inc()
		p.remember(data)
		return clone(data)
	}

	// The shared fetch outlives any single caller; a caller that gives up
	// falls back without cancelling it for the others.
	ch := p.group.DoChan("hierarchy", func() (any, error) {
		fetchCtx, cancel := p.cache.clock.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		data, err := p.transport.FetchHierarchy(fetchCtx)
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = types.FacultyToCourseMap{}
		}
		p.cache.Write(data)
		p.remember(data)
		return data, nil
	})
	var err error
	select {
	case res := <-ch:
		if res.Err == nil {
			hierarchyLookups.WithLabelValues("remote").Inc()
			return clone(res.Val.(types.FacultyToCourseMap))
		}
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}

	hierarchyFetchErrors.Inc()
	log.Printf("hierarchy fetch failed: %v", err)
	if data, ok := p.cache.ReadExpiredFallback(); ok {
		hierarchyLookups.WithLabelValues("expired").Inc()
		return clone(data)
	}
	hierarchyLookups.WithLabelValues("empty").Inc()
	return types.FacultyToCourseMap{}
}

// Courses lists the courses of the given faculties, or of all faculties
// when none is given, sorted and without duplicates.
func (p *Provider) Courses(ctx context.Context, faculties ...string) []string {
	data := p.Get(ctx)
	if len(faculties) == 0 {
		faculties = make([]string, 0, len(data))
		for faculty := range data {
			faculties = append(faculties, faculty)
		}
	}
	ret := make([]string, 0)
	for _, faculty := range faculties {
		ret = append(ret, data[faculty]...)
	}
	slices.Sort(ret)
	return slices.Compact(ret)
}

func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.memory = nil
	p.mu.Unlock()
	p.cache.Invalidate()
}

func clone(data types.FacultyToCourseMap) types.FacultyToCourseMap {
	ret := make(types.FacultyToCourseMap, len(data))
	for faculty, courses := range data {
		ret[faculty] = slices.Clone(courses)
	}
	return ret
}
