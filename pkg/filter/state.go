package filter

import (
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"slices"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-browse/pkg/types"
)

// ChangeHandler is called after every mutation that changed the state.
type ChangeHandler func(snapshot types.Filters)

// State is the canonical record of active facet selections for one browsing
// instance. A key is only present while it holds a meaningful value.
type State struct {
	mu        sync.RWMutex
	values    map[types.FacetKey]types.FilterValue
	handlerMu sync.Mutex
	handlers  map[int]ChangeHandler
	nextId    int
}

func NewState() *State {
	return &State{
		values:   make(map[types.FacetKey]types.FilterValue),
		handlers: make(map[int]ChangeHandler),
	}
}

// Subscribe registers a change handler and returns its unsubscribe function.
func (s *State) Subscribe(fn ChangeHandler) func() {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	id := s.nextId
	s.nextId++
	s.handlers[id] = fn
	return func() {
		s.handlerMu.Lock()
		defer s.handlerMu.Unlock()
		delete(s.handlers, id)
	}
}

func (s *State) notify() {
	snapshot := s.Snapshot()
	s.handlerMu.Lock()
	handlers := make([]ChangeHandler, 0, len(s.handlers))
	for _, id := range slices.Sorted(maps.Keys(s.handlers)) {
		handlers = append(handlers, s.handlers[id])
	}
	s.handlerMu.Unlock()
	for _, fn := range handlers {
		fn(snapshot)
	}
}

// Set stores value for key. Null, blank text and empty lists delete the key.
// Changing the faculty selection drops the course selection with it.
func (s *State) Set(key types.FacetKey, value types.FilterValue) error {
	spec, ok := types.LookupFacet(key)
	if !ok {
		return fmt.Errorf("unknown facet %q", key)
	}
	value, err := value.Coerce(spec)
	if err != nil {
		return err
	}
	if value.IsEmpty() {
		s.Remove(key)
		return nil
	}
	s.mu.Lock()
	current, had := s.values[key]
	if had && current.Equal(value) {
		s.mu.Unlock()
		return nil
	}
	before := types.Filters(s.values).Clone()
	s.values[key] = value.Clone()
	if key == types.FacetFaculty {
		delete(s.values, types.FacetCourse)
	}
	dropDefaultRanges(s.values)
	changed := !maps.EqualFunc(before, s.values, types.FilterValue.Equal)
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return nil
}

type rangePair struct {
	min, max types.FacetKey
	defaults types.NumberRange
}

var rangePairs = []rangePair{
	{types.FacetMinPrice, types.FacetMaxPrice, types.DefaultPriceRange},
	{types.FacetMinPages, types.FacetMaxPages, types.DefaultPagesRange},
}

// dropDefaultRanges removes min/max pairs that resolve to their default
// span, missing bounds taking the default.
func dropDefaultRanges(values map[types.FacetKey]types.FilterValue) {
	for _, p := range rangePairs {
		r, ok := types.Filters(values).RangeOf(p.min, p.max, p.defaults)
		if ok && r == p.defaults {
			delete(values, p.min)
			delete(values, p.max)
		}
	}
}

// SetRange stores a min/max pair. A pair equal to the default span is the
// absence of a filter and removes both keys.
func (s *State) SetRange(minKey, maxKey types.FacetKey, r types.NumberRange, defaults types.NumberRange) {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	s.mu.Lock()
	before := len(s.values)
	oldMin, hadMin := s.values[minKey]
	oldMax, hadMax := s.values[maxKey]
	if r == defaults {
		delete(s.values, minKey)
		delete(s.values, maxKey)
		changed := len(s.values) != before
		s.mu.Unlock()
		if changed {
			s.notify()
		}
		return
	}
	s.values[minKey] = types.Number(r.Min)
	s.values[maxKey] = types.Number(r.Max)
	changed := !hadMin || !hadMax || oldMin.Number != r.Min || oldMax.Number != r.Max
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

func (s *State) SetPriceRange(min, max float64) {
	s.SetRange(types.FacetMinPrice, types.FacetMaxPrice, types.NumberRange{Min: min, Max: max}, types.DefaultPriceRange)
}

func (s *State) SetPagesRange(min, max float64) {
	s.SetRange(types.FacetMinPages, types.FacetMaxPages, types.NumberRange{Min: min, Max: max}, types.DefaultPagesRange)
}

// Remove deletes key. Removing faculty also removes course.
func (s *State) Remove(key types.FacetKey) {
	s.mu.Lock()
	_, had := s.values[key]
	delete(s.values, key)
	if key == types.FacetFaculty {
		if _, hadCourse := s.values[types.FacetCourse]; hadCourse {
			had = true
			delete(s.values, types.FacetCourse)
		}
	}
	s.mu.Unlock()
	if had {
		s.notify()
	}
}

func (s *State) Clear() {
	s.mu.Lock()
	had := len(s.values) > 0
	s.values = make(map[types.FacetKey]types.FilterValue)
	s.mu.Unlock()
	if had {
		s.notify()
	}
}

func (s *State) Has(key types.FacetKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

func (s *State) Get(key types.FacetKey) (types.FilterValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v.Clone(), ok
}

func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Snapshot returns a deep copy safe to use after further mutations.
func (s *State) Snapshot() types.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Filters(s.values).Clone()
}

// Entries lists the stored selections in facet table order.
func (s *State) Entries() []types.FilterEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]types.FilterEntry, 0, len(s.values))
	for _, spec := range types.Facets() {
		if v, ok := s.values[spec.Key]; ok {
			ret = append(ret, types.FilterEntry{Key: spec.Key, Label: spec.Label, Value: v.Clone()})
		}
	}
	return ret
}

// ActiveCount returns the number of filters as a user perceives them.
func (s *State) ActiveCount() int {
	return ActiveCount(s.Snapshot())
}

func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Restore replaces the state with a persisted snapshot. Any malformed content
// resets the state to empty; the error is only logged.
func (s *State) Restore(data []byte) {
	values, err := Decode(data)
	if err != nil {
		log.Printf("discarding persisted filters: %v", err)
		values = types.Filters{}
	}
	s.mu.Lock()
	s.values = map[types.FacetKey]types.FilterValue(values)
	s.mu.Unlock()
}

// Decode parses a persisted snapshot, validating every key and value kind
// against the facet table. Range pairs at their default span are dropped.
func Decode(data []byte) (types.Filters, error) {
	ret := types.Filters{}
	if len(data) == 0 {
		return ret, nil
	}
	raw := map[string]types.FilterValue{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	for k, v := range raw {
		key, ok := types.ParseFacetKey(k)
		if !ok {
			return nil, fmt.Errorf("unknown facet %q", k)
		}
		spec, _ := types.LookupFacet(key)
		value, err := v.Coerce(spec)
		if err != nil {
			return nil, err
		}
		if value.IsEmpty() {
			continue
		}
		ret[key] = value
	}
	dropDefaultRanges(ret)
	return ret, nil
}
