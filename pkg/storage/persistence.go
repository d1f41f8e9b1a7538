package storage

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/matst80/slask-browse/pkg/types"
)

const (
	FiltersKey    = "filters"
	SearchModeKey = "ai_search"
	HierarchyKey  = "hierarchy"
)

// StatePersistence snapshots the browsing state of one instance. Read
// failures are logged and reported as missing.
type StatePersistence struct {
	store types.KeyValueStore
}

func NewStatePersistence(store types.KeyValueStore) *StatePersistence {
	return &StatePersistence{store: store}
}

func (p *StatePersistence) Store() types.KeyValueStore {
	return p.store
}

func (p *StatePersistence) SaveFilters(state json.Marshaler) error {
	data, err := state.MarshalJSON()
	if err != nil {
		return err
	}
	return p.store.Set(FiltersKey, data)
}

func (p *StatePersistence) LoadFilters() ([]byte, bool) {
	return p.load(FiltersKey)
}

func (p *StatePersistence) SaveSearchMode(semantic bool) error {
	return p.store.Set(SearchModeKey, []byte(strconv.FormatBool(semantic)))
}

// LoadSearchMode returns the persisted flag, or def when none is stored or
// the stored value is not a boolean.
func (p *StatePersistence) LoadSearchMode(def bool) bool {
	data, ok := p.load(SearchModeKey)
	if !ok {
		return def
	}
	semantic, err := strconv.ParseBool(string(data))
	if err != nil {
		log.Printf("invalid search mode %q, using %v", data, def)
		return def
	}
	return semantic
}

func (p *StatePersistence) Clear() {
	for _, key := range []string{FiltersKey, SearchModeKey} {
		if err := p.store.Remove(key); err != nil {
			log.Printf("failed to remove %s: %v", key, err)
		}
	}
}

func (p *StatePersistence) load(key string) ([]byte, bool) {
	data, ok, err := p.store.Get(key)
	if err != nil {
		log.Printf("failed to read %s: %v", key, err)
		return nil, false
	}
	return data, ok
}
