package hierarchy

import (
	"log"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/bytedance/sonic"
	"github.com/matst80/slask-browse/pkg/storage"
	"github.com/matst80/slask-browse/pkg/types"
)

// CurrentVersion is the schema version of stored entries. Entries written
// with any other version are never served.
const CurrentVersion = 2

const TTL = 24 * time.Hour

type CacheEntry struct {
	Version   int                      `json:"version"`
	FetchedAt int64                    `json:"fetchedAt"`
	Data      types.FacultyToCourseMap `json:"data"`
}

// Cache keeps the faculty to course map in a key/value store.
type Cache struct {
	store types.KeyValueStore
	clock clock.Clock
	ttl   time.Duration
}

func NewCache(store types.KeyValueStore, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.New()
	}
	return &Cache{
		store: store,
		clock: clk,
		ttl:   TTL,
	}
}

func (c *Cache) load() (*CacheEntry, bool) {
	data, ok, err := c.store.Get(storage.HierarchyKey)
	if err != nil {
		log.Printf("hierarchy cache read failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	entry := &CacheEntry{}
	if err = sonic.Unmarshal(data, entry); err != nil {
		log.Printf("hierarchy cache entry is malformed: %v", err)
		return nil, false
	}
	return entry, true
}

func (c *Cache) fresh(entry *CacheEntry) bool {
	age := c.clock.Now().Sub(time.UnixMilli(entry.FetchedAt))
	return age <= c.ttl
}

// Read returns the stored map when it has the current version and is
// within the TTL.
func (c *Cache) Read() (types.FacultyToCourseMap, bool) {
	entry, ok := c.load()
	if !ok || entry.Version != CurrentVersion || !c.fresh(entry) {
		return nil, false
	}
	return entry.Data, true
}

// ReadExpiredFallback ignores the TTL but still requires the current version.
func (c *Cache) ReadExpiredFallback() (types.FacultyToCourseMap, bool) {
	entry, ok := c.load()
	if !ok || entry.Version != CurrentVersion {
		return nil, false
	}
	return entry.Data, true
}

func (c *Cache) Write(data types.FacultyToCourseMap) {
	entry := CacheEntry{
		Version:   CurrentVersion,
		FetchedAt: c.clock.Now().UnixMilli(),
		Data:      data,
	}
	bytes, err := sonic.Marshal(entry)
	if err != nil {
		log.Printf("failed to encode hierarchy cache entry: %v", err)
		return
	}
	if err = c.store.Set(storage.HierarchyKey, bytes); err != nil {
		log.Printf("failed to write hierarchy cache: %v", err)
	}
}

func (c *Cache) Invalidate() {
	if err := c.store.Remove(storage.HierarchyKey); err != nil {
		log.Printf("failed to invalidate hierarchy cache: %v", err)
	}
}

// dropMismatched removes an entry written with another schema version.
func (c *Cache) dropMismatched() {
	entry, ok := c.load()
	if ok && entry.Version != CurrentVersion {
		log.Printf("dropping hierarchy cache entry with version %d", entry.Version)
		c.Invalidate()
	}
}
