package storage

import "github.com/matst80/slask-browse/pkg/types"

// InstancePrefix is the key namespace of one browsing instance.
func InstancePrefix(instanceId string) string {
	return "browse_" + instanceId + "_"
}

type prefixedStore struct {
	prefix string
	store  types.KeyValueStore
}

// WithPrefix namespaces every key of store.
func WithPrefix(store types.KeyValueStore, prefix string) types.KeyValueStore {
	return &prefixedStore{prefix: prefix, store: store}
}

func (p *prefixedStore) Get(key string) ([]byte, bool, error) {
	return p.store.Get(p.prefix + key)
}

func (p *prefixedStore) Set(key string, value []byte) error {
	return p.store.Set(p.prefix+key, value)
}

func (p *prefixedStore) Remove(key string) error {
	return p.store.Remove(p.prefix + key)
}
