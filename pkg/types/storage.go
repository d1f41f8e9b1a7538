package types

// KeyValueStore is the snapshot store used for filter state, search mode
// and the hierarchy cache. A missing key is not an error.
type KeyValueStore interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}
