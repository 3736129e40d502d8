// Package storage provides the key-value port behind the local store.
// Keys are opaque strings and values are opaque serialized blobs, which
// keeps the store's lifecycle (init from storage, repair, flush) explicit
// and mockable in tests.
package storage

// KV is the durable key-value port. Get reports ok=false for an absent
// key; an error is reserved for infrastructure failures.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
