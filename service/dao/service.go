// Package dao defines the keyed record store the kv ledger is assembled from.
package dao

import "context"

// Service stores *T records under the key returned by the store's key func.
// Save replaces any record with the same key; List returns records matching
// every parameter, in store order.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error
	Load(ctx context.Context, id K) (*T, error)
	Delete(ctx context.Context, id K) error
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
