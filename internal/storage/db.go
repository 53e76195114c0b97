// Package storage provides database abstractions.
package storage

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Reader is the read side of a key-value store or transaction.
type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in ascending key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
}

// Writer is a Reader that can also modify keys.
type Writer interface {
	Reader
	Put(key, value []byte) error
	Delete(key []byte) error
}

// DB is the interface for key-value storage.
//
// The direct methods each run in their own transaction. View runs fn against a
// consistent snapshot; Update runs fn in a read-write transaction that commits
// only if fn returns nil.
type DB interface {
	Writer
	View(fn func(tx Reader) error) error
	Update(fn func(tx Writer) error) error
	Close() error
}
