package storage

import (
	"sort"
	"strings"
	"sync"
)

// MemoryDB implements DB using an in-memory map. Update transactions are
// serialized and buffer their writes until fn succeeds.
type MemoryDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates a new in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

// Get retrieves a value by key.
func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memReader{m.data}.Get(key)
}

// Put stores a key-value pair.
func (m *MemoryDB) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = cloneBytes(value)
	return nil
}

// Delete removes a key.
func (m *MemoryDB) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

// Has checks if a key exists.
func (m *MemoryDB) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memReader{m.data}.Has(key)
}

// ForEach iterates over all keys with the given prefix.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return memReader{m.data}.ForEach(prefix, fn)
}

// View runs fn while holding the read lock.
func (m *MemoryDB) View(fn func(tx Reader) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(memReader{m.data})
}

// Update runs fn while holding the write lock and applies its writes only if
// fn returns nil.
func (m *MemoryDB) Update(fn func(tx Writer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTxn{base: m.data, pending: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.pending {
		if v == nil {
			delete(m.data, k)
		} else {
			m.data[k] = v
		}
	}
	return nil
}

// Close closes the database.
func (m *MemoryDB) Close() error {
	return nil
}

type memReader struct {
	data map[string][]byte
}

func (r memReader) Get(key []byte) ([]byte, error) {
	v, ok := r.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (r memReader) Has(key []byte) (bool, error) {
	_, ok := r.data[string(key)]
	return ok, nil
}

func (r memReader) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	var keys []string
	for k := range r.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), cloneBytes(r.data[k])); err != nil {
			return err
		}
	}
	return nil
}

// memTxn overlays pending writes on the committed map. A nil pending value
// marks a delete.
type memTxn struct {
	base    map[string][]byte
	pending map[string][]byte
}

func (t *memTxn) lookup(key string) ([]byte, bool) {
	if v, ok := t.pending[key]; ok {
		return v, v != nil
	}
	v, ok := t.base[key]
	return v, ok
}

func (t *memTxn) Get(key []byte) ([]byte, error) {
	v, ok := t.lookup(string(key))
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (t *memTxn) Has(key []byte) (bool, error) {
	_, ok := t.lookup(string(key))
	return ok, nil
}

func (t *memTxn) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range []map[string][]byte{t.pending, t.base} {
		for k := range m {
			if _, dup := seen[k]; dup || !strings.HasPrefix(k, p) {
				continue
			}
			seen[k] = struct{}{}
			if _, ok := t.lookup(k); ok {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, _ := t.lookup(k)
		if err := fn([]byte(k), cloneBytes(v)); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTxn) Put(key, value []byte) error {
	v := cloneBytes(value)
	if v == nil {
		v = []byte{}
	}
	t.pending[string(key)] = v
	return nil
}

func (t *memTxn) Delete(key []byte) error {
	t.pending[string(key)] = nil
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
