package storage

// PrefixDB wraps a DB and prepends a fixed prefix to all keys.
// This isolates the keystore and wallet data within a single underlying database.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

// NewPrefixDB creates a new PrefixDB wrapping inner with the given prefix.
func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &PrefixDB{inner: inner, prefix: p}
}

// Get retrieves a value by key.
func (p *PrefixDB) Get(key []byte) ([]byte, error) {
	return p.inner.Get(prefixed(p.prefix, key))
}

// Put stores a key-value pair.
func (p *PrefixDB) Put(key, value []byte) error {
	return p.inner.Put(prefixed(p.prefix, key), value)
}

// Delete removes a key.
func (p *PrefixDB) Delete(key []byte) error {
	return p.inner.Delete(prefixed(p.prefix, key))
}

// Has checks if a key exists.
func (p *PrefixDB) Has(key []byte) (bool, error) {
	return p.inner.Has(prefixed(p.prefix, key))
}

// ForEach iterates over all keys with the given prefix (within the PrefixDB namespace).
// The callback receives keys with the PrefixDB prefix stripped, so callers see only
// their logical keyspace.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return prefixReader{inner: p.inner, prefix: p.prefix}.ForEach(prefix, fn)
}

// View runs fn in a snapshot of the inner DB, scoped to the prefix.
func (p *PrefixDB) View(fn func(tx Reader) error) error {
	return p.inner.View(func(tx Reader) error {
		return fn(prefixReader{inner: tx, prefix: p.prefix})
	})
}

// Update runs fn in a read-write transaction of the inner DB, scoped to the prefix.
func (p *PrefixDB) Update(fn func(tx Writer) error) error {
	return p.inner.Update(func(tx Writer) error {
		return fn(prefixWriter{inner: tx, prefix: p.prefix})
	})
}

// Close is a no-op; the outer DB manages its own lifecycle.
func (p *PrefixDB) Close() error {
	return nil
}

type prefixReader struct {
	inner  Reader
	prefix []byte
}

func (r prefixReader) Get(key []byte) ([]byte, error) {
	return r.inner.Get(prefixed(r.prefix, key))
}

func (r prefixReader) Has(key []byte) (bool, error) {
	return r.inner.Has(prefixed(r.prefix, key))
}

func (r prefixReader) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return r.inner.ForEach(prefixed(r.prefix, prefix), func(key, value []byte) error {
		return fn(key[len(r.prefix):], value)
	})
}

type prefixWriter struct {
	inner  Writer
	prefix []byte
}

func (w prefixWriter) Get(key []byte) ([]byte, error) {
	return w.inner.Get(prefixed(w.prefix, key))
}

func (w prefixWriter) Has(key []byte) (bool, error) {
	return w.inner.Has(prefixed(w.prefix, key))
}

func (w prefixWriter) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return prefixReader{inner: w.inner, prefix: w.prefix}.ForEach(prefix, fn)
}

func (w prefixWriter) Put(key, value []byte) error {
	return w.inner.Put(prefixed(w.prefix, key), value)
}

func (w prefixWriter) Delete(key []byte) error {
	return w.inner.Delete(prefixed(w.prefix, key))
}

// prefixed returns key with prefix prepended.
func prefixed(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}
