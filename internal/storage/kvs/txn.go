package kvs

import (
	"time"

	"github.com/cockroachdb/pebble"
)

// prefixUpperBound returns the exclusive upper bound for an iteration over
// all keys sharing prefix.
func prefixUpperBound(prefix []byte) []byte {
	hi := make([]byte, len(prefix)+1)
	copy(hi, prefix)
	hi[len(prefix)] = 0xFF
	return hi
}

// DB is a named sub-database: a disjoint key prefix within the Env's single
// Pebble keyspace. Keys passed to Get/Put/Delete/Cursor are logical keys
// (without the prefix); DB adds and strips it.
type DB struct {
	prefix []byte
}

func namedDB(prefix []byte) DB {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return DB{prefix: p}
}

func (d DB) key(k []byte) []byte {
	out := make([]byte, len(d.prefix)+len(k))
	copy(out, d.prefix)
	copy(out[len(d.prefix):], k)
	return out
}

// WriteTxn is a write transaction backed by a Pebble batch. All writes made
// through DBs obtained from this WriteTxn are applied atomically on Commit.
type WriteTxn struct {
	env          *Env
	batch        *pebble.Batch
	keys         int
	syncOverride *bool
}

// DB returns a handle bound to this WriteTxn for the named sub-database.
func (w *WriteTxn) DB(prefix []byte) WriteDB {
	return WriteDB{db: namedDB(prefix), txn: w}
}

// SetSync overrides, for this transaction only, whether Commit forces a WAL
// sync. Without a call to SetSync, Commit falls back to the Env's own
// FsyncMode. Used by facades that need per-call durability control (e.g. an
// autosync-off Publisher) without reopening the environment.
func (w *WriteTxn) SetSync(sync bool) {
	w.syncOverride = &sync
}

// Commit applies all buffered writes atomically and releases the batch.
func (w *WriteTxn) Commit() error {
	defer w.batch.Close()
	start := time.Now()
	sync := pebble.NoSync
	switch {
	case w.syncOverride != nil:
		if *w.syncOverride {
			sync = pebble.Sync
		}
	case w.env.writeSync:
		sync = pebble.Sync
	}
	err := w.batch.Commit(sync)
	w.env.metrics.ObserveCommit("write", time.Since(start), w.keys)
	return err
}

// Abort discards all buffered writes without applying them.
func (w *WriteTxn) Abort() error {
	return w.batch.Close()
}

// WriteDB is a sub-database handle scoped to a WriteTxn.
type WriteDB struct {
	db  DB
	txn *WriteTxn
}

// Put writes key/value, buffered in the enclosing WriteTxn's batch.
func (d WriteDB) Put(key, value []byte) error {
	d.txn.keys++
	return d.txn.batch.Set(d.db.key(key), value, nil)
}

// Delete removes key, buffered in the enclosing WriteTxn's batch. Deleting
// an absent key is not an error.
func (d WriteDB) Delete(key []byte) error {
	d.txn.keys++
	return d.txn.batch.Delete(d.db.key(key), nil)
}

// Get reads the current value for key, including any not-yet-committed
// writes buffered earlier in this same WriteTxn.
func (d WriteDB) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := d.txn.batch.Get(d.db.key(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

// Cursor opens an iterator scoped to this sub-database and to the current
// contents of the enclosing batch. The caller must Close it before the
// WriteTxn commits or aborts.
func (d WriteDB) Cursor() (*Cursor, error) {
	hi := prefixUpperBound(d.db.prefix)
	it, err := d.txn.batch.NewIter(&pebble.IterOptions{LowerBound: d.db.prefix, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	return &Cursor{it: it, prefix: d.db.prefix}, nil
}

// ReadTxn is a read-only transaction backed by a Pebble snapshot: a
// consistent view unaffected by writers that commit after BeginRead.
type ReadTxn struct {
	env  *Env
	snap *pebble.Snapshot
}

// DB returns a handle bound to this ReadTxn for the named sub-database.
func (r *ReadTxn) DB(prefix []byte) ReadDB {
	return ReadDB{db: namedDB(prefix), txn: r}
}

// Close releases the snapshot. Cursors opened from this ReadTxn must be
// closed first.
func (r *ReadTxn) Close() error {
	return r.snap.Close()
}

// ReadDB is a sub-database handle scoped to a ReadTxn.
type ReadDB struct {
	db  DB
	txn *ReadTxn
}

// Get reads the value for key as of the transaction's snapshot.
func (d ReadDB) Get(key []byte) ([]byte, bool, error) {
	v, closer, err := d.txn.snap.Get(d.db.key(key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

// Cursor opens an iterator scoped to this sub-database as of the
// transaction's snapshot. The caller must Close it before the ReadTxn
// closes.
func (d ReadDB) Cursor() (*Cursor, error) {
	hi := prefixUpperBound(d.db.prefix)
	it, err := d.txn.snap.NewIter(&pebble.IterOptions{LowerBound: d.db.prefix, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	return &Cursor{it: it, prefix: d.db.prefix}, nil
}

// Count returns the number of keys in this sub-database as of the
// transaction's snapshot.
func (d ReadDB) Count() (int, error) {
	cur, err := d.Cursor()
	if err != nil {
		return 0, err
	}
	defer cur.Close()
	n := 0
	for ok := cur.First(); ok; ok = cur.Next() {
		n++
	}
	return n, nil
}

// Cursor iterates the logical (prefix-stripped) keys of one sub-database.
// Must be closed before its enclosing transaction commits, aborts, or
// closes.
type Cursor struct {
	it     *pebble.Iterator
	prefix []byte
}

// First positions the cursor at the lowest key; returns false if the
// sub-database is empty.
func (c *Cursor) First() bool { return c.it.First() }

// Last positions the cursor at the highest key; returns false if the
// sub-database is empty.
func (c *Cursor) Last() bool { return c.it.Last() }

// Next advances the cursor; returns false once past the last key.
func (c *Cursor) Next() bool { return c.it.Next() }

// Prev retreats the cursor; returns false once before the first key.
func (c *Cursor) Prev() bool { return c.it.Prev() }

// Valid reports whether the cursor currently rests on a key.
func (c *Cursor) Valid() bool { return c.it.Valid() }

// Key returns the logical (prefix-stripped) key at the cursor.
func (c *Cursor) Key() []byte {
	k := c.it.Key()
	return append([]byte(nil), k[len(c.prefix):]...)
}

// Value returns the value at the cursor.
func (c *Cursor) Value() []byte {
	return append([]byte(nil), c.it.Value()...)
}

// Close releases the underlying iterator.
func (c *Cursor) Close() error {
	return c.it.Close()
}

// EstimateDiskUsage approximates the on-disk byte size of the named
// sub-database, used by the queue engine's size_bytes check.
func (e *Env) EstimateDiskUsage(prefix []byte) (uint64, error) {
	return e.inner.EstimateDiskUsage(prefix, prefixUpperBound(prefix))
}
