// Package kvs provides a thin LMDB-flavored adapter over Pebble.
//
// # Overview
//
// Pebble is a single ordered keyspace, not a collection of named
// sub-databases the way LMDB is. This package bridges that gap: an Env
// opens one Pebble instance per directory, and named "databases" are
// modeled as disjoint key prefixes (see the DB type). ReadTxn wraps a
// Pebble snapshot, WriteTxn wraps a Pebble batch, and Cursor wraps a
// prefix-bounded Pebble iterator — so callers get the familiar
// open_db/begin_read/begin_write/cursor shape without Pebble's API
// leaking through.
//
// Usage
//
//	env, _ := kvs.Open(kvs.Options{Dir: "./data"})
//	defer env.Close()
//
//	wtx := env.BeginWrite()
//	db := wtx.DB([]byte("data_db/"))
//	_ = db.Put([]byte("k"), []byte("v"))
//	_ = wtx.Commit()
//
//	rtx := env.BeginRead()
//	db = rtx.DB([]byte("data_db/"))
//	v, ok, _ := db.Get([]byte("k"))
//	cur, _ := db.Cursor()
//	defer cur.Close()
//	for ok := cur.First(); ok; ok = cur.Next() {
//	    _ = cur.Key()
//	}
//	rtx.Close()
//
// # Durability
//
// Env.Options.Fsync selects how aggressively WriteTxn.Commit syncs the
// WAL, mirroring the group-commit tradeoffs of the reference Pebble
// wrapper this package is adapted from.
package kvs
