// Package pebblestore provides a thin wrapper around Pebble with batches,
// iterators, and an in-memory mode used by the realtime queue.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{InMemory: true})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	// Point ops
//	_ = db.Set([]byte("k2"), []byte("v2"))
//	v, _ := db.Get([]byte("k2"))
//
// The realtime replication queue opens the store in memory mode: replication
// state lives only as long as the process, and the Pebble memFS keeps the
// ordered keyspace without touching disk. On-disk mode remains available for
// tooling that wants a durable scratch store.
package pebblestore
