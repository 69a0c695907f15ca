// Package rtq implements the realtime replication queue.
//
// # Overview
//
// The queue buffers mutation payloads for delivery to one or more named
// consumers (replication links), each advancing at its own pace. Delivery is
// at-least-once with strict per-consumer ordering; history is reclaimed once
// every live consumer has acknowledged it. Entries are kept in a Pebble
// memFS keyspace so the ordered scans and range deletes are iterator ops:
//   - q/e/{seq_be8} (entries)
//
// Entries are stored as: metaLen(varint) | meta | payload | crc32c(meta|payload),
// where meta currently carries the 8-byte push timestamp (ms).
//
// # API surface (internal)
//
//	q, _ := New(db, Options{})
//	start := q.Register("site-a")
//	seq, _ := q.Push(ctx, []byte(`{"bucket":"users"}`))
//	q.Pull("site-a", func(seq uint64, payload []byte, err error) error {
//	    // hand off to transport; must not block or call back into q
//	    return nil
//	})
//	_ = q.Ack(ctx, "site-a", seq)
//	_ = q.Unregister(ctx, "site-a")
//
// # Serialization
//
// A single mutex serializes every operation; delivery callbacks run inside
// the serialized step. Callbacks must be fast, non-blocking handoffs and must
// not call back into the queue synchronously, or they will deadlock. A
// panicking callback is recovered and treated as a delivery failure.
//
// A pull that finds nothing to deliver parks its callback as the consumer's
// pending delivery; a later Push fulfills it. Unregister and Close release
// pending callbacks with ErrUnregistered / ErrShutdown so no caller waits
// across teardown.
//
// # Memory bound
//
// Retained entries span (floor, lastAssignedSeq] where floor is the minimum
// acknowledged sequence across live consumers; a stalled consumer grows the
// queue until it acks or is unregistered. When Options.MaxBytes is set, the
// queue additionally evicts oldest entries past the budget, skipping affected
// consumers forward and counting the gap in their drop counters.
package rtq
