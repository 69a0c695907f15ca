package rtq

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	pebblestore "github.com/cmeiklejohn/riak-repl/internal/storage/pebble"
)

// Options configures a Queue.
type Options struct {
	// MaxBytes evicts oldest entries past this budget even when unacked,
	// counting drops against lagging consumers. 0 disables (memory is then
	// bounded only by the slowest unacknowledged consumer).
	MaxBytes int64
	// Filter is an optional CEL expression; pushes that do not satisfy it
	// are discarded before sequence assignment.
	Filter string
}

// Queue is the replication queue manager. It owns all mutable state and
// serializes every operation behind a single mutex; no other component
// touches the sequencer, store, or registry.
type Queue struct {
	mu       sync.Mutex
	st       *store
	seq      sequencer
	cs       map[string]*consumer
	filter   ingressFilter
	maxBytes int64
	closed   bool
}

// Stats is a queue-wide snapshot.
type Stats struct {
	LastSeq   uint64 `json:"last_seq"`
	Retained  int    `json:"retained"`
	Bytes     int64  `json:"bytes"`
	Consumers int    `json:"consumers"`
}

// New builds a Queue over the provided store and compiles the ingress filter.
func New(db *pebblestore.DB, opts Options) (*Queue, error) {
	f, err := newIngressFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("rtq: compile filter: %w", err)
	}
	return &Queue{
		st:       newStore(db),
		cs:       make(map[string]*consumer),
		filter:   f,
		maxBytes: opts.MaxBytes,
	}, nil
}

// Register adds a consumer, or replaces the cursor of an existing one.
//
// A new consumer starts at the oldest retained entry: the returned startSeq
// is one below it (or lastAssignedSeq when nothing is retained), and the
// first delivery is startSeq+1. Re-registration means the replication link
// was re-established: unacknowledged deliveries are resent, so sentSeq is
// reset to ackedSeq and the returned startSeq is ackedSeq. Any pending
// delivery left by the previous link is released with ErrUnregistered.
func (q *Queue) Register(name string) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrShutdown
	}
	if c, ok := q.cs[name]; ok {
		q.releaseLocked(c, ErrUnregistered)
		c.sent = c.acked
		return c.acked, nil
	}
	start := q.seq.current()
	if first, ok := q.st.firstSeq(); ok {
		start = first - 1
	}
	q.cs[name] = &consumer{name: name, acked: start, sent: start}
	return start, nil
}

// Unregister removes a consumer, releasing any pending delivery with
// ErrUnregistered, then reclaims history the remaining consumers no longer
// need (everything, when none remain).
func (q *Queue) Unregister(ctx context.Context, name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrShutdown
	}
	c, ok := q.cs[name]
	if !ok {
		return ErrNotRegistered
	}
	q.releaseLocked(c, ErrUnregistered)
	delete(q.cs, name)
	return q.gcLocked(ctx)
}

// Push assigns the next sequence, stores the payload, and attempts delivery
// to every consumer holding a pending pull. Returns the assigned sequence,
// or 0 when the ingress filter discarded the payload.
func (q *Queue) Push(ctx context.Context, payload []byte) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrShutdown
	}
	now := time.Now().UnixMilli()
	if !q.filter.Eval(payload, now) {
		return 0, nil
	}
	seq := q.seq.next()
	if err := q.st.insert(ctx, seq, now, payload); err != nil {
		return 0, err
	}

	// A waiting consumer is caught up, so the new entry is exactly its next
	// expected sequence.
	for _, name := range q.sortedNames() {
		c := q.cs[name]
		if c.pending == nil {
			continue
		}
		fn := c.pending
		c.pending = nil
		q.attemptLocked(c, fn)
	}

	if q.maxBytes > 0 {
		if err := q.overloadTrimLocked(ctx); err != nil {
			return seq, err
		}
	}
	return seq, nil
}

// Pull requests the consumer's next item. When one is already assigned it is
// delivered before Pull returns; otherwise the callback is parked as the
// consumer's pending delivery and fulfilled by a later Push. A pull issued
// while another is pending supersedes it: the parked callback is released
// with ErrReplaced. An unknown name invokes the callback with
// ErrNotRegistered and changes no state.
func (q *Queue) Pull(name string, fn DeliverFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		_ = invoke(fn, 0, nil, ErrShutdown)
		return
	}
	c, ok := q.cs[name]
	if !ok {
		_ = invoke(fn, 0, nil, ErrNotRegistered)
		return
	}
	if c.pending != nil {
		old := c.pending
		c.pending = nil
		_ = invoke(old, 0, nil, ErrReplaced)
	}
	if c.sent+1 <= q.seq.current() {
		q.attemptLocked(c, fn)
		return
	}
	c.pending = fn
}

// Ack records that the consumer has durably handled everything up to and
// including seq, then reclaims fully-acknowledged history. The caller is
// trusted to ack monotonically within its sent window; acks for unknown
// consumers are dropped per the fire-and-forget contract.
func (q *Queue) Ack(ctx context.Context, name string, seq uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrShutdown
	}
	c, ok := q.cs[name]
	if !ok {
		return nil
	}
	if seq > c.acked {
		c.acked = seq
	}
	return q.gcLocked(ctx)
}

// Status returns a per-consumer backlog snapshot, sorted by name.
func (q *Queue) Status() []ConsumerStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]ConsumerStatus, 0, len(q.cs))
	for _, name := range q.sortedNames() {
		c := q.cs[name]
		out = append(out, ConsumerStatus{
			Name:    c.name,
			Pending: q.seq.current() - c.sent,
			Unacked: c.sent - c.acked,
			Errs:    c.errs,
			Drops:   c.drops,
		})
	}
	return out
}

// Dump returns every retained entry in sequence order. Diagnostic only.
func (q *Queue) Dump() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.st.dump()
}

// Stats returns a queue-wide snapshot.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		LastSeq:   q.seq.current(),
		Retained:  q.st.count,
		Bytes:     q.st.bytes,
		Consumers: len(q.cs),
	}
}

// Close releases every pending delivery with ErrShutdown, in consumer name
// order, and rejects subsequent operations. State is discarded with the
// process; the underlying store is closed by its owner.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for _, name := range q.sortedNames() {
		q.releaseLocked(q.cs[name], ErrShutdown)
	}
	q.cs = make(map[string]*consumer)
	return nil
}

// attemptLocked delivers the consumer's next expected entry through fn and
// applies the delivery outcome policy: advance sentSeq on success, count the
// error and retry the same sequence next time on failure.
func (q *Queue) attemptLocked(c *consumer, fn DeliverFunc) {
	want := c.sent + 1
	e, ok := q.st.lookup(want)
	if !ok {
		// Unacknowledged entries cannot have been evicted; the bookkeeping
		// is corrupt.
		panic(fmt.Sprintf("rtq: retention invariant broken: seq %d missing for consumer %q", want, c.name))
	}
	if err := invoke(fn, e.Seq, e.Payload, nil); err != nil {
		c.errs++
		return
	}
	if e.Seq != c.sent+1 {
		panic(fmt.Sprintf("rtq: delivered seq %d, expected %d for consumer %q", e.Seq, c.sent+1, c.name))
	}
	c.sent = e.Seq
}

// releaseLocked aborts a pending delivery with the given cause, if one is
// parked, so no caller is left waiting.
func (q *Queue) releaseLocked(c *consumer, cause error) {
	if c.pending == nil {
		return
	}
	fn := c.pending
	c.pending = nil
	_ = invoke(fn, 0, nil, cause)
}

// gcLocked trims every entry at or below the minimum acknowledged sequence.
// With no consumers the floor is lastAssignedSeq: nothing retained is needed.
func (q *Queue) gcLocked(ctx context.Context) error {
	floor := q.seq.current()
	for _, c := range q.cs {
		if c.acked < floor {
			floor = c.acked
		}
	}
	_, err := q.st.trimTo(ctx, floor)
	return err
}

// overloadTrimLocked evicts oldest entries past the byte budget. Consumers
// that had not yet been sent an evicted entry are skipped past it with their
// drop counters incremented, so the delivery engine never looks up an evicted
// sequence.
func (q *Queue) overloadTrimLocked(ctx context.Context) error {
	removed, err := q.st.trimOldest(ctx, q.maxBytes)
	if err != nil || len(removed) == 0 {
		return err
	}
	// Retained entries are contiguous (only prefixes are ever evicted), so a
	// lagging consumer loses exactly the evicted entries past its cursor.
	last := removed[len(removed)-1]
	for _, c := range q.cs {
		if c.sent >= last {
			continue
		}
		c.drops += last - c.sent
		c.sent = last
		if c.acked < last {
			c.acked = last
		}
	}
	return nil
}

func (q *Queue) sortedNames() []string {
	names := make([]string, 0, len(q.cs))
	for name := range q.cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// invoke runs a delivery callback, converting a panic into a failure outcome
// so a misbehaving callback never crashes the manager.
func invoke(fn DeliverFunc, seq uint64, payload []byte, cause error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rtq: delivery callback panic: %v", r)
		}
	}()
	return fn(seq, payload, cause)
}
