package rtq

import "errors"

// Queue error taxonomy surfaced to callers and pending callbacks.
var (
	// ErrNotRegistered is returned (or delivered to the callback) when an
	// operation references an unknown consumer name.
	ErrNotRegistered = errors.New("rtq: consumer not registered")
	// ErrUnregistered releases a pending delivery when its consumer is
	// unregistered or replaced by a re-registration.
	ErrUnregistered = errors.New("rtq: consumer unregistered")
	// ErrReplaced releases a pending delivery superseded by a newer pull
	// from the same consumer.
	ErrReplaced = errors.New("rtq: pull superseded by a newer pull")
	// ErrShutdown releases pending deliveries at queue teardown and rejects
	// operations on a closed queue.
	ErrShutdown = errors.New("rtq: queue is shut down")
)

// DeliverFunc is a consumer-supplied delivery callback. On a delivery, err is
// nil and the return value reports whether the consumer accepted the item; a
// non-nil return (or a panic) marks the delivery failed and the same sequence
// is retried next time. When the queue aborts a pull (unregister, replace,
// shutdown, unknown consumer) the callback is invoked once with a non-nil err
// and zero seq/payload, and its return value is ignored.
type DeliverFunc func(seq uint64, payload []byte, err error) error

// consumer is the cursor state for one registered replication link.
// Invariant: acked <= sent <= lastAssignedSeq.
type consumer struct {
	name    string
	acked   uint64
	sent    uint64
	errs    uint64
	drops   uint64
	pending DeliverFunc
}

// ConsumerStatus is a point-in-time backlog snapshot for one consumer.
type ConsumerStatus struct {
	Name    string `json:"name"`
	Pending uint64 `json:"pending"` // assigned but not yet sent
	Unacked uint64 `json:"unacked"` // sent but not yet acknowledged
	Errs    uint64 `json:"errs"`
	Drops   uint64 `json:"drops"`
}
