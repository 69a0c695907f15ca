package replq

import "context"

// Item represents a delivered queue entry for streaming.
type Item struct {
	Seq     uint64 `json:"seq"`
	TsMs    int64  `json:"ts_ms,omitempty"`
	Payload []byte `json:"payload"`
}

// SubscribeSink is implemented by transports to receive streamed items.
type SubscribeSink interface {
	Send(Item) error
	Context() context.Context
	Flush() error
}

// SubscribeOptions controls the subscribe pump.
type SubscribeOptions struct {
	// AutoAck acknowledges each item right after the sink accepts it. When
	// false the remote peer is expected to ack explicitly via the API.
	AutoAck bool
	// Limit stops the pump after this many deliveries. 0 means unlimited.
	Limit int
}
