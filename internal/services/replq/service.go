package replq

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmeiklejohn/riak-repl/internal/rtq"
	"github.com/cmeiklejohn/riak-repl/internal/runtime"
	"github.com/cmeiklejohn/riak-repl/pkg/id"
	logpkg "github.com/cmeiklejohn/riak-repl/pkg/log"
)

// ErrPayloadTooLarge is returned by Push when the payload exceeds the
// configured per-object limit.
var ErrPayloadTooLarge = errors.New("replq: payload exceeds configured limit")

// Service is the facade over the realtime queue used by the HTTP API
// and the CLI.
type Service struct {
	rt         *runtime.Runtime
	log        logpkg.Logger
	ids        *id.Generator
	payloadMax int
}

// New creates a Service with a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, logpkg.NewLogger())
}

// NewWithLogger creates a Service using the given logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	return &Service{
		rt:         rt,
		log:        logger.With(logpkg.Component("replq")),
		ids:        id.NewGenerator(),
		payloadMax: rt.Config().Queue.PayloadMaxBytes,
	}
}

// Push validates the payload and enqueues it. The returned sequence is 0
// when the ingress filter rejected the object.
func (s *Service) Push(ctx context.Context, payload []byte) (uint64, error) {
	if len(payload) == 0 {
		return 0, errors.New("replq: empty payload")
	}
	if s.payloadMax > 0 && len(payload) > s.payloadMax {
		return 0, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(payload), s.payloadMax)
	}
	seq, err := s.rt.Queue().Push(ctx, payload)
	if err != nil {
		s.log.Error("push failed", logpkg.Err(err))
		return 0, err
	}
	if seq == 0 {
		s.log.Debug("push filtered", logpkg.Int("bytes", len(payload)))
		return 0, nil
	}
	s.log.Debug("pushed", logpkg.Uint64("seq", seq), logpkg.Int("bytes", len(payload)))
	return seq, nil
}

// Register registers (or resumes) a consumer and returns its start
// sequence; delivery begins at startSeq+1.
func (s *Service) Register(name string) (uint64, error) {
	if name == "" {
		return 0, errors.New("replq: consumer name required")
	}
	start, err := s.rt.Queue().Register(name)
	if err != nil {
		return 0, err
	}
	s.log.Info("consumer registered", logpkg.Str("consumer", name), logpkg.Uint64("start_seq", start))
	return start, nil
}

// Unregister removes a consumer and releases any pending pull.
func (s *Service) Unregister(ctx context.Context, name string) error {
	if err := s.rt.Queue().Unregister(ctx, name); err != nil {
		return err
	}
	s.log.Info("consumer unregistered", logpkg.Str("consumer", name))
	return nil
}

// Ack acknowledges delivery through seq for the named consumer.
func (s *Service) Ack(ctx context.Context, name string, seq uint64) error {
	return s.rt.Queue().Ack(ctx, name, seq)
}

// Status returns per-consumer progress snapshots.
func (s *Service) Status() []rtq.ConsumerStatus {
	return s.rt.Queue().Status()
}

// Dump returns every retained entry in sequence order.
func (s *Service) Dump() []rtq.Entry {
	return s.rt.Queue().Dump()
}

// Stats returns queue-wide counters.
func (s *Service) Stats() rtq.Stats {
	return s.rt.Queue().Stats()
}

// Subscribe registers name (or a generated name when empty) and pumps
// deliveries into sink until ctx is done, the sink fails, or the
// configured limit is reached. Anonymous subscribers are unregistered on
// return; named subscribers keep their cursor so a reconnect resumes
// from the last ack.
func (s *Service) Subscribe(ctx context.Context, name string, opts SubscribeOptions, sink SubscribeSink) error {
	anonymous := name == ""
	if anonymous {
		name = "sub-" + s.ids.Next().String()
	}
	if _, err := s.rt.Queue().Register(name); err != nil {
		return err
	}
	if anonymous {
		defer func() {
			_ = s.rt.Queue().Unregister(context.Background(), name)
		}()
	}

	sub := s.log.With(logpkg.Str("consumer", name))
	sub.Debug("subscribe started")
	defer sub.Debug("subscribe finished")

	type delivery struct {
		item Item
		err  error
	}
	// Capacity 1 so the queue's delivery callback never blocks: one pull
	// is outstanding at a time, so at most one send lands between reads.
	ch := make(chan delivery, 1)
	deliver := func(seq uint64, payload []byte, err error) error {
		d := delivery{err: err}
		if err == nil {
			d.item = Item{Seq: seq, Payload: payload}
		}
		select {
		case ch <- d:
		default:
		}
		return nil
	}

	sent := 0
	for {
		if opts.Limit > 0 && sent >= opts.Limit {
			return nil
		}
		s.rt.Queue().Pull(name, deliver)

		var d delivery
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d = <-ch:
		}
		if d.err != nil {
			// Subscribe registered the name, so ErrNotRegistered here means
			// the consumer was torn down out from under us. Shutdown and
			// unregistration end the stream cleanly; a superseded pull means
			// another subscriber took the name over and is surfaced.
			if errors.Is(d.err, rtq.ErrShutdown) ||
				errors.Is(d.err, rtq.ErrUnregistered) ||
				errors.Is(d.err, rtq.ErrNotRegistered) {
				return nil
			}
			return d.err
		}

		if err := sink.Send(d.item); err != nil {
			sub.Debug("sink closed", logpkg.Err(err))
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
		if opts.AutoAck {
			if err := s.rt.Queue().Ack(ctx, name, d.item.Seq); err != nil {
				return err
			}
		}
		sent++
	}
}
