package runtime

import (
	"context"
	"errors"

	cfgpkg "github.com/cmeiklejohn/riak-repl/internal/config"
	"github.com/cmeiklejohn/riak-repl/internal/rtq"
	pebblestore "github.com/cmeiklejohn/riak-repl/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
}

// Runtime owns the storage and the queue for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	queue  *rtq.Queue
	config cfgpkg.Config
}

// Open initializes the in-memory store and the queue.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{InMemory: true})
	if err != nil {
		return nil, err
	}
	q, err := rtq.New(db, rtq.Options{
		MaxBytes: opts.Config.Queue.MaxBytes,
		Filter:   opts.Config.Queue.Filter,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Runtime{db: db, queue: q, config: opts.Config}, nil
}

// Close shuts the queue down (releasing pending pulls) and closes storage.
func (r *Runtime) Close() error {
	if r.queue != nil {
		_ = r.queue.Close()
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Queue returns the realtime queue.
func (r *Runtime) Queue() *rtq.Queue { return r.queue }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
