package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/cmeiklejohn/riak-repl/internal/config"
)

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.Queue() == nil {
		t.Fatalf("queue not wired")
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenRejectsBadFilter(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Queue.Filter = "((("
	if _, err := Open(Options{Config: cfg}); err == nil {
		t.Fatalf("expected filter compile error")
	}
}

func TestQueueRoundTrip(t *testing.T) {
	rt, err := Open(Options{Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	q := rt.Queue()
	if _, err := q.Register("site-a"); err != nil {
		t.Fatalf("register: %v", err)
	}
	seq, err := q.Push(context.Background(), []byte("m"))
	if err != nil || seq != 1 {
		t.Fatalf("push seq=%d err=%v", seq, err)
	}
}
