package replq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmeiklejohn/riak-repl/internal/config"
	"github.com/cmeiklejohn/riak-repl/internal/runtime"
)

func newService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default()
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt)
}

type memSink struct {
	ctx   context.Context
	items chan Item
	fail  error
}

func newMemSink(ctx context.Context) *memSink {
	return &memSink{ctx: ctx, items: make(chan Item, 16)}
}

func (m *memSink) Send(it Item) error {
	if m.fail != nil {
		return m.fail
	}
	m.items <- it
	return nil
}

func (m *memSink) Context() context.Context { return m.ctx }
func (m *memSink) Flush() error             { return nil }

func TestPushValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Push(ctx, nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
	big := make([]byte, svc.payloadMax+1)
	if _, err := svc.Push(ctx, big); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	seq, err := svc.Push(ctx, []byte("obj"))
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
}

func TestRegisterRequiresName(t *testing.T) {
	svc := newService(t)
	if _, err := svc.Register(""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestSubscribeStreamsBacklogAndLive(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := svc.Push(ctx, []byte("a")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, err := svc.Push(ctx, []byte("b")); err != nil {
		t.Fatalf("push: %v", err)
	}

	sink := newMemSink(ctx)
	done := make(chan error, 1)
	go func() {
		done <- svc.Subscribe(ctx, "site-b", SubscribeOptions{AutoAck: true}, sink)
	}()

	want := []string{"a", "b", "c"}
	got := make([]Item, 0, len(want))
	for i := 0; i < 2; i++ {
		got = append(got, recvItem(t, sink))
	}
	if _, err := svc.Push(ctx, []byte("c")); err != nil {
		t.Fatalf("push live: %v", err)
	}
	got = append(got, recvItem(t, sink))

	for i, it := range got {
		if string(it.Payload) != want[i] {
			t.Fatalf("item %d = %q, want %q", i, it.Payload, want[i])
		}
		if it.Seq != uint64(i+1) {
			t.Fatalf("item %d seq = %d, want %d", i, it.Seq, i+1)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("subscribe returned %v, want context.Canceled", err)
	}
}

func TestSubscribeLimit(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for _, p := range []string{"a", "b", "c"} {
		if _, err := svc.Push(ctx, []byte(p)); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	sink := newMemSink(ctx)
	if err := svc.Subscribe(ctx, "", SubscribeOptions{AutoAck: true, Limit: 2}, sink); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if n := len(sink.items); n != 2 {
		t.Fatalf("delivered %d items, want 2", n)
	}
	// Anonymous subscriber is unregistered on return.
	if st := svc.Status(); len(st) != 0 {
		t.Fatalf("status has %d consumers, want 0", len(st))
	}
}

func TestSubscribeSinkErrorStopsPump(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.Push(ctx, []byte("a")); err != nil {
		t.Fatalf("push: %v", err)
	}

	sink := newMemSink(ctx)
	sink.fail = errors.New("peer went away")
	err := svc.Subscribe(ctx, "", SubscribeOptions{}, sink)
	if err == nil || err.Error() != "peer went away" {
		t.Fatalf("subscribe returned %v, want sink error", err)
	}
}

func TestSubscribeEndsCleanlyOnUnregister(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sink := newMemSink(ctx)
	done := make(chan error, 1)
	go func() {
		done <- svc.Subscribe(ctx, "site-b", SubscribeOptions{}, sink)
	}()

	// Wait for the pump to register, then tear the consumer down.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if st := svc.Status(); len(st) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := svc.Unregister(ctx, "site-b"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("subscribe returned %v, want nil", err)
	}
}

func TestNamedSubscriberResumesFromAck(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for _, p := range []string{"a", "b", "c"} {
		if _, err := svc.Push(ctx, []byte(p)); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	sink := newMemSink(ctx)
	if err := svc.Subscribe(ctx, "site-b", SubscribeOptions{AutoAck: true, Limit: 2}, sink); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}

	sink2 := newMemSink(ctx)
	if err := svc.Subscribe(ctx, "site-b", SubscribeOptions{AutoAck: true, Limit: 1}, sink2); err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	it := recvItem(t, sink2)
	if it.Seq != 3 || string(it.Payload) != "c" {
		t.Fatalf("resumed at seq %d payload %q, want 3 %q", it.Seq, it.Payload, "c")
	}
}

func recvItem(t *testing.T, s *memSink) Item {
	t.Helper()
	select {
	case it := <-s.items:
		return it
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for item")
		return Item{}
	}
}
