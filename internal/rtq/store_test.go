package rtq

import (
	"context"
	"testing"

	pebblestore "github.com/cmeiklejohn/riak-repl/internal/storage/pebble"
)

func newTestStore(t *testing.T) *store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return newStore(db)
}

func seed(t *testing.T, s *store, seqs ...uint64) {
	t.Helper()
	for _, seq := range seqs {
		if err := s.insert(context.Background(), seq, 1000, []byte("v")); err != nil {
			t.Fatalf("insert %d: %v", seq, err)
		}
	}
}

func TestInsertRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1)
	if err := s.insert(context.Background(), 1, 1000, []byte("v")); err == nil {
		t.Fatalf("duplicate insert must fail")
	}
}

func TestLookup(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 3)
	e, ok := s.lookup(3)
	if !ok || e.Seq != 3 || e.TsMs != 1000 || string(e.Payload) != "v" {
		t.Fatalf("lookup %+v ok=%v", e, ok)
	}
	if _, ok := s.lookup(4); ok {
		t.Fatalf("lookup of absent seq succeeded")
	}
}

func TestFirstPrevNext(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.firstSeq(); ok {
		t.Fatalf("firstSeq on empty store")
	}
	seed(t, s, 2, 3, 5)

	if first, ok := s.firstSeq(); !ok || first != 2 {
		t.Fatalf("firstSeq = %d ok=%v", first, ok)
	}
	if prev, ok := s.prevSeq(5); !ok || prev != 3 {
		t.Fatalf("prevSeq(5) = %d ok=%v", prev, ok)
	}
	if _, ok := s.prevSeq(2); ok {
		t.Fatalf("prevSeq below first must be none")
	}
	if next, ok := s.nextSeq(4); !ok || next != 5 {
		t.Fatalf("nextSeq(4) = %d ok=%v", next, ok)
	}
	if _, ok := s.nextSeq(6); ok {
		t.Fatalf("nextSeq past last must be none")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1)
	if err := s.delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.delete(context.Background(), 1); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if s.count != 0 || s.bytes != 0 {
		t.Fatalf("accounting count=%d bytes=%d", s.count, s.bytes)
	}
}

func TestTrimTo(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1, 2, 3, 4)

	n, err := s.trimTo(context.Background(), 2)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if first, ok := s.firstSeq(); !ok || first != 3 {
		t.Fatalf("firstSeq after trim = %d ok=%v", first, ok)
	}
	if s.count != 2 {
		t.Fatalf("count = %d", s.count)
	}

	// floor below everything retained is a no-op
	if n, err := s.trimTo(context.Background(), 2); err != nil || n != 0 {
		t.Fatalf("repeat trim n=%d err=%v", n, err)
	}
}

func TestTrimOldestByBytes(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1, 2, 3)
	per := s.bytes / 3

	removed, err := s.trimOldest(context.Background(), 2*per)
	if err != nil {
		t.Fatalf("trimOldest: %v", err)
	}
	if len(removed) != 1 || removed[0] != 1 {
		t.Fatalf("removed %v", removed)
	}
	if s.bytes != 2*per || s.count != 2 {
		t.Fatalf("accounting bytes=%d count=%d", s.bytes, s.count)
	}

	// under budget is a no-op
	if removed, err := s.trimOldest(context.Background(), s.bytes); err != nil || removed != nil {
		t.Fatalf("no-op trim removed=%v err=%v", removed, err)
	}
}

func TestDumpOrdered(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 2, 1, 3)
	d := s.dump()
	if len(d) != 3 || d[0].Seq != 1 || d[1].Seq != 2 || d[2].Seq != 3 {
		t.Fatalf("dump %+v", d)
	}
}
