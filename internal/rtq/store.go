package rtq

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/cmeiklejohn/riak-repl/internal/storage/pebble"
)

// Entry is a retained queue item.
type Entry struct {
	Seq     uint64 `json:"seq"`
	TsMs    int64  `json:"ts_ms"`
	Payload []byte `json:"payload"`
}

// store is the ordered container of undelivered-or-unacknowledged entries,
// keyed by sequence. All methods are called under the queue mutex.
type store struct {
	db    *pebblestore.DB
	bytes int64
	count int
}

func newStore(db *pebblestore.DB) *store {
	return &store{db: db}
}

// insert stores an entry. A duplicate sequence is corrupted bookkeeping and
// surfaces as an error the queue treats as fatal.
func (s *store) insert(ctx context.Context, seq uint64, tsMs int64, payload []byte) error {
	key := keyEntry(seq)
	if _, err := s.db.Get(key); err == nil {
		return fmt.Errorf("rtq: duplicate sequence %d", seq)
	} else if !pebblestore.IsNotFound(err) {
		return err
	}
	val := encodeEntry(tsMs, payload)
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(key, val, nil); err != nil {
		return err
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return err
	}
	s.bytes += int64(len(val))
	s.count++
	return nil
}

// lookup returns the entry at seq, if retained.
func (s *store) lookup(seq uint64) (Entry, bool) {
	val, err := s.db.Get(keyEntry(seq))
	if err != nil {
		return Entry{}, false
	}
	ts, payload, ok := decodeEntry(val)
	if !ok {
		return Entry{}, false
	}
	return Entry{Seq: seq, TsMs: ts, Payload: payload}, true
}

// firstSeq returns the lowest retained sequence.
func (s *store) firstSeq() (uint64, bool) {
	low, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, false
	}
	defer iter.Close()
	if !iter.First() {
		return 0, false
	}
	return entrySeq(iter.Key()), true
}

// prevSeq returns the greatest retained sequence strictly less than seq.
func (s *store) prevSeq(seq uint64) (uint64, bool) {
	low, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, false
	}
	defer iter.Close()
	if !iter.SeekLT(keyEntry(seq)) {
		return 0, false
	}
	return entrySeq(iter.Key()), true
}

// nextSeq returns the lowest retained sequence greater than or equal to seq.
func (s *store) nextSeq(seq uint64) (uint64, bool) {
	low, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, false
	}
	defer iter.Close()
	if !iter.SeekGE(keyEntry(seq)) {
		return 0, false
	}
	return entrySeq(iter.Key()), true
}

// delete removes the entry at seq if present; no-op otherwise.
func (s *store) delete(ctx context.Context, seq uint64) error {
	key := keyEntry(seq)
	val, err := s.db.Get(key)
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := s.db.Delete(key); err != nil {
		return err
	}
	s.bytes -= int64(len(val))
	s.count--
	return nil
}

// trimTo deletes all entries with sequence <= floor, scanning from the lowest
// key upward, committing deletes as one batch. Returns the number removed.
func (s *store) trimTo(ctx context.Context, floor uint64) (int, error) {
	low, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	b := s.db.NewBatch()
	defer b.Close()
	removed := 0
	var freed int64
	for ok := iter.First(); ok; ok = iter.Next() {
		if entrySeq(iter.Key()) > floor {
			break
		}
		if err := b.Delete(iter.Key(), nil); err != nil {
			return removed, err
		}
		freed += int64(len(iter.Value()))
		removed++
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}
	s.bytes -= freed
	s.count -= removed
	return removed, nil
}

// trimOldest deletes oldest entries until retained bytes <= maxBytes.
// Returns the removed sequences in ascending order.
func (s *store) trimOldest(ctx context.Context, maxBytes int64) ([]uint64, error) {
	if s.bytes <= maxBytes {
		return nil, nil
	}
	low, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	b := s.db.NewBatch()
	defer b.Close()
	var removed []uint64
	var freed int64
	for ok := iter.First(); ok && s.bytes-freed > maxBytes; ok = iter.Next() {
		if err := b.Delete(iter.Key(), nil); err != nil {
			return nil, err
		}
		freed += int64(len(iter.Value()))
		removed = append(removed, entrySeq(iter.Key()))
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := s.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	s.bytes -= freed
	s.count -= len(removed)
	return removed, nil
}

// dump returns all retained entries in sequence order.
func (s *store) dump() []Entry {
	low, hi := entryBounds()
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil
	}
	defer iter.Close()

	out := make([]Entry, 0, s.count)
	for ok := iter.First(); ok; ok = iter.Next() {
		ts, payload, okDec := decodeEntry(iter.Value())
		if !okDec {
			continue
		}
		out = append(out, Entry{Seq: entrySeq(iter.Key()), TsMs: ts, Payload: payload})
	}
	return out
}
