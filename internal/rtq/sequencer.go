package rtq

// sequencer issues strictly increasing sequence numbers. The first issued
// value is 1. It is owned by the queue and only touched under its mutex.
type sequencer struct {
	last uint64
}

func (s *sequencer) next() uint64 {
	s.last++
	return s.last
}

// current returns the last assigned sequence (0 if none issued yet).
func (s *sequencer) current() uint64 { return s.last }
