package flow

// sequencer walks the fixed permission order. It only tracks position;
// probing and persistence stay with the Flow so the transition rules are
// testable on their own.
type sequencer struct {
	idx     int
	started bool
}

func newSequencer() *sequencer {
	return &sequencer{}
}

// start positions the sequencer on the first permission.
func (s *sequencer) start() Permission {
	s.idx = 0
	s.started = true
	return permissionOrder[0]
}

// current returns the pending permission, or false when idle or done.
func (s *sequencer) current() (Permission, bool) {
	if !s.started || s.idx >= len(permissionOrder) {
		return "", false
	}
	return permissionOrder[s.idx], true
}

// advance moves to the next step and reports whether the sequence is done.
// A step always advances, whatever its outcome was.
func (s *sequencer) advance() bool {
	if !s.started {
		return false
	}
	s.idx++
	return s.idx >= len(permissionOrder)
}
