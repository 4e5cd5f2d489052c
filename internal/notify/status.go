package notify

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the status line needs.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock schedules on the runtime timer.
var SystemClock Clock = realClock{}

// StatusLine holds a message that clears itself after a fixed delay.
//
// By default each Show cancels the clear scheduled by the previous one, so a
// message always stays up for the full delay. With keepStale set, earlier
// timers still fire and clear whatever message is current at that moment.
type StatusLine struct {
	mu        sync.Mutex
	clock     Clock
	delay     time.Duration
	keepStale bool

	text  string
	timer Timer
	gen   uint64
}

// NewStatusLine returns an empty status line. A nil clock uses SystemClock.
func NewStatusLine(clock Clock, delay time.Duration, keepStale bool) *StatusLine {
	if clock == nil {
		clock = SystemClock
	}
	return &StatusLine{clock: clock, delay: delay, keepStale: keepStale}
}

// Show replaces the current message and schedules its removal.
func (s *StatusLine) Show(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.keepStale && s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.text = msg
	s.timer = s.clock.AfterFunc(s.delay, func() { s.clear(gen) })
}

func (s *StatusLine) clear(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a stopped timer may already have been running
	if !s.keepStale && gen != s.gen {
		return
	}
	s.text = ""
}

// Text returns the message currently shown, or "".
func (s *StatusLine) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}
