package internal

import "time"

// applyPacing sleeps off any time remaining in the frame budget and folds
// the sleep's own error into next frame's carry: a frame that ran short
// sleeps out the remainder (plus whatever the previous frame's sleep
// undershot or overshot by), and PauseRemainingMicroseconds is observable
// only for the duration of that sleep.
func (s *FrameScheduler) applyPacing(elapsed time.Duration) {
	target := s.frameLength
	if target <= 0 {
		s.carry = 0
		s.pauseUs.Store(0)
		return
	}

	remaining := target - elapsed
	budget := remaining + s.carry
	if budget < 0 {
		budget = 0
	}

	s.pauseUs.Store(budget.Microseconds())
	slept := s.sleep(budget)
	s.pauseUs.Store(0)

	newCarry := remaining - slept
	lo, hi := -target, target
	if newCarry < lo {
		newCarry = lo
	} else if newCarry > hi {
		newCarry = hi
	}
	s.carry = newCarry
}
