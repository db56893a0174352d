package ppp

import (
	"errors"

	"github.com/imclab/otpasswd/internal/bignum"
)

// ErrConcurrentModification is returned by Decrement when the freshly
// loaded counter doesn't match what the caller expects, meaning another
// process advanced it in the meantime (spec §4.7, §8 property 4).
var ErrConcurrentModification = errors.New("ppp: counter was concurrently modified")

// ErrSkipBackwards is returned when Skip is asked to move the counter
// backwards.
var ErrSkipBackwards = errors.New("ppp: cannot skip to an earlier counter")

// Increment advances s's counter by one and re-verifies the range,
// returning the pre-increment counter value. On success s.Counter holds
// the new value; on overflow or a range failure it is left unchanged
// (spec §4.7).
func Increment(s *State) (prior bignum.Uint128, err error) {
	prior = s.Counter
	next, overflow := s.Counter.AddUint64(1)
	if overflow {
		return prior, ErrNumspace
	}
	s.Counter = next
	if err := VerifyRange(s); err != nil {
		s.Counter = prior
		return prior, err
	}
	return prior, nil
}

// Decrement rolls back a counter increment that turned out to be
// unwarranted (e.g. a late authentication failure discovered after the
// optimistic increment already persisted). freshCounter is what a fresh
// load of the on-disk state shows; callerCounter is the value the caller
// held before its own increment. The rollback only proceeds if
// freshCounter is exactly callerCounter+1 — i.e. nothing else raced in
// between — otherwise it refuses rather than silently stepping on a
// concurrent increment (spec §4.7, §8 property 4).
func Decrement(freshCounter, callerCounter bignum.Uint128) (bignum.Uint128, error) {
	want, overflow := callerCounter.AddUint64(1)
	if overflow || freshCounter.Cmp(want) != 0 {
		return freshCounter, ErrConcurrentModification
	}
	result, _ := freshCounter.SubUint64(1)
	return result, nil
}

// Skip moves s's counter forward to newCounter, refusing to move it
// backwards (spec §4.8). Policy gating (the `skipping` option) is the
// caller's responsibility; Skip only enforces the engine-level
// invariant.
func Skip(s *State, newCounter bignum.Uint128) error {
	if newCounter.Cmp(s.Counter) < 0 {
		return ErrSkipBackwards
	}
	prior := s.Counter
	s.Counter = newCounter
	if err := VerifyRange(s); err != nil {
		s.Counter = prior
		return err
	}
	s.Flags |= FlagSkip
	return nil
}

// UpdateLatestCard raises s's latest-printed-card marker to n if n is
// higher than the current value (spec §4.8). Policy gating (whether the
// user may print) is the caller's responsibility.
func UpdateLatestCard(s *State, n bignum.Uint128) {
	if n.Cmp(s.LatestCard) > 0 {
		s.LatestCard = n
	}
}
