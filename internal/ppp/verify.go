package ppp

import "errors"

// ErrNumspace is returned when a counter has exhausted the passcode
// space available under the current key (spec §4.4).
var ErrNumspace = errors.New("ppp: counter has exhausted its passcode space")

// VerifyRange runs after every load and after any counter mutation
// (spec §4.4). K and C bounds are tautological given their fixed-width
// container types; the one substantive check is that the unsalted
// counter still lies within max_code.
func VerifyRange(s *State) error {
	if err := Calculate(s); err != nil {
		return err
	}
	u := Unsalt(s.Counter, s.Salted())
	if u.Cmp(s.MaxCode) >= 0 {
		return ErrNumspace
	}
	return nil
}
