package ppp

// Warning is the informational warning bitset returned alongside a
// state; warnings never gate authentication (spec §4.5).
type Warning uint32

const (
	WarnLastCard Warning = 1 << iota
	WarnNothingLeft
	WarnRecentFailures
)

// Warnings computes the informational bitset for s. Callers must have
// run Calculate (directly or via VerifyRange) first so CurrentCard is
// current.
func Warnings(s *State) Warning {
	var w Warning
	switch s.CurrentCard.Cmp(s.LatestCard) {
	case 0:
		w |= WarnLastCard
	case 1:
		w |= WarnNothingLeft
	}
	if s.RecentFailures > 0 {
		w |= WarnRecentFailures
	}
	return w
}
