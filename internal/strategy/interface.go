package strategy

// Decision is what an AutoMatcher decides on an auto-match tick.
type Decision int

const (
	Skip  Decision = iota
	Match // Move the oldest New order into Escrow
)

// String returns the string representation of Decision
func (d Decision) String() string {
	switch d {
	case Skip:
		return "SKIP"
	case Match:
		return "MATCH"
	default:
		return "UNKNOWN"
	}
}

// AutoMatcher is consulted by the simulator on every auto-match tick.
// It is called synchronously from the simulator goroutine.
type AutoMatcher interface {
	// Decide is called with the current length of the New queue.
	Decide(newQueueLen int) Decision
}

// AutoMatcherFunc adapts a plain function to AutoMatcher.
type AutoMatcherFunc func(newQueueLen int) Decision

func (f AutoMatcherFunc) Decide(newQueueLen int) Decision {
	return f(newQueueLen)
}

// Always returns an AutoMatcher that always gives d.
func Always(d Decision) AutoMatcher {
	return AutoMatcherFunc(func(int) Decision { return d })
}
