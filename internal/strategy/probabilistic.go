package strategy

// Float64Source is the slice of math/rand/v2.Rand this package needs.
type Float64Source interface {
	Float64() float64
}

// Probabilistic matches with a fixed probability per tick.
type Probabilistic struct {
	p   float64
	rng Float64Source
}

// NewProbabilistic creates a matcher that returns Match when rng draws below p.
// p is clamped to [0, 1].
func NewProbabilistic(p float64, rng Float64Source) *Probabilistic {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &Probabilistic{p: p, rng: rng}
}

// Decide draws once per call even when the queue is empty so the random
// stream does not depend on queue contents.
func (m *Probabilistic) Decide(newQueueLen int) Decision {
	draw := m.rng.Float64()
	if newQueueLen == 0 {
		return Skip
	}
	if draw < m.p {
		return Match
	}
	return Skip
}

// Probability returns the configured match probability.
func (m *Probabilistic) Probability() float64 {
	return m.p
}
