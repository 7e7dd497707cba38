package event

import (
	"sync"
)

// advancePool recycles the clock events sent by the real-time ticker,
// which fires every tick resolution for the lifetime of the process.
//
// Usage:
//
//	ev := AcquireAdvanceEvent()
//	ev.By = 100 * time.Millisecond
//	inbox <- ev
//	// the simulator calls ReleaseAdvanceEvent(ev) after processing
var advancePool = sync.Pool{
	New: func() interface{} {
		return &AdvanceEvent{}
	},
}

// AcquireAdvanceEvent gets an AdvanceEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireAdvanceEvent() *AdvanceEvent {
	return advancePool.Get().(*AdvanceEvent)
}

// ReleaseAdvanceEvent returns an AdvanceEvent to the pool.
func ReleaseAdvanceEvent(ev *AdvanceEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.By = 0

	advancePool.Put(ev)
}

// Warmup pre-allocates a batch of advance events.
func Warmup() {
	const batchSize = 64

	evs := make([]*AdvanceEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		evs = append(evs, AcquireAdvanceEvent())
	}
	for _, ev := range evs {
		ReleaseAdvanceEvent(ev)
	}
}
