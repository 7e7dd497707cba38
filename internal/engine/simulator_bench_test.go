package engine

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"blip_sim/internal/event"
	"blip_sim/internal/generator"
	"blip_sim/internal/strategy"
)

// BenchmarkSimulator_Advance measures one progression-tick step of the pipeline.
func BenchmarkSimulator_Advance(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	sim := NewSimulator(DefaultSettings(), generator.New(rng), strategy.NewProbabilistic(0.3, rng), WithEpoch(testEpoch))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		sim.Advance(2 * time.Second)
	}
}

// BenchmarkSimulator_FullPipeline measures pooled clock events through the Run loop.
// Note: This benchmark includes channel overhead.
func BenchmarkSimulator_FullPipeline(b *testing.B) {
	settings := DefaultSettings()
	settings.Speed = 0
	settings.InboxSize = 1024
	rng := rand.New(rand.NewPCG(1, 2))
	sim := NewSimulator(settings, generator.New(rng), strategy.NewProbabilistic(0.3, rng), WithEpoch(testEpoch))
	inbox := sim.Inbox()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sim.Run(ctx)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ev := event.AcquireAdvanceEvent()
		ev.By = 100 * time.Millisecond
		inbox <- ev
	}

	// A command round-trip drains everything queued before it.
	sim.Accept(ctx, "missing")
}
